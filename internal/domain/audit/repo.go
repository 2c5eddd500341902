package audit

import (
	"context"
	"time"
)

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error)
	ListRange(ctx context.Context, start, end *time.Time) ([]*Entry, error)
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}
