package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)
	Update(ctx context.Context, p *Patient) error
	UpdateMedicalHistory(ctx context.Context, id uuid.UUID, h *MedicalHistory) error
	Delete(ctx context.Context, id uuid.UUID) error
}
