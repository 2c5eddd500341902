package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

// Account statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

func ValidStatus(s string) error {
	if s == StatusActive || s == StatusInactive {
		return nil
	}
	return fmt.Errorf("invalid user status %q", s)
}

// User is a staff account. Credentials live with the upstream identity
// provider; this record carries profile and role only.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      auth.Role `json:"role"`
	Status    string    `json:"status"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
