package rbac

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

var (
	// ErrNotFound is returned when a role has no stored permission set.
	ErrNotFound = errors.New("role permissions not found")
	// ErrAlreadyInitialized is returned when default seeding is attempted
	// after the permission catalog has been populated.
	ErrAlreadyInitialized = errors.New("permissions already initialized")
)

// UnknownPermissionsError reports every permission identifier that failed
// catalog validation, so the caller can correct all of them in one round trip.
type UnknownPermissionsError struct {
	Names []string
}

func (e *UnknownPermissionsError) Error() string {
	return fmt.Sprintf("unknown permissions: %s", strings.Join(e.Names, ", "))
}

// Permission is a named capability in the catalog. Name is the stable
// identifier referenced by RolePermission sets (e.g. "patient_view").
type Permission struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Description string    `db:"description" json:"description"`
	Module      string    `db:"module" json:"module"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RolePermission binds one role to its permission set. Permissions hold
// Permission.Name values by loose reference: they are validated against the
// catalog when written, never when read, so catalog changes cannot
// retroactively break a stored grant.
type RolePermission struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Role        auth.Role `db:"role" json:"role"`
	Permissions []string  `db:"permissions" json:"permissions"`
	Description string    `db:"description" json:"description"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Has reports whether the set contains the permission.
func (rp *RolePermission) Has(name string) bool {
	for _, p := range rp.Permissions {
		if p == name {
			return true
		}
	}
	return false
}
