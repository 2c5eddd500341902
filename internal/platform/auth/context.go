package auth

import (
	"context"
	"fmt"
)

// Role is the closed set of staff roles known to the system. Permission sets
// are stored per role, so anything outside this enumeration is rejected before
// it reaches the store.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleDermatologist Role = "dermatologist"
	RoleReceptionist  Role = "receptionist"
)

// Roles lists every valid role in a stable order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleDermatologist, RoleReceptionist}
}

// ParseRole validates a raw role string against the closed enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDermatologist, RoleReceptionist:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

func (r Role) String() string { return string(r) }

// User is the authenticated caller attached to the request context by the
// authentication middleware. ID is the subject claim from the upstream issuer.
type User struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

type contextKey string

const userKey contextKey = "auth_user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or nil when the request is
// unauthenticated.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}
