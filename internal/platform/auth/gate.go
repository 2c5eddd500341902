package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// PermissionSource resolves the stored permission set for a role. A role with
// no stored record must yield an empty set and a nil error; an error return
// means the store itself failed and the gate fails closed.
type PermissionSource interface {
	PermissionsForRole(ctx context.Context, role Role) ([]string, error)
}

// SecurityAuditor records permission denials. Implementations must never
// propagate their own failures; the gate does not inspect any result.
type SecurityAuditor interface {
	LogPermissionDenied(ctx context.Context, user *User, path string, missing []string)
}

// Gate builds permission-checking middleware. The permission set is re-read
// from the source on every request, so a revocation takes effect on the next
// request with no stale cache in between.
type Gate struct {
	source  PermissionSource
	auditor SecurityAuditor
}

func NewGate(source PermissionSource, auditor SecurityAuditor) *Gate {
	return &Gate{source: source, auditor: auditor}
}

// RequirePermission passes when the caller's role holds the permission.
func (g *Gate) RequirePermission(id string) echo.MiddlewareFunc {
	return g.require(func(held map[string]bool) []string {
		if held[id] {
			return nil
		}
		return []string{id}
	})
}

// RequireAnyPermission passes when the caller's role holds at least one of ids.
func (g *Gate) RequireAnyPermission(ids ...string) echo.MiddlewareFunc {
	return g.require(func(held map[string]bool) []string {
		for _, id := range ids {
			if held[id] {
				return nil
			}
		}
		return ids
	})
}

// RequireAllPermissions passes when the caller's role holds every one of ids.
func (g *Gate) RequireAllPermissions(ids ...string) echo.MiddlewareFunc {
	return g.require(func(held map[string]bool) []string {
		var missing []string
		for _, id := range ids {
			if !held[id] {
				missing = append(missing, id)
			}
		}
		return missing
	})
}

// require wraps the shared check: resolve the caller, load the role's
// permission set, evaluate, and on denial emit a security audit event before
// rejecting. An unauthenticated request is a precondition failure and is not
// audited.
func (g *Gate) require(missingFn func(held map[string]bool) []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			user := UserFromContext(ctx)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			perms, err := g.source.PermissionsForRole(ctx, user.Role)
			if err != nil {
				// Fail closed, but distinguish a broken store from a denial.
				return echo.NewHTTPError(http.StatusInternalServerError, "permission check failed")
			}

			held := make(map[string]bool, len(perms))
			for _, p := range perms {
				held[p] = true
			}

			missing := missingFn(held)
			if len(missing) == 0 {
				return next(c)
			}

			if g.auditor != nil {
				g.auditor.LogPermissionDenied(ctx, user, c.Request().URL.Path, missing)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				"Permission denied: "+strings.Join(missing, ", "))
		}
	}
}
