package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

// Auditor records administrative permission changes. The audit service
// satisfies this; it may be nil when auditing is not wired (CLI seeding).
type Auditor interface {
	LogSystem(ctx context.Context, actor *auth.User, action, details string, metadata map[string]interface{})
}

type Service struct {
	perms   PermissionRepository
	roles   RolePermissionRepository
	auditor Auditor
	log     zerolog.Logger
}

func NewService(perms PermissionRepository, roles RolePermissionRepository, auditor Auditor, log zerolog.Logger) *Service {
	return &Service{perms: perms, roles: roles, auditor: auditor, log: log}
}

func (s *Service) ListPermissions(ctx context.Context) ([]*Permission, error) {
	return s.perms.ListActive(ctx)
}

func (s *Service) ListRolePermissions(ctx context.Context) ([]*RolePermission, error) {
	return s.roles.ListActive(ctx)
}

func (s *Service) GetRolePermission(ctx context.Context, role auth.Role) (*RolePermission, error) {
	return s.roles.GetByRole(ctx, role)
}

// SetRolePermissions replaces the role's permission set with exactly the
// given names. Validation is all or nothing: if any name does not match an
// active permission, nothing is written and the error lists every unknown
// name so the caller can fix them in one round trip.
func (s *Service) SetRolePermissions(ctx context.Context, actor *auth.User, role auth.Role, permissions []string, description string) (*RolePermission, error) {
	if permissions == nil {
		// A missing or null body field still means "replace with the
		// empty set", and the column is NOT NULL.
		permissions = []string{}
	}

	known, err := s.perms.ActiveNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("load permission catalog: %w", err)
	}
	var unknown []string
	for _, name := range permissions {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, &UnknownPermissionsError{Names: unknown}
	}

	rp := &RolePermission{
		Role:        role,
		Permissions: permissions,
		Description: description,
	}
	if err := s.roles.Upsert(ctx, rp); err != nil {
		return nil, fmt.Errorf("save role permissions: %w", err)
	}

	if s.auditor != nil {
		s.auditor.LogSystem(ctx, actor, "SETTINGS_UPDATED",
			fmt.Sprintf("Updated permissions for role %s (%d permissions)", role, len(permissions)),
			map[string]interface{}{
				"role":             string(role),
				"permissions":      permissions,
				"permission_count": len(permissions),
			})
	}
	return rp, nil
}

// InitializeDefaults seeds the permission catalog and the per-role default
// sets. It refuses to run against a non-empty catalog so a repeat call can
// never clobber administrative edits.
func (s *Service) InitializeDefaults(ctx context.Context, actor *auth.User) (int, error) {
	count, err := s.perms.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count permissions: %w", err)
	}
	if count > 0 {
		return 0, ErrAlreadyInitialized
	}

	catalog := make([]*Permission, 0, len(defaultCatalog))
	for _, entry := range defaultCatalog {
		catalog = append(catalog, &Permission{
			Name:        entry.name,
			DisplayName: entry.displayName,
			Module:      entry.module,
			Active:      true,
		})
	}
	if err := s.perms.CreateBatch(ctx, catalog); err != nil {
		return 0, fmt.Errorf("seed permission catalog: %w", err)
	}

	for role, set := range DefaultRoleSets() {
		rp := &RolePermission{
			Role:        role,
			Permissions: set,
			Description: fmt.Sprintf("Default permissions for %s", role),
		}
		if err := s.roles.Upsert(ctx, rp); err != nil {
			return 0, fmt.Errorf("seed role %s: %w", role, err)
		}
	}

	s.log.Info().Int("permissions", len(catalog)).Msg("default permissions initialized")
	if s.auditor != nil {
		s.auditor.LogSystem(ctx, actor, "SETTINGS_UPDATED",
			fmt.Sprintf("Initialized default permissions (%d permissions, %d roles)", len(catalog), len(auth.Roles())),
			map[string]interface{}{
				"permission_count": len(catalog),
				"role_count":       len(auth.Roles()),
			})
	}
	return len(catalog), nil
}

// PermissionsForRole resolves the stored set for the role. A role with no
// stored binding has an empty set, not an error.
func (s *Service) PermissionsForRole(ctx context.Context, role auth.Role) ([]string, error) {
	rp, err := s.roles.GetByRole(ctx, role)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rp.Permissions, nil
}

func (s *Service) HasPermission(ctx context.Context, role auth.Role, name string) (bool, error) {
	rp, err := s.roles.GetByRole(ctx, role)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rp.Has(name), nil
}
