package rbac

import (
	"context"

	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
)

type PermissionRepository interface {
	ListActive(ctx context.Context) ([]*Permission, error)
	ActiveNames(ctx context.Context) (map[string]bool, error)
	Count(ctx context.Context) (int, error)
	CreateBatch(ctx context.Context, perms []*Permission) error
}

type RolePermissionRepository interface {
	ListActive(ctx context.Context) ([]*RolePermission, error)
	GetByRole(ctx context.Context, role auth.Role) (*RolePermission, error)
	Upsert(ctx context.Context, rp *RolePermission) error
}
