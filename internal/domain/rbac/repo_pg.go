package rbac

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alimaster30/psc-sub000/internal/platform/auth"
	"github.com/Alimaster30/psc-sub000/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type permissionRepoPG struct{ pool *pgxpool.Pool }

func NewPermissionRepoPG(pool *pgxpool.Pool) PermissionRepository {
	return &permissionRepoPG{pool: pool}
}

func (r *permissionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const permissionCols = `id, name, display_name, description, module, active, created_at, updated_at`

func scanPermission(row pgx.Row) (*Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Name, &p.DisplayName, &p.Description,
		&p.Module, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *permissionRepoPG) ListActive(ctx context.Context) ([]*Permission, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+permissionCols+` FROM permission WHERE active ORDER BY module, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *permissionRepoPG) ActiveNames(ctx context.Context) (map[string]bool, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT name FROM permission WHERE active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

func (r *permissionRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM permission`).Scan(&n)
	return n, err
}

func (r *permissionRepoPG) CreateBatch(ctx context.Context, perms []*Permission) error {
	for _, p := range perms {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO permission (id, name, display_name, description, module, active)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			p.ID, p.Name, p.DisplayName, p.Description, p.Module, p.Active)
		if err != nil {
			return err
		}
	}
	return nil
}

type rolePermissionRepoPG struct{ pool *pgxpool.Pool }

func NewRolePermissionRepoPG(pool *pgxpool.Pool) RolePermissionRepository {
	return &rolePermissionRepoPG{pool: pool}
}

func (r *rolePermissionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const rolePermissionCols = `id, role, permissions, description, active, created_at, updated_at`

func scanRolePermission(row pgx.Row) (*RolePermission, error) {
	var rp RolePermission
	err := row.Scan(&rp.ID, &rp.Role, &rp.Permissions, &rp.Description,
		&rp.Active, &rp.CreatedAt, &rp.UpdatedAt)
	return &rp, err
}

func (r *rolePermissionRepoPG) ListActive(ctx context.Context) ([]*RolePermission, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+rolePermissionCols+` FROM role_permission WHERE active ORDER BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*RolePermission
	for rows.Next() {
		rp, err := scanRolePermission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rp)
	}
	return items, rows.Err()
}

func (r *rolePermissionRepoPG) GetByRole(ctx context.Context, role auth.Role) (*RolePermission, error) {
	rp, err := scanRolePermission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rolePermissionCols+` FROM role_permission WHERE role = $1 AND active`, role))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rp, nil
}

// Upsert replaces the role's stored permission set wholesale. Last writer
// wins; there is no version check.
func (r *rolePermissionRepoPG) Upsert(ctx context.Context, rp *RolePermission) error {
	if rp.ID == uuid.Nil {
		rp.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO role_permission (id, role, permissions, description, active)
		VALUES ($1,$2,$3,$4,TRUE)
		ON CONFLICT (role) DO UPDATE
		SET permissions = EXCLUDED.permissions,
		    description = EXCLUDED.description,
		    active = TRUE,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		rp.ID, rp.Role, rp.Permissions, rp.Description).
		Scan(&rp.ID, &rp.CreatedAt, &rp.UpdatedAt)
}
