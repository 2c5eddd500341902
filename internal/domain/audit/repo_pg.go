package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alimaster30/psc-sub000/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const entryCols = `id, user_id, user_email, user_name, user_role, action, resource,
	resource_id, details, metadata, severity, ip_address, user_agent, success,
	error_message, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.UserEmail, &e.UserName, &e.UserRole,
		&e.Action, &e.Resource, &e.ResourceID, &e.Details, &e.Metadata,
		&e.Severity, &e.IPAddress, &e.UserAgent, &e.Success,
		&e.ErrorMessage, &e.CreatedAt)
	return &e, err
}

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_log (id, user_id, user_email, user_name, user_role,
			action, resource, resource_id, details, metadata, severity,
			ip_address, user_agent, success, error_message, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		e.ID, e.UserID, e.UserEmail, e.UserName, e.UserRole,
		e.Action, e.Resource, e.ResourceID, e.Details, e.Metadata, e.Severity,
		e.IPAddress, e.UserAgent, e.Success, e.ErrorMessage, e.CreatedAt)
	return err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	query := `SELECT ` + entryCols + ` FROM audit_log WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM audit_log WHERE 1=1`
	var args []interface{}
	idx := 1

	addClause := func(clause string, arg interface{}) {
		cond := fmt.Sprintf(clause, idx)
		query += cond
		countQuery += cond
		args = append(args, arg)
		idx++
	}

	if f.Action != "" {
		addClause(` AND action = $%d`, f.Action)
	}
	if f.Severity != "" {
		addClause(` AND severity = $%d`, f.Severity)
	}
	if f.Resource != "" {
		addClause(` AND resource = $%d`, f.Resource)
	}
	if f.UserID != "" {
		addClause(` AND user_id = $%d`, f.UserID)
	}
	if f.StartDate != nil {
		addClause(` AND created_at >= $%d`, *f.StartDate)
	}
	if f.EndDate != nil {
		addClause(` AND created_at <= $%d`, *f.EndDate)
	}
	if f.Search != "" {
		addClause(` AND (details ILIKE '%%' || $%d || '%%'
			OR user_name ILIKE '%%' || $%[1]d || '%%'
			OR user_email ILIKE '%%' || $%[1]d || '%%')`, f.Search)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListRange(ctx context.Context, start, end *time.Time) ([]*Entry, error) {
	query := `SELECT ` + entryCols + ` FROM audit_log WHERE 1=1`
	var args []interface{}
	idx := 1
	if start != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, idx)
		args = append(args, *start)
		idx++
	}
	if end != nil {
		query += fmt.Sprintf(` AND created_at <= $%d`, idx)
		args = append(args, *end)
		idx++
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *repoPG) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	st := &Stats{
		BySeverity: make(map[string]int),
		ByAction:   make(map[string]int),
		ByResource: make(map[string]int),
	}

	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE NOT success),
		       COUNT(DISTINCT user_id) FILTER (WHERE user_id <> '')
		FROM audit_log WHERE created_at >= $1`, since).
		Scan(&st.Total, &st.Failed, &st.DistinctUsers)
	if err != nil {
		return nil, err
	}

	groupBy := func(col string, dest map[string]int) error {
		rows, err := r.conn(ctx).Query(ctx,
			`SELECT `+col+`, COUNT(*) FROM audit_log WHERE created_at >= $1 GROUP BY `+col, since)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				return err
			}
			dest[key] = n
		}
		return rows.Err()
	}
	if err := groupBy("severity", st.BySeverity); err != nil {
		return nil, err
	}
	if err := groupBy("action", st.ByAction); err != nil {
		return nil, err
	}
	if err := groupBy("resource", st.ByResource); err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+entryCols+` FROM audit_log
		WHERE created_at >= $1 AND severity = $2
		ORDER BY created_at DESC LIMIT 10`, since, SeverityCritical)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		st.RecentCritical = append(st.RecentCritical, e)
	}
	return st, rows.Err()
}
