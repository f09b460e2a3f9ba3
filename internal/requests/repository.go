package requests

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("request not found")

type Repository interface {
	Get(ctx context.Context, tenantID, id int64) (*Request, error)
	List(ctx context.Context, req ListRequestsRequest) ([]Request, int, error)
	CountOpen(ctx context.Context, tenantID int64) (int, error)
	Create(ctx context.Context, request Request) (int64, error)
	Assign(ctx context.Context, tenantID, id, assigneeID int64) error
	SetStatus(ctx context.Context, tenantID, id int64, status string, resolved bool) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const requestColumns = `id, tenant_id, client_id, subject, body, priority, status, assignee_id, resolved_at, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, tenantID, id int64) (*Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_requests WHERE tenant_id = $1 AND id = $2`, requestColumns)
	request, err := scanRequest(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) List(ctx context.Context, req ListRequestsRequest) ([]Request, int, error) {
	conditions := []string{"tenant_id = $1"}
	args := []interface{}{req.TenantID}
	argPos := 2

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.AssigneeID != nil {
		conditions = append(conditions, fmt.Sprintf("assignee_id = $%d", argPos))
		args = append(args, *req.AssigneeID)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM service_requests "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM service_requests %s
		ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END, created_at
		LIMIT $%d OFFSET $%d`, requestColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, request)
	}
	return list, total, rows.Err()
}

func (r *repository) CountOpen(ctx context.Context, tenantID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM service_requests WHERE tenant_id = $1 AND status IN ('open', 'in_progress')`,
		tenantID).Scan(&count)
	return count, err
}

func (r *repository) Create(ctx context.Context, request Request) (int64, error) {
	const query = `
		INSERT INTO service_requests (tenant_id, client_id, subject, body, priority, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		request.TenantID, request.ClientID, request.Subject, request.Body,
		request.Priority, request.Status, request.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Assign(ctx context.Context, tenantID, id, assigneeID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE service_requests SET assignee_id = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		assigneeID, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, tenantID, id int64, status string, resolved bool) error {
	query := `UPDATE service_requests SET status = $1, updated_at = NOW()`
	if resolved {
		query += `, resolved_at = NOW()`
	} else {
		query += `, resolved_at = NULL`
	}
	query += ` WHERE tenant_id = $2 AND id = $3`

	tag, err := r.db.Exec(ctx, query, status, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var q Request
	err := row.Scan(&q.ID, &q.TenantID, &q.ClientID, &q.Subject, &q.Body, &q.Priority,
		&q.Status, &q.AssigneeID, &q.ResolvedAt, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}
