package filings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianhq/meridian/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("filing not found")
	ErrAlreadyExists = errors.New("filing already exists")
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, tenantID, id int64) (*Filing, error)
	List(ctx context.Context, req ListFilingsRequest) ([]Filing, int, error)
	ListDueWithin(ctx context.Context, tenantID int64, days int) ([]Filing, error)
	Create(ctx context.Context, filing Filing) (int64, error)
	Update(ctx context.Context, tenantID, id int64, updates map[string]interface{}) error
	MarkSubmitted(ctx context.Context, tenantID, id, submittedBy int64, reference *string) error
	MarkAccepted(ctx context.Context, tenantID, id int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const filingColumns = `id, tenant_id, client_id, kind, period, due_date, status, submitted_at, submitted_by, reference, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, tenantID, id int64) (*Filing, error) {
	query := fmt.Sprintf(`SELECT %s FROM filings WHERE tenant_id = $1 AND id = $2`, filingColumns)
	filing, err := scanFiling(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &filing, nil
}

func (r *repository) List(ctx context.Context, req ListFilingsRequest) ([]Filing, int, error) {
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
	if req.Overdue {
		conditions = append(conditions, "due_date < NOW() AND status NOT IN ('submitted', 'accepted')")
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM filings "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM filings %s ORDER BY due_date LIMIT $%d OFFSET $%d`,
		filingColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Filing
	for rows.Next() {
		filing, err := scanFiling(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, filing)
	}
	return list, total, rows.Err()
}

// ListDueWithin returns unsubmitted filings due inside the window,
// used for reminder jobs and the dashboard.
func (r *repository) ListDueWithin(ctx context.Context, tenantID int64, days int) ([]Filing, error) {
	if days < 1 {
		days = 1
	}
	query := fmt.Sprintf(`
		SELECT %s FROM filings
		 WHERE tenant_id = $1
		   AND status NOT IN ('submitted', 'accepted')
		   AND due_date >= NOW()
		   AND due_date <= NOW() + make_interval(days => $2)
		 ORDER BY due_date`, filingColumns)

	rows, err := r.db.Query(ctx, query, tenantID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Filing
	for rows.Next() {
		filing, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, filing)
	}
	return list, rows.Err()
}

func (r *repository) Create(ctx context.Context, filing Filing) (int64, error) {
	const query = `
		INSERT INTO filings (tenant_id, client_id, kind, period, due_date, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		filing.TenantID, filing.ClientID, filing.Kind, filing.Period,
		filing.DueDate, filing.Status, filing.Notes, filing.CreatedBy,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, tenantID, id int64, updates map[string]interface{}) error {
	query := "UPDATE filings SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"kind", "period", "due_date", "notes"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE tenant_id = $%d AND id = $%d AND status NOT IN ('submitted', 'accepted')", argPos, argPos+1)
	args = append(args, tenantID, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSubmitted stamps the submission atomically. The status guard
// makes a double submit a no-op that surfaces as not found.
func (r *repository) MarkSubmitted(ctx context.Context, tenantID, id, submittedBy int64, reference *string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE filings
		    SET status = $1, submitted_at = NOW(), submitted_by = $2, reference = $3, updated_at = NOW()
		  WHERE tenant_id = $4 AND id = $5 AND status IN ($6, $7)`,
		StatusSubmitted, submittedBy, reference, tenantID, id, StatusDraft, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) MarkAccepted(ctx context.Context, tenantID, id int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE filings SET status = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3 AND status = $4`,
		StatusAccepted, tenantID, id, StatusSubmitted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFiling(row pgx.Row) (Filing, error) {
	var f Filing
	err := row.Scan(&f.ID, &f.TenantID, &f.ClientID, &f.Kind, &f.Period, &f.DueDate,
		&f.Status, &f.SubmittedAt, &f.SubmittedBy, &f.Reference, &f.Notes,
		&f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}
