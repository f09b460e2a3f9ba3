package jobs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Directory resolves the tenants and recipients sweep jobs fan out to.
type Directory interface {
	TenantIDs(ctx context.Context) ([]int64, error)
	OfficerEmails(ctx context.Context, tenantID int64) ([]string, error)
}

// PGDirectory implements Directory against PostgreSQL.
type PGDirectory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

func (d *PGDirectory) TenantIDs(ctx context.Context) ([]int64, error) {
	rows, err := d.pool.Query(ctx, `SELECT id FROM tenants WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// OfficerEmails returns active compliance officers and admins, the
// audience for deadline and expiry reminders.
func (d *PGDirectory) OfficerEmails(ctx context.Context, tenantID int64) ([]string, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT email FROM users WHERE tenant_id = $1 AND is_active AND role IN ('admin', 'compliance_officer') ORDER BY email`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

var _ Directory = (*PGDirectory)(nil)
