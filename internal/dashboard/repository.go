package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository aggregates the raw counts behind an overview.
type StatsRepository interface {
	ClientStats(ctx context.Context, tenantID int64) (ClientStats, error)
	OpenRequests(ctx context.Context, tenantID int64) (int, error)
	FilingsDueWithin(ctx context.Context, tenantID int64, days int) (int, error)
	DocsExpiringWithin(ctx context.Context, tenantID int64, days int) (int, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

// ClientStats counts active clients per tier using each client's most
// recent score snapshot. Clients never scored count as red.
func (r *statsRepository) ClientStats(ctx context.Context, tenantID int64) (ClientStats, error) {
	const query = `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE latest.level = 'green') AS green,
		       COUNT(*) FILTER (WHERE latest.level = 'amber') AS amber,
		       COUNT(*) FILTER (WHERE latest.level = 'red' OR latest.level IS NULL) AS red
		  FROM clients c
		  LEFT JOIN LATERAL (
			SELECT s.level FROM compliance_scores s
			 WHERE s.tenant_id = c.tenant_id AND s.client_id = c.id
			 ORDER BY s.calculated_at DESC LIMIT 1
		  ) latest ON TRUE
		 WHERE c.tenant_id = $1 AND c.status = 'active'`

	var stats ClientStats
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(&stats.Total, &stats.Green, &stats.Amber, &stats.Red)
	return stats, err
}

func (r *statsRepository) OpenRequests(ctx context.Context, tenantID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM service_requests WHERE tenant_id = $1 AND status IN ('open', 'in_progress')`,
		tenantID).Scan(&count)
	return count, err
}

func (r *statsRepository) FilingsDueWithin(ctx context.Context, tenantID int64, days int) (int, error) {
	if days < 1 {
		days = 1
	}
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM filings
		 WHERE tenant_id = $1
		   AND status NOT IN ('submitted', 'accepted')
		   AND due_date >= NOW()
		   AND due_date <= NOW() + make_interval(days => $2)`,
		tenantID, days).Scan(&count)
	return count, err
}

func (r *statsRepository) DocsExpiringWithin(ctx context.Context, tenantID int64, days int) (int, error) {
	if days < 1 {
		days = 1
	}
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM documents d
		  JOIN LATERAL (
			SELECT v.expires_at FROM document_versions v
			 WHERE v.document_id = d.id
			 ORDER BY v.version_no DESC LIMIT 1
		  ) cur ON TRUE
		 WHERE d.tenant_id = $1
		   AND cur.expires_at IS NOT NULL
		   AND cur.expires_at > NOW()
		   AND cur.expires_at <= NOW() + make_interval(days => $2)`,
		tenantID, days).Scan(&count)
	return count, err
}
