package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianhq/meridian/internal/platform/db"
)

// DefaultExpiryWindow is the lookahead used to flag expiring documents.
const DefaultExpiryWindow = 30 * 24 * time.Hour

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db     dbtx
	pool   *pgxpool.Pool
	window time.Duration
}

// NewRepository builds the Postgres-backed scoring repository. A zero
// window falls back to DefaultExpiryWindow.
func NewRepository(pool *pgxpool.Pool, window time.Duration) Repository {
	if window <= 0 {
		window = DefaultExpiryWindow
	}
	return &repository{db: pool, pool: pool, window: window}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool, window: r.window})
	})
}

// Counts derives the three raw signals for one client.
func (r *repository) Counts(ctx context.Context, tenantID, clientID int64) (Counts, error) {
	const query = `
		SELECT
			(SELECT COUNT(*)
			   FROM document_categories c
			  WHERE c.tenant_id = $1
			    AND c.required
			    AND NOT EXISTS (
					SELECT 1 FROM documents d
					 WHERE d.tenant_id = $1 AND d.client_id = $2 AND d.category_id = c.id
				)) AS missing,
			(SELECT COUNT(*)
			   FROM documents d
			   JOIN LATERAL (
					SELECT v.expires_at
					  FROM document_versions v
					 WHERE v.document_id = d.id
					 ORDER BY v.version_no DESC
					 LIMIT 1
			   ) cur ON TRUE
			  WHERE d.tenant_id = $1 AND d.client_id = $2
			    AND cur.expires_at IS NOT NULL
			    AND cur.expires_at > NOW()
			    AND cur.expires_at <= NOW() + make_interval(days => $3)) AS expiring,
			(SELECT COUNT(*)
			   FROM filings f
			  WHERE f.tenant_id = $1 AND f.client_id = $2
			    AND f.due_date < NOW()
			    AND f.status NOT IN ('submitted', 'accepted')) AS overdue`

	var counts Counts
	days := int(r.window.Hours() / 24)
	if days < 1 {
		days = 1
	}
	if err := r.db.QueryRow(ctx, query, tenantID, clientID, days).Scan(&counts.Missing, &counts.Expiring, &counts.OverdueFilings); err != nil {
		return Counts{}, err
	}
	return counts, nil
}

func (r *repository) InsertSnapshot(ctx context.Context, snap Snapshot) (int64, error) {
	const query = `
		INSERT INTO compliance_scores
			(tenant_id, client_id, score_value, level, missing_count, expiring_count, overdue_filings_count, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		snap.TenantID, snap.ClientID, snap.Value, string(snap.Level),
		snap.Missing, snap.Expiring, snap.OverdueFilings, snap.CalculatedAt,
	).Scan(&id)
	return id, err
}

func (r *repository) LatestSnapshot(ctx context.Context, tenantID, clientID int64) (*Snapshot, error) {
	const query = `
		SELECT id, tenant_id, client_id, score_value, level, missing_count, expiring_count, overdue_filings_count, calculated_at
		  FROM compliance_scores
		 WHERE tenant_id = $1 AND client_id = $2
		 ORDER BY calculated_at DESC, id DESC
		 LIMIT 1`

	snap, err := scanSnapshot(r.db.QueryRow(ctx, query, tenantID, clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (r *repository) SnapshotHistory(ctx context.Context, tenantID, clientID int64, limit int) ([]Snapshot, error) {
	const query = `
		SELECT id, tenant_id, client_id, score_value, level, missing_count, expiring_count, overdue_filings_count, calculated_at
		  FROM compliance_scores
		 WHERE tenant_id = $1 AND client_id = $2
		 ORDER BY calculated_at DESC, id DESC
		 LIMIT $3`

	rows, err := r.db.Query(ctx, query, tenantID, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, snap)
	}
	return history, rows.Err()
}

func (r *repository) ActiveClients(ctx context.Context) ([]ClientRef, error) {
	rows, err := r.db.Query(ctx, `SELECT tenant_id, id FROM clients WHERE status = 'active' ORDER BY tenant_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ClientRef
	for rows.Next() {
		var ref ClientRef
		if err := rows.Scan(&ref.TenantID, &ref.ClientID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var snap Snapshot
	var level string
	err := row.Scan(&snap.ID, &snap.TenantID, &snap.ClientID, &snap.Value, &level,
		&snap.Missing, &snap.Expiring, &snap.OverdueFilings, &snap.CalculatedAt)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Level = Level(level)
	return snap, nil
}
