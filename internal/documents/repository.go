package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianhq/meridian/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, tenantID, id int64) (*Document, error)
	List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error)
	ListExpiring(ctx context.Context, tenantID int64, within time.Duration) ([]Document, error)
	Create(ctx context.Context, doc Document, first Version) (int64, error)
	AddVersion(ctx context.Context, tenantID, documentID int64, v Version) (int, error)
	Versions(ctx context.Context, documentID int64) ([]Version, error)
	Categories(ctx context.Context, tenantID int64) ([]Category, error)
	CreateCategory(ctx context.Context, cat Category) (int64, error)
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

const documentColumns = `d.id, d.tenant_id, d.client_id, d.category_id, d.title, d.current_version, d.created_by, d.created_at, d.updated_at`

func (r *repository) Get(ctx context.Context, tenantID, id int64) (*Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents d WHERE d.tenant_id = $1 AND d.id = $2`, documentColumns)
	doc, err := scanDocument(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *repository) List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	conditions := []string{"d.tenant_id = $1"}
	args := []interface{}{req.TenantID}
	argPos := 2

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("d.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("d.category_id = $%d", argPos))
		args = append(args, *req.CategoryID)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM documents d "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM documents d %s ORDER BY d.updated_at DESC LIMIT $%d OFFSET $%d`,
		documentColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

// ListExpiring returns documents whose current version expires within
// the given window, joined through the latest version per document.
func (r *repository) ListExpiring(ctx context.Context, tenantID int64, within time.Duration) ([]Document, error) {
	days := int(within.Hours() / 24)
	if days < 1 {
		days = 1
	}
	query := fmt.Sprintf(`
		SELECT %s FROM documents d
		  JOIN LATERAL (
			SELECT v.expires_at FROM document_versions v
			 WHERE v.document_id = d.id
			 ORDER BY v.version_no DESC LIMIT 1
		  ) cur ON TRUE
		 WHERE d.tenant_id = $1
		   AND cur.expires_at IS NOT NULL
		   AND cur.expires_at > NOW()
		   AND cur.expires_at <= NOW() + make_interval(days => $2)
		 ORDER BY cur.expires_at`, documentColumns)

	rows, err := r.db.Query(ctx, query, tenantID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *repository) Create(ctx context.Context, doc Document, first Version) (int64, error) {
	const insertDoc = `
		INSERT INTO documents (tenant_id, client_id, category_id, title, current_version, created_by)
		VALUES ($1, $2, $3, $4, 1, $5)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, insertDoc,
		doc.TenantID, doc.ClientID, doc.CategoryID, doc.Title, doc.CreatedBy,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}

	first.DocumentID = id
	first.VersionNo = 1
	if err := r.insertVersion(ctx, first); err != nil {
		return 0, err
	}
	return id, nil
}

// AddVersion appends the next immutable version and bumps the pointer.
func (r *repository) AddVersion(ctx context.Context, tenantID, documentID int64, v Version) (int, error) {
	var next int
	err := r.db.QueryRow(ctx,
		`UPDATE documents SET current_version = current_version + 1, updated_at = NOW()
		  WHERE tenant_id = $1 AND id = $2
		  RETURNING current_version`,
		tenantID, documentID,
	).Scan(&next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	v.DocumentID = documentID
	v.VersionNo = next
	if err := r.insertVersion(ctx, v); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repository) insertVersion(ctx context.Context, v Version) error {
	const query = `
		INSERT INTO document_versions (document_id, version_no, file_key, file_name, content_type, size_bytes, checksum, expires_at, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		v.DocumentID, v.VersionNo, v.FileKey, v.FileName, v.ContentType,
		v.SizeBytes, v.Checksum, v.ExpiresAt, v.UploadedBy)
	return err
}

func (r *repository) Versions(ctx context.Context, documentID int64) ([]Version, error) {
	const query = `
		SELECT id, document_id, version_no, file_key, file_name, content_type, size_bytes, checksum, expires_at, uploaded_by, uploaded_at
		  FROM document_versions
		 WHERE document_id = $1
		 ORDER BY version_no DESC`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.VersionNo, &v.FileKey, &v.FileName,
			&v.ContentType, &v.SizeBytes, &v.Checksum, &v.ExpiresAt, &v.UploadedBy, &v.UploadedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (r *repository) Categories(ctx context.Context, tenantID int64) ([]Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, tenant_id, name, required FROM document_categories WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Required); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *repository) CreateCategory(ctx context.Context, cat Category) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO document_categories (tenant_id, name, required) VALUES ($1, $2, $3) RETURNING id`,
		cat.TenantID, cat.Name, cat.Required,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}
	return id, nil
}

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.TenantID, &d.ClientID, &d.CategoryID, &d.Title,
		&d.CurrentVersion, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}
