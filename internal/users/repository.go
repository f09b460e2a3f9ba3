package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianhq/meridian/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

type Repository interface {
	Get(ctx context.Context, tenantID, id int64) (*Account, error)
	List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error)
	Create(ctx context.Context, account Account, passwordHash string) (int64, error)
	SetRole(ctx context.Context, tenantID, id int64, role string) error
	SetActive(ctx context.Context, tenantID, id int64, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const accountColumns = `id, tenant_id, email, name, role, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, tenantID, id int64) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE tenant_id = $1 AND id = $2`, accountColumns)
	account, err := scanAccount(r.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE tenant_id = $1`, req.TenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE tenant_id = $1 ORDER BY name LIMIT $2 OFFSET $3`, accountColumns)
	rows, err := r.pool.Query(ctx, query, req.TenantID, req.Limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, account)
	}
	return list, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, account Account, passwordHash string) (int64, error) {
	const query = `
		INSERT INTO users (tenant_id, email, name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		account.TenantID, account.Email, account.Name, passwordHash, account.Role).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) SetRole(ctx context.Context, tenantID, id int64, role string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		role, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, tenantID, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		active, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.TenantID, &a.Email, &a.Name, &a.Role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
