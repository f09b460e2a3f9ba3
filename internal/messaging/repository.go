package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianhq/meridian/internal/platform/db"
)

var ErrNotFound = errors.New("thread not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	GetThread(ctx context.Context, tenantID, id int64) (*Thread, error)
	ListThreads(ctx context.Context, req ListThreadsRequest, viewerID int64) ([]Thread, int, error)
	CreateThread(ctx context.Context, thread Thread) (int64, error)
	InsertMessage(ctx context.Context, msg Message) (int64, error)
	Messages(ctx context.Context, threadID int64) ([]Message, error)
	MarkRead(ctx context.Context, threadID, userID int64) error
	UnreadTotal(ctx context.Context, tenantID, userID int64) (int, error)
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

func (r *repository) GetThread(ctx context.Context, tenantID, id int64) (*Thread, error) {
	const query = `
		SELECT id, tenant_id, client_id, subject, created_by, last_message_at, created_at
		  FROM message_threads WHERE tenant_id = $1 AND id = $2`

	var t Thread
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&t.ID, &t.TenantID, &t.ClientID, &t.Subject, &t.CreatedBy, &t.LastMessageAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListThreads returns threads newest-activity first with the viewer's
// unread count folded in. A message is unread when it arrived after the
// viewer's read mark and was sent by someone else.
func (r *repository) ListThreads(ctx context.Context, req ListThreadsRequest, viewerID int64) ([]Thread, int, error) {
	conditions := []string{"t.tenant_id = $1"}
	args := []interface{}{req.TenantID}
	argPos := 2

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("t.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM message_threads t "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT t.id, t.tenant_id, t.client_id, t.subject, t.created_by, t.last_message_at, t.created_at,
		       (SELECT COUNT(*) FROM messages m
		         WHERE m.thread_id = t.id
		           AND m.sender_id <> $%d
		           AND m.sent_at > COALESCE(
		                 (SELECT mr.last_read_at FROM message_reads mr
		                   WHERE mr.thread_id = t.id AND mr.user_id = $%d),
		                 'epoch'::timestamptz)) AS unread
		  FROM message_threads t %s
		 ORDER BY t.last_message_at DESC
		 LIMIT $%d OFFSET $%d`, argPos, argPos, whereClause, argPos+1, argPos+2)
	args = append(args, viewerID, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var threads []Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.TenantID, &t.ClientID, &t.Subject, &t.CreatedBy,
			&t.LastMessageAt, &t.CreatedAt, &t.Unread); err != nil {
			return nil, 0, err
		}
		threads = append(threads, t)
	}
	return threads, total, rows.Err()
}

func (r *repository) CreateThread(ctx context.Context, thread Thread) (int64, error) {
	const query = `
		INSERT INTO message_threads (tenant_id, client_id, subject, created_by, last_message_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		thread.TenantID, thread.ClientID, thread.Subject, thread.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) InsertMessage(ctx context.Context, msg Message) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO messages (thread_id, sender_id, body) VALUES ($1, $2, $3) RETURNING id`,
		msg.ThreadID, msg.SenderID, msg.Body).Scan(&id)
	if err != nil {
		return 0, err
	}
	_, err = r.db.Exec(ctx,
		`UPDATE message_threads SET last_message_at = NOW() WHERE id = $1`, msg.ThreadID)
	return id, err
}

func (r *repository) Messages(ctx context.Context, threadID int64) ([]Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, thread_id, sender_id, body, sent_at FROM messages WHERE thread_id = $1 ORDER BY sent_at`,
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, threadID, userID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_reads (thread_id, user_id, last_read_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (thread_id, user_id) DO UPDATE SET last_read_at = NOW()`,
		threadID, userID)
	return err
}

func (r *repository) UnreadTotal(ctx context.Context, tenantID, userID int64) (int, error) {
	const query = `
		SELECT COUNT(*)
		  FROM messages m
		  JOIN message_threads t ON t.id = m.thread_id
		 WHERE t.tenant_id = $1
		   AND m.sender_id <> $2
		   AND m.sent_at > COALESCE(
		         (SELECT mr.last_read_at FROM message_reads mr
		           WHERE mr.thread_id = m.thread_id AND mr.user_id = $2),
		         'epoch'::timestamptz)`

	var count int
	err := r.db.QueryRow(ctx, query, tenantID, userID).Scan(&count)
	return count, err
}
