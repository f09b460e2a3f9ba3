package messaging

import "time"

// Thread is a per-client conversation between firm staff and the
// client's portal users.
type Thread struct {
	ID            int64     `json:"id" db:"id"`
	TenantID      int64     `json:"tenant_id" db:"tenant_id"`
	ClientID      int64     `json:"client_id" db:"client_id"`
	Subject       string    `json:"subject" db:"subject"`
	CreatedBy     int64     `json:"created_by" db:"created_by"`
	LastMessageAt time.Time `json:"last_message_at" db:"last_message_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	// Unread is computed per viewer, never stored.
	Unread int `json:"unread" db:"-"`
}

type Message struct {
	ID       int64     `json:"id" db:"id"`
	ThreadID int64     `json:"thread_id" db:"thread_id"`
	SenderID int64     `json:"sender_id" db:"sender_id"`
	Body     string    `json:"body" db:"body"`
	SentAt   time.Time `json:"sent_at" db:"sent_at"`
}
