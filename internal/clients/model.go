package clients

import "time"

// Client is a compliance-managed customer organisation record, scoped
// to exactly one tenant.
type Client struct {
	ID        int64      `json:"id" db:"id"`
	TenantID  int64      `json:"tenant_id" db:"tenant_id"`
	Code      string     `json:"code" db:"code"`
	Name      string     `json:"name" db:"name"`
	Email     *string    `json:"email,omitempty" db:"email"`
	Phone     *string    `json:"phone,omitempty" db:"phone"`
	Country   string     `json:"country" db:"country"`
	Status    string     `json:"status" db:"status"`
	ManagerID *int64     `json:"manager_id,omitempty" db:"manager_id"`
	Notes     *string    `json:"notes,omitempty" db:"notes"`
	CreatedBy int64      `json:"created_by" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

// Client statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)
