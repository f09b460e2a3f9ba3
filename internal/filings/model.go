package filings

import "time"

// Filing is a regulatory submission a client owes for a period.
type Filing struct {
	ID          int64      `json:"id" db:"id"`
	TenantID    int64      `json:"tenant_id" db:"tenant_id"`
	ClientID    int64      `json:"client_id" db:"client_id"`
	Kind        string     `json:"kind" db:"kind"`
	Period      string     `json:"period" db:"period"`
	DueDate     time.Time  `json:"due_date" db:"due_date"`
	Status      string     `json:"status" db:"status"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`
	SubmittedBy *int64     `json:"submitted_by,omitempty" db:"submitted_by"`
	Reference   *string    `json:"reference,omitempty" db:"reference"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	CreatedBy   int64      `json:"created_by" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Filing statuses. A filing past its due date in draft or pending is
// overdue and feeds the compliance score.
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusAccepted  = "accepted"
)

// IsOverdue reports whether the filing counts against compliance at
// the given instant.
func (f Filing) IsOverdue(now time.Time) bool {
	return f.DueDate.Before(now) && f.Status != StatusSubmitted && f.Status != StatusAccepted
}
