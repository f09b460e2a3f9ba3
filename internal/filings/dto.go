package filings

import "time"

type CreateFilingRequest struct {
	ClientID int64     `json:"client_id" validate:"required,gt=0"`
	Kind     string    `json:"kind" validate:"required,max=100"`
	Period   string    `json:"period" validate:"required,max=20"`
	DueDate  time.Time `json:"due_date" validate:"required"`
	Notes    *string   `json:"notes,omitempty"`
}

type UpdateFilingRequest struct {
	Kind    *string    `json:"kind,omitempty" validate:"omitempty,max=100"`
	Period  *string    `json:"period,omitempty" validate:"omitempty,max=20"`
	DueDate *time.Time `json:"due_date,omitempty"`
	Notes   *string    `json:"notes,omitempty"`
}

type SubmitFilingRequest struct {
	Reference *string `json:"reference,omitempty" validate:"omitempty,max=100"`
}

type ListFilingsRequest struct {
	TenantID int64   `json:"tenant_id" validate:"required,gt=0"`
	ClientID *int64  `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=draft pending submitted accepted"`
	Overdue  bool    `json:"overdue"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
