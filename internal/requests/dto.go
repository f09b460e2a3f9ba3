package requests

type CreateRequestRequest struct {
	ClientID int64  `json:"client_id" validate:"required,gt=0"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Body     string `json:"body" validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

type AssignRequestRequest struct {
	AssigneeID int64 `json:"assignee_id" validate:"required,gt=0"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

type ListRequestsRequest struct {
	TenantID   int64   `json:"tenant_id" validate:"required,gt=0"`
	ClientID   *int64  `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=open in_progress resolved closed"`
	AssigneeID *int64  `json:"assignee_id,omitempty" validate:"omitempty,gt=0"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}
