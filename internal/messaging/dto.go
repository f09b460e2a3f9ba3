package messaging

type CreateThreadRequest struct {
	ClientID int64  `json:"client_id" validate:"required,gt=0"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Body     string `json:"body" validate:"required"`
}

type PostMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

type ListThreadsRequest struct {
	TenantID int64  `json:"tenant_id" validate:"required,gt=0"`
	ClientID *int64 `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	Limit    int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int    `json:"offset" validate:"gte=0"`
}
