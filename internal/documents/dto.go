package documents

import "time"

type CreateDocumentRequest struct {
	ClientID   int64         `json:"client_id" validate:"required,gt=0"`
	CategoryID int64         `json:"category_id" validate:"required,gt=0"`
	Title      string        `json:"title" validate:"required,max=300"`
	Version    UploadVersion `json:"version" validate:"required"`
}

type UploadVersion struct {
	FileName    string     `json:"file_name" validate:"required,max=300"`
	ContentType string     `json:"content_type" validate:"required,max=150"`
	SizeBytes   int64      `json:"size_bytes" validate:"gte=0"`
	Checksum    string     `json:"checksum" validate:"required,max=128"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type ListDocumentsRequest struct {
	TenantID   int64  `json:"tenant_id" validate:"required,gt=0"`
	ClientID   *int64 `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	CategoryID *int64 `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	Limit      int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int    `json:"offset" validate:"gte=0"`
}

type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required,max=150"`
	Required bool   `json:"required"`
}
