package documents

import "time"

// Category is a tenant-defined document type. Required categories feed
// the missing-document compliance signal.
type Category struct {
	ID       int64  `json:"id" db:"id"`
	TenantID int64  `json:"tenant_id" db:"tenant_id"`
	Name     string `json:"name" db:"name"`
	Required bool   `json:"required" db:"required"`
}

// Document is a client compliance document. Content lives in object
// storage under the version file keys; versions are immutable and the
// highest version number is current.
type Document struct {
	ID             int64     `json:"id" db:"id"`
	TenantID       int64     `json:"tenant_id" db:"tenant_id"`
	ClientID       int64     `json:"client_id" db:"client_id"`
	CategoryID     int64     `json:"category_id" db:"category_id"`
	Title          string    `json:"title" db:"title"`
	CurrentVersion int       `json:"current_version" db:"current_version"`
	CreatedBy      int64     `json:"created_by" db:"created_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	Versions []Version `json:"versions,omitempty" db:"-"`
}

// Version is one immutable revision of a document.
type Version struct {
	ID          int64      `json:"id" db:"id"`
	DocumentID  int64      `json:"document_id" db:"document_id"`
	VersionNo   int        `json:"version_no" db:"version_no"`
	FileKey     string     `json:"file_key" db:"file_key"`
	FileName    string     `json:"file_name" db:"file_name"`
	ContentType string     `json:"content_type" db:"content_type"`
	SizeBytes   int64      `json:"size_bytes" db:"size_bytes"`
	Checksum    string     `json:"checksum" db:"checksum"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	UploadedBy  int64      `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt  time.Time  `json:"uploaded_at" db:"uploaded_at"`
}
