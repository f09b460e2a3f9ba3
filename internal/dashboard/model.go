package dashboard

import "time"

// Overview is the tenant-wide summary served to the landing screen.
// Everything here is cacheable per tenant; the unread badge is
// per-viewer and fetched fresh.
type Overview struct {
	TenantID         int64       `json:"tenant_id"`
	Clients          ClientStats `json:"clients"`
	OpenRequests     int         `json:"open_requests"`
	FilingsDueSoon   int         `json:"filings_due_soon"`
	DocsExpiringSoon int         `json:"docs_expiring_soon"`
	GeneratedAt      time.Time   `json:"generated_at"`
}

// ClientStats breaks active clients down by compliance tier.
type ClientStats struct {
	Total int `json:"total"`
	Green int `json:"green"`
	Amber int `json:"amber"`
	Red   int `json:"red"`
}
