// Package scoring converts raw compliance signals for a client into a
// numeric score and a green/amber/red tier.
package scoring

import "time"

// Level is the coarse compliance tier shown on dashboards.
type Level string

const (
	LevelGreen Level = "green"
	LevelAmber Level = "amber"
	LevelRed   Level = "red"
)

// Counts are the raw signals a score is computed from.
type Counts struct {
	Missing        int `json:"missing"`
	Expiring       int `json:"expiring"`
	OverdueFilings int `json:"overdue_filings"`
}

// Result is the outcome of a pure score computation.
type Result struct {
	Value int   `json:"value"`
	Level Level `json:"level"`
}

// Snapshot is a point-in-time compliance evaluation for one client.
// Each recompute produces a full replacement snapshot; only the most
// recent one is authoritative for dashboards.
type Snapshot struct {
	ID             int64     `json:"id"`
	TenantID       int64     `json:"tenant_id"`
	ClientID       int64     `json:"client_id"`
	Value          int       `json:"value"`
	Level          Level     `json:"level"`
	Missing        int       `json:"missing"`
	Expiring       int       `json:"expiring"`
	OverdueFilings int       `json:"overdue_filings"`
	CalculatedAt   time.Time `json:"calculated_at"`
}
