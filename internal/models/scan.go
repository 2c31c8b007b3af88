package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Scan is an append-only fact: user X checked into activity Y at time T.
// Rows are never updated or deleted; repeat scans on the same pair are allowed.
type Scan struct {
	bun.BaseModel `bun:"table:scans"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID     int64     `bun:"user_id,notnull" json:"user_id"`
	ActivityID int64     `bun:"activity_id,notnull" json:"activity_id"`
	ScannedAt  time.Time `bun:"scanned_at,notnull" json:"scanned_at"`
}

type ScanRequest struct {
	ActivityName     string `json:"activity_name"`
	ActivityCategory string `json:"activity_category"`
}

// ScanView is the response shape for a recorded scan, denormalized with
// the resolved activity's name and category.
type ScanView struct {
	UserID           int64  `json:"user_id"`
	ActivityName     string `json:"activity_name"`
	ActivityCategory string `json:"activity_category"`
	ScannedAt        string `json:"scanned_at"`
}

// ScanEntry is one line of a user's scan history.
type ScanEntry struct {
	ActivityName     string `json:"activity_name"`
	ActivityCategory string `json:"activity_category"`
	ScannedAt        string `json:"scanned_at"`
}

// ActivityFrequency is one aggregation group: an activity and its scan count.
type ActivityFrequency struct {
	ActivityName     string `bun:"activity_name" json:"activity_name"`
	ActivityCategory string `bun:"activity_category" json:"activity_category"`
	ScanCount        int    `bun:"scan_count" json:"scan_count"`
}

// AggregateFilter holds the optional /scans query filters. A min or max
// of zero means the filter was not supplied.
type AggregateFilter struct {
	MinFrequency int
	MaxFrequency int
	Category     string
}
