package model

import "time"

// TagAssignment links one normalized tag to one channel within a scope.
// UpdatedAt is the freshness marker used by the reconciliation sweep: every
// pass stamps the assignments it confirms, and anything older is deleted.
type TagAssignment struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	StreamID  string    `json:"stream_id"`
	TagName   string    `json:"tag_name"`
	ID        int64     `json:"id"`
	ScopeID   int64     `json:"scope_id"`
}

// TagCount is an aggregate row for tag summaries.
type TagCount struct {
	TagName string `json:"tag_name"`
	Count   int    `json:"count"`
}
