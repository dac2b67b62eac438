package model

import (
	"fmt"
	"strings"
	"time"
)

// Scope is an isolation boundary for channels, rules, filters, and tags.
// Nothing crosses scopes: processing one scope never reads or writes
// another's rows.
type Scope struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	ID        int64     `json:"id"`
	Enabled   bool      `json:"enabled"`
}

// Channel is one catalog entry owned by a scope. StreamID is the upstream
// identifier and is unique within a scope, not globally.
//
// IsVisible is nil until a processing pass has evaluated the channel;
// consumers must treat nil as "not yet processed", never as hidden.
type Channel struct {
	LastSeen      time.Time  `json:"last_seen"`
	LastTagUpdate *time.Time `json:"last_tag_update,omitempty"`
	IsVisible     *bool      `json:"is_visible,omitempty"`
	StreamID      string     `json:"stream_id"`
	Name          string     `json:"name"`
	CategoryName  string     `json:"category_name"`
	CleanedName   string     `json:"cleaned_name"`
	ID            int64      `json:"id"`
	ScopeID       int64      `json:"scope_id"`
	IsActive      bool       `json:"is_active"`
}

// Validate checks that the channel carries the identifiers storage needs.
// An empty display name is deliberately allowed here: the processing pass
// detects it per channel and counts it as a channel error instead of
// rejecting the whole batch.
func (c *Channel) Validate() error {
	if strings.TrimSpace(c.StreamID) == "" {
		return fmt.Errorf("channel stream ID cannot be empty")
	}
	return nil
}
