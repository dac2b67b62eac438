// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"retune/internal/model"

	"github.com/google/uuid"
)

// ChannelFilter defines filtering options for channel queries.
type ChannelFilter struct {
	Visible    *bool
	Tag        string
	Category   string
	OnlyActive bool
	Limit      int
	Offset     int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Scope operations
	CreateScope(ctx context.Context, name string) (*model.Scope, error)
	GetScope(ctx context.Context, id int64) (*model.Scope, error)
	GetScopeByName(ctx context.Context, name string) (*model.Scope, error)
	ListScopes(ctx context.Context) ([]model.Scope, error)
	SetScopeEnabled(ctx context.Context, id int64, enabled bool) error

	// Channel operations
	SaveChannels(ctx context.Context, scopeID int64, channels []model.Channel) error
	GetChannel(ctx context.Context, scopeID int64, streamID string) (*model.Channel, error)
	GetActiveChannels(ctx context.Context, scopeID int64) ([]model.Channel, error)
	GetChannels(ctx context.Context, scopeID int64, filter ChannelFilter) ([]model.Channel, error)
	UpdateChannelExtraction(ctx context.Context, scopeID int64, streamID, cleanedName string, at time.Time) error
	SetChannelVisibility(ctx context.Context, scopeID int64, streamID string, visible bool) error

	// Rule operations
	CreateRule(ctx context.Context, rule *model.Rule) (*model.Rule, error)
	GetEnabledRules(ctx context.Context, scopeID int64) ([]model.Rule, error)
	ListRules(ctx context.Context, scopeID int64) ([]model.Rule, error)
	SetRuleEnabled(ctx context.Context, scopeID, ruleID int64, enabled bool) error

	// Filter operations
	CreateFilter(ctx context.Context, filter *model.Filter) (*model.Filter, error)
	GetEnabledFilters(ctx context.Context, scopeID int64) ([]model.Filter, error)
	ListFilters(ctx context.Context, scopeID int64) ([]model.Filter, error)
	SetFilterEnabled(ctx context.Context, scopeID, filterID int64, enabled bool) error

	// Tag assignment operations
	UpsertAssignment(ctx context.Context, assignment *model.TagAssignment) (bool, error)
	DeleteStaleAssignments(ctx context.Context, scopeID int64, cutoff time.Time) (int64, error)
	GetChannelTags(ctx context.Context, scopeID int64) (map[string][]string, error)
	GetTagsForChannel(ctx context.Context, scopeID int64, streamID string) ([]string, error)
	GetTagSummary(ctx context.Context, scopeID int64) ([]model.TagCount, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// BatchStats shows the results of one processing pass over a scope.
type BatchStats struct {
	StartedAt         time.Time
	RunID             uuid.UUID
	ScopeID           int64
	Duration          time.Duration
	ChannelsProcessed int
	ChannelsVisible   int
	ChannelsHidden    int
	ChannelErrors     int
	RulesSkipped      int
	TagsCreated       int
	TagsConfirmed     int
	TagsRemoved       int
	UniqueTags        int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
