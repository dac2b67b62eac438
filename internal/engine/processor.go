// Package engine implements the processing pass that tags a scope's
// channels and resolves their visibility.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"retune/internal/common"
	"retune/internal/extract"
	"retune/internal/model"
	"retune/internal/service"
	"retune/internal/visibility"
)

// Processor orchestrates extraction, reconciliation, and visibility over a
// scope's channel collection. Rules and filters are loaded fresh on every
// pass, so definition changes take effect on the next invocation.
//
// Callers must serialize passes per scope. The stale-assignment sweep is
// bounded by the pass start time, and two concurrent passes over one scope
// would corrupt each other's sweep window.
type Processor struct {
	storage  service.Storage
	progress func(completed, total int)
}

// Config holds configuration options for the processor.
type Config struct {
	// Progress, when set, is called after each channel in the extraction
	// phase.
	Progress func(completed, total int)
}

// New creates a processor with the given storage.
func New(storage service.Storage) *Processor {
	return NewWithConfig(storage, Config{})
}

// NewWithConfig creates a processor with custom configuration.
func NewWithConfig(storage service.Storage, config Config) *Processor {
	return &Processor{
		storage:  storage,
		progress: config.Progress,
	}
}

// ProcessScope runs one full pass over the scope: extract tags and cleaned
// names for every active channel, sweep assignments the pass did not
// refresh, then evaluate visibility against the persisted tag sets.
//
// A failure on one channel is counted and skipped; a failure of the sweep
// aborts the pass, because stopping halfway would leave tags attached that
// no current rule produces. Statistics are returned even when the pass
// fails partway.
func (p *Processor) ProcessScope(ctx context.Context, scopeID int64) (*service.BatchStats, error) {
	start := time.Now().UTC()
	stats := &service.BatchStats{
		StartedAt: start,
		RunID:     uuid.New(),
		ScopeID:   scopeID,
	}
	defer func() { stats.Duration = time.Since(start) }()

	scope, err := p.storage.GetScope(ctx, scopeID)
	if err != nil {
		return stats, fmt.Errorf("failed to load scope: %w", err)
	}
	if !scope.Enabled {
		return stats, fmt.Errorf("scope %q: %w", scope.Name, common.ErrScopeDisabled)
	}

	rules, err := p.storage.GetEnabledRules(ctx, scopeID)
	if err != nil {
		return stats, fmt.Errorf("failed to load rules: %w", err)
	}

	channels, err := p.storage.GetActiveChannels(ctx, scopeID)
	if err != nil {
		return stats, fmt.Errorf("failed to load channels: %w", err)
	}

	extractor := extract.NewExtractor(rules)
	stats.RulesSkipped = len(extractor.Diagnostics())

	slog.Info("Starting processing pass",
		"run_id", stats.RunID,
		"scope", scope.Name,
		"channels", len(channels),
		"rules", len(rules)-stats.RulesSkipped,
		"rules_skipped", stats.RulesSkipped)

	errored := make(map[string]bool)
	uniqueTags := make(map[string]struct{})

	for i := range channels {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		channel := &channels[i]
		if err := p.processChannel(ctx, extractor, channel, start, stats, uniqueTags); err != nil {
			stats.ChannelErrors++
			errored[channel.StreamID] = true
			slog.Warn("Failed to process channel",
				"scope", scope.Name,
				"stream_id", channel.StreamID,
				"error", err)
		} else {
			stats.ChannelsProcessed++
		}

		if p.progress != nil {
			p.progress(i+1, len(channels))
		}
	}
	stats.UniqueTags = len(uniqueTags)

	// Every assignment this pass produced carries the start timestamp, so
	// anything older was not reproduced by the current rule set. The sweep
	// runs only after the loop above; it can never remove a row written
	// earlier in the same pass.
	removed, err := p.storage.DeleteStaleAssignments(ctx, scopeID, start)
	if err != nil {
		return stats, common.NewReconciliationError(scopeID, err)
	}
	stats.TagsRemoved = int(removed)

	if err := p.applyVisibility(ctx, scope, channels, errored, stats); err != nil {
		return stats, err
	}

	slog.Info("Processing pass complete",
		"run_id", stats.RunID,
		"scope", scope.Name,
		"processed", stats.ChannelsProcessed,
		"visible", stats.ChannelsVisible,
		"hidden", stats.ChannelsHidden,
		"errors", stats.ChannelErrors,
		"tags_created", stats.TagsCreated,
		"tags_confirmed", stats.TagsConfirmed,
		"tags_removed", stats.TagsRemoved,
		"duration", time.Since(start))

	return stats, nil
}

// processChannel extracts tags and the cleaned name for one channel and
// persists them, stamping every assignment with the pass start time.
func (p *Processor) processChannel(ctx context.Context, extractor *extract.Extractor, channel *model.Channel, start time.Time, stats *service.BatchStats, uniqueTags map[string]struct{}) error {
	if strings.TrimSpace(channel.Name) == "" {
		return common.NewChannelError(channel.StreamID, fmt.Errorf("channel has no display name"))
	}

	result := extractor.Extract(channel.Name, channel.CategoryName)

	if err := p.storage.UpdateChannelExtraction(ctx, channel.ScopeID, channel.StreamID, result.CleanedName, start); err != nil {
		return fmt.Errorf("failed to save cleaned name: %w", err)
	}

	for _, tag := range result.SortedTags() {
		created, err := p.storage.UpsertAssignment(ctx, &model.TagAssignment{
			ScopeID:   channel.ScopeID,
			StreamID:  channel.StreamID,
			TagName:   tag,
			UpdatedAt: start,
		})
		if err != nil {
			return fmt.Errorf("failed to save tag %q: %w", tag, err)
		}
		if created {
			stats.TagsCreated++
		} else {
			stats.TagsConfirmed++
		}
		uniqueTags[tag] = struct{}{}
	}

	return nil
}

// applyVisibility evaluates the scope's filters against each channel's
// persisted tag set. Channels that failed extraction keep their previous
// visibility; a record with no visibility value yet means "not processed",
// never "hidden".
func (p *Processor) applyVisibility(ctx context.Context, scope *model.Scope, channels []model.Channel, errored map[string]bool, stats *service.BatchStats) error {
	filters, err := p.storage.GetEnabledFilters(ctx, scope.ID)
	if err != nil {
		return fmt.Errorf("failed to load filters: %w", err)
	}
	evaluator := visibility.NewEvaluator(filters)

	channelTags, err := p.storage.GetChannelTags(ctx, scope.ID)
	if err != nil {
		return fmt.Errorf("failed to load persisted tags: %w", err)
	}

	for i := range channels {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		channel := &channels[i]
		if errored[channel.StreamID] {
			continue
		}

		visible := evaluator.Visible(channel.CategoryName, channel.Name, channelTags[channel.StreamID])
		if err := p.storage.SetChannelVisibility(ctx, scope.ID, channel.StreamID, visible); err != nil {
			stats.ChannelErrors++
			slog.Warn("Failed to save visibility",
				"scope", scope.Name,
				"stream_id", channel.StreamID,
				"error", err)
			continue
		}

		if visible {
			stats.ChannelsVisible++
		} else {
			stats.ChannelsHidden++
		}
	}

	return nil
}
