package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retune/internal/common"
	"retune/internal/model"
	"retune/internal/service"
)

const channelColumns = `id, scope_id, stream_id, name, category_name, cleaned_name,
	is_active, is_visible, last_seen, last_tag_update`

// SaveChannels upserts a batch of channels for a scope. Channel identity is
// (scope_id, stream_id); re-imports refresh the upstream fields and the
// last_seen marker but never touch cleaned_name or is_visible, which belong
// to the processing pass.
func (s *SQLiteStorage) SaveChannels(ctx context.Context, scopeID int64, channels []model.Channel) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScopeID(scopeID); err != nil {
		return err
	}
	if err := validateChannels(channels); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO channels (scope_id, stream_id, name, category_name, is_active, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope_id, stream_id) DO UPDATE SET
			name = excluded.name,
			category_name = excluded.category_name,
			is_active = excluded.is_active,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare channel upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for i := range channels {
		ch := &channels[i]
		lastSeen := ch.LastSeen
		if lastSeen.IsZero() {
			lastSeen = now
		}
		if _, err := stmt.ExecContext(ctx, scopeID, ch.StreamID, ch.Name, ch.CategoryName, ch.IsActive, lastSeen); err != nil {
			return fmt.Errorf("failed to save channel %s: %w", ch.StreamID, err)
		}
	}

	return tx.Commit()
}

// GetChannel retrieves a single channel by its scope and stream ID.
func (s *SQLiteStorage) GetChannel(ctx context.Context, scopeID int64, streamID string) (*model.Channel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateScopeID(scopeID); err != nil {
		return nil, err
	}
	if err := validateString(streamID, "streamID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE scope_id = ? AND stream_id = ?
	`, scopeID, streamID)

	ch, err := scanChannel(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("channel %s: %w", streamID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return ch, nil
}

// GetActiveChannels returns the active channels of a scope in stable
// stream ID order.
func (s *SQLiteStorage) GetActiveChannels(ctx context.Context, scopeID int64) ([]model.Channel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateScopeID(scopeID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE scope_id = ? AND is_active = 1
		ORDER BY stream_id
	`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active channels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectChannels(rows)
}

// GetChannels returns the channels of a scope with optional filtering.
func (s *SQLiteStorage) GetChannels(ctx context.Context, scopeID int64, filter service.ChannelFilter) ([]model.Channel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateScopeID(scopeID); err != nil {
		return nil, err
	}

	var conditions []string
	args := []any{scopeID}
	conditions = append(conditions, "scope_id = ?")

	if filter.OnlyActive {
		conditions = append(conditions, "is_active = 1")
	}
	if filter.Visible != nil {
		conditions = append(conditions, "is_visible = ?")
		args = append(args, *filter.Visible)
	}
	if filter.Category != "" {
		conditions = append(conditions, "category_name = ? COLLATE NOCASE")
		args = append(args, filter.Category)
	}
	if filter.Tag != "" {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM channel_tags t
			WHERE t.scope_id = channels.scope_id
			  AND t.stream_id = channels.stream_id
			  AND t.tag_name = ? COLLATE NOCASE
		)`)
		args = append(args, filter.Tag)
	}

	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY name`

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectChannels(rows)
}

// UpdateChannelExtraction stores the outcome of one extraction over a
// channel: its cleaned name and the pass timestamp.
func (s *SQLiteStorage) UpdateChannelExtraction(ctx context.Context, scopeID int64, streamID, cleanedName string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScopeID(scopeID); err != nil {
		return err
	}
	if err := validateString(streamID, "streamID"); err != nil {
		return err
	}
	if at.IsZero() {
		return fmt.Errorf("%w: at", ErrInvalidTimestamp)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE channels
		SET cleaned_name = ?, last_tag_update = ?
		WHERE scope_id = ? AND stream_id = ?
	`, cleanedName, at, scopeID, streamID)
	if err != nil {
		return fmt.Errorf("failed to update channel extraction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("channel %s: %w", streamID, common.ErrNotFound)
	}
	return nil
}

// SetChannelVisibility persists the visibility verdict for a channel.
func (s *SQLiteStorage) SetChannelVisibility(ctx context.Context, scopeID int64, streamID string, visible bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScopeID(scopeID); err != nil {
		return err
	}
	if err := validateString(streamID, "streamID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE channels
		SET is_visible = ?
		WHERE scope_id = ? AND stream_id = ?
	`, visible, scopeID, streamID)
	if err != nil {
		return fmt.Errorf("failed to set channel visibility: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("channel %s: %w", streamID, common.ErrNotFound)
	}
	return nil
}

// scanChannel maps one channel row, translating the nullable columns into
// pointer fields.
func scanChannel(scan func(dest ...any) error) (*model.Channel, error) {
	var (
		ch            model.Channel
		isVisible     sql.NullBool
		lastTagUpdate sql.NullTime
	)

	err := scan(
		&ch.ID,
		&ch.ScopeID,
		&ch.StreamID,
		&ch.Name,
		&ch.CategoryName,
		&ch.CleanedName,
		&ch.IsActive,
		&isVisible,
		&ch.LastSeen,
		&lastTagUpdate,
	)
	if err != nil {
		return nil, err
	}

	if isVisible.Valid {
		v := isVisible.Bool
		ch.IsVisible = &v
	}
	if lastTagUpdate.Valid {
		t := lastTagUpdate.Time
		ch.LastTagUpdate = &t
	}

	return &ch, nil
}

func collectChannels(rows *sql.Rows) ([]model.Channel, error) {
	var channels []model.Channel
	for rows.Next() {
		ch, err := scanChannel(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}
