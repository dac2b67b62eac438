package storage

import (
	"context"
	"fmt"
	"time"

	"retune/internal/model"
)

// UpsertAssignment writes one channel/tag link, stamping it with the
// assignment's UpdatedAt. Existing rows keep their created_at; only the
// freshness marker moves. Returns true when the row is new.
func (s *SQLiteStorage) UpsertAssignment(ctx context.Context, assignment *model.TagAssignment) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateAssignment(assignment); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM channel_tags
			WHERE scope_id = ? AND stream_id = ? AND tag_name = ?
		)
	`, assignment.ScopeID, assignment.StreamID, assignment.TagName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing assignment: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO channel_tags (scope_id, stream_id, tag_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(scope_id, stream_id, tag_name) DO UPDATE SET
			updated_at = excluded.updated_at
	`,
		assignment.ScopeID,
		assignment.StreamID,
		assignment.TagName,
		assignment.UpdatedAt,
		assignment.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert assignment: %w", err)
	}

	return !exists, nil
}

// DeleteStaleAssignments removes every assignment in the scope whose
// freshness marker predates the cutoff. One statement, so the sweep is
// all-or-nothing; a failure leaves the previous pass's rows intact.
func (s *SQLiteStorage) DeleteStaleAssignments(ctx context.Context, scopeID int64, cutoff time.Time) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateScopeID(scopeID); err != nil {
		return 0, err
	}
	if cutoff.IsZero() {
		return 0, fmt.Errorf("%w: cutoff", ErrInvalidTimestamp)
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM channel_tags
		WHERE scope_id = ? AND updated_at < ?
	`, scopeID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale assignments: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted assignments: %w", err)
	}
	return removed, nil
}

// GetChannelTags returns every assignment in the scope, keyed by stream ID
// with tags in lexical order.
func (s *SQLiteStorage) GetChannelTags(ctx context.Context, scopeID int64) (map[string][]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateScopeID(scopeID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT stream_id, tag_name
		FROM channel_tags
		WHERE scope_id = ?
		ORDER BY stream_id, tag_name
	`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := make(map[string][]string)
	for rows.Next() {
		var streamID, tagName string
		if err := rows.Scan(&streamID, &tagName); err != nil {
			return nil, fmt.Errorf("failed to scan channel tag: %w", err)
		}
		tags[streamID] = append(tags[streamID], tagName)
	}

	return tags, rows.Err()
}

// GetTagsForChannel returns one channel's tags in lexical order.
func (s *SQLiteStorage) GetTagsForChannel(ctx context.Context, scopeID int64, streamID string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateScopeID(scopeID); err != nil {
		return nil, err
	}
	if err := validateString(streamID, "streamID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tag_name
		FROM channel_tags
		WHERE scope_id = ? AND stream_id = ?
		ORDER BY tag_name
	`, scopeID, streamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []string
	for rows.Next() {
		var tagName string
		if err := rows.Scan(&tagName); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tagName)
	}

	return tags, rows.Err()
}

// GetTagSummary returns per-tag assignment counts for a scope, most used
// first.
func (s *SQLiteStorage) GetTagSummary(ctx context.Context, scopeID int64) ([]model.TagCount, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateScopeID(scopeID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tag_name, COUNT(*) AS uses
		FROM channel_tags
		WHERE scope_id = ?
		GROUP BY tag_name
		ORDER BY uses DESC, tag_name
	`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summary []model.TagCount
	for rows.Next() {
		var tc model.TagCount
		if err := rows.Scan(&tc.TagName, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag count: %w", err)
		}
		summary = append(summary, tc)
	}

	return summary, rows.Err()
}
