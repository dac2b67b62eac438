package storage

import (
	"context"
	"fmt"
	"time"

	"retune/internal/common"
	"retune/internal/model"
)

const filterColumns = `id, scope_id, name, filter_type, filter_action, value,
	enabled, created_at, updated_at`

// CreateFilter persists a new visibility filter and returns it with its
// assigned ID.
func (s *SQLiteStorage) CreateFilter(ctx context.Context, filter *model.Filter) (*model.Filter, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO filters (scope_id, name, filter_type, filter_action, value, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		filter.ScopeID,
		filter.Name,
		string(filter.Type),
		string(filter.Action),
		filter.Value,
		filter.Enabled,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get filter ID: %w", err)
	}

	created := *filter
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// GetEnabledFilters returns the enabled filters of a scope in creation order.
func (s *SQLiteStorage) GetEnabledFilters(ctx context.Context, scopeID int64) ([]model.Filter, error) {
	return s.queryFilters(ctx, scopeID, true)
}

// ListFilters returns all filters of a scope, enabled or not.
func (s *SQLiteStorage) ListFilters(ctx context.Context, scopeID int64) ([]model.Filter, error) {
	return s.queryFilters(ctx, scopeID, false)
}

func (s *SQLiteStorage) queryFilters(ctx context.Context, scopeID int64, enabledOnly bool) ([]model.Filter, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateScopeID(scopeID); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + filterColumns + `
		FROM filters
		WHERE scope_id = ?`
	if enabledOnly {
		query += ` AND enabled = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query filters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var filters []model.Filter
	for rows.Next() {
		var (
			filter     model.Filter
			filterType string
			action     string
		)
		err := rows.Scan(
			&filter.ID,
			&filter.ScopeID,
			&filter.Name,
			&filterType,
			&action,
			&filter.Value,
			&filter.Enabled,
			&filter.CreatedAt,
			&filter.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan filter: %w", err)
		}
		filter.Type = model.FilterType(filterType)
		filter.Action = model.FilterAction(action)
		filters = append(filters, filter)
	}

	return filters, rows.Err()
}

// SetFilterEnabled toggles one filter without re-importing the filter set.
func (s *SQLiteStorage) SetFilterEnabled(ctx context.Context, scopeID, filterID int64, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScopeID(scopeID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE filters SET enabled = ?, updated_at = ? WHERE id = ? AND scope_id = ?
	`, enabled, time.Now().UTC(), filterID, scopeID)
	if err != nil {
		return fmt.Errorf("failed to update filter: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check filter update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("filter %d: %w", filterID, common.ErrNotFound)
	}
	return nil
}
