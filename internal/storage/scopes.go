package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retune/internal/common"
	"retune/internal/model"
)

// CreateScope creates a new scope with the given name.
func (s *SQLiteStorage) CreateScope(ctx context.Context, name string) (*model.Scope, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var existingID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM scopes WHERE name = ?`, name).Scan(&existingID)
	if err == nil {
		return nil, fmt.Errorf("scope %q: %w", name, common.ErrDuplicateEntry)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing scope: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO scopes (name, enabled, created_at, updated_at)
		VALUES (?, 1, ?, ?)
	`, name, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create scope: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get scope ID: %w", err)
	}

	return &model.Scope{
		ID:        id,
		Name:      name,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetScope retrieves a scope by ID.
func (s *SQLiteStorage) GetScope(ctx context.Context, id int64) (*model.Scope, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateScopeID(id); err != nil {
		return nil, err
	}

	return s.scanScope(s.db.QueryRowContext(ctx, `
		SELECT id, name, enabled, created_at, updated_at
		FROM scopes
		WHERE id = ?
	`, id))
}

// GetScopeByName retrieves a scope by its unique name.
func (s *SQLiteStorage) GetScopeByName(ctx context.Context, name string) (*model.Scope, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	return s.scanScope(s.db.QueryRowContext(ctx, `
		SELECT id, name, enabled, created_at, updated_at
		FROM scopes
		WHERE name = ?
	`, name))
}

func (s *SQLiteStorage) scanScope(row *sql.Row) (*model.Scope, error) {
	var scope model.Scope
	err := row.Scan(&scope.ID, &scope.Name, &scope.Enabled, &scope.CreatedAt, &scope.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scope: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scope: %w", err)
	}
	return &scope, nil
}

// SetScopeEnabled enables or disables a scope. A disabled scope refuses
// processing passes but keeps all of its data.
func (s *SQLiteStorage) SetScopeEnabled(ctx context.Context, id int64, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScopeID(id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE scopes SET enabled = ?, updated_at = ? WHERE id = ?
	`, enabled, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update scope: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check scope update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("scope %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// ListScopes returns all scopes ordered by name.
func (s *SQLiteStorage) ListScopes(ctx context.Context) ([]model.Scope, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, enabled, created_at, updated_at
		FROM scopes
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scopes []model.Scope
	for rows.Next() {
		var scope model.Scope
		if err := rows.Scan(&scope.ID, &scope.Name, &scope.Enabled, &scope.CreatedAt, &scope.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scope: %w", err)
		}
		scopes = append(scopes, scope)
	}

	return scopes, rows.Err()
}
