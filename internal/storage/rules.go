package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"retune/internal/common"
	"retune/internal/model"
)

const ruleColumns = `id, scope_id, name, pattern, pattern_type, tag_name, source,
	priority, remove_from_name, enabled, replacement, created_at, updated_at`

// CreateRule persists a new extraction rule and returns it with its
// assigned ID.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.Rule) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tag_rules (scope_id, name, pattern, pattern_type, tag_name, source,
			priority, remove_from_name, enabled, replacement, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.ScopeID,
		rule.Name,
		rule.Pattern,
		string(rule.PatternType),
		rule.TagName,
		string(rule.Source),
		rule.Priority,
		rule.RemoveFromName,
		rule.Enabled,
		nullableString(rule.Replacement),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule ID: %w", err)
	}

	created := *rule
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// GetEnabledRules returns the enabled rules of a scope ordered by priority.
// Rules sharing a priority come back in creation order, which is the
// stable tie-break the extraction engine relies on.
func (s *SQLiteStorage) GetEnabledRules(ctx context.Context, scopeID int64) ([]model.Rule, error) {
	return s.queryRules(ctx, scopeID, true)
}

// ListRules returns all rules of a scope, enabled or not, in priority order.
func (s *SQLiteStorage) ListRules(ctx context.Context, scopeID int64) ([]model.Rule, error) {
	return s.queryRules(ctx, scopeID, false)
}

func (s *SQLiteStorage) queryRules(ctx context.Context, scopeID int64, enabledOnly bool) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateScopeID(scopeID); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + ruleColumns + `
		FROM tag_rules
		WHERE scope_id = ?`
	if enabledOnly {
		query += ` AND enabled = 1`
	}
	query += ` ORDER BY priority, id`

	rows, err := s.db.QueryContext(ctx, query, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		var (
			rule        model.Rule
			patternType string
			source      string
			replacement sql.NullString
		)
		err := rows.Scan(
			&rule.ID,
			&rule.ScopeID,
			&rule.Name,
			&rule.Pattern,
			&patternType,
			&rule.TagName,
			&source,
			&rule.Priority,
			&rule.RemoveFromName,
			&rule.Enabled,
			&replacement,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.PatternType = model.PatternType(patternType)
		rule.Source = model.RuleSource(source)
		if replacement.Valid {
			r := replacement.String
			rule.Replacement = &r
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// SetRuleEnabled toggles one rule without re-importing the rule set. The
// scope guard keeps a rule ID from one scope from reaching into another.
func (s *SQLiteStorage) SetRuleEnabled(ctx context.Context, scopeID, ruleID int64, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScopeID(scopeID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tag_rules SET enabled = ?, updated_at = ? WHERE id = ? AND scope_id = ?
	`, enabled, time.Now().UTC(), ruleID, scopeID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rule update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", ruleID, common.ErrNotFound)
	}
	return nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
