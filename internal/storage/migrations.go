package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"retune/internal/common"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS scopes (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					enabled INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS channels (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					scope_id INTEGER NOT NULL,
					stream_id TEXT NOT NULL,
					name TEXT NOT NULL,
					category_name TEXT NOT NULL DEFAULT '',
					cleaned_name TEXT NOT NULL DEFAULT '',
					is_active INTEGER NOT NULL DEFAULT 1,
					is_visible INTEGER,
					last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(scope_id, stream_id),
					FOREIGN KEY (scope_id) REFERENCES scopes(id)
				)`,
				`CREATE INDEX idx_channels_scope_active ON channels(scope_id, is_active)`,

				`CREATE TABLE IF NOT EXISTS tag_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					scope_id INTEGER NOT NULL,
					name TEXT NOT NULL,
					pattern TEXT NOT NULL,
					pattern_type TEXT NOT NULL,
					tag_name TEXT NOT NULL,
					source TEXT NOT NULL DEFAULT 'channel_name',
					priority INTEGER NOT NULL DEFAULT 100,
					remove_from_name INTEGER NOT NULL DEFAULT 0,
					enabled INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (scope_id) REFERENCES scopes(id)
				)`,
				`CREATE INDEX idx_tag_rules_scope_priority ON tag_rules(scope_id, priority)`,

				`CREATE TABLE IF NOT EXISTS filters (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					scope_id INTEGER NOT NULL,
					name TEXT NOT NULL,
					filter_type TEXT NOT NULL,
					filter_action TEXT NOT NULL DEFAULT '',
					value TEXT NOT NULL,
					enabled INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (scope_id) REFERENCES scopes(id)
				)`,
				`CREATE INDEX idx_filters_scope ON filters(scope_id)`,

				`CREATE TABLE IF NOT EXISTS channel_tags (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					scope_id INTEGER NOT NULL,
					stream_id TEXT NOT NULL,
					tag_name TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(scope_id, stream_id, tag_name),
					FOREIGN KEY (scope_id) REFERENCES scopes(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add indexes for the staleness sweep and tag lookups",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_channel_tags_scope_updated ON channel_tags(scope_id, updated_at)`,
				`CREATE INDEX IF NOT EXISTS idx_channel_tags_scope_stream ON channel_tags(scope_id, stream_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add replacement text to tag rules",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE tag_rules ADD COLUMN replacement TEXT`)
			return err
		},
	},
	{
		Version:     4,
		Description: "Track last tag update per channel",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE channels ADD COLUMN last_tag_update DATETIME`)
			return err
		},
	},
}

// SchemaVersion reports the schema version currently recorded in the database.
// A fresh database reports 0.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("%w: schema version mismatch: expected %d, got %d",
			common.ErrDatabaseCorrupted, ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
