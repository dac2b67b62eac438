package main

import (
	"context"
	"fmt"

	"retune/internal/common"
	"retune/internal/config"
	"retune/internal/model"
	"retune/internal/service"
	"retune/internal/storage"

	"github.com/spf13/viper"
)

// databasePath resolves the configured database location, falling back to
// the default under $HOME with tilde and environment expansion applied.
func databasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	return config.ExpandPath(dbPath)
}

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// resolveScope looks up a scope by the name given on the command line.
func resolveScope(ctx context.Context, store service.Storage, name string) (*model.Scope, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: scope name is required (use --scope)", common.ErrMissingConfig)
	}

	scope, err := store.GetScopeByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up scope %q: %w", name, err)
	}

	return scope, nil
}
