package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"retune/internal/common"
	"retune/internal/model"
	"retune/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// Helper function to create a scope for channel tests.
func createTestScope(t *testing.T, store *SQLiteStorage) *model.Scope {
	t.Helper()
	scope, err := store.CreateScope(context.Background(), "main")
	if err != nil {
		t.Fatalf("Failed to create scope: %v", err)
	}
	return scope
}

// Helper function to create test channels.
func createTestChannels(count int) []model.Channel {
	channels := make([]model.Channel, count)
	baseTime := time.Now().UTC().Add(-24 * time.Hour)

	for i := 0; i < count; i++ {
		channels[i] = model.Channel{
			StreamID:     makeTestID("stream", i+1),
			Name:         makeTestName("Channel", i+1),
			CategoryName: makeTestName("Category", (i%3)+1),
			IsActive:     true,
			LastSeen:     baseTime.Add(time.Duration(i) * time.Hour),
		}
	}
	return channels
}

func makeTestID(prefix string, num int) string {
	return fmt.Sprintf("%s-%03d", prefix, num)
}

func makeTestName(prefix string, num int) string {
	return fmt.Sprintf("%s %d", prefix, num)
}

func TestSQLiteStorage_CreateScope(t *testing.T) {
	tests := []struct {
		setup     func(*SQLiteStorage, context.Context)
		wantErrIs error
		name      string
		scopeName string
		wantErr   bool
	}{
		{
			name:      "create new scope",
			scopeName: "provider-a",
			wantErr:   false,
		},
		{
			name:      "duplicate scope name",
			scopeName: "provider-a",
			setup: func(s *SQLiteStorage, ctx context.Context) {
				_, _ = s.CreateScope(ctx, "provider-a")
			},
			wantErr:   true,
			wantErrIs: common.ErrDuplicateEntry,
		},
		{
			name:      "empty scope name",
			scopeName: "",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			if tt.setup != nil {
				tt.setup(store, ctx)
			}

			scope, err := store.CreateScope(ctx, tt.scopeName)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateScope() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErrIs != nil && !errors.Is(err, tt.wantErrIs) {
				t.Errorf("CreateScope() error = %v, want %v", err, tt.wantErrIs)
			}
			if !tt.wantErr {
				if scope.ID == 0 {
					t.Error("CreateScope() returned scope without ID")
				}
				if !scope.Enabled {
					t.Error("CreateScope() returned disabled scope")
				}
			}
		})
	}
}

func TestSQLiteStorage_GetScopeByName(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	created, err := store.CreateScope(ctx, "provider-a")
	if err != nil {
		t.Fatalf("Failed to create scope: %v", err)
	}

	got, err := store.GetScopeByName(ctx, "provider-a")
	if err != nil {
		t.Fatalf("GetScopeByName() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetScopeByName() ID = %d, want %d", got.ID, created.ID)
	}

	_, err = store.GetScopeByName(ctx, "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetScopeByName() error = %v, want %v", err, common.ErrNotFound)
	}
}

func TestSQLiteStorage_SaveChannels(t *testing.T) {
	tests := []struct {
		setup    func(*SQLiteStorage, context.Context, int64)
		validate func(*testing.T, *SQLiteStorage, context.Context, int64)
		name     string
		channels []model.Channel
		wantErr  bool
	}{
		{
			name:     "save new channels",
			channels: createTestChannels(3),
			wantErr:  false,
			validate: func(t *testing.T, s *SQLiteStorage, ctx context.Context, scopeID int64) {
				t.Helper()
				channels, err := s.GetActiveChannels(ctx, scopeID)
				if err != nil {
					t.Errorf("Failed to get channels: %v", err)
				}
				if len(channels) != 3 {
					t.Errorf("Expected 3 channels, got %d", len(channels))
				}
			},
		},
		{
			name:     "refresh does not duplicate",
			channels: createTestChannels(2),
			setup: func(s *SQLiteStorage, ctx context.Context, scopeID int64) {
				_ = s.SaveChannels(ctx, scopeID, createTestChannels(2))
			},
			wantErr: false,
			validate: func(t *testing.T, s *SQLiteStorage, ctx context.Context, scopeID int64) {
				t.Helper()
				channels, err := s.GetActiveChannels(ctx, scopeID)
				if err != nil {
					t.Errorf("Failed to get channels: %v", err)
				}
				if len(channels) != 2 {
					t.Errorf("Expected 2 channels after refresh, got %d", len(channels))
				}
			},
		},
		{
			name:     "save empty list",
			channels: []model.Channel{},
			wantErr:  true,
		},
		{
			name:     "channel without stream id",
			channels: []model.Channel{{Name: "No ID"}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()
			scope := createTestScope(t, store)

			if tt.setup != nil {
				tt.setup(store, ctx, scope.ID)
			}

			err := store.SaveChannels(ctx, scope.ID, tt.channels)
			if (err != nil) != tt.wantErr {
				t.Errorf("SaveChannels() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.validate != nil {
				tt.validate(t, store, ctx, scope.ID)
			}
		})
	}
}

func TestSQLiteStorage_SaveChannelsPreservesProcessingState(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	scope := createTestScope(t, store)

	channels := createTestChannels(1)
	if err := store.SaveChannels(ctx, scope.ID, channels); err != nil {
		t.Fatalf("SaveChannels() error = %v", err)
	}

	// Simulate a processing pass writing its results.
	now := time.Now().UTC()
	if err := store.UpdateChannelExtraction(ctx, scope.ID, channels[0].StreamID, "CLEANED", now); err != nil {
		t.Fatalf("UpdateChannelExtraction() error = %v", err)
	}
	if err := store.SetChannelVisibility(ctx, scope.ID, channels[0].StreamID, true); err != nil {
		t.Fatalf("SetChannelVisibility() error = %v", err)
	}

	// A catalog refresh may rename the channel but must not clobber the
	// cleaned name or visibility.
	channels[0].Name = "Renamed Channel"
	if err := store.SaveChannels(ctx, scope.ID, channels); err != nil {
		t.Fatalf("SaveChannels() error = %v", err)
	}

	got, err := store.GetChannel(ctx, scope.ID, channels[0].StreamID)
	if err != nil {
		t.Fatalf("GetChannel() error = %v", err)
	}
	if got.Name != "Renamed Channel" {
		t.Errorf("Name = %q, want %q", got.Name, "Renamed Channel")
	}
	if got.CleanedName != "CLEANED" {
		t.Errorf("CleanedName = %q, want %q", got.CleanedName, "CLEANED")
	}
	if got.IsVisible == nil || !*got.IsVisible {
		t.Errorf("IsVisible = %v, want true", got.IsVisible)
	}
}

func TestSQLiteStorage_GetChannel(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	scope := createTestScope(t, store)

	channels := createTestChannels(1)
	if err := store.SaveChannels(ctx, scope.ID, channels); err != nil {
		t.Fatalf("SaveChannels() error = %v", err)
	}

	got, err := store.GetChannel(ctx, scope.ID, channels[0].StreamID)
	if err != nil {
		t.Fatalf("GetChannel() error = %v", err)
	}
	if got.IsVisible != nil {
		t.Errorf("IsVisible = %v, want nil before processing", *got.IsVisible)
	}
	if got.LastTagUpdate != nil {
		t.Errorf("LastTagUpdate = %v, want nil before processing", *got.LastTagUpdate)
	}

	_, err = store.GetChannel(ctx, scope.ID, "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetChannel() error = %v, want %v", err, common.ErrNotFound)
	}
}

func TestSQLiteStorage_GetChannels(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }

	tests := []struct {
		filter  service.ChannelFilter
		name    string
		wantIDs []string
	}{
		{
			name:    "no filter returns everything",
			filter:  service.ChannelFilter{},
			wantIDs: []string{"stream-001", "stream-002", "stream-003", "stream-004"},
		},
		{
			name:    "visible only",
			filter:  service.ChannelFilter{Visible: boolPtr(true)},
			wantIDs: []string{"stream-001"},
		},
		{
			name:    "hidden only excludes unprocessed",
			filter:  service.ChannelFilter{Visible: boolPtr(false)},
			wantIDs: []string{"stream-002"},
		},
		{
			name:    "category is case insensitive",
			filter:  service.ChannelFilter{Category: "category 1"},
			wantIDs: []string{"stream-001", "stream-004"},
		},
		{
			name:    "tag lookup is case insensitive",
			filter:  service.ChannelFilter{Tag: "news"},
			wantIDs: []string{"stream-002"},
		},
		{
			name:    "active only",
			filter:  service.ChannelFilter{OnlyActive: true},
			wantIDs: []string{"stream-001", "stream-002", "stream-003"},
		},
		{
			name:    "limit and offset",
			filter:  service.ChannelFilter{Limit: 2, Offset: 1},
			wantIDs: []string{"stream-002", "stream-003"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()
			scope := createTestScope(t, store)

			channels := createTestChannels(4)
			channels[3].IsActive = false
			if err := store.SaveChannels(ctx, scope.ID, channels); err != nil {
				t.Fatalf("SaveChannels() error = %v", err)
			}
			if err := store.SetChannelVisibility(ctx, scope.ID, "stream-001", true); err != nil {
				t.Fatalf("SetChannelVisibility() error = %v", err)
			}
			if err := store.SetChannelVisibility(ctx, scope.ID, "stream-002", false); err != nil {
				t.Fatalf("SetChannelVisibility() error = %v", err)
			}
			now := time.Now().UTC()
			if _, err := store.UpsertAssignment(ctx, &model.TagAssignment{
				ScopeID:   scope.ID,
				StreamID:  "stream-002",
				TagName:   "NEWS",
				UpdatedAt: now,
			}); err != nil {
				t.Fatalf("UpsertAssignment() error = %v", err)
			}

			got, err := store.GetChannels(ctx, scope.ID, tt.filter)
			if err != nil {
				t.Fatalf("GetChannels() error = %v", err)
			}

			gotIDs := make([]string, len(got))
			for i, ch := range got {
				gotIDs[i] = ch.StreamID
			}
			if len(gotIDs) != len(tt.wantIDs) {
				t.Fatalf("GetChannels() returned %v, want %v", gotIDs, tt.wantIDs)
			}
			for i := range tt.wantIDs {
				if gotIDs[i] != tt.wantIDs[i] {
					t.Errorf("GetChannels()[%d] = %s, want %s", i, gotIDs[i], tt.wantIDs[i])
				}
			}
		})
	}
}

func TestSQLiteStorage_UpdateChannelExtraction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	scope := createTestScope(t, store)

	channels := createTestChannels(1)
	if err := store.SaveChannels(ctx, scope.ID, channels); err != nil {
		t.Fatalf("SaveChannels() error = %v", err)
	}

	now := time.Now().UTC()
	if err := store.UpdateChannelExtraction(ctx, scope.ID, channels[0].StreamID, "FOX NET", now); err != nil {
		t.Fatalf("UpdateChannelExtraction() error = %v", err)
	}

	got, err := store.GetChannel(ctx, scope.ID, channels[0].StreamID)
	if err != nil {
		t.Fatalf("GetChannel() error = %v", err)
	}
	if got.CleanedName != "FOX NET" {
		t.Errorf("CleanedName = %q, want %q", got.CleanedName, "FOX NET")
	}
	if got.LastTagUpdate == nil {
		t.Error("LastTagUpdate not set")
	}

	err = store.UpdateChannelExtraction(ctx, scope.ID, "missing", "X", now)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("UpdateChannelExtraction() error = %v, want %v", err, common.ErrNotFound)
	}
}

func TestSQLiteStorage_SetChannelVisibility(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	scope := createTestScope(t, store)

	channels := createTestChannels(1)
	if err := store.SaveChannels(ctx, scope.ID, channels); err != nil {
		t.Fatalf("SaveChannels() error = %v", err)
	}

	if err := store.SetChannelVisibility(ctx, scope.ID, channels[0].StreamID, false); err != nil {
		t.Fatalf("SetChannelVisibility() error = %v", err)
	}

	got, err := store.GetChannel(ctx, scope.ID, channels[0].StreamID)
	if err != nil {
		t.Fatalf("GetChannel() error = %v", err)
	}
	if got.IsVisible == nil || *got.IsVisible {
		t.Errorf("IsVisible = %v, want false", got.IsVisible)
	}

	err = store.SetChannelVisibility(ctx, scope.ID, "missing", true)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("SetChannelVisibility() error = %v, want %v", err, common.ErrNotFound)
	}
}

func TestSQLiteStorage_RuleOrdering(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	scope := createTestScope(t, store)

	// Equal priorities must come back in creation order.
	rules := []model.Rule{
		{ScopeID: scope.ID, Name: "second", Pattern: "B", PatternType: model.PatternContains, TagName: "B", Source: model.SourceChannelName, Priority: 20, Enabled: true},
		{ScopeID: scope.ID, Name: "first", Pattern: "A", PatternType: model.PatternContains, TagName: "A", Source: model.SourceChannelName, Priority: 10, Enabled: true},
		{ScopeID: scope.ID, Name: "third", Pattern: "C", PatternType: model.PatternContains, TagName: "C", Source: model.SourceChannelName, Priority: 20, Enabled: true},
		{ScopeID: scope.ID, Name: "disabled", Pattern: "D", PatternType: model.PatternContains, TagName: "D", Source: model.SourceChannelName, Priority: 5, Enabled: false},
	}
	for i := range rules {
		if _, err := store.CreateRule(ctx, &rules[i]); err != nil {
			t.Fatalf("CreateRule(%s) error = %v", rules[i].Name, err)
		}
	}

	enabled, err := store.GetEnabledRules(ctx, scope.ID)
	if err != nil {
		t.Fatalf("GetEnabledRules() error = %v", err)
	}
	wantOrder := []string{"first", "second", "third"}
	if len(enabled) != len(wantOrder) {
		t.Fatalf("GetEnabledRules() returned %d rules, want %d", len(enabled), len(wantOrder))
	}
	for i, want := range wantOrder {
		if enabled[i].Name != want {
			t.Errorf("GetEnabledRules()[%d] = %s, want %s", i, enabled[i].Name, want)
		}
	}

	all, err := store.ListRules(ctx, scope.ID)
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("ListRules() returned %d rules, want 4", len(all))
	}
}

func TestSQLiteStorage_RuleReplacementRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	scope := createTestScope(t, store)

	replacement := " - "
	created, err := store.CreateRule(ctx, &model.Rule{
		ScopeID:        scope.ID,
		Name:           "pipe to dash",
		Pattern:        "|",
		PatternType:    model.PatternContains,
		TagName:        model.TagNameCleanup,
		Source:         model.SourceChannelName,
		Priority:       5,
		RemoveFromName: true,
		Enabled:        true,
		Replacement:    &replacement,
	})
	if err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("CreateRule() returned rule without ID")
	}

	rules, err := store.GetEnabledRules(ctx, scope.ID)
	if err != nil {
		t.Fatalf("GetEnabledRules() error = %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("GetEnabledRules() returned %d rules, want 1", len(rules))
	}
	if rules[0].Replacement == nil || *rules[0].Replacement != " - " {
		t.Errorf("Replacement = %v, want %q", rules[0].Replacement, " - ")
	}
}

func TestSQLiteStorage_FilterOperations(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	scope := createTestScope(t, store)

	filters := []model.Filter{
		{ScopeID: scope.ID, Name: "keep us", Type: model.FilterCategoryWhitelist, Value: "US", Enabled: true},
		{ScopeID: scope.ID, Name: "drop tests", Type: model.FilterNameContains, Action: model.ActionExclude, Value: "TEST", Enabled: true},
		{ScopeID: scope.ID, Name: "off", Type: model.FilterTagExclude, Value: "ADULT", Enabled: false},
	}
	for i := range filters {
		if _, err := store.CreateFilter(ctx, &filters[i]); err != nil {
			t.Fatalf("CreateFilter(%s) error = %v", filters[i].Name, err)
		}
	}

	enabled, err := store.GetEnabledFilters(ctx, scope.ID)
	if err != nil {
		t.Fatalf("GetEnabledFilters() error = %v", err)
	}
	if len(enabled) != 2 {
		t.Fatalf("GetEnabledFilters() returned %d filters, want 2", len(enabled))
	}
	if enabled[0].Name != "keep us" || enabled[1].Name != "drop tests" {
		t.Errorf("GetEnabledFilters() order = [%s, %s], want creation order", enabled[0].Name, enabled[1].Name)
	}
	if enabled[1].Action != model.ActionExclude {
		t.Errorf("Action = %q, want %q", enabled[1].Action, model.ActionExclude)
	}

	all, err := store.ListFilters(ctx, scope.ID)
	if err != nil {
		t.Fatalf("ListFilters() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListFilters() returned %d filters, want 3", len(all))
	}
}

func TestSQLiteStorage_ScopeIsolation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	scopeA, err := store.CreateScope(ctx, "provider-a")
	if err != nil {
		t.Fatalf("CreateScope() error = %v", err)
	}
	scopeB, err := store.CreateScope(ctx, "provider-b")
	if err != nil {
		t.Fatalf("CreateScope() error = %v", err)
	}

	if err := store.SaveChannels(ctx, scopeA.ID, createTestChannels(3)); err != nil {
		t.Fatalf("SaveChannels() error = %v", err)
	}
	if err := store.SaveChannels(ctx, scopeB.ID, createTestChannels(1)); err != nil {
		t.Fatalf("SaveChannels() error = %v", err)
	}

	channelsA, err := store.GetActiveChannels(ctx, scopeA.ID)
	if err != nil {
		t.Fatalf("GetActiveChannels() error = %v", err)
	}
	channelsB, err := store.GetActiveChannels(ctx, scopeB.ID)
	if err != nil {
		t.Fatalf("GetActiveChannels() error = %v", err)
	}
	if len(channelsA) != 3 || len(channelsB) != 1 {
		t.Errorf("Scope isolation broken: scope A has %d channels, scope B has %d", len(channelsA), len(channelsB))
	}
}

func TestSQLiteStorage_Migrations(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	// Test initial migration
	store1, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err2 := store1.Migrate(ctx); err2 != nil {
		t.Fatalf("Initial migration failed: %v", err2)
	}
	_ = store1.Close()

	// Test idempotency - running migrations again should not error
	store2, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer func() { _ = store2.Close() }()

	if err := store2.Migrate(ctx); err != nil {
		t.Fatalf("Repeated migration failed: %v", err)
	}

	// Verify database is functional after migrations
	scope, err := store2.CreateScope(ctx, "post-migration")
	if err != nil {
		t.Fatalf("Database not functional after migration: %v", err)
	}
	if err := store2.SaveChannels(ctx, scope.ID, createTestChannels(1)); err != nil {
		t.Errorf("Database not functional after migration: %v", err)
	}
}

func TestSQLiteStorage_ConcurrentAccess(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	scope := createTestScope(t, store)

	// Test concurrent reads and writes
	done := make(chan bool)
	errs := make(chan error, 10)

	// Concurrent writers
	for i := 0; i < 5; i++ {
		go func(id int) {
			channel := model.Channel{
				StreamID:     makeTestID("concurrent", id),
				Name:         makeTestName("Concurrent", id),
				CategoryName: "Concurrent",
				IsActive:     true,
			}
			if err := store.SaveChannels(ctx, scope.ID, []model.Channel{channel}); err != nil {
				errs <- err
			}
			done <- true
		}(i)
	}

	// Concurrent readers
	for i := 0; i < 5; i++ {
		go func() {
			if _, err := store.GetActiveChannels(ctx, scope.ID); err != nil {
				errs <- err
			}
			done <- true
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	close(errs)
	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}
}
