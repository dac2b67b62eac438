package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"retune/internal/cli"
	"retune/internal/common"
	"retune/internal/engine"
	"retune/internal/model"
	"retune/internal/service"

	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run a processing pass over a scope",
		Long: `Run one full processing pass over a scope: extract tags and cleaned
names for every active channel, sweep tags the pass did not refresh,
and recompute channel visibility from the enabled filters.

With --all, every enabled scope is processed in turn and a failure in
one scope does not stop the others.

Passes on the same scope are serialized through a lock file next to
the database. A second invocation fails fast unless --wait is given.`,
		RunE: runProcess,
	}

	cmd.Flags().StringP("scope", "s", "", "Scope to process")
	cmd.Flags().Bool("all", false, "Process every enabled scope")
	cmd.Flags().Bool("wait", false, "Wait for a running pass on this scope to finish instead of failing")
	cmd.Flags().Bool("allow-empty-ruleset", false, "Process even when the scope has no enabled rules (removes every tag)")
	cmd.Flags().Duration("timeout", 0, "Abort the pass after this duration (0 means no limit)")

	_ = viper.BindPFlag("process.scope", cmd.Flags().Lookup("scope"))
	_ = viper.BindPFlag("process.all", cmd.Flags().Lookup("all"))
	_ = viper.BindPFlag("process.wait", cmd.Flags().Lookup("wait"))
	_ = viper.BindPFlag("process.allow_empty_ruleset", cmd.Flags().Lookup("allow-empty-ruleset"))
	_ = viper.BindPFlag("process.timeout", cmd.Flags().Lookup("timeout"))

	return cmd
}

func runProcess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if timeout := viper.GetDuration("process.timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	scopes, err := scopesToProcess(ctx, store)
	if err != nil {
		return err
	}

	failed := 0
	for i := range scopes {
		if runErr := processOneScope(ctx, store, &scopes[i]); runErr != nil {
			if len(scopes) == 1 {
				return runErr
			}
			failed++
			slog.Error("Scope pass failed", "scope", scopes[i].Name, "error", runErr)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scopes failed", failed, len(scopes))
	}
	return nil
}

// scopesToProcess turns the scope flags into the list of scopes this
// invocation should run over. With --all, disabled scopes are skipped
// rather than treated as errors.
func scopesToProcess(ctx context.Context, store service.Storage) ([]model.Scope, error) {
	name := viper.GetString("process.scope")
	if !viper.GetBool("process.all") {
		scope, err := resolveScope(ctx, store, name)
		if err != nil {
			return nil, err
		}
		return []model.Scope{*scope}, nil
	}

	if name != "" {
		return nil, fmt.Errorf("%w: --scope and --all are mutually exclusive", common.ErrInvalidConfig)
	}

	scopes, err := store.ListScopes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}

	enabled := make([]model.Scope, 0, len(scopes))
	for _, scope := range scopes {
		if !scope.Enabled {
			slog.Info("Skipping disabled scope", "scope", scope.Name)
			continue
		}
		enabled = append(enabled, scope)
	}
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no enabled scopes to process: %w", common.ErrNotFound)
	}
	return enabled, nil
}

func processOneScope(ctx context.Context, store service.Storage, scope *model.Scope) error {
	// One pass per scope at a time. The engine assumes callers serialize
	// passes; the lock file is how concurrent CLI invocations do that.
	lock := flock.New(scopeLockPath(scope.ID))
	if err := acquireScopeLock(ctx, lock, scope.Name, viper.GetBool("process.wait")); err != nil {
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			slog.Warn("Failed to release scope lock", "error", unlockErr)
		}
	}()

	// Refuse a pass that would silently wipe every tag in the scope.
	// The sweep removes whatever the pass did not refresh, so running
	// with zero rules is destructive and needs to be asked for.
	if !viper.GetBool("process.allow_empty_ruleset") {
		rules, rulesErr := store.GetEnabledRules(ctx, scope.ID)
		if rulesErr != nil {
			return fmt.Errorf("failed to load rules: %w", rulesErr)
		}
		if len(rules) == 0 {
			return fmt.Errorf("scope %q: %w (pass --allow-empty-ruleset to sweep all tags)", scope.Name, common.ErrNoRules)
		}
	}

	slog.Info(cli.FormatTitle(fmt.Sprintf("Processing scope %q", scope.Name)))

	var bar *progressbar.ProgressBar
	processor := engine.NewWithConfig(store, engine.Config{
		Progress: func(completed, total int) {
			if bar == nil {
				bar = newProcessBar(total)
			}
			if setErr := bar.Set(completed); setErr != nil {
				slog.Warn("Failed to update progress bar", "error", setErr)
			}
		},
	})

	stats, err := processor.ProcessScope(ctx, scope.ID)
	if err != nil {
		if stats != nil && stats.ChannelsProcessed > 0 {
			slog.Warn("Pass aborted after partial progress",
				"channels_processed", stats.ChannelsProcessed,
				"channel_errors", stats.ChannelErrors)
		}
		return fmt.Errorf("processing failed: %w", err)
	}

	displayStats(scope.Name, stats)
	return nil
}

// scopeLockPath puts the lock next to the database so every invocation
// that shares a database shares the lock.
func scopeLockPath(scopeID int64) string {
	return fmt.Sprintf("%s.scope-%d.lock", databasePath(), scopeID)
}

func acquireScopeLock(ctx context.Context, lock *flock.Flock, scopeName string, wait bool) error {
	acquire := func() error {
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to acquire scope lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("scope %q: %w", scopeName, common.ErrProcessingBusy)
		}
		return nil
	}

	if !wait {
		return acquire()
	}

	return common.WithRetry(ctx, acquire, service.RetryOptions{
		MaxAttempts:  20,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	})
}

func newProcessBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Retagging channels...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func displayStats(scopeName string, stats *service.BatchStats) {
	summary := fmt.Sprintf("  • Scope: %s\n", scopeName) +
		fmt.Sprintf("  • Run: %s\n", stats.RunID) +
		fmt.Sprintf("  • Channels processed: %d\n", stats.ChannelsProcessed) +
		fmt.Sprintf("  • Visible: %d, hidden: %d\n", stats.ChannelsVisible, stats.ChannelsHidden) +
		fmt.Sprintf("  • Tags created: %d, confirmed: %d, removed: %d\n", stats.TagsCreated, stats.TagsConfirmed, stats.TagsRemoved) +
		fmt.Sprintf("  • Unique tags: %d\n", stats.UniqueTags) +
		fmt.Sprintf("  • Time taken: %s\n", stats.Duration.Round(time.Millisecond))

	fmt.Println(cli.RenderBox("Processing Complete", summary)) //nolint:forbidigo // User-facing output

	if stats.ChannelErrors > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d channels failed; their tags and visibility were left untouched", stats.ChannelErrors))) //nolint:forbidigo // User-facing output
	}
	if stats.RulesSkipped > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d rules skipped (patterns failed to compile); run 'retune rules list' to review", stats.RulesSkipped))) //nolint:forbidigo // User-facing output
	}
}
