package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"retune/internal/cli"
	"retune/internal/extract"
	"retune/internal/model"
	"retune/internal/ruleset"
	"retune/internal/visibility"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <channel name>",
		Short: "Preview extraction and visibility for one channel name",
		Long: `Run a channel name through the scope's enabled rules and filters and
show what a processing pass would do with it. Nothing is persisted:
no tags are written and no channel rows are touched.

Without --scope, the built-in default ruleset is used and no filters
apply, so the verdict is always visible.

Useful for tuning rules before committing to a full pass.`,
		Args: cobra.ExactArgs(1),
		RunE: runPreview,
	}

	cmd.Flags().StringP("scope", "s", "", "Scope whose rules and filters to use")
	cmd.Flags().StringP("category", "c", "", "Provider category the channel is listed under")

	_ = viper.BindPFlag("preview.scope", cmd.Flags().Lookup("scope"))
	_ = viper.BindPFlag("preview.category", cmd.Flags().Lookup("category"))

	return cmd
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	channelName := args[0]
	categoryName := viper.GetString("preview.category")

	rules, filters, err := previewDefinitions(ctx, viper.GetString("preview.scope"))
	if err != nil {
		return err
	}

	extractor := extract.NewExtractor(rules)
	result := extractor.Extract(channelName, categoryName)

	evaluator := visibility.NewEvaluator(filters)
	visible := evaluator.Visible(categoryName, channelName, result.SortedTags())

	tags := strings.Join(result.SortedTags(), ", ")
	if tags == "" {
		tags = cli.SubtleStyle.Render("(none)")
	}

	verdict := cli.StyleSuccess("visible")
	if !visible {
		verdict = cli.StyleWarning("hidden")
	}

	content := fmt.Sprintf("  • Name: %s\n", channelName)
	if categoryName != "" {
		content += fmt.Sprintf("  • Category: %s\n", categoryName)
	}
	content += fmt.Sprintf("  • Cleaned name: %s\n", result.CleanedName) +
		fmt.Sprintf("  • Tags: %s\n", tags) +
		fmt.Sprintf("  • Verdict: %s\n", verdict) +
		fmt.Sprintf("  • Rules applied: %d, filters applied: %d\n", len(rules), len(filters))

	fmt.Println(cli.RenderBox("Preview", content)) //nolint:forbidigo // User-facing output

	for _, diag := range extractor.Diagnostics() {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("rule %d skipped: %s (pattern %q)", diag.RuleID, diag.Reason, diag.Pattern))) //nolint:forbidigo // User-facing output
	}
	for _, diag := range evaluator.Diagnostics() {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("filter %d inert: %s (value %q)", diag.FilterID, diag.Reason, diag.Value))) //nolint:forbidigo // User-facing output
	}

	return nil
}

// previewDefinitions loads the named scope's enabled rules and filters, or
// the built-in default ruleset when no scope is given.
func previewDefinitions(ctx context.Context, scopeName string) ([]model.Rule, []model.Filter, error) {
	if scopeName == "" {
		return ruleset.DefaultRules(), nil, nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	scope, err := resolveScope(ctx, store, scopeName)
	if err != nil {
		return nil, nil, err
	}

	rules, err := store.GetEnabledRules(ctx, scope.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rules: %w", err)
	}

	filters, err := store.GetEnabledFilters(ctx, scope.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load filters: %w", err)
	}

	return rules, filters, nil
}
