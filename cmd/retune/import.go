package main

import (
	"fmt"
	"log/slog"

	"retune/internal/cli"
	"retune/internal/common"
	"retune/internal/ruleset"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import channels, rules, and filters into a scope",
		Long: `Import catalog data from YAML files into a scope.

Channels are upserted by stream ID, so re-importing a refreshed provider
listing updates names and categories without losing processing state.
Rules and filters are appended in file order.`,
	}

	cmd.AddCommand(importChannelsCmd())
	cmd.AddCommand(importRulesCmd())
	cmd.AddCommand(importFiltersCmd())

	return cmd
}

func importChannelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Import channels from a provider listing",
		RunE:  runImportChannels,
	}

	cmd.Flags().StringP("scope", "s", "", "Scope to import into")
	cmd.Flags().StringP("file", "f", "", "YAML file with the channel listing")

	_ = viper.BindPFlag("import.channels.scope", cmd.Flags().Lookup("scope"))
	_ = viper.BindPFlag("import.channels.file", cmd.Flags().Lookup("file"))

	return cmd
}

func runImportChannels(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	path := viper.GetString("import.channels.file")
	if path == "" {
		return fmt.Errorf("%w: channel file is required (use --file)", common.ErrMissingConfig)
	}

	channels, err := ruleset.LoadChannels(path)
	if err != nil {
		return fmt.Errorf("failed to load channels: %w", err)
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

	scope, err := resolveScope(ctx, store, viper.GetString("import.channels.scope"))
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle(fmt.Sprintf("Importing channels into %q", scope.Name)))

	if err := store.SaveChannels(ctx, scope.ID, channels); err != nil {
		return fmt.Errorf("failed to save channels: %w", err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Imported %d channels", len(channels))))
	return nil
}

func importRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Import tag extraction rules",
		Long: `Import tag extraction rules from a YAML file, or seed the scope with
the built-in default ruleset using --defaults.`,
		RunE: runImportRules,
	}

	cmd.Flags().StringP("scope", "s", "", "Scope to import into")
	cmd.Flags().StringP("file", "f", "", "YAML file with rules")
	cmd.Flags().Bool("defaults", false, "Seed the built-in default ruleset instead of reading a file")

	_ = viper.BindPFlag("import.rules.scope", cmd.Flags().Lookup("scope"))
	_ = viper.BindPFlag("import.rules.file", cmd.Flags().Lookup("file"))
	_ = viper.BindPFlag("import.rules.defaults", cmd.Flags().Lookup("defaults"))

	return cmd
}

func runImportRules(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	useDefaults := viper.GetBool("import.rules.defaults")
	path := viper.GetString("import.rules.file")

	if useDefaults && path != "" {
		return fmt.Errorf("--defaults and --file are mutually exclusive")
	}
	if !useDefaults && path == "" {
		return fmt.Errorf("%w: rule file is required (use --file or --defaults)", common.ErrMissingConfig)
	}

	rules := ruleset.DefaultRules()
	if !useDefaults {
		loaded, err := ruleset.LoadRules(path)
		if err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}
		rules = loaded
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

	scope, err := resolveScope(ctx, store, viper.GetString("import.rules.scope"))
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle(fmt.Sprintf("Importing rules into %q", scope.Name)))

	for i := range rules {
		rules[i].ScopeID = scope.ID
		if _, err := store.CreateRule(ctx, &rules[i]); err != nil {
			return fmt.Errorf("failed to create rule %q: %w", rules[i].Name, err)
		}
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Imported %d rules", len(rules))))
	return nil
}

func importFiltersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Import visibility filters",
		RunE:  runImportFilters,
	}

	cmd.Flags().StringP("scope", "s", "", "Scope to import into")
	cmd.Flags().StringP("file", "f", "", "YAML file with filters")

	_ = viper.BindPFlag("import.filters.scope", cmd.Flags().Lookup("scope"))
	_ = viper.BindPFlag("import.filters.file", cmd.Flags().Lookup("file"))

	return cmd
}

func runImportFilters(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	path := viper.GetString("import.filters.file")
	if path == "" {
		return fmt.Errorf("%w: filter file is required (use --file)", common.ErrMissingConfig)
	}

	filters, err := ruleset.LoadFilters(path)
	if err != nil {
		return fmt.Errorf("failed to load filters: %w", err)
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

	scope, err := resolveScope(ctx, store, viper.GetString("import.filters.scope"))
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle(fmt.Sprintf("Importing filters into %q", scope.Name)))

	for i := range filters {
		filters[i].ScopeID = scope.ID
		if _, err := store.CreateFilter(ctx, &filters[i]); err != nil {
			return fmt.Errorf("failed to create filter %q: %w", filters[i].Name, err)
		}
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Imported %d filters", len(filters))))
	return nil
}
