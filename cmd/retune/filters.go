package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"retune/internal/cli"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func filtersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Manage a scope's visibility filters",
	}

	cmd.AddCommand(listFiltersCmd())
	cmd.AddCommand(enableFilterCmd())
	cmd.AddCommand(disableFilterCmd())

	return cmd
}

func listFiltersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all filters, including disabled ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close storage", "error", closeErr)
				}
			}()

			scopeName, _ := cmd.Flags().GetString("scope")
			scope, err := resolveScope(ctx, store, scopeName)
			if err != nil {
				return err
			}

			filters, err := store.ListFilters(ctx, scope.ID)
			if err != nil {
				return fmt.Errorf("failed to list filters: %w", err)
			}

			if len(filters) == 0 {
				fmt.Println(cli.InfoStyle.Render("No filters found. Without filters every processed channel stays visible.")) //nolint:forbidigo // User-facing output
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Filters in %q", scope.Name))) //nolint:forbidigo // User-facing output
			fmt.Println()                                                          //nolint:forbidigo // User-facing output

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() {
				if flushErr := w.Flush(); flushErr != nil {
					slog.Error("failed to flush table writer", "error", flushErr)
				}
			}()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Type"),
				headerStyle.Render("Action"),
				headerStyle.Render("Value"),
				headerStyle.Render("Status"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("─", 4),
				strings.Repeat("─", 22),
				strings.Repeat("─", 18),
				strings.Repeat("─", 8),
				strings.Repeat("─", 18),
				strings.Repeat("─", 8))

			for i := range filters {
				filter := &filters[i]
				status := "enabled"
				if !filter.Enabled {
					status = cli.SubtleStyle.Render("disabled")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					filter.ID, filter.Name, filter.Type,
					filter.EffectiveAction(), filter.Value, status)
			}

			return nil
		},
	}

	cmd.Flags().StringP("scope", "s", "", "Scope whose filters to list")

	return cmd
}

func enableFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enable <filter-id>",
		Short: "Enable a filter",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setFilterEnabled(cmd, args[0], true) },
	}
	cmd.Flags().StringP("scope", "s", "", "Scope the filter belongs to")
	return cmd
}

func disableFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disable <filter-id>",
		Short: "Disable a filter without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setFilterEnabled(cmd, args[0], false) },
	}
	cmd.Flags().StringP("scope", "s", "", "Scope the filter belongs to")
	return cmd
}

func setFilterEnabled(cmd *cobra.Command, rawID string, enabled bool) error {
	ctx := cmd.Context()

	filterID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid filter ID %q: %w", rawID, err)
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

	scopeName, _ := cmd.Flags().GetString("scope")
	scope, err := resolveScope(ctx, store, scopeName)
	if err != nil {
		return err
	}

	if err := store.SetFilterEnabled(ctx, scope.ID, filterID, enabled); err != nil {
		return fmt.Errorf("failed to update filter %d: %w", filterID, err)
	}

	verb := "enabled"
	if !enabled {
		verb = "disabled"
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Filter %d %s", filterID, verb))) //nolint:forbidigo // User-facing output
	return nil
}
