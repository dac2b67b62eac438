package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"retune/internal/cli"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func scopesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scopes",
		Short: "Manage catalog scopes",
		Long: `Create, list, enable, and disable scopes.

A scope is one provider catalog: its channels, rules, filters, and tags
live apart from every other scope's.`,
	}

	cmd.AddCommand(createScopeCmd())
	cmd.AddCommand(listScopesCmd())
	cmd.AddCommand(enableScopeCmd())
	cmd.AddCommand(disableScopeCmd())

	return cmd
}

func createScopeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			scope, err := store.CreateScope(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to create scope: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Scope %q created (id %d)", scope.Name, scope.ID))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func listScopesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all scopes",
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

			scopes, err := store.ListScopes(ctx)
			if err != nil {
				return fmt.Errorf("failed to list scopes: %w", err)
			}

			if len(scopes) == 0 {
				fmt.Println(cli.InfoStyle.Render("No scopes found. Use 'retune scopes create' to create one.")) //nolint:forbidigo // User-facing output
				return nil
			}

			fmt.Println(cli.FormatTitle("Scopes")) //nolint:forbidigo // User-facing output
			fmt.Println()                          //nolint:forbidigo // User-facing output

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() {
				if flushErr := w.Flush(); flushErr != nil {
					slog.Error("failed to flush table writer", "error", flushErr)
				}
			}()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Status"),
				headerStyle.Render("Created"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("─", 4),
				strings.Repeat("─", 20),
				strings.Repeat("─", 8),
				strings.Repeat("─", 12))

			for _, scope := range scopes {
				status := "enabled"
				if !scope.Enabled {
					status = cli.SubtleStyle.Render("disabled")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					scope.ID, scope.Name, status, scope.CreatedAt.Format("2006-01-02"))
			}

			return nil
		},
	}
}

func enableScopeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable a scope",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setScopeEnabled(cmd, args[0], true) },
	}
}

func disableScopeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable a scope",
		Long:  `Disable a scope. A disabled scope refuses processing passes but keeps all of its data.`,
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setScopeEnabled(cmd, args[0], false) },
	}
}

func setScopeEnabled(cmd *cobra.Command, name string, enabled bool) error {
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

	scope, err := resolveScope(ctx, store, name)
	if err != nil {
		return err
	}

	if err := store.SetScopeEnabled(ctx, scope.ID, enabled); err != nil {
		return fmt.Errorf("failed to update scope: %w", err)
	}

	verb := "enabled"
	if !enabled {
		verb = "disabled"
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Scope %q %s", scope.Name, verb))) //nolint:forbidigo // User-facing output
	return nil
}
