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

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage a scope's tag extraction rules",
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(enableRuleCmd())
	cmd.AddCommand(disableRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all rules, including disabled ones",
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

			rules, err := store.ListRules(ctx, scope.ID)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println(cli.InfoStyle.Render("No rules found. Use 'retune import rules --defaults' to seed the built-in set.")) //nolint:forbidigo // User-facing output
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Rules in %q", scope.Name))) //nolint:forbidigo // User-facing output
			fmt.Println()                                                        //nolint:forbidigo // User-facing output

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() {
				if flushErr := w.Flush(); flushErr != nil {
					slog.Error("failed to flush table writer", "error", flushErr)
				}
			}()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Pattern"),
				headerStyle.Render("Type"),
				headerStyle.Render("Tag"),
				headerStyle.Render("Source"),
				headerStyle.Render("Priority"),
				headerStyle.Render("Status"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("─", 4),
				strings.Repeat("─", 22),
				strings.Repeat("─", 18),
				strings.Repeat("─", 8),
				strings.Repeat("─", 12),
				strings.Repeat("─", 13),
				strings.Repeat("─", 8),
				strings.Repeat("─", 8))

			for i := range rules {
				rule := &rules[i]
				status := "enabled"
				if !rule.Enabled {
					status = cli.SubtleStyle.Render("disabled")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					rule.ID, rule.Name, rule.Pattern, rule.PatternType,
					rule.TagName, rule.Source, rule.Priority, status)
			}

			return nil
		},
	}

	cmd.Flags().StringP("scope", "s", "", "Scope whose rules to list")

	return cmd
}

func enableRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enable <rule-id>",
		Short: "Enable a rule",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setRuleEnabled(cmd, args[0], true) },
	}
	cmd.Flags().StringP("scope", "s", "", "Scope the rule belongs to")
	return cmd
}

func disableRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disable <rule-id>",
		Short: "Disable a rule without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setRuleEnabled(cmd, args[0], false) },
	}
	cmd.Flags().StringP("scope", "s", "", "Scope the rule belongs to")
	return cmd
}

func setRuleEnabled(cmd *cobra.Command, rawID string, enabled bool) error {
	ctx := cmd.Context()

	ruleID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid rule ID %q: %w", rawID, err)
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

	if err := store.SetRuleEnabled(ctx, scope.ID, ruleID, enabled); err != nil {
		return fmt.Errorf("failed to update rule %d: %w", ruleID, err)
	}

	verb := "enabled"
	if !enabled {
		verb = "disabled"
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule %d %s", ruleID, verb))) //nolint:forbidigo // User-facing output
	return nil
}
