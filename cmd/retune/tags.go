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
	"github.com/spf13/viper"
)

func tagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Summarize a scope's tags",
		Long: `Display every tag currently assigned in a scope with the number of
channels carrying it, most used first.`,
		RunE: runTags,
	}

	cmd.Flags().StringP("scope", "s", "", "Scope to summarize")
	cmd.Flags().String("channel", "", "Show the tags of one channel (by stream ID) instead")

	_ = viper.BindPFlag("tags.scope", cmd.Flags().Lookup("scope"))
	_ = viper.BindPFlag("tags.channel", cmd.Flags().Lookup("channel"))

	return cmd
}

func runTags(cmd *cobra.Command, _ []string) error {
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

	scope, err := resolveScope(ctx, store, viper.GetString("tags.scope"))
	if err != nil {
		return err
	}

	if streamID := viper.GetString("tags.channel"); streamID != "" {
		tags, tagsErr := store.GetTagsForChannel(ctx, scope.ID, streamID)
		if tagsErr != nil {
			return fmt.Errorf("failed to get channel tags: %w", tagsErr)
		}
		if len(tags) == 0 {
			fmt.Println(cli.InfoStyle.Render(fmt.Sprintf("Channel %s carries no tags.", streamID))) //nolint:forbidigo // User-facing output
			return nil
		}
		fmt.Println(cli.FormatTitle(fmt.Sprintf("Tags on %s", streamID))) //nolint:forbidigo // User-facing output
		for _, tag := range tags {
			fmt.Println("  " + tag) //nolint:forbidigo // User-facing output
		}
		return nil
	}

	summary, err := store.GetTagSummary(ctx, scope.ID)
	if err != nil {
		return fmt.Errorf("failed to get tag summary: %w", err)
	}

	if len(summary) == 0 {
		fmt.Println(cli.InfoStyle.Render("No tags assigned yet. Run 'retune process' first.")) //nolint:forbidigo // User-facing output
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Tags in %q", scope.Name))) //nolint:forbidigo // User-facing output
	fmt.Println()                                                       //nolint:forbidigo // User-facing output

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() {
		if flushErr := w.Flush(); flushErr != nil {
			slog.Error("failed to flush table writer", "error", flushErr)
		}
	}()

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintf(w, "%s\t%s\n",
		headerStyle.Render("Tag"),
		headerStyle.Render("Channels"))
	fmt.Fprintf(w, "%s\t%s\n",
		strings.Repeat("─", 20),
		strings.Repeat("─", 8))

	for _, row := range summary {
		fmt.Fprintf(w, "%s\t%d\n", row.TagName, row.Count)
	}

	return nil
}
