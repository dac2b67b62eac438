package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"retune/internal/cli"
	"retune/internal/model"
	"retune/internal/service"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func channelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List a scope's channels",
		Long: `Display a scope's channels with their cleaned names, tags, and
visibility. Channels no processing pass has evaluated yet show a
pending visibility rather than hidden.`,
		RunE: runChannels,
	}

	cmd.Flags().StringP("scope", "s", "", "Scope to list")
	cmd.Flags().Bool("visible", false, "Only channels marked visible")
	cmd.Flags().Bool("hidden", false, "Only channels marked hidden")
	cmd.Flags().String("category", "", "Only channels in this provider category")
	cmd.Flags().String("tag", "", "Only channels carrying this tag")
	cmd.Flags().Bool("active", false, "Only channels still present upstream")
	cmd.Flags().Int("limit", 0, "Maximum rows to show (0 means all)")
	cmd.Flags().Int("offset", 0, "Rows to skip")

	_ = viper.BindPFlag("channels.scope", cmd.Flags().Lookup("scope"))
	_ = viper.BindPFlag("channels.visible", cmd.Flags().Lookup("visible"))
	_ = viper.BindPFlag("channels.hidden", cmd.Flags().Lookup("hidden"))
	_ = viper.BindPFlag("channels.category", cmd.Flags().Lookup("category"))
	_ = viper.BindPFlag("channels.tag", cmd.Flags().Lookup("tag"))
	_ = viper.BindPFlag("channels.active", cmd.Flags().Lookup("active"))
	_ = viper.BindPFlag("channels.limit", cmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("channels.offset", cmd.Flags().Lookup("offset"))

	return cmd
}

func runChannels(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	filter, err := channelFilterFromFlags()
	if err != nil {
		return err
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

	scope, err := resolveScope(ctx, store, viper.GetString("channels.scope"))
	if err != nil {
		return err
	}

	channels, err := store.GetChannels(ctx, scope.ID, filter)
	if err != nil {
		return fmt.Errorf("failed to get channels: %w", err)
	}

	if len(channels) == 0 {
		fmt.Println(cli.InfoStyle.Render("No channels matched. Use 'retune import channels' to load a listing.")) //nolint:forbidigo // User-facing output
		return nil
	}

	channelTags, err := store.GetChannelTags(ctx, scope.ID)
	if err != nil {
		return fmt.Errorf("failed to get channel tags: %w", err)
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Channels in %q", scope.Name))) //nolint:forbidigo // User-facing output
	fmt.Println()                                                           //nolint:forbidigo // User-facing output

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() {
		if flushErr := w.Flush(); flushErr != nil {
			slog.Error("failed to flush table writer", "error", flushErr)
		}
	}()

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Stream"),
		headerStyle.Render("Name"),
		headerStyle.Render("Cleaned"),
		headerStyle.Render("Category"),
		headerStyle.Render("Tags"),
		headerStyle.Render("Visibility"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("─", 10),
		strings.Repeat("─", 24),
		strings.Repeat("─", 24),
		strings.Repeat("─", 14),
		strings.Repeat("─", 18),
		strings.Repeat("─", 10))

	for i := range channels {
		ch := &channels[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ch.StreamID,
			ch.Name,
			ch.CleanedName,
			ch.CategoryName,
			strings.Join(channelTags[ch.StreamID], ","),
			formatVisibility(ch))
	}

	return nil
}

func channelFilterFromFlags() (service.ChannelFilter, error) {
	filter := service.ChannelFilter{
		Category:   viper.GetString("channels.category"),
		Tag:        viper.GetString("channels.tag"),
		OnlyActive: viper.GetBool("channels.active"),
		Limit:      viper.GetInt("channels.limit"),
		Offset:     viper.GetInt("channels.offset"),
	}

	wantVisible := viper.GetBool("channels.visible")
	wantHidden := viper.GetBool("channels.hidden")
	if wantVisible && wantHidden {
		return filter, fmt.Errorf("--visible and --hidden are mutually exclusive")
	}
	if wantVisible {
		visible := true
		filter.Visible = &visible
	}
	if wantHidden {
		visible := false
		filter.Visible = &visible
	}

	return filter, nil
}

func formatVisibility(ch *model.Channel) string {
	switch {
	case ch.IsVisible == nil:
		return cli.SubtleStyle.Render("pending")
	case *ch.IsVisible:
		return cli.StyleSuccess("visible")
	default:
		return cli.StyleWarning("hidden")
	}
}
