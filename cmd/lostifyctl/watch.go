package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackmichael/lostify/internal/domain"
	"github.com/blackmichael/lostify/internal/livefeed"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream post events from a running Lostify server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		feedURL, _ := cmd.Flags().GetString("url")
		rawTypes, _ := cmd.Flags().GetStringSlice("type")

		var types []domain.PostType
		for _, raw := range rawTypes {
			t := domain.NormalizePostType(raw)
			if !t.Valid() {
				return fmt.Errorf("unknown post type %q", raw)
			}
			types = append(types, t)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sub := livefeed.NewSubscriber(feedURL, types, http.Header{}, printEvent, newLogger())
		fmt.Println(styleDim.Render("watching " + feedURL + " (ctrl-c to stop)"))
		if err := sub.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().String("url", "http://localhost:3000/api/live", "live feed URL")
	watchCmd.Flags().StringSlice("type", nil, "only stream these post types (lost, found)")

	rootCmd.AddCommand(watchCmd)
}

func printEvent(_ context.Context, event domain.PostEvent) {
	p := event.Post
	fmt.Printf("%s %s %s %s\n",
		styleDim.Render(event.At.Local().Format(time.DateTime)),
		styleScore.Render(fmt.Sprintf("%-8s", event.Type)),
		styleHeader.Render(fmt.Sprintf("[%s]", p.Type)),
		fmt.Sprintf("%s @ %s (%s)", p.Title, p.Location, p.ID),
	)
}
