package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackmichael/lostify/internal/domain"
	"github.com/blackmichael/lostify/internal/matching"
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Show the ranked matches for a user's active posts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, _ := cmd.Flags().GetString("user")
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		if userID == "" {
			return errors.New("--user is required")
		}

		cfg := matching.DefaultConfig()
		cfg.Threshold = threshold
		matcher, err := matching.New(cfg)
		if err != nil {
			return err
		}

		store, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer store.Close()

		user, err := store.GetUser(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("user %s: %w", userID, err)
		}

		posts := domain.NewPostService(store, matcher, nil, newLogger())
		matches, err := posts.MyMatches(cmd.Context(), user)
		if err != nil {
			return err
		}
		renderMatches(os.Stdout, user, matches)
		return nil
	},
}

func init() {
	matchesCmd.Flags().StringP("user", "u", "", "user id to compute matches for")
	matchesCmd.Flags().Float64("threshold", matching.DefaultThreshold, "minimum score to report")

	rootCmd.AddCommand(matchesCmd)
}

func renderMatches(w io.Writer, user *domain.User, matches []domain.Match) {
	fmt.Fprintln(w, styleHeader.Render(fmt.Sprintf("Matches for %s (%d)", user.Username, len(matches))))
	if len(matches) == 0 {
		fmt.Fprintln(w, styleDim.Render("no matches above the threshold"))
		return
	}

	header := []string{
		column(styleHeader, "SCORE", 7),
		column(styleHeader, "YOUR POST", 28),
		column(styleHeader, "CANDIDATE", 28),
		column(styleHeader, "LOCATION", 20),
		column(styleHeader, "CONTACT", 20),
	}
	fmt.Fprintln(w, strings.Join(header, " "))

	for _, m := range matches {
		row := []string{
			column(styleScore, fmt.Sprintf("%d%%", m.ScorePercentage), 7),
			column(styleDim, fmt.Sprintf("[%s] %s", m.SourcePost.Type, m.SourcePost.Title), 28),
			column(styleSuccess, fmt.Sprintf("[%s] %s", m.CandidatePost.Type, m.CandidatePost.Title), 28),
			column(styleDim, m.CandidatePost.Location, 20),
			column(styleDim, m.CandidatePost.ContactInfo, 20),
		}
		fmt.Fprintln(w, strings.Join(row, " "))
	}
}
