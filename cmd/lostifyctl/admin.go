package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackmichael/lostify/internal/domain"
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an account or promote an existing one to admin",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetString("id")
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		if id == "" {
			id = email
		}
		if id == "" {
			return errors.New("--email or --id is required")
		}

		store, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer store.Close()

		accounts := domain.NewAccountService(store, store, "", newLogger())
		user, err := accounts.SeedAdmin(cmd.Context(), domain.Identity{UserID: id, Username: username, Email: email})
		if err != nil {
			return err
		}
		fmt.Println(styleSuccess.Render(fmt.Sprintf("%s (%s) is an admin", user.Username, user.ID)))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every post as CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, _ := cmd.Flags().GetString("out")

		store, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer store.Close()

		var w io.Writer = os.Stdout
		if out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}

		admin := domain.NewAdminService(store, store, store, store, nil, newLogger())
		if err := admin.ExportCSV(cmd.Context(), w); err != nil {
			return err
		}
		if out != "-" {
			fmt.Fprintln(os.Stderr, styleSuccess.Render("exported posts to "+out))
		}
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().String("id", "", "gateway user id (defaults to the email)")
	seedAdminCmd.Flags().String("username", "", "display name")
	seedAdminCmd.Flags().String("email", "", "institutional email address")

	exportCmd.Flags().StringP("out", "o", "lostify-posts.csv", `output file, "-" for stdout`)

	rootCmd.AddCommand(seedAdminCmd, exportCmd)
}
