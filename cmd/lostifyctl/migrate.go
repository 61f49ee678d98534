package main

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or revert database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		version, dirty, err := store.SchemaVersion()
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		fmt.Println(styleSuccess.Render(fmt.Sprintf("schema at version %d (dirty: %t)", version, dirty)))
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations, dropping every Lostify table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			ok, err := confirm("Drop all Lostify tables and data")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println(styleDim.Render("aborted"))
				return nil
			}
		}

		store, err := openStore(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.MigrateDown(); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Println(styleSuccess.Render("all migrations reverted"))
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("prompt: %w", err)
	}
	return true, nil
}
