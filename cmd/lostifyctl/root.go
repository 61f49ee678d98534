package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackmichael/lostify/internal/logging"
	"github.com/blackmichael/lostify/internal/sqlstore"
)

const (
	app       = "lostifyctl"
	envPrefix = "LOSTIFY"
)

var rootCmd = &cobra.Command{
	Use:           app,
	Short:         "lostifyctl manages a Lostify database from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("database-url", "lostify.db", "database URL or SQLite path (env LOSTIFY_DATABASE_URL)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn or error")

	viper.BindPFlag("database-url", rootCmd.PersistentFlags().Lookup("database-url"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func newLogger() *slog.Logger {
	return logging.NewWithWriter(os.Stderr, viper.GetString("log-level"), "text")
}

// openStore connects to the configured database. When migrate is set the
// schema is brought up to date first.
func openStore(ctx context.Context, migrate bool) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, viper.GetString("database-url"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if migrate {
		if err := store.Migrate(); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return store, nil
}
