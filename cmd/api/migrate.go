package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gamemod/support-desk/internal/adapters/secondary/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations against DATABASE_URL",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1 step)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMigrateDown,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

// databaseURL reads only what migrations need, so the command works
// without the rest of the server configuration.
func databaseURL() (string, error) {
	_ = godotenv.Load()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", errors.New("DATABASE_URL is required")
	}
	return url, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	url, err := databaseURL()
	if err != nil {
		return err
	}
	if err := postgres.MigrateUp(url); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("migrate up: ok")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	steps := 1
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("steps must be a positive integer, got %q", args[0])
		}
		steps = n
	}

	url, err := databaseURL()
	if err != nil {
		return err
	}
	if err := postgres.MigrateDown(url, steps); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("migrate down: ok", "steps", steps)
	return nil
}
