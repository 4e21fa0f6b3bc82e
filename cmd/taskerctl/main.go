package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tasker/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	var databaseURL string
	rootCmd := &cobra.Command{
		Use:     "taskerctl",
		Short:   "Admin tool for the tasker database",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			logger.Init(level, "text")
		},
	}
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres DSN (default $DATABASE_URL)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level")

	connect := func(ctx context.Context) (*pgxpool.Pool, error) {
		if databaseURL == "" {
			return nil, errors.New("DATABASE_URL not set")
		}
		pool, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping: %w", err)
		}
		return pool, nil
	}

	rootCmd.AddCommand(migrateCmd(connect))
	rootCmd.AddCommand(seedCmd(connect))
	rootCmd.AddCommand(reportCmd(connect))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type connectFunc func(ctx context.Context) (*pgxpool.Pool, error)
