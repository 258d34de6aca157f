package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/dagcheck"
	"github.com/meikuraledutech/dagcheck/config"
	"github.com/meikuraledutech/dagcheck/logging"
	"github.com/meikuraledutech/dagcheck/memory"
	"github.com/meikuraledutech/dagcheck/postgres"
)

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	// ExitCodeNotDAG is returned by validate --fail-on-cycle when a pipeline fails the check.
	ExitCodeNotDAG = 2
)

var errNotDAG = errors.New("one or more pipelines are not acyclic")

// configPath points at config.yaml; defaults apply when it is empty or missing.
var configPath string

// debug forces debug logging regardless of the configured level.
var debug bool

var rootCmd = &cobra.Command{
	Use:   "dagcheck",
	Short: "Check that pipeline graphs are acyclic",
	Long: `dagcheck validates the node/edge graph of a visual pipeline and reports
whether it is a Directed Acyclic Graph.

Run 'dagcheck serve' for the HTTP backend used by the pipeline builder, or
'dagcheck validate' to check pipeline files directly.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits with a semantic status code on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(getExitCode(err))
	}
}

func getExitCode(err error) int {
	if errors.Is(err, errNotDAG) {
		return ExitCodeNotDAG
	}
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads and validates the configuration, then initialises logging from it.
func loadConfig() (config.Config, error) {
	logging.Init(logging.LevelInfo, os.Stderr)

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logging.Init(level, os.Stderr)
	return cfg, nil
}

// openStore returns the history store selected by cfg, or nil when history is off.
// The returned close function is always safe to call.
func openStore(ctx context.Context, cfg config.Config) (dagcheck.Store, func(), error) {
	switch {
	case cfg.Database.URL != "":
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, func() {}, fmt.Errorf("ping database: %w", err)
		}
		logging.Info("History", "Recording validations in PostgreSQL")
		return postgres.New(pool), pool.Close, nil
	case cfg.History.Enabled:
		logging.Info("History", "No database configured, recording validations in memory")
		return memory.New(), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

// openDatabase is openStore for commands that only make sense against PostgreSQL.
func openDatabase(ctx context.Context, cfg config.Config) (dagcheck.Store, func(), error) {
	if cfg.Database.URL == "" {
		return nil, func() {}, fmt.Errorf("%s is not set", config.EnvDatabaseURL)
	}
	return openStore(ctx, cfg)
}
