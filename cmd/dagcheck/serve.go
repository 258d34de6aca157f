package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/meikuraledutech/dagcheck/logging"
	"github.com/meikuraledutech/dagcheck/server"
)

const shutdownTimeout = 10 * time.Second

// serveAddr overrides server.address from the configuration.
var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline validation HTTP service",
	Long: `Starts the HTTP backend for the pipeline builder.

Routes:
  GET    /                   health check, returns {"Ping":"Pong"}
  POST   /pipelines/parse    validate the pipeline in form field "pipeline" or a JSON body
  GET    /validations        recent verdicts (history enabled only)
  GET    /validations/:id    one verdict (history enabled only)
  DELETE /validations/:id    forget one verdict (history enabled only)

History is recorded in PostgreSQL when DATABASE_URL or database.url is set,
or in memory when history.enabled is true.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Address = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if store != nil && cfg.Database.AutoMigrate {
		if err := store.CreateSchema(ctx); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	app := server.New(cfg, store)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("Server", "Listening on %s", cfg.Server.Address)
		return app.Listen(cfg.Server.Address, fiber.ListenConfig{DisableStartupMessage: true})
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Server", "Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	return g.Wait()
}
