package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deppfellow/demo-backend/internal/config"
	"github.com/deppfellow/demo-backend/internal/database"
	"github.com/deppfellow/demo-backend/internal/handler"
	"github.com/deppfellow/demo-backend/internal/logger"
	"github.com/deppfellow/demo-backend/internal/repository"
	"github.com/deppfellow/demo-backend/internal/router"
	"github.com/deppfellow/demo-backend/internal/server"
	"github.com/deppfellow/demo-backend/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	shutdownTimeout = 30 * time.Second
	seedTimeout     = 30 * time.Second
)

// CLI flags; empty values leave the environment configuration alone.
var (
	databaseURL string
	port        string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "backend",
		Short: "demo-backend - CRUD API over a single data_items table",
		Long: `demo-backend serves a small JSON API over one table of items.

Without a subcommand it migrates the schema, seeds sample rows into an
empty table and starts the HTTP server.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "", "HTTP port (overrides BACKEND_PORT)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Migrate, seed and start the HTTP server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the schema and exit",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the sample rows if the table is empty and exit",
			RunE:  runSeed,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s %s (commit: %s, built: %s)\n", config.ServiceName, version, commit, date)
			},
		},
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type appRuntime struct {
	cfg           *config.Config
	log           zerolog.Logger
	loggerService *logger.LoggerService
}

func loadRuntime() (*appRuntime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if databaseURL != "" {
		cfg.Database.URL = databaseURL
		if _, err := cfg.Database.Driver(); err != nil {
			return nil, err
		}
	}
	if port != "" {
		cfg.Server.Port = port
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	return &appRuntime{cfg: cfg, log: log, loggerService: loggerService}, nil
}

// buildApp opens the database and wires repositories, services and handlers
// onto a router.
func (rt *appRuntime) buildApp() (*server.Server, *service.Services, http.Handler, error) {
	srv, err := server.New(rt.cfg, &rt.log, rt.loggerService)
	if err != nil {
		return nil, nil, nil, err
	}

	repos, err := repository.NewRepositories(srv)
	if err != nil {
		_ = srv.DB.Close()
		return nil, nil, nil, fmt.Errorf("could not create repositories: %w", err)
	}

	services, err := service.NewService(srv, repos)
	if err != nil {
		_ = srv.DB.Close()
		return nil, nil, nil, fmt.Errorf("could not create services: %w", err)
	}

	handlers := handler.NewHandlers(srv, services)
	return srv, services, router.NewRouter(srv, handlers), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.loggerService.Shutdown()

	rt.log.Info().
		Str("version", version).
		Str("env", rt.cfg.Primary.Env).
		Str("database", rt.cfg.Database.RedactedURL()).
		Msg("starting " + config.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, &rt.log, rt.cfg); err != nil {
		rt.log.Error().Err(err).Msg("failed to migrate database")
		return err
	}

	srv, services, httpHandler, err := rt.buildApp()
	if err != nil {
		rt.log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	// Seeding runs before the listener opens; a failure is logged and the
	// server starts anyway.
	seedCtx, cancelSeed := context.WithTimeout(ctx, seedTimeout)
	if _, err := services.Items.Seed(seedCtx); err != nil {
		rt.log.Error().Err(err).Msg("failed to seed sample data, continuing")
	}
	cancelSeed()

	srv.SetupHTTPServer(httpHandler)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.log.Error().Err(err).Msg("server stopped unexpectedly")
			_ = srv.Shutdown(context.Background())
			return err
		}
		return nil
	case <-ctx.Done():
	}

	rt.log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	rt.log.Info().Msg("server exited properly")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.loggerService.Shutdown()

	return database.Migrate(cmd.Context(), &rt.log, rt.cfg)
}

func runSeed(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.loggerService.Shutdown()

	if err := database.Migrate(cmd.Context(), &rt.log, rt.cfg); err != nil {
		return err
	}

	srv, services, _, err := rt.buildApp()
	if err != nil {
		return err
	}
	defer srv.Shutdown(context.Background())

	inserted, err := services.Items.Seed(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("inserted %d rows\n", inserted)
	return nil
}
