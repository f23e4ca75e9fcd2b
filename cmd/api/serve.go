package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpAdapter "github.com/gamemod/support-desk/internal/adapters/primary/http"
	"github.com/gamemod/support-desk/internal/adapters/primary/websocket"
	"github.com/gamemod/support-desk/internal/adapters/secondary/firestore"
	"github.com/gamemod/support-desk/internal/adapters/secondary/postgres"
	"github.com/gamemod/support-desk/internal/auth"
	"github.com/gamemod/support-desk/internal/config"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/gamemod/support-desk/internal/core/services"
	"github.com/gamemod/support-desk/internal/infrastructure/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default command)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"backend", cfg.StorageBackend(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Open Storage
	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer storage.Close()

	// 4. Real-time Feed
	hub := websocket.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// 5. Services (Core)
	ticketService := services.NewTicketService(storage.Tickets, storage.Topics, hub)
	topicService := services.NewTopicService(storage.Topics, hub)
	settingsService := services.NewSettingsService(storage.Settings, hub)
	analyticsService := services.NewAnalyticsService(storage.Analytics)

	// 6. Router (Primary Adapters)
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Config:    cfg,
		Logger:    logger,
		Tickets:   ticketService,
		Topics:    topicService,
		Analytics: analyticsService,
		Settings:  settingsService,
		Health:    storage.Health,
		Hub:       hub,
		AdminKey:  auth.NewAdminKey(cfg.Admin.Password, cfg.Admin.PasswordHash),
		Tokens:    auth.NewTokenManager(cfg.Admin.TokenSecret, cfg.Admin.TokenTTL, cfg.Admin.TokenIssuer),
	})
	defer router.Close()

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Websocket connections are hijacked and not tracked by Shutdown
	stopHub()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server shutdown complete")
	return nil
}

// openStorage connects the configured backend and returns its repositories.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.Storage, error) {
	switch cfg.StorageBackend() {
	case config.BackendPostgres:
		if cfg.Database.AutoMigrate {
			if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
				return ports.Storage{}, err
			}
			logger.Info("database migrations applied")
		}

		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return ports.Storage{}, err
		}
		logger.Info("database connection established")
		return postgres.NewStorage(pool), nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.GCP)
		if err != nil {
			return ports.Storage{}, err
		}
		logger.Info("firestore client ready",
			"project", cfg.GCP.ProjectID,
			"service_account", cfg.GCP.HasServiceAccount(),
		)
		return firestore.NewStorage(client), nil

	default:
		return ports.Storage{}, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend())
	}
}
