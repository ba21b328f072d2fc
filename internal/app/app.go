package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"circulation/internal/api"
	"circulation/internal/circulation"
	"circulation/internal/config"
	"circulation/internal/models"
	"circulation/internal/storage"
	"circulation/internal/storage/ch"
	"circulation/internal/storage/sqlitekv"
	"circulation/internal/storage/stubs"
)

// App represents the application
type App struct {
	config *config.Config
	logger *zap.Logger
	store  storage.KeyValueStore
	svc    *circulation.Service
	server *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &App{config: cfg, logger: logger}

	logger.Info("starting circulation service",
		zap.String("store_backend", cfg.StoreBackend),
		zap.Float64("fine_rate_per_day", cfg.FineRatePerDay),
		zap.Float64("max_fine", cfg.MaxFine),
		zap.Int("loan_period_days", cfg.LoanPeriodDays),
	)
	if cfg.MaxFine == 0 {
		logger.Info("fine policy: per-day rate, uncapped")
	} else {
		logger.Info("fine policy: per-day rate with cap")
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	collections := storage.NewCollections(app.store)
	if err := app.seed(context.Background(), collections); err != nil {
		return nil, err
	}

	app.svc = circulation.NewService(collections, circulation.Config{
		LoanPeriodDays: cfg.LoanPeriodDays,
		ExtensionDays:  cfg.ExtensionDays,
		FineRatePerDay: cfg.FineRatePerDay,
		MaxFine:        cfg.MaxFine,
		ReservationFee: cfg.ReservationFee,
	}, logger)

	app.initHTTPServer()

	return app, nil
}

// initStore opens the configured key-value store backend.
func (a *App) initStore() error {
	switch a.config.StoreBackend {
	case config.BackendMemory:
		a.logger.Info("using in-memory store")
		a.store = stubs.NewMockStore()
	case config.BackendSQLite:
		a.logger.Info("using sqlite store", zap.String("path", a.config.SQLitePath))
		store, err := sqlitekv.New(a.config.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		a.store = store
	case config.BackendClickHouse:
		a.logger.Info("connecting to ClickHouse",
			zap.String("host", a.config.ClickHouseHost),
			zap.Int("port", a.config.ClickHousePort),
			zap.String("database", a.config.ClickHouseDatabase),
			zap.Bool("tls", a.config.ClickHouseUseTLS),
		)
		store, err := ch.New(
			a.config.ClickHouseHost,
			a.config.ClickHousePort,
			a.config.ClickHouseDatabase,
			a.config.ClickHouseUser,
			a.config.ClickHousePassword,
			a.config.ClickHouseUseTLS,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		a.store = store
	default:
		return fmt.Errorf("unknown store backend: %s", a.config.StoreBackend)
	}
	return nil
}

type seedCatalog struct {
	Books     []models.Book    `json:"books"`
	Libraries []models.Library `json:"libraries"`
	Users     []models.User    `json:"users"`
}

// seed loads the catalog fixture into an empty store, once. Catalog
// management stays outside the engine; this is only first-run bootstrap.
func (a *App) seed(ctx context.Context, collections *storage.Collections) error {
	if a.config.SeedFile == "" {
		return nil
	}

	existing, err := collections.Books(ctx)
	if err != nil {
		return fmt.Errorf("failed to check store before seeding: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	raw, err := os.ReadFile(a.config.SeedFile)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	var catalog seedCatalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	if err := collections.SaveBooks(ctx, catalog.Books); err != nil {
		return err
	}
	if err := collections.SaveLibraries(ctx, catalog.Libraries); err != nil {
		return err
	}
	if err := collections.SaveUsers(ctx, catalog.Users); err != nil {
		return err
	}

	a.logger.Info("seeded empty store from catalog fixture",
		zap.String("seed_file", a.config.SeedFile),
		zap.Int("books", len(catalog.Books)),
		zap.Int("libraries", len(catalog.Libraries)),
		zap.Int("users", len(catalog.Users)),
	)
	return nil
}

// initHTTPServer builds the HTTP server over the API router.
func (a *App) initHTTPServer() {
	handler := api.NewHandler(a.svc, a.logger)

	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		a.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		a.logger.Error("HTTP server error", zap.Error(err))
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing store", zap.Error(err))
		return err
	}

	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
	return nil
}
