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

	"github.com/rjgems/backend/config"
	httpDelivery "github.com/rjgems/backend/internal/delivery/http"
	"github.com/rjgems/backend/internal/domain"
	"github.com/rjgems/backend/internal/infrastructure/cache"
	"github.com/rjgems/backend/internal/infrastructure/catalog"
	"github.com/rjgems/backend/internal/infrastructure/llm"
	"github.com/rjgems/backend/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rjgems-server",
		Short: "RJ Gems storefront backend",
		Long: `RJ Gems storefront backend: product catalog plus AI search,
gift, recommendation, styling and chat endpoints.

Running without a subcommand is the same as "serve".`,
		RunE:         runServe,
		SilenceUsage: true,
	}
	rootCmd.Flags().String("port", "", "HTTP port (overrides server.port)")

	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Start the HTTP API",
		RunE:         runServe,
		SilenceUsage: true,
	}
	serveCmd.Flags().String("port", "", "HTTP port (overrides server.port)")

	seedCmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load the built-in catalog into the sqlite store",
		RunE:         runSeed,
		SilenceUsage: true,
	}
	seedCmd.Flags().String("data-dir", "./data", "directory holding catalog.db")
	seedCmd.Flags().Bool("force", false, "upsert even when the catalog already has products")

	rootCmd.AddCommand(serveCmd, seedCmd, &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rjgems-server %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting RJ Gems backend",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
		zap.String("catalog", cfg.Catalog.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	cacheRepo, closeCache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	store, closeStore, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	generator, err := llm.NewTextGenerator(ctx, llm.Options{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.LLM.Timeout,
		CallsPerMin: cfg.RateLimit.LLM,
		RetryOnce:   cfg.LLM.RetryOnce,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create llm gateway: %w", err)
	}

	// Initialize usecase layer
	interpreter := usecase.NewInterpreter(generator, usecase.InterpreterConfig{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, logger)

	catalogService := usecase.NewCatalogService(store, cacheRepo, interpreter, usecase.CatalogServiceConfig{
		CacheTTL:     cfg.Cache.TTL,
		SnapshotSize: cfg.Catalog.SnapshotSize,
	}, logger)

	// Create HTTP handler and router
	handler := httpDelivery.NewHandler(catalogService, interpreter, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	force, _ := cmd.Flags().GetBool("force")

	logger, err := newLogger("development")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := catalog.OpenSQLite(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if !force {
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("catalog already seeded, use --force to upsert", zap.Int("products", n))
			return nil
		}
	}

	n, err := seedStore(ctx, store)
	if err != nil {
		return err
	}
	logger.Info("catalog seeded", zap.String("data_dir", dataDir), zap.Int("products", n))
	return nil
}

// newLogger returns a development logger (debug level, console output)
// in development and a JSON production logger otherwise.
func newLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openCache(cfg *config.Config) (domain.CacheRepository, func(), error) {
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisCache, func() { _ = redisCache.Close() }, nil
	}

	memoryCache := cache.NewMemoryCache(time.Minute)
	return memoryCache, func() { _ = memoryCache.Close() }, nil
}

func openCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.CatalogRepository, func(), error) {
	if cfg.Catalog.Driver == "memory" {
		seed, err := catalog.SeedProducts()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using in-memory catalog", zap.Int("products", len(seed)))
		return catalog.NewMemoryStore(seed), func() {}, nil
	}

	store, err := catalog.OpenSQLite(cfg.Catalog.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if cfg.Catalog.SeedOnStart {
		n, err := store.Count(ctx)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		if n == 0 {
			seeded, err := seedStore(ctx, store)
			if err != nil {
				store.Close()
				return nil, nil, err
			}
			logger.Info("seeded empty catalog", zap.Int("products", seeded))
		}
	}

	return store, func() { _ = store.Close() }, nil
}

func seedStore(ctx context.Context, store *catalog.SQLiteStore) (int, error) {
	items, err := catalog.SeedProducts()
	if err != nil {
		return 0, err
	}
	if err := store.Upsert(ctx, items); err != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}
	return len(items), nil
}
