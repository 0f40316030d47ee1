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

	"github.com/dealscope/backend/config"
	httpDelivery "github.com/dealscope/backend/internal/delivery/http"
	"github.com/dealscope/backend/internal/domain"
	"github.com/dealscope/backend/internal/infrastructure/cache"
	"github.com/dealscope/backend/internal/infrastructure/listing"
	"github.com/dealscope/backend/internal/infrastructure/scheduler"
	"github.com/dealscope/backend/internal/infrastructure/seed"
	"github.com/dealscope/backend/internal/infrastructure/sqlite"
	"github.com/dealscope/backend/internal/pkg/logging"
	"github.com/dealscope/backend/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

var logger = logging.New("server")

func main() {
	if err := run(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.SetLevel(cfg.Log.Level); err != nil {
		return err
	}

	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("starting DealScope backend v1.0.0")

	dbPath := cfg.Database.SQLitePath
	if dbPath == "" {
		dbPath = sqlite.MemoryPath
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info().Str("path", dbPath).Msg("catalog store opened")

	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Close()

	var source domain.ListingSource
	if cfg.Scraper.BaseURL != "" {
		source = listing.NewClient(cfg.Scraper.BaseURL, cfg.Scraper.UserAgent, cfg.RateLimit.Scraper)
		logger.Info().Str("base_url", cfg.Scraper.BaseURL).Int("pages", cfg.Scraper.Pages).Msg("listing scraper enabled")
	} else {
		logger.Info().Msg("listing scraper disabled (scraper.base_url not set)")
	}

	history := usecase.NewPriceHistoryService(store.Products(), store.PriceHistory())
	products := usecase.NewProductService(
		store.Products(),
		store.CategoryStats(),
		history,
		memoryCache,
		source,
		usecase.ProductServiceConfig{
			SearchCacheTTL: cfg.Cache.TTL,
			DetailCacheTTL: cfg.Cache.DetailTTL,
			ScrapePages:    cfg.Scraper.Pages,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := seed.Run(ctx, cfg.Seed.File, store.Products(), products); err != nil {
		return err
	}

	if cfg.Scheduler.Enabled {
		jobs, err := scheduler.New(history, products, scheduler.Config{
			DropAlertCron:     cfg.Scheduler.DropAlertCron,
			CategoryStatsCron: cfg.Scheduler.CategoryStatsCron,
			DropAlertMinPct:   cfg.Scheduler.DropAlertMinPct,
			DropAlertHours:    cfg.Scheduler.DropAlertHours,
		})
		if err != nil {
			return err
		}
		jobs.Start()
		defer jobs.Stop()
	}

	handler := httpDelivery.NewHandler(products, history, store, httpDelivery.HandlerConfig{
		DropAlertMinPct: cfg.Scheduler.DropAlertMinPct,
		DropAlertHours:  cfg.Scheduler.DropAlertHours,
	})
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
