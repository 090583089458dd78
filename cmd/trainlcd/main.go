package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/TinyKitten/TrainLCDWeb/internal/cache"
	"github.com/TinyKitten/TrainLCDWeb/internal/catalog"
	"github.com/TinyKitten/TrainLCDWeb/internal/config"
	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
	"github.com/TinyKitten/TrainLCDWeb/internal/handler"
	"github.com/TinyKitten/TrainLCDWeb/internal/hub"
	"github.com/TinyKitten/TrainLCDWeb/internal/middleware"
	"github.com/TinyKitten/TrainLCDWeb/internal/store"
	"github.com/TinyKitten/TrainLCDWeb/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting trainlcd server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"catalog_url", cfg.CatalogAPIURL,
		"redis_enabled", cfg.RedisEnabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisCache *cache.RedisCache
	if cfg.RedisEnabled {
		redisCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Error("redis unavailable, continuing without shared cache", "error", err)
		} else {
			defer redisCache.Close()
		}
	}

	stationStore := store.NewStationStore(cfg.CacheTTL)
	apiClient := catalog.New(cfg.CatalogAPIURL, cfg.CatalogTimeout)
	stationCatalog := catalog.NewCachingCatalog(apiClient, stationStore, redisCache, cfg.CacheTTL, logger)

	warmer := catalog.NewWarmer(stationCatalog, cfg.WarmLineIDs, logger)
	go warmer.WarmAll(ctx)

	wsHub := hub.NewHub(logger)
	go wsHub.Run(ctx)

	topology := domain.NewLineTopology(cfg.LoopLineIDs)
	manager := tracking.NewManager(stationCatalog, topology, tracking.Options{
		BadAccuracyM:   cfg.BadAccuracyM,
		ApproachM:      cfg.ApproachM,
		NearbyKM:       cfg.NearbyStationKM,
		RotateInterval: cfg.HeaderRotateInterval,
		FixBuffer:      cfg.FixBuffer,
	}, wsHub.Broadcast, logger)

	httpHandler := handler.NewHTTPHandler(stationCatalog, manager)
	wsHandler := handler.NewWSHandler(wsHub, manager, logger)
	healthHandler := handler.NewHealthHandler(warmer, manager)
	statsHandler := handler.NewStatsHandler(manager, wsHub, stationStore)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/lines/{id}/stations", httpHandler.ListLineStations)
	mux.HandleFunc("GET /v1/stations/nearest", httpHandler.NearestStation)
	mux.HandleFunc("GET /v1/sessions/{id}", httpHandler.GetSession)
	mux.HandleFunc("/v1/ws", wsHandler.ServeWS)

	mux.HandleFunc("GET /v1/stats", statsHandler.GetStats)
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)
	go limiter.Run(ctx)

	root := limiter.Middleware(handler.CORSMiddleware(handler.GzipMiddleware(mux)))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      root,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	manager.StopAll()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
