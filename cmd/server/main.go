package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/web3-frozen/near-dashboard/internal/cache"
	"github.com/web3-frozen/near-dashboard/internal/config"
	"github.com/web3-frozen/near-dashboard/internal/dashboard"
	"github.com/web3-frozen/near-dashboard/internal/defi"
	"github.com/web3-frozen/near-dashboard/internal/handler"
	"github.com/web3-frozen/near-dashboard/internal/middleware"
	"github.com/web3-frozen/near-dashboard/internal/source/flipside"
	"github.com/web3-frozen/near-dashboard/internal/source/llama"
	"github.com/web3-frozen/near-dashboard/internal/source/nearrpc"
	"github.com/web3-frozen/near-dashboard/internal/upstream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	cfg := config.Load()

	queries, err := config.LoadQueries(cfg.QueriesFile)
	if err != nil {
		logger.Error("failed to load query catalog", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Result cache: Redis when configured (retry up to 30s for
	// ExternalSecret to sync), in-process otherwise
	var store cache.Cache
	if cfg.RedisURL != "" {
		var rc *cache.Redis
		for i := 0; i < 6; i++ {
			rc, err = cache.NewRedis(cfg.RedisURL, cfg.RedisPassword)
			if err == nil {
				break
			}
			logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
			time.Sleep(5 * time.Second)
		}
		if err != nil {
			logger.Error("failed to connect to redis after retries", "error", err)
			os.Exit(1)
		}
		store = rc
		logger.Info("redis connected for result cache")
	} else {
		store = cache.NewMemory()
		logger.Info("REDIS_URL not set, using in-process result cache")
	}
	defer store.Close()

	// Upstream providers
	llamaAPI := upstream.New(upstream.Options{
		Provider: "llama",
		Timeout:  cfg.HTTPTimeout,
		RPS:      cfg.LlamaRPS,
		Burst:    cfg.FetchWorkers,
	})
	flipsideHeader := http.Header{}
	if cfg.FlipsideAPIKey != "" {
		flipsideHeader.Set("x-api-key", cfg.FlipsideAPIKey)
	}
	flipsideAPI := upstream.New(upstream.Options{
		Provider: "flipside",
		Timeout:  cfg.HTTPTimeout,
		Header:   flipsideHeader,
	})
	rpcAPI := upstream.New(upstream.Options{
		Provider: "nearrpc",
		Timeout:  cfg.HTTPTimeout,
	})

	pipeline := defi.New(llama.New(llamaAPI, cfg.LlamaBaseURL), logger,
		defi.WithChain(cfg.Chain),
		defi.WithWindow(cfg.Window),
		defi.WithWorkers(cfg.FetchWorkers),
	)

	svc := dashboard.New(
		flipside.New(flipsideAPI, cfg.FlipsideBaseURL),
		nearrpc.New(rpcAPI, cfg.NearRPCURL),
		pipeline,
		store,
		logger,
		dashboard.Options{Queries: queries, ReferenceDEX: cfg.ReferenceDEX, TTL: cfg.CacheTTL},
	)

	// Warm the DeFi cache in the background
	go func() {
		if _, err := svc.Page(ctx, dashboard.DeFi); err != nil {
			logger.Warn("defi warm-up failed", "error", err)
		}
	}()

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(store))

	r.Route("/api", func(r chi.Router) {
		r.Get("/pages", handler.Home())
		r.Get("/pages/{page}", handler.Page(svc))
		r.Post("/cache/refresh", handler.RefreshCache(svc))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // cold DeFi builds
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
