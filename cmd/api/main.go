package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"villa-offers-api/internal/assembler"
	"villa-offers-api/internal/cache"
	"villa-offers-api/internal/config"
	"villa-offers-api/internal/database"
	"villa-offers-api/internal/events"
	"villa-offers-api/internal/features"
	"villa-offers-api/internal/handler"
	"villa-offers-api/internal/logger"
	"villa-offers-api/internal/metrics"
	"villa-offers-api/internal/middleware"
	"villa-offers-api/internal/scheduler"
	"villa-offers-api/internal/service"
	"villa-offers-api/internal/tracing"
	"villa-offers-api/internal/validation"
)

func main() {
	configFile := flag.String("config", "", "Optional JSON config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	metrics.Init()

	if _, err := tracing.InitTracing(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: tracing.ServiceName,
		Environment: cfg.App.Environment,
	}); err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewDB(ctx, database.Options{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.Database.DSN,
		MaxOpenConns:   cfg.Database.MaxOpenConns,
		MaxIdleConns:   cfg.Database.MaxIdleConns,
		AcquireTimeout: cfg.Database.AcquireTimeout.Std(),
		InitSchema:     cfg.Database.Driver == "sqlite3",
	})
	if err != nil {
		log.Fatal("Failed to initialize database", "driver", cfg.Database.Driver, "error", err)
	}
	defer db.Close()

	flags := features.NewManager()
	flags.Register(features.FeatureListingCache, cfg.Cache.ListingCacheEnabled, "Serve repeated listing queries from the response cache")
	flags.Register(features.FeatureManualCacheRefresh, cfg.Cache.ManualRefresh, "Expose POST /api/cache/offers/refresh")
	flags.Register(features.FeatureScheduledCacheRefresh, cfg.Cache.RefreshCron != "", "Rebuild the offer snapshot on a cron schedule")
	flags.Register(features.FeatureEventHooks, true, "Run event subscribers")

	for _, f := range flags.GetAll() {
		log.Info("Feature flag", "name", f.Name, "enabled", f.Enabled)
	}

	ev := events.NewManager(flags.IsEnabled(features.FeatureEventHooks), log)
	subscribeEventLoggers(ev, log)
	defer ev.Shutdown()

	listingCache := newListingCache(ctx, cfg, log)
	if closer, ok := listingCache.(io.Closer); ok {
		defer closer.Close()
	}

	asm := assembler.New(assembler.NewNames(cfg.VillaNames), log)
	snapshots := cache.NewManager(db, asm, log, cache.ManagerOptions{
		Events:   ev,
		Location: config.BusinessLocation(),
	})
	snapshots.Warm(ctx)

	svc := service.NewService(db, asm, snapshots, log, service.Options{
		DefaultLimit:    cfg.Listing.DefaultLimit,
		MaxLimit:        cfg.Listing.MaxLimit,
		ListingCache:    listingCache,
		ListingCacheTTL: cfg.Cache.ListingCacheTTL.Std(),
		Features:        flags,
		Events:          ev,
	})

	if flags.IsEnabled(features.FeatureScheduledCacheRefresh) {
		sched, err := scheduler.New(cfg.Cache.RefreshCron, svc, log)
		if err != nil {
			log.Fatal("Failed to create scheduler", "error", err)
		}
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", "error", err)
		}
		defer sched.Stop()
	}

	h := handler.NewHandlerWithOptions(svc, handler.NewHandlerOptions{
		Defaults: validation.ListingDefaults{
			Adults:     2,
			Children:   0,
			Offset:     0,
			Limit:      cfg.Listing.DefaultLimit,
			MaxLimit:   cfg.Listing.MaxLimit,
			WindowDays: cfg.Listing.WindowDays,
			Location:   config.BusinessLocation(),
		},
		Features: flags,
		Logger:   log,
		Now:      time.Now,
	})

	// Setup router
	r := chi.NewRouter()

	// Middleware (order matters)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.TracingMiddleware())

	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Rate, time.Duration(cfg.RateLimit.Window)*time.Second)
		defer rateLimiter.Stop()
		r.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(cfg.Security.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h.Routes(r)
	r.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	protocol := "HTTP"
	if cfg.Server.EnableTLS {
		protocol = "HTTPS"
	}
	log.Info("Starting server",
		"protocol", protocol,
		"addr", addr,
		"driver", cfg.Database.Driver,
		"snapshot_records", snapshots.Snapshot().Count(),
		"listing_cache", flags.IsEnabled(features.FeatureListingCache),
		"refresh_cron", cfg.Cache.RefreshCron,
	)

	serverErr := make(chan error, 1)
	go func() {
		if cfg.Server.EnableTLS {
			serverErr <- server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
			return
		}
		serverErr <- server.ListenAndServe()
	}()

	// Graceful shutdown
	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down server", "error", err)
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer", "error", err)
	}
}

// newListingCache picks Redis when configured and reachable, else process memory.
func newListingCache(ctx context.Context, cfg *config.Config, log *logger.Logger) cache.Cache {
	if !cfg.Cache.ListingCacheEnabled {
		return nil
	}
	if cfg.Redis.Addr == "" {
		return cache.NewInMemoryCache()
	}

	rc, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory listing cache", "addr", cfg.Redis.Addr, "error", err)
		return cache.NewInMemoryCache()
	}
	return rc
}

func subscribeEventLoggers(ev *events.Manager, log *logger.Logger) {
	ev.Subscribe(events.EventSnapshotRefreshed, func(ctx context.Context, e events.Event) error {
		data, ok := e.Data.(events.SnapshotRefreshedData)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Data)
		}
		log.Debug("event", "type", string(e.Type), "version", data.Version, "records", data.Records)
		return nil
	})
	ev.Subscribe(events.EventListingServed, func(ctx context.Context, e events.Event) error {
		data, ok := e.Data.(events.ListingServedData)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Data)
		}
		log.Debug("event",
			"type", string(e.Type),
			"start_date", data.StartDate,
			"end_date", data.EndDate,
			"adults", data.Adults,
			"children", data.Children,
			"offset", data.Offset,
			"returned", data.Returned,
			"total_available", data.TotalAvailable,
			"from_cache", data.FromCache,
		)
		return nil
	})
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
