package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lead-market-api/internal/auction"
	"lead-market-api/internal/booking"
	"lead-market-api/internal/cache"
	"lead-market-api/internal/clock"
	"lead-market-api/internal/config"
	"lead-market-api/internal/database"
	"lead-market-api/internal/delivery"
	"lead-market-api/internal/events"
	"lead-market-api/internal/features"
	"lead-market-api/internal/handler"
	"lead-market-api/internal/metrics"
	mw "lead-market-api/internal/middleware"
	"lead-market-api/internal/reputation"
	"lead-market-api/internal/service"
	"lead-market-api/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "", "Path to JSON config file (optional)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// A broken market document is fatal at startup, never a per-request error.
	market, err := config.LoadMarket(cfg.Market.Path)
	if err != nil {
		log.Fatalf("Failed to load market configuration: %v", err)
	}
	log.Printf("Market config: %d buyers, %d destinations", len(market.Buyers), len(market.Destinations))

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if _, err := tracing.InitTracing(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: "lead-market-api",
		Environment: cfg.Tracing.Environment,
	}); err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	var appCache cache.Cache
	if cfg.Cache.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		appCache = redisCache
		log.Printf("Cache: redis at %s", cfg.Cache.RedisAddr)
	} else {
		appCache = cache.NewInMemoryCache()
		log.Printf("Cache: in-memory")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	flags := features.NewManager()
	flags.Register(features.FeatureRequireDeliveryHistory,
		os.Getenv("REQUIRE_DELIVERY_HISTORY") == "true",
		"Exclude buyers without delivery history from winning auctions")
	flags.Register(features.FeatureCacheEnabled, true, "Enable the caching layer")
	flags.Register(features.FeatureEventHooksEnabled, true, "Enable event-driven hooks")

	eventBus := events.NewManager(flags.IsEnabled(features.FeatureEventHooksEnabled))
	defer eventBus.Shutdown()
	eventBus.Subscribe(events.EventLeadDelivered, func(ctx context.Context, e events.Event) error {
		if data, ok := e.Data.(events.LeadDeliveredData); ok {
			log.Printf("delivery: lead=%s buyer=%s status=%s", data.LeadID, data.Result.BuyerID, data.Result.Status)
		}
		return nil
	})
	eventBus.Subscribe(events.EventAppointmentBooked, func(ctx context.Context, e events.Event) error {
		if data, ok := e.Data.(events.AppointmentData); ok {
			log.Printf("booking: appointment=%s resource=%s start=%s",
				data.Appointment.ID, data.Appointment.ResourceID, data.Appointment.StartTS.Format(time.RFC3339))
		}
		return nil
	})

	clk := clock.NewSystem()
	reputations := reputation.NewStore(db, clk)
	engine := auction.NewEngine(
		market.Buyers,
		market.Destinations,
		reputations,
		func() bool { return flags.IsEnabled(features.FeatureRequireDeliveryHistory) },
		clk,
	)
	dispatcher := delivery.NewDispatcher(cfg.Delivery.Source,
		delivery.WithTimeout(time.Duration(cfg.Delivery.TimeoutSeconds)*time.Second))

	svc := service.NewService(service.Deps{
		DB:          db,
		Auctions:    engine,
		Dispatcher:  dispatcher,
		Reputations: reputations,
		Slots:       booking.NewSlotManager(db, clk),
		Calendar:    booking.NewCalendarManager(db, clk),
		Cache:       appCache,
		CacheTTL:    time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		Events:      eventBus,
		Flags:       flags,
		Metrics:     m,
		Clock:       clk,
	})

	h := handler.NewHandlerWithOptions(svc, handler.NewHandlerOptions{
		MaxBodySize: cfg.Security.MaxRequestBodySize,
	})

	rateLimiter := mw.NewRateLimiter(cfg.RateLimit.Rate, time.Duration(cfg.RateLimit.Window)*time.Second)
	defer rateLimiter.Stop()

	r := chi.NewRouter()

	// Middleware (order matters)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(mw.TracingMiddleware())

	if cfg.RateLimit.Enabled {
		r.Use(mw.RateLimitMiddleware(rateLimiter))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Security.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h.Routes(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Database: %s", cfg.Database.Path)

	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
		if err := tracing.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracing: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}
