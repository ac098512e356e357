package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feastly/internal/api"
	"feastly/internal/auth"
	"feastly/internal/config"
	"feastly/internal/delivery"
	"feastly/internal/events"
	"feastly/internal/monitoring"
	"feastly/internal/ordering"
	"feastly/internal/ratelimit"
	"feastly/internal/seed"
	"feastly/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const devJWTSecret = "feastly-dev-secret"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.LogLevel == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	// Initialize database
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	monitor := monitoring.NewMonitor()
	hub := events.NewHub(32)

	publisher, closeEvents, err := buildPublisher(ctx, cfg, hub)
	if err != nil {
		return err
	}
	defer closeEvents()

	loc, _ := cfg.Location()
	estimator := delivery.NewEstimator(st, cfg.EstimatorOptions()...)
	orders := ordering.NewService(st, estimator,
		ordering.WithPublisher(publisher),
		ordering.WithMetrics(monitor),
		ordering.WithTaxRate(cfg.Checkout.TaxRate),
		ordering.WithLocation(loc),
	)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Printf("auth.jwt_secret is not set, using the development secret")
		secret = devJWTSecret
	}
	manager := auth.NewManager(secret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)

	limiter := ratelimit.NewStore(cfg.Auth.RateLimit.RPS, cfg.Auth.RateLimit.Burst)
	limiter.StartJanitor(ctx)

	a := api.New(api.Deps{
		Store:      st,
		Orders:     orders,
		Estimator:  estimator,
		Auth:       manager,
		Monitor:    monitor,
		Hub:        hub,
		Seeder:     seed.New(st, manager),
		Limiter:    limiter,
		Production: cfg.IsProduction(),
	})

	// Start metrics server
	var metricsServer *http.Server
	if cfg.MetricsConfig.Enabled {
		metricsServer = startMetricsServer(cfg, monitor)
	}

	// Start API server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: a.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Metrics server shutdown error: %v", err)
			}
		}

		cancel()
	}()

	log.Printf("Starting API server on port %d (%s)", cfg.Port, cfg.Environment)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(store.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		LogMode:      cfg.Database.LogMode,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}

// buildPublisher wires the event sinks. With Redis configured, events travel
// through Redis and come back into the hub via the relay, so every instance
// delivers them exactly once; otherwise the hub is fed directly.
func buildPublisher(ctx context.Context, cfg *config.Config, hub *events.Hub) (events.Publisher, func(), error) {
	var (
		sinks   events.Fanout
		closers []func() error
	)

	if cfg.Events.RedisURL != "" {
		broker, err := events.NewRedisBroker(cfg.Events.RedisURL, hub)
		if err != nil {
			return nil, nil, err
		}
		if err := broker.Ping(ctx); err != nil {
			broker.Close()
			return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		go func() {
			if err := broker.Run(ctx); err != nil {
				log.Printf("Redis relay stopped: %v", err)
			}
		}()
		sinks = append(sinks, broker)
		closers = append(closers, broker.Close)
		log.Printf("Publishing order events through Redis")
	} else {
		sinks = append(sinks, hub)
	}

	if len(cfg.Events.KafkaBrokers) > 0 {
		sink, err := events.NewKafkaSink(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		closers = append(closers, sink.Close)
		log.Printf("Publishing order events to Kafka topic %s", cfg.Events.KafkaTopic)
	}

	return sinks, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("Failed to close event sink: %v", err)
			}
		}
	}, nil
}

func startMetricsServer(cfg *config.Config, monitor *monitoring.Monitor) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET(cfg.MetricsConfig.Path, gin.WrapH(monitor.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsConfig.Port),
		Handler: metricsRouter,
	}

	go func() {
		log.Printf("Starting metrics server on port %d", cfg.MetricsConfig.Port)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	return metricsServer
}
