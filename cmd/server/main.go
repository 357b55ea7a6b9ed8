package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"seaborne/voyagedesk/internal/api"
	"seaborne/voyagedesk/internal/common"
	"seaborne/voyagedesk/internal/config"
	"seaborne/voyagedesk/internal/db"
	"seaborne/voyagedesk/internal/jobs"
	"seaborne/voyagedesk/internal/logging"
	"seaborne/voyagedesk/internal/metrics"
	"seaborne/voyagedesk/internal/routes"
	"seaborne/voyagedesk/internal/workers"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Voyagedesk starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.InitPostgres(ctx, cfg.PostgresDSN())
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (sqlx)", "error", err.Error())
	}
	defer sqlDB.Close()
	logging.Info("Connected to Postgres (sqlx)")

	// GORM shares the sqlx pool; opening it runs migrations
	gormDB, err := db.WrapPostgresORM(sqlDB.DB)
	if err != nil {
		logging.Fatal("Failed to open GORM", "error", err.Error())
	}
	logging.Info("Schema migrated")

	var redisClient *redis.Client
	if cfg.UseRedis {
		redisClient = common.NewRedisClient(cfg)
		defer redisClient.Close()
	}

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)

	deps, err := api.InitDependencies(ctx, cfg, sqlDB, gormDB, redisClient, metricsReg)
	if err != nil {
		logging.Fatal("Failed to initialize dependencies", "error", err.Error())
	}
	defer deps.Services.Cache.Close()

	workers.InitWorkers(ctx, deps.Services.Events, deps.Services.State, metricsReg)
	jobs.InitializeJobs(ctx,
		deps.Repo.Vessels,
		deps.Repo.Reports,
		deps.Services.State,
		metricsReg,
		cfg.BacklogInterval,
		cfg.ReviewOverdue,
	)

	upSince := time.Now()
	router := routes.RegisterRoutes(cfg, deps, upSince)

	// Setup metrics endpoint outside of Chi router
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)
	logging.Info("Prometheus metrics endpoint registered at /metrics")

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Server starting", "port", cfg.HTTPPort, "environment", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err.Error())
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err.Error())
	}
}
