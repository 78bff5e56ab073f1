package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"events-hub/internal/config"
	"events-hub/internal/connector"
	"events-hub/internal/database"
	httpapi "events-hub/internal/http"
	"events-hub/internal/logger"
	"events-hub/internal/metrics"
	"events-hub/internal/repository"
	"events-hub/internal/service"
	"events-hub/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "events-hub")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// KV for scrape state: Redis when available, memory otherwise.
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
	} else {
		log.Warn("Redis disabled, keeping scrape state in memory")
		kv = store.NewMemoryKV()
	}

	// Events repository: Postgres when the DB is reachable, otherwise the
	// in-memory fallback so the API still answers in dev.
	var db *sql.DB
	var eventsRepo repository.EventsRepository
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			eventsRepo = repository.NewPostgresEventsRepository(db)
			log.Info("DB enabled for events-hub")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repository", zap.Error(err))
		}
	}
	if eventsRepo == nil {
		eventsRepo = repository.NewMemoryEventsRepository()
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	scrapeState := store.NewScrapeStateStore(kv, cfg.Scraper.MaxFailures)
	connectors := []connector.Connector{
		connector.NewGetInvolved(cfg.Scraper, log),
	}
	ingest := service.NewIngestService(eventsRepo, scrapeState, m, connectors, log)

	router := httpapi.NewRouter(log)
	router.RegisterEventRoutes(httpapi.NewEventsHandler(eventsRepo, log))
	router.RegisterScrapeRoutes(httpapi.NewScrapeHandler(ingest, cfg.Ingest.Token, log))
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(db, log))
	router.HandleHandler("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
