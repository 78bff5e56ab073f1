package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"events-hub/internal/config"
	"events-hub/internal/connector"
	"events-hub/internal/database"
	"events-hub/internal/logger"
	"events-hub/internal/metrics"
	"events-hub/internal/repository"
	"events-hub/internal/service"
	"events-hub/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// One-shot scrape runner, meant for cron. Exits non-zero on failure so the
// scheduler can detect it.
func main() {
	resetKillSwitch := flag.Bool("reset-kill-switch", false,
		"clear the kill switch for all sources and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "events-hub-scraper")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		kv = store.NewRedisKV(redisClient)
	} else {
		// Without Redis the kill switch only spans this one process.
		log.Warn("Redis disabled, scrape state will not persist across runs")
		kv = store.NewMemoryKV()
	}

	scrapeState := store.NewScrapeStateStore(kv, cfg.Scraper.MaxFailures)
	connectors := []connector.Connector{
		connector.NewGetInvolved(cfg.Scraper, log),
	}

	ctx := context.Background()

	if *resetKillSwitch {
		for _, c := range connectors {
			if err := scrapeState.Reset(ctx, c.Source()); err != nil {
				log.Error("Failed to reset kill switch", zap.String("source", c.Source()), zap.Error(err))
				os.Exit(1)
			}
		}
		fmt.Println("Kill switch reset for all sources.")
		return
	}

	log.Info("Starting events-hub scraper")

	var db *sql.DB
	var eventsRepo repository.EventsRepository
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			defer db.Close()
			eventsRepo = repository.NewPostgresEventsRepository(db)
		} else {
			log.Error("Cannot connect to database", zap.Error(err))
			os.Exit(1)
		}
	} else {
		// Memory repo makes a dry run possible without a DB.
		log.Warn("DB disabled, scraping into the in-memory repository")
		eventsRepo = repository.NewMemoryEventsRepository()
	}

	m := metrics.New(prometheus.NewRegistry())
	ingest := service.NewIngestService(eventsRepo, scrapeState, m, connectors, log)

	started := time.Now()
	summaries := ingest.Run(ctx)
	elapsed := time.Since(started)

	failed := false
	for _, s := range summaries {
		printSummary(&s, elapsed)
		if s.Failed() {
			failed = true
			log.Error("Scrape finished with error",
				zap.String("source", s.Source), zap.String("error", s.Error))
		} else {
			log.Info("Scrape complete",
				zap.String("source", s.Source),
				zap.Int("fetched", s.Fetched),
				zap.Int("inserted", s.Inserted),
				zap.Int("updated", s.Updated))
		}
	}

	if failed {
		os.Exit(1)
	}
}

func printSummary(s *service.RunSummary, elapsed time.Duration) {
	line := "======================================================="
	fmt.Println()
	fmt.Println(line)
	fmt.Println("  Events Hub Scraper Summary")
	fmt.Println(line)
	fmt.Printf("  Timestamp : %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("  Source    : %s (%s)\n", s.Source, s.Via)
	fmt.Printf("  Fetched   : %6d events\n", s.Fetched)
	fmt.Printf("  Inserted  : %6d new\n", s.Inserted)
	fmt.Printf("  Updated   : %6d existing\n", s.Updated)
	fmt.Printf("  Duration  : %6d ms\n", elapsed.Milliseconds())
	if s.Error != "" {
		fmt.Printf("  ERROR     : %s\n", s.Error)
	}
	fmt.Println(line)
	fmt.Println()
}
