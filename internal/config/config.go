package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the events-hub (HTTP API + scraper) configuration.
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Ingest  IngestConfig
	Scraper ScraperConfig
}

// DatabaseConfig PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN builds a lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=" + c.SSLMode
}

// IngestConfig write-side settings shared by the API server and the scraper.
type IngestConfig struct {
	// Token gates POST /api/v1/scrape/*, the trusted ingestion identity.
	// Empty token disables the remote trigger entirely.
	Token string
}

// ScraperConfig getINVOLVED connector settings.
type ScraperConfig struct {
	APIURL         string
	ICalURL        string
	UserAgent      string
	PageSize       int
	PageDelay      time.Duration
	RequestTimeout time.Duration
	MaxFailures    int
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, events-hub falls
	// back to the in-memory repository so the API still answers.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "eventshub")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Ingest.Token = getEnv("INGEST_TOKEN", "")

	cfg.Scraper.APIURL = getEnv("SCRAPER_API_URL",
		"https://rutgers.campuslabs.com/engage/api/discovery/event/search")
	cfg.Scraper.ICalURL = getEnv("SCRAPER_ICAL_URL",
		"https://rutgers.campuslabs.com/engage/events/ical")
	cfg.Scraper.UserAgent = getEnv("SCRAPER_USER_AGENT",
		"EventsHub/1.0 (student project; contact: ruventshub@gmail.com)")
	cfg.Scraper.PageSize = parseInt(getEnv("SCRAPER_PAGE_SIZE", "100"), 100)
	cfg.Scraper.PageDelay = parseDuration(getEnv("SCRAPER_PAGE_DELAY", "2s"), 2*time.Second)
	cfg.Scraper.RequestTimeout = parseDuration(getEnv("SCRAPER_REQUEST_TIMEOUT", "30s"), 30*time.Second)
	cfg.Scraper.MaxFailures = parseInt(getEnv("SCRAPER_MAX_FAILURES", "3"), 3)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
