package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBDSN     string
	LogFile   string
	StoreName string

	APIBaseURL string
	APITimeout time.Duration

	RedisAddr  string
	RedisPass  string
	CatalogTTL time.Duration

	CatalogRefresh string // cron spec, empty disables
	SessionPurge   string // cron spec, empty disables
	SessionIdle    time.Duration
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] bad %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

// Load reads the environment, after an optional .env in the working
// directory. Real environment variables win over .env entries.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env: %v", err)
	}

	cfg := Config{
		Port:      env("PORT", "8081"),
		DBDSN:     env("DB_DSN", "kiosk.db"), // sqlite file in project root
		LogFile:   env("LOG_FILE", "./kiosk.log"),
		StoreName: env("STORE_NAME", "Kiosk"),

		APIBaseURL: env("API_BASE_URL", "http://localhost:8080"),
		APITimeout: duration("API_TIMEOUT", 10*time.Second),

		RedisAddr:  os.Getenv("REDIS_ADDR"),
		RedisPass:  os.Getenv("REDIS_PASS"),
		CatalogTTL: duration("CATALOG_TTL", 30*time.Second),

		CatalogRefresh: os.Getenv("CATALOG_REFRESH"),
		SessionPurge:   os.Getenv("SESSION_PURGE"),
		SessionIdle:    duration("SESSION_IDLE", 24*time.Hour),
	}
	if _, set := os.LookupEnv("CATALOG_REFRESH"); !set {
		cfg.CatalogRefresh = "@every 30s"
	}
	if _, set := os.LookupEnv("SESSION_PURGE"); !set {
		cfg.SessionPurge = "@hourly"
	}

	redis := "off"
	if cfg.RedisAddr != "" {
		redis = cfg.RedisAddr
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s API_BASE_URL=%s API_TIMEOUT=%s REDIS=%s CATALOG_TTL=%s CATALOG_REFRESH=%q SESSION_PURGE=%q",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.APIBaseURL, cfg.APITimeout, redis, cfg.CatalogTTL, cfg.CatalogRefresh, cfg.SessionPurge)
	return cfg
}
