package config

import (
	"os"
	"time"
)

type Config struct {
	DBPath    string
	HTTPAddr  string
	LogLevel  string
	Env       string // dev|prod
	SentryDSN string
	Location  *time.Location
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Europe/Istanbul")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	cfg := &Config{
		DBPath:    getenv("DB_PATH", "./data/attendance.db"),
		HTTPAddr:  getenv("HTTP_ADDR", ":8080"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		Env:       getenv("ENV", "dev"),
		SentryDSN: os.Getenv("SENTRY_DSN"),
		Location:  loc,
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
