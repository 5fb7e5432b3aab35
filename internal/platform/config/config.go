package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Optional backends (Postgres,
// Redis, Kafka) stay disabled when their settings are empty; the server then
// runs on in-memory stores.
type Config struct {
	Addr            string
	PostgresDSN     string
	RedisURL        string
	KafkaBrokers    []string
	KafkaTopic      string
	SnapshotTTL     time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:            getenv("STEPWAY_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("STEPWAY_POSTGRES_DSN"),
		RedisURL:        os.Getenv("STEPWAY_REDIS_URL"),
		KafkaTopic:      os.Getenv("STEPWAY_KAFKA_TOPIC"),
		SnapshotTTL:     getduration("STEPWAY_SNAPSHOT_TTL", 5*time.Minute),
		ShutdownTimeout: getduration("STEPWAY_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if brokers := os.Getenv("STEPWAY_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
