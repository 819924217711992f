package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. Everything is env-driven so
// main stays lean and deployments stay twelve-factor.
type Server struct {
	Addr string

	// PostgresURL selects the relational store. Empty means the in-memory
	// stores are used (single-instance, development only).
	PostgresURL string

	Redis RedisConfig
	Kafka KafkaConfig

	// JWTSigningKey validates reviewer/admin tokens on /admin routes.
	JWTSigningKey string

	// WriteKillSwitch rejects all mutating requests with 503. Operators flip
	// it during incident response without redeploying.
	WriteKillSwitch bool

	RateLimit RateLimitConfig

	// SnapshotInterval is the cadence of the snapshot aggregator run.
	SnapshotInterval time.Duration
}

// RedisConfig configures the optional shared Redis backend for rate-limit
// state and the snapshot cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit event pipeline.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RateLimitConfig bounds per-identity request cadence.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	BlockFor    time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("SHEETWATCH_ADDR", ":8080"),
		PostgresURL:     os.Getenv("SHEETWATCH_POSTGRES_URL"),
		JWTSigningKey:   envOr("SHEETWATCH_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		WriteKillSwitch: os.Getenv("SHEETWATCH_WRITE_KILL_SWITCH") == "true",
		RateLimit: RateLimitConfig{
			MaxRequests: envInt("SHEETWATCH_RATE_LIMIT_MAX", 60),
			Window:      envDuration("SHEETWATCH_RATE_LIMIT_WINDOW", time.Minute),
			BlockFor:    envDuration("SHEETWATCH_RATE_LIMIT_BLOCK", time.Minute),
		},
		SnapshotInterval: envDuration("SHEETWATCH_SNAPSHOT_INTERVAL", 45*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("SHEETWATCH_REDIS_URL"),
			PoolSize:     envInt("SHEETWATCH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("SHEETWATCH_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("SHEETWATCH_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("SHEETWATCH_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("SHEETWATCH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}

	if brokers := os.Getenv("SHEETWATCH_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka = KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   envOr("SHEETWATCH_KAFKA_AUDIT_TOPIC", "sheetwatch.audit"),
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
