// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr       string
	AdminToken string

	// DatabaseURL selects the Postgres-backed signup store when set; the
	// in-memory store is used otherwise.
	DatabaseURL string

	Redis Redis
	SMTP  SMTP
	Kafka Kafka
	Rates Rates
}

// Redis captures connection settings for the shared counter store.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SMTP captures settings for the confirmation mail relay. An empty Host
// selects the log-only notifier.
type SMTP struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
	// SendsPerSecond paces outbound confirmations so a signup burst cannot
	// flood the relay.
	SendsPerSecond float64
}

// Kafka captures settings for the best-effort signup event stream. Empty
// Brokers disables publishing.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Rates captures the two fixed-window rate limit policies applied per
// signup attempt.
type Rates struct {
	IdentityMax    int
	IdentityWindow time.Duration
	EmailMax       int
	EmailWindow    time.Duration
}

// FromEnv builds a Config from environment variables, applying defaults that
// match a single-process deployment.
func FromEnv() Config {
	cfg := Config{
		Addr:        envOr("WAITLIST_ADDR", ":8080"),
		AdminToken:  os.Getenv("WAITLIST_ADMIN_TOKEN"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		SMTP: SMTP{
			Host:           os.Getenv("SMTP_HOST"),
			Port:           envInt("SMTP_PORT", 587),
			From:           envOr("SMTP_FROM", "hello@waitlist.local"),
			Username:       os.Getenv("SMTP_USERNAME"),
			Password:       os.Getenv("SMTP_PASSWORD"),
			SendsPerSecond: envFloat("SMTP_SENDS_PER_SECOND", 1),
		},
		Kafka: Kafka{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_SIGNUP_TOPIC", "waitlist.signups"),
		},
		Rates: Rates{
			IdentityMax:    envInt("RATE_IDENTITY_MAX", 5),
			IdentityWindow: envDuration("RATE_IDENTITY_WINDOW", time.Minute),
			EmailMax:       envInt("RATE_EMAIL_MAX", 1),
			EmailWindow:    envDuration("RATE_EMAIL_WINDOW", 24*time.Hour),
		},
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
