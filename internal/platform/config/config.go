package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything cmd/server needs to wire the service.
type Config struct {
	Addr string

	JWT      JWTConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig

	Limiter LimiterConfig
	IPBan   IPBanConfig
}

// JWTConfig configures the symmetric token codec.
type JWTConfig struct {
	Issuer            string
	Secret            string
	AccessExpiration  time.Duration
	RefreshExpiration time.Duration
}

// RedisConfig configures the shared counter store connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the durable ban and user stores.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// KafkaConfig configures the optional security audit publisher.
// Empty Brokers disables Kafka; audit events still go to the log.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// LimiterConfig tunes the per-key login token bucket.
type LimiterConfig struct {
	Capacity      int
	RefillWindow  time.Duration
	SweepInterval time.Duration
	MaxIdle       time.Duration
}

// IPBanConfig tunes failure tracking and ban escalation.
type IPBanConfig struct {
	FailureWindow    time.Duration
	FailureThreshold int
	BanCounterTTL    time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// Every knob has a default matching the documented protection policy.
func FromEnv() Config {
	return Config{
		Addr: getenv("CONFA_ADDR", ":8080"),
		JWT: JWTConfig{
			Issuer: getenv("CONFA_JWT_ISSUER", "confa"),
			// Must be overridden in production.
			Secret:            getenv("CONFA_JWT_SECRET", "dev-secret-key-change-in-production"),
			AccessExpiration:  getduration("CONFA_JWT_ACCESS_EXPIRATION", 15*time.Minute),
			RefreshExpiration: getduration("CONFA_JWT_REFRESH_EXPIRATION", 7*24*time.Hour),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CONFA_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("CONFA_POSTGRES_DSN"),
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("CONFA_KAFKA_BROKERS")),
			AuditTopic: getenv("CONFA_KAFKA_AUDIT_TOPIC", "confa.security-audit"),
		},
		Limiter: LimiterConfig{
			Capacity:      getint("CONFA_LOGIN_ATTEMPTS", 5),
			RefillWindow:  getduration("CONFA_LOGIN_REFILL_WINDOW", 10*time.Minute),
			SweepInterval: getduration("CONFA_LOGIN_SWEEP_INTERVAL", 5*time.Minute),
			MaxIdle:       getduration("CONFA_LOGIN_BUCKET_MAX_IDLE", 30*time.Minute),
		},
		IPBan: IPBanConfig{
			FailureWindow:    getduration("CONFA_BAN_FAILURE_WINDOW", 15*time.Minute),
			FailureThreshold: getint("CONFA_BAN_FAILURE_THRESHOLD", 6),
			BanCounterTTL:    getduration("CONFA_BAN_COUNTER_TTL", 24*time.Hour),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
