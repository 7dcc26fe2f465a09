package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the centralized process configuration, loaded from environment
// variables with development-friendly defaults.
type Config struct {
	HTTP     HTTPConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Postgres PostgresConfig

	// DependencyTimeout bounds every collaborator call made from the guard
	// chain and the consumer pipeline.
	DependencyTimeout time.Duration
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	RateLimitBurst  int
	RateLimitPerSec int
}

type AuthConfig struct {
	SessionTTL time.Duration
	ResetTTL   time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type PostgresConfig struct {
	DSN string
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     getEnvSeconds("HTTP_READ_TIMEOUT_SEC", 15),
			WriteTimeout:    getEnvSeconds("HTTP_WRITE_TIMEOUT_SEC", 15),
			IdleTimeout:     getEnvSeconds("HTTP_IDLE_TIMEOUT_SEC", 60),
			ShutdownTimeout: getEnvSeconds("HTTP_SHUTDOWN_TIMEOUT_SEC", 10),
			MaxBodyBytes:    int64(getEnvInt("HTTP_MAX_BODY_BYTES", 1<<20)),
			RateLimitBurst:  getEnvInt("HTTP_RATE_LIMIT_BURST", 40),
			RateLimitPerSec: getEnvInt("HTTP_RATE_LIMIT_PER_SEC", 20),
		},
		Auth: AuthConfig{
			SessionTTL: getEnvSeconds("AUTH_SESSION_TTL_SEC", 8*3600),
			ResetTTL:   getEnvSeconds("AUTH_RESET_TTL_SEC", 600),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "notification-topic"),
		},
		Postgres: PostgresConfig{
			DSN: getEnv("PG_DSN", ""),
		},
		DependencyTimeout: getEnvSeconds("DEPENDENCY_TIMEOUT_SEC", 5),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.Auth.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_SESSION_TTL_SEC must be > 0")
	}
	if cfg.Auth.ResetTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_RESET_TTL_SEC must be > 0")
	}
	if cfg.DependencyTimeout <= 0 {
		return Config{}, fmt.Errorf("DEPENDENCY_TIMEOUT_SEC must be > 0")
	}
	if cfg.Kafka.Topic == "" {
		return Config{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
