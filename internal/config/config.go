package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Records      RecordsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session and credential parameters.
type AuthConfig struct {
	BcryptCost                int
	ConfirmationWindowMinutes int
	SessionWindowMinutes      int
	WebhookSecret             string
	WebhookTokenTTLMinutes    int
}

// NotificationConfig configures the outbound notification pipeline.
type NotificationConfig struct {
	EmailFrom          string
	WebhookURL         string
	PublicBaseURL      string
	OutboxKey          string
	PollTimeoutSeconds int
	MaxAttempts        int
}

// RecordsConfig configures the numeric record feature.
type RecordsConfig struct {
	DefaultFetchLimit int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "squareit-account-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			BcryptCost:                getEnvAsInt("AUTH_BCRYPT_COST", 12),
			ConfirmationWindowMinutes: getEnvAsInt("AUTH_CONFIRMATION_WINDOW_MINUTES", 24*60),
			SessionWindowMinutes:      getEnvAsInt("AUTH_SESSION_WINDOW_MINUTES", 120),
			WebhookSecret:             getEnv("AUTH_WEBHOOK_SECRET", "dev-secret"),
			WebhookTokenTTLMinutes:    getEnvAsInt("AUTH_WEBHOOK_TOKEN_TTL_MINUTES", 5),
		},
		Notification: NotificationConfig{
			EmailFrom:          getEnv("NOTIFY_EMAIL_FROM", "noreply@squareit.example"),
			WebhookURL:         getEnv("NOTIFY_WEBHOOK_URL", ""),
			PublicBaseURL:      getEnv("NOTIFY_PUBLIC_BASE_URL", "http://localhost:8080"),
			OutboxKey:          getEnv("NOTIFY_OUTBOX_KEY", "squareit:notifications"),
			PollTimeoutSeconds: getEnvAsInt("NOTIFY_POLL_TIMEOUT_SECONDS", 5),
			MaxAttempts:        getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 5),
		},
		Records: RecordsConfig{
			DefaultFetchLimit: getEnvAsInt("RECORDS_DEFAULT_FETCH_LIMIT", 20),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ConfirmationWindow is how long a confirmation link stays valid after (re)issue.
func (a AuthConfig) ConfirmationWindow() time.Duration {
	return minutes(a.ConfirmationWindowMinutes, 24*60)
}

// SessionWindow is the sliding liveness window of a session token.
func (a AuthConfig) SessionWindow() time.Duration {
	return minutes(a.SessionWindowMinutes, 120)
}

// PollTimeout bounds a single blocking outbox read.
func (n NotificationConfig) PollTimeout() time.Duration {
	if n.PollTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.PollTimeoutSeconds) * time.Second
}

func minutes(val, fallback int) time.Duration {
	if val <= 0 {
		val = fallback
	}
	return time.Duration(val) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
