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
	App        AppConfig
	Completion CompletionConfig
	Session    SessionConfig
	Support    SupportConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	TemplatesDir          string
}

// CompletionConfig describes the language-model endpoint.
type CompletionConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	Hosted         bool
	Temperature    float64
	TimeoutSeconds int
}

// SessionConfig controls session tokens and expiry.
type SessionConfig struct {
	TokenSecret            string
	TokenTTLMinutes        int
	IdleTTLMinutes         int
	JanitorIntervalSeconds int
}

// SupportConfig holds the human support contact channels quoted to users.
type SupportConfig struct {
	Email    string
	WhatsApp string
}

// PostgresConfig holds DB connection values. An empty DSN disables the ticket archive.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables escalation publishing.
type RedisConfig struct {
	Addr              string
	Password          string
	DB                int
	EscalationChannel string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	temperature, err := strconv.ParseFloat(getEnv("COMPLETION_TEMPERATURE", "0.7"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid COMPLETION_TEMPERATURE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-chat"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 90),
			TemplatesDir:          getEnv("APP_TEMPLATES_DIR", "templates"),
		},
		Completion: CompletionConfig{
			BaseURL:        getEnv("COMPLETION_BASE_URL", "http://localhost:11434"),
			APIKey:         os.Getenv("COMPLETION_API_KEY"),
			Model:          getEnv("COMPLETION_MODEL", "gpt-oss:20b"),
			Hosted:         getEnvAsBool("COMPLETION_HOSTED", false),
			Temperature:    temperature,
			TimeoutSeconds: getEnvAsInt("COMPLETION_TIMEOUT_SECONDS", 60),
		},
		Session: SessionConfig{
			TokenSecret:            getEnv("SESSION_TOKEN_SECRET", "dev-secret"),
			TokenTTLMinutes:        getEnvAsInt("SESSION_TOKEN_TTL_MINUTES", 24*60),
			IdleTTLMinutes:         getEnvAsInt("SESSION_IDLE_TTL_MINUTES", 60),
			JanitorIntervalSeconds: getEnvAsInt("SESSION_JANITOR_INTERVAL_SECONDS", 60),
		},
		Support: SupportConfig{
			Email:    getEnv("SUPPORT_EMAIL", "support@novarsis.tech"),
			WhatsApp: getEnv("SUPPORT_WHATSAPP", "+91-9999999999"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:              os.Getenv("REDIS_ADDR"),
			Password:          os.Getenv("REDIS_PASSWORD"),
			DB:                redisDB,
			EscalationChannel: getEnv("REDIS_ESCALATION_CHANNEL", "support:escalations"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
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

// Timeout returns the per-call completion budget.
func (c CompletionConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

// TokenTTL returns how long a session token stays valid.
func (s SessionConfig) TokenTTL() time.Duration {
	return time.Duration(s.TokenTTLMinutes) * time.Minute
}

// IdleTTL returns how long an idle session is kept.
func (s SessionConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}

// JanitorInterval returns the sweep period, defaulting to one minute.
func (s SessionConfig) JanitorInterval() time.Duration {
	if s.JanitorIntervalSeconds <= 0 {
		return time.Minute
	}
	return seconds(s.JanitorIntervalSeconds)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
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
