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
	Otp          OtpConfig
	Notification NotificationConfig
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

// PostgresConfig holds DB connection values.
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

// AuthConfig defines authentication parameters. The three token secrets must
// be distinct: sharing a secret across audiences would let a token signed for
// one principal type verify under another.
type AuthConfig struct {
	TokenSecret            string
	RefreshTokenSecret     string
	CustomerTokenSecret    string
	AccessTokenTTLMinutes  int
	RefreshTokenTTLMinutes int
	BcryptCost             int
}

// OtpConfig defines one-time code issuance parameters.
type OtpConfig struct {
	CodeLength      int
	TTLMinutes      int
	MaxAttempts     int
	CooldownSeconds int
}

// NotificationConfig holds the SMS dispatch endpoint.
type NotificationConfig struct {
	SMSSender     string
	SMSWebhookURL string
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
			Name:                  getEnv("APP_NAME", "restaurant-service"),
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
			TokenSecret:            getEnv("TOKEN_SECRET", "dev-secret"),
			RefreshTokenSecret:     getEnv("REFRESH_TOKEN_SECRET", "dev-refresh-secret"),
			CustomerTokenSecret:    getEnv("CUSTOMER_TOKEN_SECRET", "dev-customer-secret"),
			AccessTokenTTLMinutes:  getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			RefreshTokenTTLMinutes: getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_MINUTES", 60*24*7),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Otp: OtpConfig{
			CodeLength:      getEnvAsInt("OTP_CODE_LENGTH", 4),
			TTLMinutes:      getEnvAsInt("OTP_TTL_MINUTES", 5),
			MaxAttempts:     getEnvAsInt("OTP_MAX_ATTEMPTS", 5),
			CooldownSeconds: getEnvAsInt("OTP_COOLDOWN_SECONDS", 60),
		},
		Notification: NotificationConfig{
			SMSSender:     getEnv("NOTIFY_SMS_SENDER", "resto"),
			SMSWebhookURL: getEnv("NOTIFY_SMS_WEBHOOK_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that must not reach a running server.
// Secret checks only bind in production: development keeps the defaults usable.
func (c *Config) Validate() error {
	if c.App.Env != "production" {
		return nil
	}
	secrets := map[string]string{
		"TOKEN_SECRET":          os.Getenv("TOKEN_SECRET"),
		"REFRESH_TOKEN_SECRET":  os.Getenv("REFRESH_TOKEN_SECRET"),
		"CUSTOMER_TOKEN_SECRET": os.Getenv("CUSTOMER_TOKEN_SECRET"),
	}
	seen := make(map[string]string, len(secrets))
	for name, val := range secrets {
		if val == "" {
			return fmt.Errorf("%s must be set in production", name)
		}
		if other, dup := seen[val]; dup {
			return fmt.Errorf("%s and %s must be distinct", name, other)
		}
		seen[val] = name
	}
	return nil
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

// OtpTTL returns the one-time code lifetime.
func (o OtpConfig) OtpTTL() time.Duration {
	if o.TTLMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(o.TTLMinutes) * time.Minute
}

// Cooldown returns the per-phone issuance cool-down window.
func (o OtpConfig) Cooldown() time.Duration {
	if o.CooldownSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(o.CooldownSeconds) * time.Second
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
