package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// ChapaConfig holds payment gateway settings.
type ChapaConfig struct {
	SecretKey     string
	BaseURL       string
	CallbackURL   string
	ReturnURL     string
	WebhookSecret string
	Timeout       time.Duration
	ErrorTable    string
	SplitValue    decimal.Decimal
	SplitType     string
	Currency      string
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers  []string
	TipTopic string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Config is built once at start-up and passed down explicitly.
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string
	JWTSecret []byte
	// CORSOrigins empty means any origin, without credentials.
	CORSOrigins []string

	Database  DatabaseConfig
	Chapa     ChapaConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	split, err := decimal.NewFromString(getEnv("CHAPA_SPLIT_VALUE", "0.05"))
	if err != nil {
		return nil, fmt.Errorf("CHAPA_SPLIT_VALUE: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("CHAPA_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("CHAPA_TIMEOUT: %w", err)
	}
	ttl, err := time.ParseDuration(getEnv("LOOKUP_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("LOOKUP_CACHE_TTL: %w", err)
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     os.Getenv("GIN_MODE"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		JWTSecret:   []byte(os.Getenv("JWT_SECRET")),
		CORSOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "tipflow.db"),
		},
		Chapa: ChapaConfig{
			SecretKey:     os.Getenv("CHAPA_SECRET_KEY"),
			BaseURL:       strings.TrimRight(getEnv("CHAPA_BASE_URL", "https://api.chapa.co/v1"), "/"),
			CallbackURL:   os.Getenv("CHAPA_CALLBACK_URL"),
			ReturnURL:     os.Getenv("CHAPA_RETURN_URL"),
			WebhookSecret: os.Getenv("CHAPA_WEBHOOK_SECRET"),
			Timeout:       timeout,
			ErrorTable:    os.Getenv("CHAPA_ERROR_TABLE"),
			SplitValue:    split,
			SplitType:     getEnv("CHAPA_SPLIT_TYPE", "percentage"),
			Currency:      getEnv("CURRENCY", "ETB"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			TTL:      ttl,
		},
		Kafka: KafkaConfig{
			Brokers:  splitList(os.Getenv("KAFKA_BROKERS")),
			TipTopic: getEnv("KAFKA_TIP_TOPIC", "tips.completed"),
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Chapa.SplitValue.IsNegative() || c.Chapa.SplitValue.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("CHAPA_SPLIT_VALUE must be in [0,1), got %s", c.Chapa.SplitValue)
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.GinMode == "release" {
		if c.Chapa.SecretKey == "" {
			return errors.New("CHAPA_SECRET_KEY is not set")
		}
		if len(c.JWTSecret) == 0 {
			return errors.New("JWT_SECRET is not set")
		}
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
