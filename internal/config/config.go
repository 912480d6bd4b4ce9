package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	AppBaseURL  string

	AuthJWTSecret string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	StripeSecretKey         string
	StripeWebhookSecret     string
	StripePriceIDPro        string
	StripePriceIDEnterprise string

	WorkflowBaseURL       string
	WorkflowAPIKey        string
	WorkflowWebhookSecret string

	RateLimitRedisAddr     string
	RateLimitRedisPassword string
	RateLimitRedisDB       int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "tollgate"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		AppBaseURL:  strings.TrimRight(getenv("APP_BASE_URL", "http://localhost:8080"), "/"),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		StripeSecretKey:         strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
		StripeWebhookSecret:     strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
		StripePriceIDPro:        strings.TrimSpace(getenv("STRIPE_PRICE_ID_PRO", "")),
		StripePriceIDEnterprise: strings.TrimSpace(getenv("STRIPE_PRICE_ID_ENTERPRISE", "")),

		WorkflowBaseURL:       strings.TrimRight(getenv("WORKFLOW_WEBHOOK_URL", ""), "/"),
		WorkflowAPIKey:        strings.TrimSpace(getenv("WORKFLOW_API_KEY", "")),
		WorkflowWebhookSecret: strings.TrimSpace(getenv("WORKFLOW_WEBHOOK_SECRET", "")),

		RateLimitRedisAddr:     strings.TrimSpace(getenv("RATELIMIT_REDIS_ADDR", "")),
		RateLimitRedisPassword: strings.TrimSpace(getenv("RATELIMIT_REDIS_PASSWORD", "")),
		RateLimitRedisDB:       getenvInt("RATELIMIT_REDIS_DB", 0),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
