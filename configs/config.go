package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	PostgresURI         string
	DBMaxOpenConns      int
	RedisURI            string
	ListenAddr          string
	FrontendURL         string
	PublicURL           string
	R2                  R2
	SecretKey           string
	CookieName          string
	LogLevel            string
	DefaultRelays       string
	PublishConcurrency  int
	RelayTimeout        time.Duration
	RelayRatePerSecond  float64
	SweepSchedule       string
	StripeWebhookSecret string
	RequireSubscription bool
	AuthMaxSkew         time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:    getEnv("POSTGRES_URI", ""),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 20),
		RedisURI:       getEnv("REDIS_URI", "localhost:6379"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":3000"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		PublicURL:      getEnv("PUBLIC_URL", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:           getEnv("SECRET_KEY", ""),
		CookieName:          getEnv("COOKIE_NAME", "postr_session"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DefaultRelays:       getEnv("DEFAULT_RELAYS", "wss://relay.damus.io,wss://nos.lol"),
		PublishConcurrency:  getEnvInt("PUBLISH_CONCURRENCY", 10),
		RelayTimeout:        getEnvDuration("RELAY_TIMEOUT", 10*time.Second),
		RelayRatePerSecond:  getEnvFloat("RELAY_RATE_PER_SECOND", 5),
		SweepSchedule:       getEnv("SWEEP_SCHEDULE", "@every 1m"),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		RequireSubscription: getEnvBool("REQUIRE_SUBSCRIPTION", false),
		AuthMaxSkew:         getEnvDuration("AUTH_MAX_SKEW", 60*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
