package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Port           string
	DatabaseURL    string
	Currency       string
	JWTSecret      string
	Redis          RedisConfig
	Stripe         StripeConfig
	Mpesa          MpesaConfig
	PayPal         PayPalConfig
	DraftTTL       time.Duration
	PendingTTL     time.Duration
	PendingMaxAge  time.Duration
	CancelCutoff   time.Duration
	AllowedOrigins []string
}

// RedisConfig holds the draft-store connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StripeConfig holds card-provider settings.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
}

// MpesaConfig holds the mobile-money push endpoint settings.
type MpesaConfig struct {
	BaseURL     string
	APIKey      string
	ShortCode   string
	CallbackURL string
}

// PayPalConfig holds the wallet provider settings.
type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Currency:    getEnv("CURRENCY", "kes"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Stripe: StripeConfig{
			APIKey:        os.Getenv("STRIPE_API_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		Mpesa: MpesaConfig{
			BaseURL:     getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
			APIKey:      os.Getenv("MPESA_API_KEY"),
			ShortCode:   os.Getenv("MPESA_SHORTCODE"),
			CallbackURL: os.Getenv("MPESA_CALLBACK_URL"),
		},
		PayPal: PayPalConfig{
			BaseURL:      getEnv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
			ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
			ClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
		},
		DraftTTL:      getDurationEnv("DRAFT_TTL", 24*time.Hour),
		PendingTTL:    getDurationEnv("PENDING_CORRELATION_TTL", time.Hour),
		PendingMaxAge: getDurationEnv("PENDING_BOOKING_MAX_AGE", 2*time.Hour),
		CancelCutoff:  getDurationEnv("CANCEL_CUTOFF", 24*time.Hour),
		AllowedOrigins: []string{
			getEnv("FRONTEND_ORIGIN", "http://localhost:3000"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
