package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// StripePriceIDs holds the configured Stripe price references per
// (plan, billing period). Unrecognized price ids seen on webhooks
// resolve to the free tier instead of failing.
type StripePriceIDs struct {
	ProMonthly    string
	ProAnnual     string
	AgencyMonthly string
	AgencyAnnual  string
}

// Config is resolved once at startup and injected into components.
// No component reads environment variables after Load returns.
type Config struct {
	Port       string
	DBURL      string
	JWTSecret  string
	AppURL     string
	CORSOrigin string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePrices        StripePriceIDs

	NowPaymentsBaseURL   string
	NowPaymentsAPIKey    string
	NowPaymentsIPNSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	return &Config{
		Port:       getEnv("PORT", "8080"),
		DBURL:      mustEnv("DB_URL"),
		JWTSecret:  mustEnv("JWT_SECRET"),
		AppURL:     getEnv("APP_URL", "http://localhost:5173"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		StripeSecretKey:     mustEnv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: mustEnv("STRIPE_WEBHOOK_SECRET"),
		StripePrices: StripePriceIDs{
			ProMonthly:    mustEnv("STRIPE_PRO_MONTHLY_PRICE_ID"),
			ProAnnual:     mustEnv("STRIPE_PRO_ANNUAL_PRICE_ID"),
			AgencyMonthly: mustEnv("STRIPE_AGENCY_MONTHLY_PRICE_ID"),
			AgencyAnnual:  mustEnv("STRIPE_AGENCY_ANNUAL_PRICE_ID"),
		},

		NowPaymentsBaseURL:   getEnv("NOWPAYMENTS_BASE_URL", "https://api.nowpayments.io/v1"),
		NowPaymentsAPIKey:    mustEnv("NOWPAYMENTS_API_KEY"),
		NowPaymentsIPNSecret: mustEnv("NOWPAYMENTS_IPN_SECRET"),
	}
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
