package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	// Outbound FCM endpoints, overridable for staging/testing
	FCMLegacyEndpoint   string
	FCMTokenEndpoint    string
	FCMV1EndpointFormat string

	// Bounded timeout for every outbound provider/OAuth call
	HTTPTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	httpTimeout := 15 * time.Second
	if raw := os.Getenv("FCM_HTTP_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			httpTimeout = parsed
		}
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=pushconsole port=5432 sslmode=disable"),
		FCMLegacyEndpoint:   getEnv("FCM_LEGACY_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
		FCMTokenEndpoint:    getEnv("FCM_TOKEN_ENDPOINT", "https://oauth2.googleapis.com/token"),
		FCMV1EndpointFormat: getEnv("FCM_V1_ENDPOINT_FORMAT", "https://fcm.googleapis.com/v1/projects/%s/messages:send"),
		HTTPTimeout:         httpTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
