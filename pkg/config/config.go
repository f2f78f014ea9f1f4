package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	// Web Push (VAPID) credentials
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// FCM credentials: file path takes precedence, inline JSON is the
	// fallback for environments without a mounted secret file.
	FirebaseCredentialsFile string
	FirebaseServiceAccount  string

	// SkipFCM simulates successful FCM sends without a network call.
	// Dev/test escape hatch for environments without push infra.
	SkipFCM bool

	// Pub/Sub event ingestion (optional)
	GoogleProjectID string
	PushEventsTopic string

	MaintenanceInterval time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	maintenanceInterval := 6 * time.Hour
	if v := os.Getenv("MAINTENANCE_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			maintenanceInterval = parsed
		}
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:push@bobalove.app"),

		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS", ""),
		FirebaseServiceAccount:  getEnv("FIREBASE_SERVICE_ACCOUNT", ""),
		SkipFCM:                 getEnvBool("SKIP_FCM"),

		GoogleProjectID: getEnv("GOOGLE_PROJECT_ID", ""),
		PushEventsTopic: getEnv("PUSH_EVENTS_TOPIC", "push-events"),

		MaintenanceInterval: maintenanceInterval,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes":
		return true
	}
	return false
}
