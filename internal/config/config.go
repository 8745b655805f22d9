package config

import (
	"os"
	"strings"
	"time"
)

// BackendKeys are the settings the backend cannot run without.
//
// Either all of them are present and every component talks to Postgres,
// Redis and object storage, or at least one is missing and the whole
// backend is switched off as a unit. There is no partial mode: a server
// that can read profiles but not publish chat notifications would be
// harder to reason about than one that plainly says "disabled".
var BackendKeys = []string{
	"DATABASE_URL",
	"REDIS_URL",
	"STORAGE_BUCKET",
	"STORAGE_REGION",
	"JWT_SECRET",
}

type Config struct {
	Port string

	LogLevel    string
	Env         string
	ServiceName string

	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	SessionTTL  time.Duration

	Storage StorageConfig
	SMS     SMSConfig
	MQTT    MQTTConfig

	AllowedOrigins []string

	// Missing lists the BackendKeys that were not set. Empty means the
	// backend is enabled.
	Missing []string
}

type StorageConfig struct {
	Bucket string
	Region string
	// Endpoint overrides the S3 endpoint (MinIO, LocalStack). Empty uses AWS.
	Endpoint string
	// PublicBaseURL, when set, is used to build retrieval URLs directly
	// instead of presigning.
	PublicBaseURL string
	URLExpiry     time.Duration
}

type SMSConfig struct {
	BaseURL string
	APIKey  string
	Sender  string
}

type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        GetEnv("PORT", "8081"),
		Env:         GetEnv("ENV", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		ServiceName: GetEnv("SERVICE_NAME", "seniorbuddy"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		SessionTTL:  GetDuration("SESSION_TTL", 24*time.Hour),
		Storage: StorageConfig{
			Bucket:        os.Getenv("STORAGE_BUCKET"),
			Region:        os.Getenv("STORAGE_REGION"),
			Endpoint:      os.Getenv("STORAGE_ENDPOINT"),
			PublicBaseURL: strings.TrimRight(os.Getenv("STORAGE_PUBLIC_BASE_URL"), "/"),
			URLExpiry:     GetDuration("STORAGE_URL_EXPIRY", 7*24*time.Hour),
		},
		SMS: SMSConfig{
			BaseURL: os.Getenv("SMS_BASE_URL"),
			APIKey:  os.Getenv("SMS_API_KEY"),
			Sender:  GetEnv("SMS_SENDER", "SeniorBuddy"),
		},
		MQTT: MQTTConfig{
			Broker:   os.Getenv("MQTT_BROKER"),
			ClientID: GetEnv("MQTT_CLIENT_ID", "seniorbuddy"),
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
		},
		AllowedOrigins: splitList(GetEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	for _, key := range BackendKeys {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			cfg.Missing = append(cfg.Missing, key)
		}
	}
	return cfg, nil
}

// BackendEnabled reports whether every BackendKeys entry was present.
func (c *Config) BackendEnabled() bool {
	return len(c.Missing) == 0
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetDuration parses a Go duration ("90s", "24h"). Malformed values fall
// back to the default rather than failing startup.
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
