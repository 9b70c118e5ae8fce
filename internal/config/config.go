// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting of the server
type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string

	JWTSecret        []byte
	SuperAdminEmails []string
	CronSecret       string

	LogLevel string
	LogFile  string

	RateLimitMax    int
	RateLimitWindow time.Duration

	UploadMaxChunkBytes   int64
	UploadCompleteTimeout time.Duration

	NotificationSweepInterval time.Duration
	RobotsCacheTTL            time.Duration

	OTelEnabled      bool
	OTelEndpoint     string
	OTelSamplingRate float64
}

// Load reads .env (when present) and then the process environment.
// Only JWT_SECRET is mandatory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: ParseList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DatabaseURL:    DatabaseURL(),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AWSRegion:  getEnv("AWS_REGION", "ap-south-1"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),

		JWTSecret:        []byte(os.Getenv("JWT_SECRET")),
		SuperAdminEmails: ParseEmailList(os.Getenv("SUPER_ADMIN_EMAILS")),
		CronSecret:       os.Getenv("CRON_SECRET"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "theglocal.log"),

		RateLimitMax:    getInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Minute),

		UploadMaxChunkBytes:   int64(getInt("UPLOAD_MAX_CHUNK_BYTES", 5<<20)),
		UploadCompleteTimeout: getDuration("UPLOAD_COMPLETE_TIMEOUT", 120*time.Second),

		NotificationSweepInterval: getDuration("NOTIFICATION_SWEEP_INTERVAL", time.Hour),
		RobotsCacheTTL:            getDuration("ROBOTS_CACHE_TTL", 6*time.Hour),

		OTelEnabled:      getBool("OTEL_ENABLED", false),
		OTelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTelSamplingRate: getFloat("OTEL_SAMPLING_RATE", 1.0),
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.RateLimitMax <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", cfg.RateLimitMax)
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ParseEmailList splits a comma-separated allow-list and normalises each
// entry to lowercase without surrounding whitespace.
func ParseEmailList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if email := strings.ToLower(strings.TrimSpace(part)); email != "" {
			out = append(out, email)
		}
	}
	return out
}

// ParseList splits a comma-separated value, dropping empty entries
func ParseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// DatabaseURL returns DATABASE_URL or a DSN assembled from the DB_* variables
func DatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_NAME", "theglocal"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

// getDuration accepts Go duration strings ("90s") or plain seconds ("90").
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
