package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr               string
	Environment        string
	JWTSecret          string
	JWTIssuer          string
	FrontendDir        string
	LogLevel           string
	LogFormat          string
	LogFile            string
	LogMaxSizeMB       int
	LogMaxBackups      int
	LogMaxAgeDays      int
	SeedEnabled        bool
	SeedFile           string
	SeedRandom         bool
	MaxBodyBytes       int64
	ImportMaxBytes     int64
	ImportSessionTTL   time.Duration
	RateLimitPerMinute int
	MaintenanceEvery   time.Duration
	InsightsAPIURL     string
	InsightsAPIKey     string
	InsightsModel      string
	InsightsTimeout    time.Duration
	AuditDatabaseURL   string
	DataEncryptionKey  string
	KafkaBrokers       []string
	KafkaTopic         string
	MetricsEnabled     bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", ""),
		FrontendDir:        getEnv("FRONTEND_DIR", "frontend/dist"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		LogFile:            getEnv("LOG_FILE", ""),
		LogMaxSizeMB:       getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups:      getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays:      getEnvInt("LOG_MAX_AGE_DAYS", 14),
		SeedEnabled:        getEnvBool("SEED_ENABLED", true),
		SeedFile:           getEnv("SEED_FILE", ""),
		SeedRandom:         getEnvBool("SEED_RANDOM", false),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		ImportMaxBytes:     int64(getEnvInt("IMPORT_MAX_BYTES", 5*1048576)),
		ImportSessionTTL:   getEnvDuration("IMPORT_SESSION_TTL", 30*time.Minute),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MaintenanceEvery:   getEnvDuration("MAINTENANCE_INTERVAL", time.Minute),
		InsightsAPIURL:     getEnv("INSIGHTS_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		InsightsAPIKey:     getEnv("INSIGHTS_API_KEY", ""),
		InsightsModel:      getEnv("INSIGHTS_MODEL", "gemini-1.5-flash"),
		InsightsTimeout:    getEnvDuration("INSIGHTS_TIMEOUT", 8*time.Second),
		AuditDatabaseURL:   getEnv("AUDIT_DATABASE_URL", ""),
		DataEncryptionKey:  getEnv("DATA_ENCRYPTION_KEY", ""),
		KafkaBrokers:       getEnvList("KAFKA_BROKERS"),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "fitbusiness.events"),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if c.AuditDatabaseURL != "" && strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production when AUDIT_DATABASE_URL is used")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.ImportMaxBytes < 1024 {
		return fmt.Errorf("IMPORT_MAX_BYTES must be at least 1024")
	}
	if c.ImportSessionTTL <= 0 {
		return fmt.Errorf("IMPORT_SESSION_TTL must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.InsightsTimeout <= 0 {
		return fmt.Errorf("INSIGHTS_TIMEOUT must be positive")
	}
	if len(c.KafkaBrokers) > 0 && strings.TrimSpace(c.KafkaTopic) == "" {
		return fmt.Errorf("KAFKA_TOPIC must be set when KAFKA_BROKERS is used")
	}
	return nil
}
