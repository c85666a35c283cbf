package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	MigrationsPath  string
	SessionDuration time.Duration
	JWTSecret       string
	Debug           bool

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int

	CatalogPath     string
	CatalogCacheTTL time.Duration
	TrainingIdleTTL time.Duration
	SubmitTimeout   time.Duration
	// SubmitFinalAnswer also persists the last question's answer
	SubmitFinalAnswer bool

	ReportFontPath string

	OAuthRedirectBaseURL string
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string

	AWSRegion      string
	SESFromEmail   string
	SESFromName    string
	AppBaseURL     string
	RemindersOn    bool
	ReminderTZ     string
	LoginRateLimit int
	// TrustProxy honours X-Forwarded-For; set only behind a known proxy
	TrustProxy bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./moodjournal.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		SessionDuration: getDuration("SESSION_DURATION", 7*24*time.Hour),
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		Debug:           getBool("DEBUG", false),

		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getInt("LOG_MAX_BACKUPS", 5),

		CatalogPath:       getEnv("CATALOG_PATH", ""),
		CatalogCacheTTL:   getDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		TrainingIdleTTL:   getDuration("TRAINING_IDLE_TTL", 2*time.Hour),
		SubmitTimeout:     getDuration("SUBMIT_TIMEOUT", 5*time.Second),
		SubmitFinalAnswer: getBool("SUBMIT_FINAL_ANSWER", false),

		ReportFontPath: getEnv("REPORT_FONT_PATH", ""),

		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),

		AWSRegion:      getEnv("AWS_REGION", "ap-northeast-2"),
		SESFromEmail:   getEnv("SES_FROM_EMAIL", ""),
		SESFromName:    getEnv("SES_FROM_NAME", "Mood Journal"),
		AppBaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
		RemindersOn:    getBool("REMINDERS_ENABLED", true),
		ReminderTZ:     getEnv("REMINDER_TZ", "Asia/Seoul"),
		LoginRateLimit: getInt("LOGIN_RATE_LIMIT", 10),
		TrustProxy:     getBool("TRUST_PROXY", false),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid boolean for %s: %q", key, value)
		return defaultValue
	}
	return parsed
}

func getInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer for %s: %q", key, value)
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s: %q", key, value)
		return defaultValue
	}
	return parsed
}
