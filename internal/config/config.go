package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/access"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Authentication behaviour
	Auth AuthConfig

	// Logging configuration
	Log LogConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig

	// Generative AI configuration
	Gemini GeminiConfig

	// Scheduled backup configuration
	Backup BackupConfig

	// Supervisor domain overrides (CSM username -> staff usernames)
	DomainOverrides access.Overrides
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string // postgres://... or sqlite://path/to/file.db
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// AuthConfig controls the login flow
type AuthConfig struct {
	LoginDelay          time.Duration
	AllowLegacyDefaults bool // accept "1234" and "<username>123" until a passcode is set
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // debug, info, warn, error
	File       string // empty logs to stdout only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
	EnableAuditLog   bool

	// Failed login throttling
	MaxLoginAttempts int
	LoginWindow      time.Duration
	MaxIPAttempts    int
	IPWindow         time.Duration
}

// GeminiConfig holds the generative language API settings
type GeminiConfig struct {
	APIKey    string
	BaseURL   string
	TextModel string
	ProModel  string
	TTSModel  string
	Voice     string
	Timeout   time.Duration
}

// BackupConfig controls the scheduled snapshot sync
type BackupConfig struct {
	Enabled  bool
	Schedule string // cron expression with seconds
	Dir      string // where scheduled snapshots are written
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		Auth: AuthConfig{
			LoginDelay:          getEnvAsDuration("LOGIN_DELAY", 800*time.Millisecond),
			AllowLegacyDefaults: getEnvAsBool("AUTH_ALLOW_LEGACY_DEFAULTS", true),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			EnableAuditLog:   getEnvAsBool("ENABLE_AUDIT_LOGGING", true),
			MaxLoginAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:      getEnvAsDuration("LOGIN_WINDOW", 15*time.Minute),
			MaxIPAttempts:    getEnvAsInt("LOGIN_MAX_IP_ATTEMPTS", 20),
			IPWindow:         getEnvAsDuration("LOGIN_IP_WINDOW", time.Hour),
		},
		Gemini: GeminiConfig{
			APIKey:    getEnv("GEMINI_API_KEY", ""),
			BaseURL:   getEnv("GEMINI_BASE_URL", ""),
			TextModel: getEnv("GEMINI_TEXT_MODEL", "gemini-3-flash-preview"),
			ProModel:  getEnv("GEMINI_PRO_MODEL", "gemini-3-pro-preview"),
			TTSModel:  getEnv("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
			Voice:     getEnv("GEMINI_TTS_VOICE", "Puck"),
			Timeout:   getEnvAsDuration("GEMINI_TIMEOUT", 30*time.Second),
		},
		Backup: BackupConfig{
			Enabled:  getEnvAsBool("BACKUP_SCHEDULE_ENABLED", false),
			Schedule: getEnv("BACKUP_SCHEDULE", "0 0 18 * * *"),
			Dir:      getEnv("BACKUP_DIR", "backups"),
		},
	}

	overrides, err := LoadDomainOverrides(getEnv("DOMAIN_OVERRIDES_FILE", ""))
	if err != nil {
		return nil, err
	}
	config.DomainOverrides = overrides

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Security.BcryptCost)
	}

	if c.Server.Environment == "production" && c.Auth.AllowLegacyDefaults {
		return fmt.Errorf("AUTH_ALLOW_LEGACY_DEFAULTS must be false in production")
	}

	if c.Backup.Enabled && c.Backup.Schedule == "" {
		return fmt.Errorf("BACKUP_SCHEDULE is required when scheduled backups are enabled")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logrus.Warnf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logrus.Warnf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logrus.Warnf("Invalid duration value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
