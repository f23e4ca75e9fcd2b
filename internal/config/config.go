package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage selection and backend settings
	Storage  StorageConfig
	Database DatabaseConfig
	GCP      GCPConfig

	// Admin gate and staff sessions
	Admin AdminConfig

	// CORS configuration
	CORS CORSConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a reverse proxy that overwrites those headers.
	TrustProxy bool
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Backend string // postgres, firestore; empty means auto-detect
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	AutoMigrate     bool
}

// GCPConfig holds Firestore credentials
type GCPConfig struct {
	ProjectID   string
	ClientEmail string
	PrivateKey  string
}

// HasServiceAccount reports whether explicit credentials were supplied.
// Otherwise Application Default Credentials are used.
func (g GCPConfig) HasServiceAccount() bool {
	return g.ClientEmail != "" && g.PrivateKey != ""
}

// AdminConfig holds the admin secret and staff session settings
type AdminConfig struct {
	Password     string
	PasswordHash string
	TokenSecret  string
	TokenTTL     time.Duration
	TokenIssuer  string
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	AdminRPS          float64 // Stricter limit for admin and session endpoints
	AdminBurst        int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return FromEnv()
}

// FromEnv builds and validates the configuration from the process
// environment without touching .env files.
func FromEnv() (*Config, error) {
	env := getEnvOrDefault("NODE_ENV", "development")
	dev := env == "development"

	defaultLevel, defaultFormat := "info", "json"
	if dev {
		defaultLevel, defaultFormat = "debug", "text"
	}

	var defaultOrigins []string
	if dev {
		defaultOrigins = []string{"*"}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvOrDefault("HOST", "0.0.0.0"),
			Port:            getIntOrDefault("PORT", 3000),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			TrustProxy:      getBoolOrDefault("TRUST_PROXY", false),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_BACKEND"))),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getIntOrDefault("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntOrDefault("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getDurationOrDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getDurationOrDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			AutoMigrate:     getBoolOrDefault("DB_AUTO_MIGRATE", env != "production"),
		},
		GCP: GCPConfig{
			ProjectID:   os.Getenv("GCP_PROJECT_ID"),
			ClientEmail: os.Getenv("GCP_CLIENT_EMAIL"),
			// Keys pasted into env files usually carry escaped newlines
			PrivateKey: strings.ReplaceAll(os.Getenv("GCP_PRIVATE_KEY"), `\n`, "\n"),
		},
		Admin: AdminConfig{
			Password:     os.Getenv("ADMIN_PASSWORD"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenSecret:  os.Getenv("STAFF_TOKEN_SECRET"),
			TokenTTL:     getDurationOrDefault("STAFF_TOKEN_TTL", 8*time.Hour),
			TokenIssuer:  getEnvOrDefault("STAFF_TOKEN_ISSUER", "support-desk"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", defaultOrigins),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
			AdminRPS:          getFloatOrDefault("RATE_LIMIT_ADMIN_RPS", 1),
			AdminBurst:        getIntOrDefault("RATE_LIMIT_ADMIN_BURST", 5),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", defaultLevel),
			Format: getEnvOrDefault("LOG_FORMAT", defaultFormat),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "support-desk"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: env,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	switch c.App.Environment {
	case "development", "test", "production":
	default:
		errs = append(errs, "NODE_ENV must be one of development, test, production")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "PORT must be between 1 and 65535")
	}

	switch c.StorageBackend() {
	case BackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres backend")
		}
	case BackendFirestore:
		if c.GCP.ProjectID == "" {
			errs = append(errs, "GCP_PROJECT_ID is required for the firestore backend")
		}
	case "":
		errs = append(errs, "either DATABASE_URL or GCP_PROJECT_ID must be set")
	default:
		errs = append(errs, "STORAGE_BACKEND must be postgres or firestore")
	}

	if (c.GCP.ClientEmail == "") != (c.GCP.PrivateKey == "") {
		errs = append(errs, "GCP_CLIENT_EMAIL and GCP_PRIVATE_KEY must be provided together")
	}

	// Security validations
	if c.IsProduction() {
		if c.Admin.TokenSecret != "" && len(c.Admin.TokenSecret) < 32 {
			errs = append(errs, "STAFF_TOKEN_SECRET must be at least 32 characters in production")
		}
		if len(c.CORS.AllowedOrigins) == 0 {
			errs = append(errs, "CORS_ALLOWED_ORIGINS must be set in production")
		}
	}

	// Logical validations
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}
	if c.Admin.TokenTTL <= 0 {
		errs = append(errs, "STAFF_TOKEN_TTL must be positive")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// StorageBackend resolves the backend: an explicit STORAGE_BACKEND wins,
// then DATABASE_URL, then GCP_PROJECT_ID.
func (c *Config) StorageBackend() string {
	if c.Storage.Backend != "" {
		return c.Storage.Backend
	}
	if c.Database.URL != "" {
		return BackendPostgres
	}
	if c.GCP.ProjectID != "" {
		return BackendFirestore
	}
	return ""
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Backend: %s, DB: %s, GCPProject: %s, Admin: %s, RateLimit: %v, Environment: %s}",
		c.Server.Addr(),
		c.StorageBackend(),
		redactURL(c.Database.URL),
		c.GCP.ProjectID,
		redactSecret(c.Admin.Password != "" || c.Admin.PasswordHash != ""),
		c.RateLimit.Enabled,
		c.App.Environment,
	)
}

// redactURL redacts sensitive parts of a database URL
func redactURL(url string) string {
	if url == "" {
		return ""
	}
	if idx := strings.Index(url, "@"); idx > 0 {
		return "[REDACTED]" + url[idx:]
	}
	return "[REDACTED]"
}

func redactSecret(configured bool) string {
	if configured {
		return "[REDACTED]"
	}
	return "[UNSET]"
}
