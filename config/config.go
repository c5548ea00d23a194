package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendAPI      = "api"
	BackendMemory   = "memory"
)

// MinAbuseScopeTTLMinutes keeps attempt counters alive for a full lockout.
const MinAbuseScopeTTLMinutes = 60

// Config holds application configuration loaded from environment.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Redis   RedisConfig
	Abuse   AbuseConfig
	Event   EventConfig
	Admin   AdminConfig
	AWS     AWSConfig
	Email   EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	TrustedProxies     []string
	SecureCookies      bool
}

// StorageConfig selects and parameterises the registration storage backend.
type StorageConfig struct {
	Backend  string
	Postgres DatabaseConfig
	SQLite   SQLiteConfig
	API      APIConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL         string // if set, used as-is (e.g. postgres://localhost:5432/workshops?sslmode=disable)
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// SQLiteConfig holds the SQLite database path.
type SQLiteConfig struct {
	Path string
}

// APIConfig holds the remote registrations API settings.
type APIConfig struct {
	BaseURL    string
	APIKey     string
	TimeoutSec int
}

// RedisConfig holds Redis connection settings. Empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AbuseConfig selects where per-client attempt counters live ("memory" or "redis").
type AbuseConfig struct {
	ScopeBackend string
	TTLMinutes   int
}

// EventConfig identifies the current workshop and where the catalog comes from.
type EventConfig struct {
	CurrentID   string
	CatalogFile string // YAML; empty = built-in catalog
	Timezone    string // IANA name deadlines are interpreted in; empty = server local
}

// AdminConfig holds administrator credentials and JWT settings.
type AdminConfig struct {
	Username           string
	PasswordHash       string // bcrypt
	ViewerUsername     string // optional read-only account
	ViewerPasswordHash string
	JWTSecret          string
	ExpireHours        int
}

// AWSConfig holds AWS credentials and the roster export bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ExportsBucket        string
	PresignExpireMinutes int
}

// EmailConfig for confirmation notices sent by the worker.
type EmailConfig struct {
	FromAddress string
	FromName    string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Location resolves the configured timezone.
func (c EventConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			TrustedProxies:     splitTrim(getEnv("TRUSTED_PROXIES", ""), ","),
			SecureCookies:      getEnvBool("COOKIE_SECURE", false),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
			Postgres: DatabaseConfig{
				URL:         getEnv("DATABASE_URL", ""),
				Host:        getEnv("DB_HOST", "localhost"),
				Port:        getEnv("DB_PORT", "5432"),
				User:        getEnv("DB_USER", "postgres"),
				Password:    getEnv("DB_PASSWORD", "postgres"),
				DBName:      getEnv("DB_NAME", "workshops"),
				SSLMode:     getEnv("DB_SSLMODE", "disable"),
				MaxConns:    getEnvInt("DB_MAX_CONNS", 0),
				AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", "workshops.db"),
			},
			API: APIConfig{
				BaseURL:    getEnv("REGISTRATION_API_URL", ""),
				APIKey:     getEnv("REGISTRATION_API_KEY", ""),
				TimeoutSec: getEnvInt("REGISTRATION_API_TIMEOUT_SEC", 15),
			},
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Abuse: AbuseConfig{
			ScopeBackend: strings.ToLower(getEnv("ABUSE_SCOPE_BACKEND", "memory")),
			TTLMinutes:   getEnvInt("ABUSE_SCOPE_TTL_MINUTES", 120),
		},
		Event: EventConfig{
			CurrentID:   getEnv("CURRENT_EVENT_ID", "youthai-explorer-2025-nov"),
			CatalogFile: getEnv("EVENT_CATALOG_FILE", ""),
			Timezone:    getEnv("EVENT_TIMEZONE", ""),
		},
		Admin: AdminConfig{
			Username:           getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash:       getEnv("ADMIN_PASSWORD_HASH", ""),
			ViewerUsername:     getEnv("VIEWER_USERNAME", ""),
			ViewerPasswordHash: getEnv("VIEWER_PASSWORD_HASH", ""),
			JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours:        getEnvInt("JWT_EXPIRE_HOURS", 12),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ExportsBucket:        getEnv("AWS_S3_EXPORTS_BUCKET", "workshop-registration-exports"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Email: EmailConfig{
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@example.com"),
			FromName:    getEnv("EMAIL_FROM_NAME", "YouthAI Workshops"),
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnvInt("SMTP_PORT", 587),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendPostgres, BackendSQLite, BackendAPI, BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (use postgres, sqlite, api or memory)", c.Storage.Backend)
	}
	switch c.Abuse.ScopeBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown ABUSE_SCOPE_BACKEND %q (use memory or redis)", c.Abuse.ScopeBackend)
	}
	if c.Abuse.ScopeBackend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("ABUSE_SCOPE_BACKEND=redis requires REDIS_ADDR")
	}
	if c.Abuse.TTLMinutes < MinAbuseScopeTTLMinutes {
		return fmt.Errorf("ABUSE_SCOPE_TTL_MINUTES must be at least %d (the lockout length)", MinAbuseScopeTTLMinutes)
	}
	if c.Event.CurrentID == "" {
		return fmt.Errorf("CURRENT_EVENT_ID is required")
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
