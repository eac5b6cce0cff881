package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App      AppSettings
	HTTP     HTTPSettings
	Auth     AuthSettings
	Log      LogSettings
	Database DatabaseSettings
	Storage  StorageSettings
	Audit    AuditSettings
	MyData   MyDataSettings
	GSIS     GSISSettings
	Branches BranchSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	WriteTimeoutBulk time.Duration // retry-all and export
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// StorageSettings selects the KV backend holding history, queue, counters,
// customers and drafts.
type StorageSettings struct {
	Driver string
}

type AuditSettings struct {
	Enabled         bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
}

// MyDataSettings configures the proxy in front of the AADE myDATA API.
type MyDataSettings struct {
	ProxyURL        string
	UserID          string
	SubscriptionKey string
	Sandbox         bool
	Timeout         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
	RetryRPS        float64
}

// GSISSettings configures the optional VAT registry lookup. An empty URL
// disables it.
type GSISSettings struct {
	LookupURL string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// BranchSettings points at an optional JSON file replacing the built-in
// branch registry.
type BranchSettings struct {
	File string
}

// Load resolves the application configuration from environment variables.
// Variables from a .env file are loaded first when present; variables already
// set in the environment take precedence.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "mydata_core"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:             getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:      getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:     getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			WriteTimeoutBulk: getEnvAsDuration("HTTP_WRITE_TIMEOUT_BULK", 5*time.Minute),
			IdleTimeout:      getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:  getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", false),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "mydata_core"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Storage: StorageSettings{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		},
		Audit: AuditSettings{
			Enabled:         getEnvAsBool("AUDIT_ENABLED", true),
			LogRequestBody:  getEnvAsBool("AUDIT_LOG_REQUEST_BODY", true),
			LogResponseBody: getEnvAsBool("AUDIT_LOG_RESPONSE_BODY", true),
			MaxBodySize:     getEnvAsInt("AUDIT_MAX_BODY_SIZE", 65536),
		},
		MyData: MyDataSettings{
			ProxyURL:        strings.TrimRight(strings.TrimSpace(os.Getenv("MYDATA_PROXY_URL")), "/"),
			UserID:          strings.TrimSpace(os.Getenv("AADE_USER_ID")),
			SubscriptionKey: strings.TrimSpace(os.Getenv("AADE_SUBSCRIPTION_KEY")),
			Sandbox:         getEnvAsBool("MYDATA_SANDBOX", true),
			Timeout:         getEnvAsDuration("MYDATA_TIMEOUT", 30*time.Second),
			BreakerFailures: getEnvAsInt("MYDATA_BREAKER_FAILURES", 5),
			BreakerCooldown: getEnvAsDuration("MYDATA_BREAKER_COOLDOWN", 30*time.Second),
			RetryRPS:        getEnvAsFloat("MYDATA_RETRY_RPS", 2),
		},
		GSIS: GSISSettings{
			LookupURL: strings.TrimRight(strings.TrimSpace(os.Getenv("GSIS_LOOKUP_URL")), "/"),
			Timeout:   getEnvAsDuration("GSIS_TIMEOUT", 10*time.Second),
			CacheTTL:  getEnvAsDuration("GSIS_CACHE_TTL", 24*time.Hour),
		},
		Branches: BranchSettings{
			File: strings.TrimSpace(os.Getenv("BRANCHES_FILE")),
		},
	}

	if cfg.Storage.Driver != StorageMemory && cfg.Storage.Driver != StoragePostgres {
		return cfg, fmt.Errorf("invalid config: STORAGE_DRIVER must be %q or %q", StorageMemory, StoragePostgres)
	}
	if cfg.MyData.Timeout <= 0 {
		return cfg, errors.New("invalid config: MYDATA_TIMEOUT must be greater than 0")
	}
	if cfg.MyData.BreakerFailures <= 0 {
		return cfg, errors.New("invalid config: MYDATA_BREAKER_FAILURES must be greater than 0")
	}
	if cfg.MyData.RetryRPS <= 0 {
		return cfg, errors.New("invalid config: MYDATA_RETRY_RPS must be greater than 0")
	}
	if cfg.MyData.ProxyURL != "" && (cfg.MyData.UserID == "" || cfg.MyData.SubscriptionKey == "") {
		return cfg, errors.New("invalid config: AADE_USER_ID and AADE_SUBSCRIPTION_KEY are required when MYDATA_PROXY_URL is set")
	}
	if cfg.HTTP.WriteTimeoutBulk < cfg.HTTP.WriteTimeout {
		cfg.HTTP.WriteTimeoutBulk = cfg.HTTP.WriteTimeout
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return cfg, nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

// UsesDatabase reports whether a Postgres pool must be opened. The audit
// trail is persisted only when it is.
func (c AppConfig) UsesDatabase() bool {
	return c.Storage.Driver == StoragePostgres
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
