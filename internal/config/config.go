package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	devJWTSecret = "dev-only-insecure-secret"
)

type Config struct {
	Env  string
	Port int

	// storage
	StoreDriver       string
	DBURL             string
	DBMaxConns        int32
	RunMigrations     bool
	DefaultCategories []string

	// auth
	JWTSecret           string
	JWTIssuer           string
	JWTAudience         string
	JWTAccessTTLMinutes int
	BcryptCost          int

	// report cache; empty RedisAddr falls back to an in-process cache
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	ReportCacheTTL     time.Duration
	ReportCacheEnabled bool

	// observability
	ServiceName  string
	OTELEndpoint string

	// http hardening
	CORSAllowedOrigins  []string
	RateLimitAuthPerMin int
	RateLimitAPIPerMin  int
	MaxBodyBytes        int64
	RequestTimeout      time.Duration
	ShutdownTimeout     time.Duration
}

func Load() Config {
	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DBURL:             getEnv("DATABASE_URL", buildDBURL()),
		DBMaxConns:        int32(getEnvInt("DB_MAX_CONNS", 10)),
		RunMigrations:     getEnvBool("DB_RUN_MIGRATIONS", true),
		DefaultCategories: getEnvList("DEFAULT_CATEGORIES", []string{"Food", "Transport", "Housing", "Health", "Leisure", "Salary"}),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTIssuer:           getEnv("JWT_ISSUER", "fintrack"),
		JWTAudience:         getEnv("JWT_AUDIENCE", "fintrack-clients"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60),
		BcryptCost:          getEnvInt("BCRYPT_COST", 0),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		ReportCacheTTL:     time.Duration(getEnvInt("REPORT_CACHE_TTL_SECONDS", 300)) * time.Second,
		ReportCacheEnabled: getEnvBool("REPORT_CACHE_ENABLED", true),

		ServiceName:  getEnv("OTEL_SERVICE_NAME", "fintrack-api"),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitAuthPerMin: getEnvInt("RATE_LIMIT_AUTH_PER_MINUTE", 20),
		RateLimitAPIPerMin:  getEnvInt("RATE_LIMIT_API_PER_MINUTE", 300),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		RequestTimeout:      time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 3)) * time.Second,
		ShutdownTimeout:     time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

// Validate rejects configurations the api must not start with. In dev a missing JWT
// secret is replaced by a fixed insecure one so the service boots without setup.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d: must be between 1 and 65535", c.Port))
	}

	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", c.StoreDriver, StorePostgres, StoreMemory))
	}

	if c.JWTSecret == "" {
		if c.Env == "dev" || c.Env == "test" {
			c.JWTSecret = devJWTSecret
		} else {
			errs = append(errs, errors.New("JWT_SECRET is required outside dev"))
		}
	} else if c.Env == "prod" && len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in prod"))
	}

	if c.JWTAccessTTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("invalid JWT_ACCESS_TTL_MINUTES %d", c.JWTAccessTTLMinutes))
	}

	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("invalid MAX_BODY_BYTES %d", c.MaxBodyBytes))
	}

	return errors.Join(errs...)
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "fintrack")
	pass := getEnv("DB_PASSWORD", "fintrack")
	name := getEnv("DB_NAME", "fintrack")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a store call while keeping the request's values (ids, trace span).
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return b
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
