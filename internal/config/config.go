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

// DefaultJWTSecret is the placeholder secret; only development may run with it.
const DefaultJWTSecret = "change-me"

type Config struct {
	App struct {
		ENV  string
		Seed bool
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver          string // mysql | postgres | sqlite
		DSN             string
		Host            string
		Port            string
		User            string
		Password        string
		Name            string
		MaxOpenConns    int
		MaxIdleConns    int
		ConnMaxLifetime time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host              string
		Port              string
		ReadHeaderTimeout time.Duration
		ReadTimeout       time.Duration
		WriteTimeout      time.Duration
		RequestTimeout    time.Duration
		CORSOrigins       []string
	}

	GRPC struct {
		Host string
		Port string
	}

	Auth struct {
		JWTSecret  string
		TokenTTL   time.Duration
		Enforce    bool
		BcryptCost int
	}

	Upload struct {
		Dir       string
		URLPrefix string
		MaxBytes  int64
		MaxWidth  int
		MaxPixels int
	}
}

// New loads the optional .env file (ENV_FILE or ./.env) and builds the
// configuration from the environment.
func New() *Config {
	loadDotenv()

	cfg := &Config{}

	// App
	cfg.App.ENV = getEnvDefault("APP_ENV", "production")
	cfg.App.Seed = isTruthy(os.Getenv("SEED"))

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "api")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("DATABASE_URL")
	cfg.DB.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DB.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	cfg.DB.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "tinderito")

		switch cfg.DB.Driver {
		case "postgres":
			cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
			cfg.DB.DSN = fmt.Sprintf(
				"postgres://%s:%s@%s:%s/%s?sslmode=disable",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		case "sqlite":
			cfg.DB.DSN = getEnvDefault("DB_PATH", "tinderito.db")
		default:
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("PORT", "3000")
	cfg.HTTP.ReadHeaderTimeout = getEnvDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second)
	cfg.HTTP.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second)
	cfg.HTTP.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	cfg.HTTP.RequestTimeout = getEnvDuration("HTTP_REQUEST_TIMEOUT", 10*time.Second)
	cfg.HTTP.CORSOrigins = splitList(getEnvDefault("CORS_ORIGIN", "*"))

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", DefaultJWTSecret)
	cfg.Auth.TokenTTL = getEnvDuration("TOKEN_TTL", 30*24*time.Hour)
	cfg.Auth.Enforce = isTruthy(os.Getenv("AUTH_ENFORCE"))
	cfg.Auth.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	if cfg.Auth.BcryptCost < 10 {
		cfg.Auth.BcryptCost = 10
	}

	// Uploads
	cfg.Upload.Dir = getEnvDefault("UPLOAD_DIR", "uploads")
	cfg.Upload.URLPrefix = getEnvDefault("UPLOAD_URL_PREFIX", "/uploads")
	cfg.Upload.MaxBytes = int64(getEnvInt("UPLOAD_MAX_BYTES", 15<<20))
	cfg.Upload.MaxWidth = getEnvInt("UPLOAD_MAX_WIDTH", 1080)
	cfg.Upload.MaxPixels = getEnvInt("UPLOAD_MAX_PIXELS", 40_000_000)

	return cfg
}

// Validate rejects configurations that must not serve traffic.
func (c *Config) Validate() error {
	if c.App.ENV != "development" && c.Auth.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set outside development")
	}
	return nil
}

func loadDotenv() {
	if p := strings.TrimSpace(os.Getenv("ENV_FILE")); p != "" {
		_ = godotenv.Load(p)
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env") // never overrides variables already set
	}
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("15s") or plain seconds ("15").
func getEnvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimRight(strings.TrimSpace(p), "/"); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
