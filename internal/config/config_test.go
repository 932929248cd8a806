package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, k := range []string{"APP_ENV", "DB_DRIVER", "DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"PORT", "BCRYPT_COST", "AUTH_ENFORCE", "CORS_ORIGIN", "HTTP_REQUEST_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg := New()

	assert.Equal(t, "production", cfg.App.ENV)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "root:root@tcp(localhost:3306)/tinderito?parseTime=true&charset=utf8mb4&loc=UTC", cfg.DB.DSN)
	assert.Equal(t, "3000", cfg.HTTP.Port)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.Enforce)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.HTTP.RequestTimeout)
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "dating")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("AUTH_ENFORCE", "yes")
	t.Setenv("HTTP_REQUEST_TIMEOUT", "3")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("CORS_ORIGIN", "http://a.test/, http://b.test")

	cfg := New()

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://app:secret@db:5432/dating?sslmode=disable", cfg.DB.DSN)
	assert.Equal(t, 10, cfg.Auth.BcryptCost, "cost is floored at 10")
	assert.True(t, cfg.Auth.Enforce)
	assert.Equal(t, 3*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
}

func TestDatabaseURLWins(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@host:6543/x")

	cfg := New()
	assert.Equal(t, "postgres://u:p@host:6543/x", cfg.DB.DSN)
}

func TestDotenvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("REDIS_ADDR=redis:6380\nGRPC_PORT=6000\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("REDIS_ADDR", "") // restored after the test
	require.NoError(t, os.Unsetenv("REDIS_ADDR"))
	t.Setenv("GRPC_PORT", "7000")

	cfg := New()
	assert.Equal(t, "7000", cfg.GRPC.Port)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
}

func TestHelpers(t *testing.T) {
	assert.True(t, isTruthy(" On "))
	assert.False(t, isTruthy("nope"))

	t.Setenv("X_DURATION", "garbage")
	assert.Equal(t, time.Minute, getEnvDuration("X_DURATION", time.Minute))

	t.Setenv("X_INT", "12")
	assert.Equal(t, 12, getEnvInt("X_INT", 1))
}

func TestValidateRejectsDefaultSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ENV", "")

	cfg := New()
	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Error(t, cfg.Validate())

	cfg.App.ENV = "development"
	assert.NoError(t, cfg.Validate())

	cfg.App.ENV = "production"
	cfg.Auth.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestUploadMaxPixels(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("UPLOAD_MAX_PIXELS", "")
	assert.Equal(t, 40_000_000, New().Upload.MaxPixels)

	t.Setenv("UPLOAD_MAX_PIXELS", "1000")
	assert.Equal(t, 1000, New().Upload.MaxPixels)
}
