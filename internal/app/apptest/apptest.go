// Package apptest builds a fully wired AppContext for service and handler
// tests: in-memory SQLite, miniredis, a discard logger and a temp photo dir.
package apptest

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/oggyb/tinderito/internal/app"
	"github.com/oggyb/tinderito/internal/auth"
	"github.com/oggyb/tinderito/internal/cache"
	"github.com/oggyb/tinderito/internal/config"
	"github.com/oggyb/tinderito/internal/db/dbtest"
	"github.com/oggyb/tinderito/internal/logger"
	"github.com/oggyb/tinderito/internal/media"
)

// Secret signs tokens issued by the test AppContext.
const Secret = "test-secret"

// Env is a test AppContext plus handles the tests poke at directly.
type Env struct {
	*app.AppContext
	Redis *miniredis.Miniredis
}

// New returns an isolated environment. Everything is torn down with t.
func New(t *testing.T) *Env {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := &cache.RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{}
	cfg.App.ENV = "test"
	cfg.Auth.JWTSecret = Secret
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.HTTP.CORSOrigins = []string{"*"}
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.URLPrefix = "/uploads"
	cfg.Upload.MaxBytes = 5 << 20
	cfg.Upload.MaxWidth = 64
	cfg.Upload.MaxPixels = 1_000_000

	photos, err := media.NewPhotoStore(cfg.Upload.Dir, cfg.Upload.URLPrefix, cfg.Upload.MaxWidth, cfg.Upload.MaxPixels)
	if err != nil {
		t.Fatalf("photo store: %v", err)
	}

	appCtx := app.New(
		cfg,
		dbtest.Open(t),
		rdb,
		logger.Discard(),
		auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		photos,
	)
	return &Env{AppContext: appCtx, Redis: mr}
}
