package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/tinderito/internal/auth"
	"github.com/oggyb/tinderito/internal/cache"
	"github.com/oggyb/tinderito/internal/config"
	"github.com/oggyb/tinderito/internal/media"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Tokens     *auth.Issuer
	Photos     *media.PhotoStore
}

// New creates a new AppContext
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *cache.RedisCache,
	logger *slog.Logger,
	tokens *auth.Issuer,
	photos *media.PhotoStore,
) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Tokens:     tokens,
		Photos:     photos,
	}
}
