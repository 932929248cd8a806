package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/tinderito/internal/app"
	"github.com/oggyb/tinderito/internal/auth"
	"github.com/oggyb/tinderito/internal/cache"
	"github.com/oggyb/tinderito/internal/config"
	"github.com/oggyb/tinderito/internal/db"
	"github.com/oggyb/tinderito/internal/logger"
	"github.com/oggyb/tinderito/internal/media"
	"github.com/oggyb/tinderito/internal/server"
	"github.com/oggyb/tinderito/internal/service/account"
	"github.com/oggyb/tinderito/internal/service/health"
	"github.com/oggyb/tinderito/internal/service/matching"
	"github.com/oggyb/tinderito/internal/service/messaging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		return err
	}

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return err
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return err
	}
	defer redisCache.Close()

	photos, err := media.NewPhotoStore(cfg.Upload.Dir, cfg.Upload.URLPrefix, cfg.Upload.MaxWidth, cfg.Upload.MaxPixels)
	if err != nil {
		log.Error("failed to init photo store", "err", err)
		return err
	}

	if cfg.App.ENV == "development" && cfg.App.Seed {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	appCtx := app.New(cfg, database, redisCache, log, auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), photos)

	healthSvc := health.NewHealthService(appCtx)
	router := server.NewRouter(appCtx,
		healthSvc,
		account.NewRegistrar(appCtx),
		matching.NewRegistrar(appCtx),
		messaging.NewRegistrar(appCtx),
	)
	httpServer := server.NewHTTPServer(appCtx, router)
	grpcServer := server.NewGRPCServer(healthSvc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.ServeGRPC(cfg, grpcServer)
	})

	healthSvc.SetServing(true)

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		healthSvc.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "err", err)
		}
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
		return nil
	})

	return g.Wait()
}
