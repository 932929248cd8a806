package main

import (
	"flag"
	"os"

	"github.com/oggyb/tinderito/internal/config"
	"github.com/oggyb/tinderito/internal/db"
	"github.com/oggyb/tinderito/internal/logger"
)

func main() {
	force := flag.Bool("force", false, "seed even when APP_ENV=production (wipes all data)")
	flag.Parse()

	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.With("cmd", "seed", "driver", cfg.DB.Driver)

	if cfg.App.ENV == "production" && !*force {
		log.Error("refusing to wipe a production database; pass -force to override")
		os.Exit(2)
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	log.Info("seeding completed")
}
