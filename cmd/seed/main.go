package main

import (
	"flag"
	"os"

	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/logger"
)

func main() {
	minimal := flag.Bool("minimal", false, "load the small deterministic fixture instead of random demo data")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger.InitFromConfig(cfg)

	if cfg.Store.Driver == "pebble" {
		logger.Error("seeding needs a SQL store", "driver", cfg.Store.Driver)
		os.Exit(1)
	}

	database, err := db.NewDB(cfg.Store)
	if err != nil {
		logger.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	seed := db.SeedTestData
	if *minimal {
		seed = db.SeedMinimalTestData
	}
	if err := seed(database); err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	logger.Info("seeding completed")
}
