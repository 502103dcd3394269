package main

import (
	"context"
	"os"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/lock"
	"github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/profile"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/server"
	"github.com/oggyb/muzz-match/internal/service/match"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init Redis, needed for the distributed lock and the profile cache
	var redisCache *cache.RedisCache
	if cfg.Lock.Backend == "redis" || cfg.Profile.CacheEnabled {
		redisCache = cache.NewRedisCache(cfg)
		if err := redisCache.Ping(context.Background()); err != nil {
			log.Error("failed to connect to redis", "err", err)
			os.Exit(1)
		}
		defer redisCache.Close()
	}

	storeOpts := []repository.Option{repository.WithTimeout(cfg.Store.Timeout)}
	if cfg.Lock.Backend == "redis" {
		storeOpts = append(storeOpts, repository.WithLocker(
			lock.NewRedis(redisCache.Client, cfg.Lock.TTL, cfg.Lock.RetryInterval),
		))
	}

	// Init store
	var (
		store    repository.MatchStore
		database *gorm.DB
	)
	switch cfg.Store.Driver {
	case "pebble":
		ps, err := repository.OpenPebble(cfg.Store.Endpoint, nil, storeOpts...)
		if err != nil {
			log.Error("failed to open pebble store", "dir", cfg.Store.Endpoint, "err", err)
			os.Exit(1)
		}
		defer ps.Close()
		store = ps
	default:
		database, err = db.NewDB(cfg.Store)
		if err != nil {
			log.Error("failed to init db", "driver", cfg.Store.Driver, "err", err)
			os.Exit(1)
		}
		store = repository.NewMatchRepository(database, storeOpts...)
	}

	// Profiles live in the users table; the pebble deployment has none
	var resolver profile.Resolver
	if database != nil {
		resolver = profile.NewDBResolver(database)
		if redisCache != nil && cfg.Profile.CacheEnabled {
			resolver = profile.NewCachedResolver(resolver, redisCache, cfg.Profile.CacheTTL, log)
		}
	}

	appCtx := app.New(cfg, store, redisCache, resolver, log)

	if cfg.App.ENV == "development" && database != nil {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	log.Info("starting gRPC server",
		"addr", cfg.GRPC.Host+":"+cfg.GRPC.Port,
		"store", cfg.Store.Driver,
		"lock", cfg.Lock.Backend,
		"create_policy", cfg.Match.CreatePolicy,
	)

	if err := server.StartGRPCServer(cfg, log, match.NewRegistrar(appCtx)); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}
}
