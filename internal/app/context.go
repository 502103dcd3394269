package app

import (
	"log/slog"

	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/profile"
	"github.com/oggyb/muzz-match/internal/repository"
)

// AppContext holds shared dependencies (store, Redis, profile resolver, logger, config).
// RedisCache and Resolver may be nil when the deployment doesn't use them.
type AppContext struct {
	Config     *config.Config
	Store      repository.MatchStore
	RedisCache *cache.RedisCache
	Resolver   profile.Resolver
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(
	cfg *config.Config,
	store repository.MatchStore,
	rdb *cache.RedisCache,
	resolver profile.Resolver,
	logger *slog.Logger,
) *AppContext {
	return &AppContext{
		Config:     cfg,
		Store:      store,
		RedisCache: rdb,
		Resolver:   resolver,
		Logger:     logger,
	}
}
