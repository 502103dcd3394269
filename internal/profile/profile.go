// Package profile resolves a user's display profile. It only decorates
// query results; match logic never consults it.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/db"
)

// ErrNotFound is returned when the user has no profile.
var ErrNotFound = errors.New("profile not found")

// Summary is the display slice of a user.
type Summary struct {
	UserID      db.UserID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
}

// Resolver looks up a user's display profile.
type Resolver interface {
	Resolve(ctx context.Context, id db.UserID) (*Summary, error)
}

// DBResolver reads profiles from the users table.
type DBResolver struct {
	db *gorm.DB
}

func NewDBResolver(database *gorm.DB) *DBResolver {
	return &DBResolver{db: database}
}

func (r *DBResolver) Resolve(ctx context.Context, id db.UserID) (*Summary, error) {
	var u db.User
	res := r.db.WithContext(ctx).
		Select("id", "username", "display_name").
		Where("id = ? AND active = ?", id, true).
		Limit(1).
		Find(&u)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	return &Summary{UserID: u.ID, Username: u.Username, DisplayName: name}, nil
}

// CachedResolver is a read-through Redis cache in front of another Resolver.
// Cache failures fall through to the next resolver; they are logged, not returned.
type CachedResolver struct {
	next   Resolver
	cache  *cache.RedisCache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedResolver(next Resolver, c *cache.RedisCache, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedResolver{next: next, cache: c, ttl: ttl, logger: logger}
}

func (r *CachedResolver) Resolve(ctx context.Context, id db.UserID) (*Summary, error) {
	key := r.cache.KeyForProfile(uint64(id))

	var s Summary
	err := r.cache.GetJSON(ctx, key, &s, r.ttl)
	switch {
	case err == nil:
		return &s, nil
	case !errors.Is(err, cache.ErrMiss):
		r.logger.Warn("profile cache read failed", "user", id, "err", err)
	}

	out, err := r.next.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetJSON(ctx, key, out, r.ttl); err != nil {
		r.logger.Warn("profile cache write failed", "user", id, "err", err)
	}
	return out, nil
}

// Invalidate drops a cached profile, e.g. after the account service renames a user.
func (r *CachedResolver) Invalidate(ctx context.Context, id db.UserID) error {
	return r.cache.Del(ctx, r.cache.KeyForProfile(uint64(id)))
}
