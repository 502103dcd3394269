package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/lock"
)

// MatchStore is durable keyed storage for match records.
//
// Every write is serialized per ordered pair; different pairs never block
// each other. Infrastructure failures come back wrapped in
// svcErr.ErrStoreUnavailable.
type MatchStore interface {
	// Get returns svcErr.ErrNotFound when the pair has no record.
	Get(ctx context.Context, primary, secondary db.UserID) (*db.Match, error)

	// Create inserts an empty record unless one exists. created reports
	// whether this call inserted it; the stored record is returned either way.
	Create(ctx context.Context, primary, secondary db.UserID) (m *db.Match, created bool, err error)

	// UpsertAndMutate atomically applies mut to the pair's record. When the
	// record is absent it is created first if createIfMissing, otherwise
	// svcErr.ErrNotFound is returned and nothing is written.
	UpsertAndMutate(ctx context.Context, primary, secondary db.UserID, mut Mutation, createIfMissing bool) (*db.Match, error)

	// Delete removes the pair's record. Deleting an absent record is not an error.
	Delete(ctx context.Context, primary, secondary db.UserID) error

	// ListByPrimary returns up to limit records owned by primary, ordered by
	// secondary, starting strictly after the given secondary.
	ListByPrimary(ctx context.Context, primary, after db.UserID, limit int) ([]db.Match, error)
}

// Key is the lock/storage key for an ordered pair.
func Key(primary, secondary db.UserID) string {
	return fmt.Sprintf("match:%d:%d", primary, secondary)
}

func validatePair(primary, secondary db.UserID) error {
	if !primary.Valid() || !secondary.Valid() || primary == secondary {
		return svcErr.ErrInvalidPair
	}
	return nil
}

// validateRange rejects listings that no stored record could satisfy.
func validateRange(primary, after db.UserID) error {
	if !primary.Valid() || after > db.MaxUserID {
		return svcErr.ErrInvalidPair
	}
	return nil
}

type options struct {
	locker  lock.Locker
	timeout time.Duration
	now     func() time.Time
}

// Option configures a MatchStore implementation.
type Option func(*options)

// WithLocker replaces the default in-process striped lock, e.g. with lock.Redis
// when several server instances share one database.
func WithLocker(l lock.Locker) Option {
	return func(o *options) { o.locker = l }
}

// WithTimeout bounds every store call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{
		locker: lock.NewLocal(0),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}
