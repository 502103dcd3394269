package repository_test

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	require.NoError(t, err)
	// every pooled connection to ":memory:" would be a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

// stepClock hands out strictly increasing timestamps.
func stepClock() func() time.Time {
	var n atomic.Int64
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return base.Add(time.Duration(n.Add(1)) * time.Second) }
}

type storeCase struct {
	name string
	open func(t *testing.T) repository.MatchStore
}

func stores() []storeCase {
	return []storeCase{
		{"gorm", func(t *testing.T) repository.MatchStore {
			return repository.NewMatchRepository(setupTestDB(t),
				repository.WithClock(stepClock()),
				repository.WithTimeout(5*time.Second),
			)
		}},
		{"pebble", func(t *testing.T) repository.MatchStore {
			s, err := repository.OpenPebble("matches", &pebble.Options{FS: vfs.NewMem()},
				repository.WithClock(stepClock()),
			)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		}},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, store repository.MatchStore)) {
	for _, sc := range stores() {
		t.Run(sc.name, func(t *testing.T) {
			fn(t, sc.open(t))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestGet_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		_, err := store.Get(context.Background(), 1, 2)
		assert.ErrorIs(t, err, svcErr.ErrNotFound)
	})
}

func TestInvalidPair(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()

		_, _, err := store.Create(ctx, 3, 3)
		assert.ErrorIs(t, err, svcErr.ErrInvalidPair)

		_, err = store.UpsertAndMutate(ctx, 0, 3, repository.PushLike{User: 0}, true)
		assert.ErrorIs(t, err, svcErr.ErrInvalidPair)

		assert.ErrorIs(t, store.Delete(ctx, 4, 4), svcErr.ErrInvalidPair)
	})
}

func TestCreate(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()

		m, created, err := store.Create(ctx, 1, 2)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, db.UserID(1), m.Primary)
		assert.Equal(t, db.UserID(2), m.Secondary)
		assert.Empty(t, m.Likes)
		assert.Empty(t, m.Dislikes)
		assert.False(t, m.SecondaryLikesPrimary)
		assert.False(t, m.CreatedAt.IsZero())
		assert.False(t, m.UpdatedAt.IsZero())

		got, err := store.Get(ctx, 1, 2)
		require.NoError(t, err)
		assert.Empty(t, got.Likes)
		assert.Empty(t, got.Dislikes)
		assert.False(t, got.SecondaryLikesPrimary)

		// second create returns the stored record untouched
		_, err = store.UpsertAndMutate(ctx, 1, 2, repository.PushLike{User: 1}, false)
		require.NoError(t, err)
		again, created, err := store.Create(ctx, 1, 2)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Len(t, again.Likes, 1)

		// inverse was not touched
		_, err = store.Get(ctx, 2, 1)
		assert.ErrorIs(t, err, svcErr.ErrNotFound)
	})
}

func TestPushAndPullLike(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()

		m, err := store.UpsertAndMutate(ctx, 1, 2, repository.PushLike{User: 1}, true)
		require.NoError(t, err)
		require.Len(t, m.Likes, 1)
		assert.Equal(t, db.UserID(1), m.Likes[0].User)
		assert.False(t, m.Likes[0].At.IsZero())
		assert.True(t, m.PrimaryLikesSecondary())

		got, err := store.Get(ctx, 1, 2)
		require.NoError(t, err)
		require.Len(t, got.Likes, 1)
		assert.True(t, got.PrimaryLikesSecondary())

		m, err = store.UpsertAndMutate(ctx, 1, 2, repository.PullLike{User: 1}, false)
		require.NoError(t, err)
		assert.Len(t, m.Likes, 0)
		assert.False(t, m.PrimaryLikesSecondary())

		// pulling an absent entry is a no-op
		m, err = store.UpsertAndMutate(ctx, 1, 2, repository.PullLike{User: 1}, false)
		require.NoError(t, err)
		assert.Len(t, m.Likes, 0)
	})
}

func TestPullRemovesEveryEntryOfUser(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := store.UpsertAndMutate(ctx, 1, 2, repository.PushDislike{User: 1}, true)
			require.NoError(t, err)
		}
		got, err := store.Get(ctx, 1, 2)
		require.NoError(t, err)
		require.Len(t, got.Dislikes, 3)

		m, err := store.UpsertAndMutate(ctx, 1, 2, repository.PullDislike{User: 1}, false)
		require.NoError(t, err)
		assert.Empty(t, m.Dislikes)
	})
}

func TestUpsertWithoutCreate_Absent(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()

		_, err := store.UpsertAndMutate(ctx, 1, 2, repository.PullLike{User: 1}, false)
		assert.ErrorIs(t, err, svcErr.ErrNotFound)

		_, err = store.Get(ctx, 1, 2)
		assert.ErrorIs(t, err, svcErr.ErrNotFound)
	})
}

func TestSetField_UpsertsInPlace(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()

		m, err := store.UpsertAndMutate(ctx, 2, 1, repository.SetField{SecondaryLikesPrimary: ptr(true)}, true)
		require.NoError(t, err)
		assert.True(t, m.SecondaryLikesPrimary)
		assert.Empty(t, m.Likes)
		assert.Empty(t, m.Dislikes)
		created := m.CreatedAt

		m, err = store.UpsertAndMutate(ctx, 2, 1, repository.SetField{SecondaryLikesPrimary: ptr(false)}, true)
		require.NoError(t, err)
		assert.False(t, m.SecondaryLikesPrimary)
		assert.True(t, m.UpdatedAt.After(created))

		// nil field leaves value alone
		m, err = store.UpsertAndMutate(ctx, 2, 1, repository.SetField{}, true)
		require.NoError(t, err)
		assert.False(t, m.SecondaryLikesPrimary)

		all, err := store.ListByPrimary(ctx, 2, 0, 10)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()

		_, err := store.UpsertAndMutate(ctx, 1, 2, repository.PushLike{User: 1}, true)
		require.NoError(t, err)
		_, err = store.UpsertAndMutate(ctx, 2, 1, repository.PushLike{User: 2}, true)
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, 1, 2))
		_, err = store.Get(ctx, 1, 2)
		assert.ErrorIs(t, err, svcErr.ErrNotFound)

		inverse, err := store.Get(ctx, 2, 1)
		require.NoError(t, err)
		assert.Len(t, inverse.Likes, 1)

		// idempotent
		assert.NoError(t, store.Delete(ctx, 1, 2))
	})
}

func TestListByPrimary(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()

		for _, secondary := range []db.UserID{5, 3, 9, 7} {
			_, _, err := store.Create(ctx, 1, secondary)
			require.NoError(t, err)
		}
		_, _, err := store.Create(ctx, 2, 1)
		require.NoError(t, err)

		page, err := store.ListByPrimary(ctx, 1, 0, 3)
		require.NoError(t, err)
		require.Len(t, page, 3)
		assert.Equal(t, []db.UserID{3, 5, 7}, []db.UserID{page[0].Secondary, page[1].Secondary, page[2].Secondary})

		page, err = store.ListByPrimary(ctx, 1, 7, 3)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, db.UserID(9), page[0].Secondary)
	})
}

// N callers push likes tagged with N distinct users; none may be lost.
func TestConcurrentPushes_NoLostUpdates(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()
		const n = 25

		var wg sync.WaitGroup
		for i := 1; i <= n; i++ {
			wg.Add(1)
			go func(user db.UserID) {
				defer wg.Done()
				_, err := store.UpsertAndMutate(ctx, 1, 2, repository.PushLike{User: user}, true)
				assert.NoError(t, err)
			}(db.UserID(100 + i))
		}
		wg.Wait()

		got, err := store.Get(ctx, 1, 2)
		require.NoError(t, err)
		assert.Len(t, got.Likes, n)

		seen := map[db.UserID]bool{}
		for _, l := range got.Likes {
			seen[l.User] = true
		}
		assert.Len(t, seen, n)
	})
}

// Create racing with pushes on the same pair: one record, every push kept.
func TestConcurrentCreateAndPush(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()
		const n = 10

		var (
			wg      sync.WaitGroup
			created atomic.Int32
		)
		for i := 0; i < n; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, ok, err := store.Create(ctx, 1, 2)
				assert.NoError(t, err)
				if ok {
					created.Add(1)
				}
			}()
			go func() {
				defer wg.Done()
				_, err := store.UpsertAndMutate(ctx, 1, 2, repository.PushLike{User: 1}, true)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, 1, 2)
		require.NoError(t, err)
		assert.Len(t, got.Likes, n)
		assert.LessOrEqual(t, created.Load(), int32(1))

		all, err := store.ListByPrimary(ctx, 1, 0, 10)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestStoreUnavailable_Gorm(t *testing.T) {
	database := setupTestDB(t)
	store := repository.NewMatchRepository(database)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = store.Get(context.Background(), 1, 2)
	assert.ErrorIs(t, err, svcErr.ErrStoreUnavailable)

	_, err = store.UpsertAndMutate(context.Background(), 1, 2, repository.PushLike{User: 1}, true)
	assert.ErrorIs(t, err, svcErr.ErrStoreUnavailable)
}

func TestStoreUnavailable_Pebble(t *testing.T) {
	store, err := repository.OpenPebble("matches", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Get(context.Background(), 1, 2)
	assert.ErrorIs(t, err, svcErr.ErrStoreUnavailable)

	assert.ErrorIs(t, store.Delete(context.Background(), 1, 2), svcErr.ErrStoreUnavailable)
}

func TestStoreUnavailable_Timeout(t *testing.T) {
	store := repository.NewMatchRepository(setupTestDB(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.UpsertAndMutate(ctx, 1, 2, repository.PushLike{User: 1}, true)
	assert.ErrorIs(t, err, svcErr.ErrStoreUnavailable)
}

func TestIDBounds(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()
		tooBig := db.UserID(math.MaxUint64)

		_, err := store.UpsertAndMutate(ctx, tooBig, 2, repository.PushLike{User: tooBig}, true)
		assert.ErrorIs(t, err, svcErr.ErrInvalidPair)
		assert.NotErrorIs(t, err, svcErr.ErrStoreUnavailable)

		_, _, err = store.Create(ctx, 2, tooBig)
		assert.ErrorIs(t, err, svcErr.ErrInvalidPair)

		_, err = store.ListByPrimary(ctx, tooBig, 0, 10)
		assert.ErrorIs(t, err, svcErr.ErrInvalidPair)

		// the largest storable id round-trips
		m, err := store.UpsertAndMutate(ctx, db.MaxUserID, 2, repository.PushLike{User: db.MaxUserID}, true)
		require.NoError(t, err)
		assert.True(t, m.PrimaryLikesSecondary())

		page, err := store.ListByPrimary(ctx, db.MaxUserID, 0, 10)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, db.UserID(2), page[0].Secondary)
	})
}

func TestListByPrimary_AfterPastLastID(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx := context.Background()

		_, _, err := store.Create(ctx, 1, 2)
		require.NoError(t, err)

		// nothing sorts after the largest id; the scan must not wrap
		page, err := store.ListByPrimary(ctx, 1, db.MaxUserID, 10)
		require.NoError(t, err)
		assert.Empty(t, page)

		_, err = store.ListByPrimary(ctx, 1, db.UserID(math.MaxUint64), 10)
		assert.ErrorIs(t, err, svcErr.ErrInvalidPair)
	})
}

func TestStoreUnavailable_DeadlinePassed(t *testing.T) {
	forEachStore(t, func(t *testing.T, store repository.MatchStore) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		_, err := store.Get(ctx, 1, 2)
		assert.ErrorIs(t, err, svcErr.ErrStoreUnavailable)

		_, err = store.ListByPrimary(ctx, 1, 0, 10)
		assert.ErrorIs(t, err, svcErr.ErrStoreUnavailable)

		_, err = store.UpsertAndMutate(ctx, 1, 2, repository.PushLike{User: 1}, true)
		assert.ErrorIs(t, err, svcErr.ErrStoreUnavailable)
		assert.Equal(t, codes.Unavailable, status.Code(svcErr.Map(err)))
	})
}
