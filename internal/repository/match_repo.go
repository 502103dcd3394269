package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// MatchRepository is the SQL MatchStore (mysql, postgres or sqlite via gorm).
//
// Each write holds the pair's key lock and runs in one transaction that
// reads the row FOR UPDATE, so a concurrent writer on the same pair either
// finishes first or waits. sqlite ignores FOR UPDATE but serializes
// writers on its own.
type MatchRepository struct {
	db *gorm.DB
	options
}

var _ MatchStore = (*MatchRepository)(nil)

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB, opts ...Option) *MatchRepository {
	return &MatchRepository{db: database, options: buildOptions(opts)}
}

// Get returns the record for (primary, secondary).
//
// Example:
//
//	repo.Get(ctx, 1, 2) // what user 1 did towards user 2
func (r *MatchRepository) Get(ctx context.Context, primary, secondary db.UserID) (*db.Match, error) {
	if err := validatePair(primary, secondary); err != nil {
		return nil, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	m, err := findRow(r.db.WithContext(ctx), primary, secondary, false)
	if err != nil {
		return nil, translate(err)
	}
	return m, nil
}

// Create inserts an empty record for the pair unless one already exists.
//
// Behavior:
//   - Absent → inserted, created = true.
//   - Present → returned untouched, created = false.
//   - Insert races with another process resolve through ON CONFLICT DO NOTHING.
func (r *MatchRepository) Create(ctx context.Context, primary, secondary db.UserID) (*db.Match, bool, error) {
	if err := validatePair(primary, secondary); err != nil {
		return nil, false, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	unlock, err := r.locker.Lock(ctx, Key(primary, secondary))
	if err != nil {
		return nil, false, svcErr.Unavailable(err)
	}
	defer unlock()

	var (
		out     *db.Match
		created bool
	)
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := findRow(tx, primary, secondary, true)
		if err == nil {
			out = m
			return nil
		}
		if !errors.Is(err, svcErr.ErrNotFound) {
			return err
		}
		out, created, err = r.insertIfAbsent(tx, primary, secondary)
		return err
	})
	if err != nil {
		return nil, false, translate(err)
	}
	return out, created, nil
}

// UpsertAndMutate applies mut to the pair's record inside one transaction.
//
// Behavior:
//   - Record present → locked, mutated, written back with updated_at refreshed.
//   - Record absent and createIfMissing → inserted empty, then mutated.
//   - Record absent otherwise → svcErr.ErrNotFound, nothing written.
//   - Row gone by the time it is written back → svcErr.ErrConflictingMutation.
//
// Example:
//
//	repo.UpsertAndMutate(ctx, 1, 2, PushLike{User: 1}, true) // user 1 likes user 2
func (r *MatchRepository) UpsertAndMutate(
	ctx context.Context,
	primary, secondary db.UserID,
	mut Mutation,
	createIfMissing bool,
) (*db.Match, error) {
	if err := validatePair(primary, secondary); err != nil {
		return nil, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	unlock, err := r.locker.Lock(ctx, Key(primary, secondary))
	if err != nil {
		return nil, svcErr.Unavailable(err)
	}
	defer unlock()

	var out *db.Match
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := findRow(tx, primary, secondary, true)
		if errors.Is(err, svcErr.ErrNotFound) && createIfMissing {
			m, _, err = r.insertIfAbsent(tx, primary, secondary)
		}
		if err != nil {
			return err
		}

		now := r.now()
		mut.apply(m, now)
		m.UpdatedAt = now

		res := tx.Model(&db.Match{}).
			Where("primary_id = ? AND secondary_id = ?", primary, secondary).
			Updates(map[string]any{
				"likes":                   m.Likes,
				"dislikes":                m.Dislikes,
				"secondary_likes_primary": m.SecondaryLikesPrimary,
				"updated_at":              m.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// mysql reports 0 for unchanged rows, so confirm the row is really gone
			var n int64
			if err := tx.Model(&db.Match{}).
				Where("primary_id = ? AND secondary_id = ?", primary, secondary).
				Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return svcErr.ErrConflictingMutation
			}
		}

		out = m
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Delete removes the record for the ordered pair only; the inverse record is untouched.
func (r *MatchRepository) Delete(ctx context.Context, primary, secondary db.UserID) error {
	if err := validatePair(primary, secondary); err != nil {
		return err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	unlock, err := r.locker.Lock(ctx, Key(primary, secondary))
	if err != nil {
		return svcErr.Unavailable(err)
	}
	defer unlock()

	err = r.db.WithContext(ctx).
		Where("primary_id = ? AND secondary_id = ?", primary, secondary).
		Delete(&db.Match{}).Error
	return translate(err)
}

// ListByPrimary returns records owned by primary ordered by secondary_id,
// strictly after the given secondary (0 = from the start).
func (r *MatchRepository) ListByPrimary(
	ctx context.Context,
	primary, after db.UserID,
	limit int,
) ([]db.Match, error) {
	if err := validateRange(primary, after); err != nil {
		return nil, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("primary_id = ? AND secondary_id > ?", primary, after).
		Order("secondary_id ASC").
		Limit(limit).
		Find(&matches).Error
	if err != nil {
		return nil, translate(err)
	}
	for i := range matches {
		matches[i].Normalize()
	}
	return matches, nil
}

// insertIfAbsent inserts an empty record and reads back whatever row holds
// the key afterwards (ours, or the one another process inserted first).
func (r *MatchRepository) insertIfAbsent(tx *gorm.DB, primary, secondary db.UserID) (*db.Match, bool, error) {
	now := r.now()
	m := db.NewMatch(primary, secondary)
	m.CreatedAt, m.UpdatedAt = now, now

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return nil, false, res.Error
	}

	stored, err := findRow(tx, primary, secondary, true)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected > 0, nil
}

func findRow(tx *gorm.DB, primary, secondary db.UserID, forUpdate bool) (*db.Match, error) {
	q := tx.Where("primary_id = ? AND secondary_id = ?", primary, secondary)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m db.Match
	res := q.Limit(1).Find(&m)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, svcErr.ErrNotFound
	}
	m.Normalize()
	return &m, nil
}

// translate keeps taxonomy errors as they are and tags everything else as
// a store outage.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, svcErr.ErrNotFound),
		errors.Is(err, svcErr.ErrInvalidPair),
		errors.Is(err, svcErr.ErrConflictingMutation):
		return err
	default:
		return svcErr.Unavailable(err)
	}
}
