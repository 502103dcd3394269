package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

var errStoreClosed = errors.New("pebble store closed")

// PebbleMatchStore keeps match records in an embedded pebble database,
// one JSON value per ordered pair:
//
//	match/<primary %020d>/<secondary %020d> → db.Match
//
// Fixed-width keys make "all records where I am primary" a prefix scan.
// Read-modify-write is guarded by the key lock; pebble itself has no
// row locks. Only one process may open the directory, so the default
// in-process lock is sufficient.
type PebbleMatchStore struct {
	mu     sync.RWMutex // guards closed against use-after-Close panics
	closed bool
	db     *pebble.DB
	options
}

var _ MatchStore = (*PebbleMatchStore)(nil)

// OpenPebble opens (or creates) a store in dir. Extra pebble options, e.g.
// an in-memory FS for tests, can be passed through pebbleOpts.
func OpenPebble(dir string, pebbleOpts *pebble.Options, opts ...Option) (*PebbleMatchStore, error) {
	if pebbleOpts == nil {
		pebbleOpts = &pebble.Options{}
	}
	pdb, err := pebble.Open(dir, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dir, err)
	}
	return &PebbleMatchStore{db: pdb, options: buildOptions(opts)}, nil
}

// Close flushes and closes the underlying database. Later calls fail with
// svcErr.ErrStoreUnavailable.
func (s *PebbleMatchStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *PebbleMatchStore) Get(ctx context.Context, primary, secondary db.UserID) (*db.Match, error) {
	if err := validatePair(primary, secondary); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	return s.read(primary, secondary)
}

func (s *PebbleMatchStore) Create(ctx context.Context, primary, secondary db.UserID) (*db.Match, bool, error) {
	if err := validatePair(primary, secondary); err != nil {
		return nil, false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, Key(primary, secondary))
	if err != nil {
		return nil, false, svcErr.Unavailable(err)
	}
	defer unlock()

	if err := s.enter(ctx); err != nil {
		return nil, false, err
	}
	defer s.mu.RUnlock()

	m, err := s.read(primary, secondary)
	if err == nil {
		return m, false, nil
	}
	if !errors.Is(err, svcErr.ErrNotFound) {
		return nil, false, err
	}

	now := s.now()
	m = db.NewMatch(primary, secondary)
	m.CreatedAt, m.UpdatedAt = now, now
	if err := s.write(m); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (s *PebbleMatchStore) UpsertAndMutate(
	ctx context.Context,
	primary, secondary db.UserID,
	mut Mutation,
	createIfMissing bool,
) (*db.Match, error) {
	if err := validatePair(primary, secondary); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, Key(primary, secondary))
	if err != nil {
		return nil, svcErr.Unavailable(err)
	}
	defer unlock()

	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	now := s.now()
	m, err := s.read(primary, secondary)
	switch {
	case errors.Is(err, svcErr.ErrNotFound) && createIfMissing:
		m = db.NewMatch(primary, secondary)
		m.CreatedAt = now
	case err != nil:
		return nil, err
	}

	mut.apply(m, now)
	m.UpdatedAt = now
	if err := s.write(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PebbleMatchStore) Delete(ctx context.Context, primary, secondary db.UserID) error {
	if err := validatePair(primary, secondary); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, Key(primary, secondary))
	if err != nil {
		return svcErr.Unavailable(err)
	}
	defer unlock()

	if err := s.enter(ctx); err != nil {
		return err
	}
	defer s.mu.RUnlock()

	// pebble deletes of absent keys are no-ops
	if err := s.db.Delete(pebbleKey(primary, secondary), pebble.Sync); err != nil {
		return svcErr.Unavailable(err)
	}
	return nil
}

// ListByPrimary scans keys after (primary, after). after is at most
// db.MaxUserID, so after+1 cannot wrap to the start of the range.
func (s *PebbleMatchStore) ListByPrimary(ctx context.Context, primary, after db.UserID, limit int) ([]db.Match, error) {
	if err := validateRange(primary, after); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: pebbleKey(primary, after+1),
		UpperBound: []byte(fmt.Sprintf("match/%020d/~", primary)),
	})
	if err != nil {
		return nil, svcErr.Unavailable(err)
	}
	defer iter.Close()

	var out []db.Match
	for iter.First(); iter.Valid() && len(out) < limit; iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, svcErr.Unavailable(err)
		}
		m, err := decodeMatch(iter.Value())
		if err != nil {
			return nil, svcErr.Unavailable(err)
		}
		out = append(out, *m)
	}
	if err := iter.Error(); err != nil {
		return nil, svcErr.Unavailable(err)
	}
	return out, nil
}

// enter takes the read side of mu. On success the caller must RUnlock.
func (s *PebbleMatchStore) enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return svcErr.Unavailable(err)
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return svcErr.Unavailable(errStoreClosed)
	}
	return nil
}

func (s *PebbleMatchStore) read(primary, secondary db.UserID) (*db.Match, error) {
	val, closer, err := s.db.Get(pebbleKey(primary, secondary))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, svcErr.ErrNotFound
	}
	if err != nil {
		return nil, svcErr.Unavailable(err)
	}
	defer closer.Close()

	m, err := decodeMatch(val)
	if err != nil {
		return nil, svcErr.Unavailable(err)
	}
	return m, nil
}

func (s *PebbleMatchStore) write(m *db.Match) error {
	b, err := json.Marshal(m)
	if err != nil {
		return svcErr.Unavailable(fmt.Errorf("encode match: %w", err))
	}
	if err := s.db.Set(pebbleKey(m.Primary, m.Secondary), b, pebble.Sync); err != nil {
		return svcErr.Unavailable(err)
	}
	return nil
}

func decodeMatch(b []byte) (*db.Match, error) {
	var m db.Match
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode match: %w", err)
	}
	m.Normalize()
	return &m, nil
}

func pebbleKey(primary, secondary db.UserID) []byte {
	return []byte(fmt.Sprintf("match/%020d/%020d", primary, secondary))
}
