// Package lock serializes work per key. The match store holds a key lock
// around every read-modify-write so two mutations of the same ordered pair
// never interleave, while different pairs proceed in parallel.
package lock

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Locker acquires an exclusive lock on key. The returned unlock func must be
// called exactly once. Acquisition gives up when ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

const defaultStripes = 256

// Local is an in-process striped lock. Distinct keys may share a stripe;
// that only costs parallelism, never correctness.
type Local struct {
	stripes []chan struct{}
}

// NewLocal creates a Local lock with n stripes (256 when n <= 0).
func NewLocal(n int) *Local {
	if n <= 0 {
		n = defaultStripes
	}
	l := &Local{stripes: make([]chan struct{}, n)}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	ch := l.stripes[xxhash.Sum64String(key)%uint64(len(l.stripes))]
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire lock %q: %w", key, ctx.Err())
	}
}
