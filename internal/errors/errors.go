package errors

import (
	"errors"
	"fmt"
)

// Match-core error taxonomy. Callers compare with errors.Is.
var (
	// ErrInvalidPair is returned when primary == secondary, or either id is
	// zero or above db.MaxUserID.
	ErrInvalidPair = errors.New("invalid pair")
	// ErrNotFound is returned by point lookups of an absent pair.
	ErrNotFound = errors.New("match not found")
	// ErrAlreadyExists is returned by CreateMatch under the strict create policy.
	ErrAlreadyExists = errors.New("match already exists")
	// ErrStoreUnavailable wraps any persistence/lock failure or timeout.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrConflictingMutation is returned when the record changed structurally
	// (e.g. was deleted) while a mutation was being applied.
	ErrConflictingMutation = errors.New("conflicting mutation")
	// ErrInvalidArgument covers malformed input other than a bad pair,
	// e.g. a pagination token we did not issue.
	ErrInvalidArgument = errors.New("invalid argument")
)

// OpError carries the operation and pair an error happened on.
type OpError struct {
	Op        string
	Primary   uint64
	Secondary uint64
	Err       error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("match: %s (%d,%d): %v", e.Op, e.Primary, e.Secondary, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Op wraps err with operation context. Returns nil for a nil err.
func Op(op string, primary, secondary uint64, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Primary: primary, Secondary: secondary, Err: err}
}

// Unavailable tags an infrastructure error as ErrStoreUnavailable while
// keeping the cause reachable through errors.Is / errors.As.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
