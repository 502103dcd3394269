package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/profile"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

// CreatePolicy decides what CreateMatch does when the pair already has a record.
type CreatePolicy int

const (
	// CreateIdempotent returns the existing record unchanged.
	CreateIdempotent CreatePolicy = iota
	// CreateStrict fails with svcErr.ErrAlreadyExists.
	CreateStrict
)

// ParseCreatePolicy maps the MATCH_CREATE_POLICY setting; unknown values are idempotent.
func ParseCreatePolicy(s string) CreatePolicy {
	if strings.EqualFold(strings.TrimSpace(s), "strict") {
		return CreateStrict
	}
	return CreateIdempotent
}

// InverseUpdate lists the fields SyncInverse may set on the inverse record.
// Nil fields are left as they are.
type InverseUpdate struct {
	SecondaryLikesPrimary *bool
}

// MirrorLikes builds the usual inverse update: tell (B, A) whether A likes B
// according to record (A, B)'s own log.
func MirrorLikes(record *db.Match) InverseUpdate {
	likes := record.PrimaryLikesSecondary()
	return InverseUpdate{SecondaryLikesPrimary: &likes}
}

// MatchView is a record decorated for display. Secondary is nil when the
// profile could not be resolved.
type MatchView struct {
	Match     *db.Match
	Secondary *profile.Summary
}

// Service implements the match operations on top of a MatchStore.
//
// Each ordered pair (A, B) has its own record. Nothing here keeps (A, B) and
// (B, A) in step on its own; callers that want B to see A's like call
// SyncInverse after AddLike/RemoveLike. Until they do, GetMutualStatus on
// (B, A) reports whatever (B, A)'s flag last said.
type Service struct {
	store    repository.MatchStore
	resolver profile.Resolver
	logger   *slog.Logger
	policy   CreatePolicy
	pageSize int
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithCreatePolicy(p CreatePolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock overrides the clock used to stamp reactions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a match service. resolver may be nil; listings are then
// returned without profiles.
func NewService(store repository.MatchStore, resolver profile.Resolver, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: resolver,
		logger:   logger,
		policy:   CreateIdempotent,
		pageSize: 20,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateMatch creates the empty record for (primary, secondary).
// The inverse record is neither created nor altered.
//
// Behavior:
//   - primary == secondary → ErrInvalidPair, no store access.
//   - Record exists → returned as is (CreateIdempotent) or ErrAlreadyExists (CreateStrict).
func (s *Service) CreateMatch(ctx context.Context, primary, secondary db.UserID) (*db.Match, error) {
	const op = "CreateMatch"
	s.logger.Debug("CreateMatch called", "primary", primary, "secondary", secondary)

	if err := checkPair(primary, secondary); err != nil {
		return nil, s.fail(op, primary, secondary, err)
	}

	m, created, err := s.store.Create(ctx, primary, secondary)
	if err != nil {
		return nil, s.fail(op, primary, secondary, err)
	}
	if !created && s.policy == CreateStrict {
		return nil, s.fail(op, primary, secondary, svcErr.ErrAlreadyExists)
	}
	return m, nil
}

// GetMatch returns the record for (primary, secondary) or ErrNotFound.
func (s *Service) GetMatch(ctx context.Context, primary, secondary db.UserID) (*db.Match, error) {
	const op = "GetMatch"
	if err := checkPair(primary, secondary); err != nil {
		return nil, s.fail(op, primary, secondary, err)
	}

	m, err := s.store.Get(ctx, primary, secondary)
	if err != nil {
		return nil, s.fail(op, primary, secondary, err)
	}
	return m, nil
}

// AddLike records that primary likes secondary, creating the record if needed.
func (s *Service) AddLike(ctx context.Context, primary, secondary db.UserID) (*db.Match, error) {
	return s.mutate(ctx, "AddLike", primary, secondary, repository.PushLike{User: primary, At: s.now()}, true)
}

// RemoveLike drops primary's likes of secondary. An absent record is not
// created; a fresh empty (unsaved) record is returned instead.
func (s *Service) RemoveLike(ctx context.Context, primary, secondary db.UserID) (*db.Match, error) {
	return s.mutate(ctx, "RemoveLike", primary, secondary, repository.PullLike{User: primary}, false)
}

// AddDislike records that primary dislikes secondary, creating the record if needed.
func (s *Service) AddDislike(ctx context.Context, primary, secondary db.UserID) (*db.Match, error) {
	return s.mutate(ctx, "AddDislike", primary, secondary, repository.PushDislike{User: primary, At: s.now()}, true)
}

// RemoveDislike is RemoveLike for the dislikes log.
func (s *Service) RemoveDislike(ctx context.Context, primary, secondary db.UserID) (*db.Match, error) {
	return s.mutate(ctx, "RemoveDislike", primary, secondary, repository.PullDislike{User: primary}, false)
}

// DeleteMatch removes the (primary, secondary) record only. Idempotent.
func (s *Service) DeleteMatch(ctx context.Context, primary, secondary db.UserID) error {
	const op = "DeleteMatch"
	s.logger.Debug("DeleteMatch called", "primary", primary, "secondary", secondary)

	if err := checkPair(primary, secondary); err != nil {
		return s.fail(op, primary, secondary, err)
	}
	if err := s.store.Delete(ctx, primary, secondary); err != nil {
		return s.fail(op, primary, secondary, err)
	}
	return nil
}

// GetMutualStatus reports IsMutual of the (primary, secondary) record.
// The inverse record is not read; an absent record is simply not mutual.
func (s *Service) GetMutualStatus(ctx context.Context, primary, secondary db.UserID) (bool, error) {
	const op = "GetMutualStatus"
	if err := checkPair(primary, secondary); err != nil {
		return false, s.fail(op, primary, secondary, err)
	}

	m, err := s.store.Get(ctx, primary, secondary)
	if errors.Is(err, svcErr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.fail(op, primary, secondary, err)
	}
	return m.IsMutual(), nil
}

// SyncInverse upserts the inverse of record, i.e. (record.Secondary, record.Primary),
// applying fields. Only the inverse key is locked; the forward record may
// change again before or after this write.
//
// Example:
//
//	m, _ := svc.AddLike(ctx, a, b)
//	svc.SyncInverse(ctx, m, match.MirrorLikes(m)) // (b, a).SecondaryLikesPrimary = true
func (s *Service) SyncInverse(ctx context.Context, record *db.Match, fields InverseUpdate) (*db.Match, error) {
	const op = "SyncInverse"
	if record == nil {
		return nil, s.fail(op, 0, 0, fmt.Errorf("%w: nil record", svcErr.ErrInvalidArgument))
	}

	primary, secondary := record.Inverse()
	s.logger.Debug("SyncInverse called", "primary", primary, "secondary", secondary)

	if err := checkPair(primary, secondary); err != nil {
		return nil, s.fail(op, primary, secondary, err)
	}

	m, err := s.store.UpsertAndMutate(ctx, primary, secondary,
		repository.SetField{SecondaryLikesPrimary: fields.SecondaryLikesPrimary}, true)
	if err != nil {
		return nil, s.fail(op, primary, secondary, err)
	}
	return m, nil
}

// ListMatches pages through the records primary owns, decorated with the
// secondary's profile.
//
// Behavior:
//   - Ordered by secondary id.
//   - limit <= 0 uses the configured page size.
//   - Profile lookups never fail the call; unresolved profiles stay nil.
func (s *Service) ListMatches(
	ctx context.Context,
	primary db.UserID,
	pageToken string,
	limit int,
) ([]MatchView, *string, error) {
	const op = "ListMatches"
	s.logger.Debug("ListMatches called", "primary", primary, "token", pageToken)

	if !primary.Valid() {
		return nil, nil, s.fail(op, primary, 0, svcErr.ErrInvalidPair)
	}
	if limit <= 0 {
		limit = s.pageSize
	}

	cursor, err := pagination.Decode(pageToken, uint64(primary))
	if err != nil {
		return nil, nil, s.fail(op, primary, 0, fmt.Errorf("%w: %w", svcErr.ErrInvalidArgument, err))
	}

	matches, err := s.store.ListByPrimary(ctx, primary, db.UserID(cursor.After), limit+1)
	if err != nil {
		return nil, nil, s.fail(op, primary, 0, err)
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(matches) > limit {
		matches = matches[:limit]
		token, err := pagination.Encode(pagination.Cursor{
			Owner: uint64(primary),
			After: uint64(matches[limit-1].Secondary),
		})
		if err != nil {
			return nil, nil, s.fail(op, primary, 0, err)
		}
		nextToken = &token
	}

	views := make([]MatchView, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		views = append(views, MatchView{Match: m, Secondary: s.resolve(ctx, m.Secondary)})
	}
	return views, nextToken, nil
}

func (s *Service) mutate(
	ctx context.Context,
	op string,
	primary, secondary db.UserID,
	mut repository.Mutation,
	create bool,
) (*db.Match, error) {
	s.logger.Debug(op+" called", "primary", primary, "secondary", secondary, "mutation", mut.String())

	if err := checkPair(primary, secondary); err != nil {
		return nil, s.fail(op, primary, secondary, err)
	}

	m, err := s.store.UpsertAndMutate(ctx, primary, secondary, mut, create)
	if !create && errors.Is(err, svcErr.ErrNotFound) {
		return db.NewMatch(primary, secondary), nil
	}
	if err != nil {
		return nil, s.fail(op, primary, secondary, err)
	}
	return m, nil
}

func (s *Service) resolve(ctx context.Context, id db.UserID) *profile.Summary {
	if s.resolver == nil {
		return nil
	}
	p, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		if !errors.Is(err, profile.ErrNotFound) {
			s.logger.Warn("profile lookup failed", "user", id, "err", err)
		}
		return nil
	}
	return p
}

func (s *Service) fail(op string, primary, secondary db.UserID, err error) error {
	err = svcErr.Op(op, uint64(primary), uint64(secondary), err)
	if errors.Is(err, svcErr.ErrStoreUnavailable) || errors.Is(err, svcErr.ErrConflictingMutation) {
		s.logger.Error(op+" failed", "primary", primary, "secondary", secondary, "err", err)
	}
	return err
}

func checkPair(primary, secondary db.UserID) error {
	if !primary.Valid() || !secondary.Valid() || primary == secondary {
		return svcErr.ErrInvalidPair
	}
	return nil
}
