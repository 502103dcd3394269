package match

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"

	pb "github.com/oggyb/muzz-match/internal/api/matchv1"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// Handler implements the match.v1 gRPC API on top of Service.
// It only parses, validates and maps errors; no match logic lives here.
type Handler struct {
	svc      *Service
	validate *validator.Validate
	logger   *slog.Logger

	pb.UnimplementedMatchServiceServer
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (h *Handler) CreateMatch(ctx context.Context, req *pb.PairRequest) (*pb.MatchResponse, error) {
	return h.pairCall(ctx, req, h.svc.CreateMatch)
}

func (h *Handler) GetMatch(ctx context.Context, req *pb.PairRequest) (*pb.MatchResponse, error) {
	return h.pairCall(ctx, req, h.svc.GetMatch)
}

func (h *Handler) AddLike(ctx context.Context, req *pb.PairRequest) (*pb.MatchResponse, error) {
	return h.pairCall(ctx, req, h.svc.AddLike)
}

func (h *Handler) RemoveLike(ctx context.Context, req *pb.PairRequest) (*pb.MatchResponse, error) {
	return h.pairCall(ctx, req, h.svc.RemoveLike)
}

func (h *Handler) AddDislike(ctx context.Context, req *pb.PairRequest) (*pb.MatchResponse, error) {
	return h.pairCall(ctx, req, h.svc.AddDislike)
}

func (h *Handler) RemoveDislike(ctx context.Context, req *pb.PairRequest) (*pb.MatchResponse, error) {
	return h.pairCall(ctx, req, h.svc.RemoveDislike)
}

func (h *Handler) DeleteMatch(ctx context.Context, req *pb.PairRequest) (*pb.DeleteMatchResponse, error) {
	primary, secondary, err := h.parsePair(req)
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteMatch(ctx, primary, secondary); err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.DeleteMatchResponse{}, nil
}

func (h *Handler) GetMutualStatus(ctx context.Context, req *pb.PairRequest) (*pb.MutualStatusResponse, error) {
	primary, secondary, err := h.parsePair(req)
	if err != nil {
		return nil, err
	}
	mutual, err := h.svc.GetMutualStatus(ctx, primary, secondary)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.MutualStatusResponse{IsMutual: mutual}, nil
}

// SyncInverse writes to (secondary, primary) based on the forward pair in req.
//
// Behavior:
//   - MirrorLikes → forward record is read (absent counts as "no like") and mirrored.
//   - Otherwise SecondaryLikesPrimary is applied as given; nil leaves the flag alone.
func (h *Handler) SyncInverse(ctx context.Context, req *pb.SyncInverseRequest) (*pb.MatchResponse, error) {
	primary, secondary, err := h.parsePair(&pb.PairRequest{
		PrimaryUserID:   req.PrimaryUserID,
		SecondaryUserID: req.SecondaryUserID,
	})
	if err != nil {
		return nil, err
	}

	record := db.NewMatch(primary, secondary)
	fields := InverseUpdate{SecondaryLikesPrimary: req.SecondaryLikesPrimary}
	if req.MirrorLikes {
		forward, err := h.svc.GetMatch(ctx, primary, secondary)
		switch {
		case err == nil:
			record = forward
		case !errors.Is(err, svcErr.ErrNotFound):
			return nil, svcErr.Map(err)
		}
		fields = MirrorLikes(record)
	}

	inverse, err := h.svc.SyncInverse(ctx, record, fields)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.MatchResponse{Match: toProto(inverse)}, nil
}

func (h *Handler) ListMatches(ctx context.Context, req *pb.ListMatchesRequest) (*pb.ListMatchesResponse, error) {
	if err := h.validate.Struct(req); err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}
	primary, err := parseID(req.PrimaryUserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("primary_user_id must be a positive 63-bit integer")
	}

	token := ""
	if req.PaginationToken != nil {
		token = *req.PaginationToken
	}

	views, next, err := h.svc.ListMatches(ctx, primary, token, int(req.Limit))
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &pb.ListMatchesResponse{NextPaginationToken: next}
	for _, v := range views {
		m := toProto(v.Match)
		if v.Secondary != nil {
			m.Secondary = &pb.Profile{
				UserID:      v.Secondary.UserID.String(),
				Username:    v.Secondary.Username,
				DisplayName: v.Secondary.DisplayName,
			}
		}
		resp.Matches = append(resp.Matches, m)
	}

	h.logger.Debug("ListMatches result", "count", len(resp.Matches), "has_next", next != nil)
	return resp, nil
}

func (h *Handler) pairCall(
	ctx context.Context,
	req *pb.PairRequest,
	call func(context.Context, db.UserID, db.UserID) (*db.Match, error),
) (*pb.MatchResponse, error) {
	primary, secondary, err := h.parsePair(req)
	if err != nil {
		return nil, err
	}
	m, err := call(ctx, primary, secondary)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.MatchResponse{Match: toProto(m)}, nil
}

func (h *Handler) parsePair(req *pb.PairRequest) (db.UserID, db.UserID, error) {
	if err := h.validate.Struct(req); err != nil {
		return 0, 0, svcErr.InvalidArgument(err.Error())
	}
	primary, err := parseID(req.PrimaryUserID)
	if err != nil {
		return 0, 0, svcErr.InvalidArgument("primary_user_id must be a positive 63-bit integer")
	}
	secondary, err := parseID(req.SecondaryUserID)
	if err != nil {
		return 0, 0, svcErr.InvalidArgument("secondary_user_id must be a positive 63-bit integer")
	}
	return primary, secondary, nil
}

// parseID accepts decimal ids in (0, db.MaxUserID].
func parseID(s string) (db.UserID, error) {
	id, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return 0, err
	}
	if !db.UserID(id).Valid() {
		return 0, strconv.ErrRange
	}
	return db.UserID(id), nil
}

func toProto(m *db.Match) *pb.Match {
	out := &pb.Match{
		PrimaryUserID:         m.Primary.String(),
		SecondaryUserID:       m.Secondary.String(),
		Likes:                 toReactions(m.Likes),
		Dislikes:              toReactions(m.Dislikes),
		PrimaryLikesSecondary: m.PrimaryLikesSecondary(),
		SecondaryLikesPrimary: m.SecondaryLikesPrimary,
		IsMutual:              m.IsMutual(),
	}
	if !m.CreatedAt.IsZero() {
		out.CreatedAt = uint64(m.CreatedAt.UnixMilli())
	}
	if !m.UpdatedAt.IsZero() {
		out.UpdatedAt = uint64(m.UpdatedAt.UnixMilli())
	}
	return out
}

func toReactions(list []db.Reaction) []*pb.Reaction {
	out := make([]*pb.Reaction, 0, len(list))
	for _, r := range list {
		out = append(out, &pb.Reaction{
			UserID:        r.User.String(),
			UnixTimestamp: uint64(r.At.UnixMilli()),
		})
	}
	return out
}
