package match_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	pb "github.com/oggyb/muzz-match/internal/api/matchv1"
	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/config"
	applog "github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/profile"
	"github.com/oggyb/muzz-match/internal/server"
	"github.com/oggyb/muzz-match/internal/service/match"
)

// setupClient serves the Match service over an in-memory listener and
// returns a client bound to it.
func setupClient(t *testing.T, policy string) *pb.Client {
	t.Helper()

	_, fx := setupService(t)

	cfg := config.New()
	cfg.Match.CreatePolicy = policy
	cfg.Match.PageSize = 2

	log := applog.Discard()
	appCtx := app.New(cfg, fx.store, nil, profile.NewDBResolver(fx.db), log)

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(log, match.NewRegistrar(appCtx))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return pb.NewClient(conn)
}

func pair(p, s string) *pb.PairRequest {
	return &pb.PairRequest{PrimaryUserID: p, SecondaryUserID: s}
}

func TestGRPC_LikeSyncAndMutual(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := setupClient(t, "idempotent")

	resp, err := client.AddLike(ctx, pair("1", "2"))
	require.NoError(t, err)
	require.Len(t, resp.Match.Likes, 1)
	assert.Equal(t, "1", resp.Match.Likes[0].UserID)
	assert.True(t, resp.Match.PrimaryLikesSecondary)
	assert.NotZero(t, resp.Match.UpdatedAt)

	inv, err := client.SyncInverse(ctx, &pb.SyncInverseRequest{PrimaryUserID: "1", SecondaryUserID: "2", MirrorLikes: true})
	require.NoError(t, err)
	assert.Equal(t, "2", inv.Match.PrimaryUserID)
	assert.True(t, inv.Match.SecondaryLikesPrimary)

	back, err := client.AddLike(ctx, pair("2", "1"))
	require.NoError(t, err)
	assert.True(t, back.Match.IsMutual)

	mutual, err := client.GetMutualStatus(ctx, pair("1", "2"))
	require.NoError(t, err)
	assert.False(t, mutual.IsMutual, "(1,2) not synced yet")

	_, err = client.SyncInverse(ctx, &pb.SyncInverseRequest{PrimaryUserID: "2", SecondaryUserID: "1", MirrorLikes: true})
	require.NoError(t, err)

	mutual, err = client.GetMutualStatus(ctx, pair("1", "2"))
	require.NoError(t, err)
	assert.True(t, mutual.IsMutual)
}

func TestGRPC_ErrorCodes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := setupClient(t, "strict")

	_, err := client.AddLike(ctx, pair("1", "1"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.AddLike(ctx, pair("abc", "1"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.AddLike(ctx, pair("", "1"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	// above the largest storable id
	_, err = client.AddLike(ctx, pair("18446744073709551615", "1"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = client.ListMatches(ctx, &pb.ListMatchesRequest{PrimaryUserID: "9223372036854775808"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = client.AddLike(ctx, pair("0", "1"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	resp, err := client.AddLike(ctx, pair("9223372036854775807", "1"))
	require.NoError(t, err)
	assert.Equal(t, "9223372036854775807", resp.Match.PrimaryUserID)

	_, err = client.GetMatch(ctx, pair("1", "2"))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.CreateMatch(ctx, pair("1", "2"))
	require.NoError(t, err)
	_, err = client.CreateMatch(ctx, pair("1", "2"))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = client.ListMatches(ctx, &pb.ListMatchesRequest{PrimaryUserID: "1", Limit: 1000})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_DeleteAndList(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := setupClient(t, "idempotent")

	for _, s := range []string{"2", "3", "9"} {
		_, err := client.AddDislike(ctx, pair("1", s))
		require.NoError(t, err)
	}
	_, err := client.RemoveDislike(ctx, pair("1", "9"))
	require.NoError(t, err)

	var header metadata.MD
	list, err := client.ListMatches(ctx, &pb.ListMatchesRequest{PrimaryUserID: "1"}, grpc.Header(&header))
	require.NoError(t, err)
	require.Len(t, list.Matches, 2) // configured page size
	require.NotNil(t, list.NextPaginationToken)
	assert.Equal(t, "Mary", list.Matches[0].Secondary.DisplayName)
	assert.NotEmpty(t, header.Get(server.RequestIDKey))

	rest, err := client.ListMatches(ctx, &pb.ListMatchesRequest{PrimaryUserID: "1", PaginationToken: list.NextPaginationToken})
	require.NoError(t, err)
	require.Len(t, rest.Matches, 1)
	assert.Equal(t, "9", rest.Matches[0].SecondaryUserID)
	assert.Empty(t, rest.Matches[0].Dislikes)
	assert.Nil(t, rest.Matches[0].Secondary)

	_, err = client.DeleteMatch(ctx, pair("1", "2"))
	require.NoError(t, err)
	_, err = client.GetMatch(ctx, pair("1", "2"))
	assert.Equal(t, codes.NotFound, status.Code(err))

	// removing from an absent record answers with an empty one
	resp, err := client.RemoveLike(ctx, pair("5", "6"))
	require.NoError(t, err)
	assert.Empty(t, resp.Match.Likes)
	assert.Zero(t, resp.Match.CreatedAt)
}

func TestGRPC_RequestIDEchoed(t *testing.T) {
	client := setupClient(t, "idempotent")

	ctx := metadata.AppendToOutgoingContext(context.Background(), server.RequestIDKey, "req-42")
	var header metadata.MD
	_, err := client.GetMutualStatus(ctx, pair("1", "2"), grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(server.RequestIDKey))
}
