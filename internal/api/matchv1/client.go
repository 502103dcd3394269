package matchv1

import (
	"context"

	"google.golang.org/grpc"
)

// Client is the typed client for match.v1.MatchService. It always sends
// with the JSON content-subtype.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMatch(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[MatchResponse](ctx, c, "CreateMatch", in, opts)
}

func (c *Client) GetMatch(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[MatchResponse](ctx, c, "GetMatch", in, opts)
}

func (c *Client) DeleteMatch(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*DeleteMatchResponse, error) {
	return invoke[DeleteMatchResponse](ctx, c, "DeleteMatch", in, opts)
}

func (c *Client) AddLike(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[MatchResponse](ctx, c, "AddLike", in, opts)
}

func (c *Client) RemoveLike(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[MatchResponse](ctx, c, "RemoveLike", in, opts)
}

func (c *Client) AddDislike(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[MatchResponse](ctx, c, "AddDislike", in, opts)
}

func (c *Client) RemoveDislike(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[MatchResponse](ctx, c, "RemoveDislike", in, opts)
}

func (c *Client) GetMutualStatus(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*MutualStatusResponse, error) {
	return invoke[MutualStatusResponse](ctx, c, "GetMutualStatus", in, opts)
}

func (c *Client) SyncInverse(ctx context.Context, in *SyncInverseRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[MatchResponse](ctx, c, "SyncInverse", in, opts)
}

func (c *Client) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c, "ListMatches", in, opts)
}
