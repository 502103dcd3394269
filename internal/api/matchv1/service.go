package matchv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "match.v1.MatchService"

// MatchServiceServer is the server API for match.v1.MatchService.
type MatchServiceServer interface {
	CreateMatch(context.Context, *PairRequest) (*MatchResponse, error)
	GetMatch(context.Context, *PairRequest) (*MatchResponse, error)
	DeleteMatch(context.Context, *PairRequest) (*DeleteMatchResponse, error)
	AddLike(context.Context, *PairRequest) (*MatchResponse, error)
	RemoveLike(context.Context, *PairRequest) (*MatchResponse, error)
	AddDislike(context.Context, *PairRequest) (*MatchResponse, error)
	RemoveDislike(context.Context, *PairRequest) (*MatchResponse, error)
	GetMutualStatus(context.Context, *PairRequest) (*MutualStatusResponse, error)
	SyncInverse(context.Context, *SyncInverseRequest) (*MatchResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
}

// UnimplementedMatchServiceServer can be embedded to keep servers compiling
// when methods are added.
type UnimplementedMatchServiceServer struct{}

func (UnimplementedMatchServiceServer) CreateMatch(context.Context, *PairRequest) (*MatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateMatch not implemented")
}
func (UnimplementedMatchServiceServer) GetMatch(context.Context, *PairRequest) (*MatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMatch not implemented")
}
func (UnimplementedMatchServiceServer) DeleteMatch(context.Context, *PairRequest) (*DeleteMatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteMatch not implemented")
}
func (UnimplementedMatchServiceServer) AddLike(context.Context, *PairRequest) (*MatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddLike not implemented")
}
func (UnimplementedMatchServiceServer) RemoveLike(context.Context, *PairRequest) (*MatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveLike not implemented")
}
func (UnimplementedMatchServiceServer) AddDislike(context.Context, *PairRequest) (*MatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddDislike not implemented")
}
func (UnimplementedMatchServiceServer) RemoveDislike(context.Context, *PairRequest) (*MatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveDislike not implemented")
}
func (UnimplementedMatchServiceServer) GetMutualStatus(context.Context, *PairRequest) (*MutualStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMutualStatus not implemented")
}
func (UnimplementedMatchServiceServer) SyncInverse(context.Context, *SyncInverseRequest) (*MatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SyncInverse not implemented")
}
func (UnimplementedMatchServiceServer) ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListMatches not implemented")
}

// RegisterMatchServiceServer attaches srv to s.
func RegisterMatchServiceServer(s grpc.ServiceRegistrar, srv MatchServiceServer) {
	s.RegisterService(&MatchService_ServiceDesc, srv)
}

// MatchService_ServiceDesc describes match.v1.MatchService for grpc.Server.
var MatchService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateMatch", MatchServiceServer.CreateMatch),
		unary("GetMatch", MatchServiceServer.GetMatch),
		unary("DeleteMatch", MatchServiceServer.DeleteMatch),
		unary("AddLike", MatchServiceServer.AddLike),
		unary("RemoveLike", MatchServiceServer.RemoveLike),
		unary("AddDislike", MatchServiceServer.AddDislike),
		unary("RemoveDislike", MatchServiceServer.RemoveDislike),
		unary("GetMutualStatus", MatchServiceServer.GetMutualStatus),
		unary("SyncInverse", MatchServiceServer.SyncInverse),
		unary("ListMatches", MatchServiceServer.ListMatches),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "match/v1/match.json",
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary adapts a typed method expression to grpc's untyped handler signature.
func unary[Req, Resp any](
	name string,
	call func(MatchServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MatchServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MatchServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
