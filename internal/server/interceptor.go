package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDKey is the metadata key carrying the request id both ways.
const RequestIDKey = "x-request-id"

// RequestLogger tags every call with a request id (reusing the caller's when
// present), echoes it in the response header and logs the outcome.
func RequestLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		reqID := requestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, reqID))

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		attrs := []any{
			"method", info.FullMethod,
			"req_id", reqID,
			"code", code.String(),
			"duration", time.Since(start),
		}
		switch code {
		case codes.OK, codes.NotFound, codes.InvalidArgument, codes.AlreadyExists:
			logger.Debug("grpc request", attrs...)
		default:
			logger.Error("grpc request failed", append(attrs, "err", err)...)
		}
		return resp, err
	}
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDKey); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}
