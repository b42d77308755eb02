package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/orders-tracker/internal/common"
)

const requestIDHeader = "x-request-id"

// UnaryLogging tags each call with a request id (taken from x-request-id when
// the client sends one), logs method, latency and code, and maps sentinel
// errors to gRPC status codes.
func UnaryLogging(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var rid string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(requestIDHeader); len(v) > 0 && v[0] != "" {
				rid = v[0]
				ctx = common.WithRequestID(ctx, rid)
			}
		}
		if rid == "" {
			ctx, rid = common.EnsureRequestID(ctx)
		}
		l := logger.With("request_id", rid, "method", info.FullMethod)
		ctx = common.WithLogger(ctx, l)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, rid))

		start := time.Now()
		resp, err := handler(ctx, req)
		err = common.ToStatus(err)
		code := status.Code(err)
		if err != nil {
			l.Warn("grpc.call.failed", "code", code.String(), "duration_ms", time.Since(start).Milliseconds(), "error", err)
			return nil, err
		}
		l.Info("grpc.call.ok", "code", code.String(), "duration_ms", time.Since(start).Milliseconds())
		return resp, nil
	}
}
