package rpc

import (
	"context"
	"path"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/erg0nix/sessiontab/internal/metrics"
)

// MetricsInterceptor records every unary call under transport "grpc",
// labelled by the bare method name and the status code.
func MetricsInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.Observe("grpc", path.Base(info.FullMethod), status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// NewServer builds a gRPC server with the metrics interceptor installed when
// m is non-nil and both services registered.
func NewServer(m *metrics.Metrics, sessionsHandler SessionServiceServer, daemonHandler DaemonServiceServer) *grpc.Server {
	var opts []grpc.ServerOption
	if m != nil {
		opts = append(opts, grpc.ChainUnaryInterceptor(MetricsInterceptor(m)))
	}

	server := grpc.NewServer(opts...)
	Register(server, sessionsHandler, daemonHandler)
	return server
}
