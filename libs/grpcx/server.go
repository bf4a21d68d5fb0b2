package grpcx

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewServer returns a traced gRPC server with the health service registered.
func NewServer(opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(UnaryServerRequestIDInterceptor()),
	}
	srv := grpc.NewServer(append(base, opts...)...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return srv, hs
}

// WatchReadiness flips the health status of service between SERVING and
// NOT_SERVING according to the readiness checks until ctx is done.
func WatchReadiness(ctx context.Context, hs *health.Server, service string, every time.Duration, logger *slog.Logger, checks ...runtime.ReadyCheck) {
	if every <= 0 {
		every = 5 * time.Second
	}
	update := func() {
		failed := runtime.RunChecks(ctx, 2*time.Second, checks...)
		status := healthpb.HealthCheckResponse_SERVING
		if len(failed) > 0 {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			if logger != nil {
				logger.Warn("readiness degraded", "service", service, "failed", failed)
			}
		}
		hs.SetServingStatus(service, status)
	}

	update()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			update()
		}
	}
}
