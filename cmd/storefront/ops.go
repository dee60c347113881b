package main

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// opsServer serves grpc.health.v1 backed by the same checks as /health.
type opsServer struct {
	*grpc.Server
	health *health.Server
	cancel context.CancelFunc
}

func newOpsServer(check func(ctx context.Context) error) *opsServer {
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	ctx, cancel := context.WithCancel(context.Background())
	ops := &opsServer{Server: srv, health: hs, cancel: cancel}
	ops.refresh(ctx, check)
	go ops.watch(ctx, check)
	return ops
}

func (o *opsServer) watch(ctx context.Context, check func(ctx context.Context) error) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.refresh(ctx, check)
		}
	}
}

func (o *opsServer) refresh(ctx context.Context, check func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := check(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	o.health.SetServingStatus("", status)
}

func (o *opsServer) Shutdown() {
	o.cancel()
	o.health.Shutdown()
	o.Server.GracefulStop()
}
