package httpapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// HealthServer exposes the standard gRPC health service backed by the same
// readiness probe the HTTP /readyz endpoint uses, so orchestrators can probe
// either surface.
type HealthServer struct {
	healthpb.UnimplementedHealthServer

	probe ReadyProbe
}

func NewHealthServer(probe ReadyProbe) *HealthServer {
	return &HealthServer{probe: probe}
}

// Register attaches the health service to a gRPC server.
func (s *HealthServer) Register(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, s)
}

// Check reports SERVING while the readiness probe passes.
func (s *HealthServer) Check(ctx context.Context, _ *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if err := s.probe.Check(ctx); err != nil {
		return &healthpb.HealthCheckResponse{
			Status: healthpb.HealthCheckResponse_NOT_SERVING,
		}, nil
	}
	return &healthpb.HealthCheckResponse{
		Status: healthpb.HealthCheckResponse_SERVING,
	}, nil
}

// Watch is not supported; callers should poll Check.
func (s *HealthServer) Watch(_ *healthpb.HealthCheckRequest, _ grpc.ServerStreamingServer[healthpb.HealthCheckResponse]) error {
	return status.Error(codes.Unimplemented, "watch is not supported")
}
