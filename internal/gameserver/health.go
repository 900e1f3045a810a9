package gameserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the gRPC health service name reported for the combat API.
const HealthServiceName = "arena.Combat"

// HealthReporter publishes database reachability through the standard gRPC
// health service.
type HealthReporter struct {
	server   *health.Server
	checker  HealthChecker
	interval time.Duration
	logger   *zap.Logger
}

// NewHealthReporter creates a HealthReporter that probes checker every interval.
//
// Precondition: checker and logger must be non-nil; interval must be > 0.
func NewHealthReporter(checker HealthChecker, interval time.Duration, logger *zap.Logger) *HealthReporter {
	return &HealthReporter{
		server:   health.NewServer(),
		checker:  checker,
		interval: interval,
		logger:   logger,
	}
}

// Register adds the health service to s.
func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Probe checks the database once and publishes the result.
func (h *HealthReporter) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.checker.Health(ctx, healthTimeout); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(HealthServiceName, status)
	return status
}

// Run probes until ctx is done, then marks every service as not serving.
func (h *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}
