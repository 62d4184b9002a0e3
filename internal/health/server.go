// Package health exposes the standard gRPC health service for the
// notification pipeline, driven by a periodic store ping.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name clients pass to Check for the delivery pipeline.
const ServiceName = "cleanuptracker.notifications"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	GRPC     *grpc.Server
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewServer(pinger Pinger, interval time.Duration, log *zap.SugaredLogger) *Server {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		GRPC:     srv,
		health:   hs,
		pinger:   pinger,
		interval: interval,
		log:      log.Named("health"),
	}
}

// Check pings the store once and publishes the result.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.log.Warnw("store ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
	return status
}

// Watch re-checks the store every interval until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Check(ctx)
	for {
		select {
		case <-ticker.C:
			s.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown marks every service NOT_SERVING and stops accepting RPCs.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.GRPC.GracefulStop()
}
