// Package admin runs the operator-facing gRPC server: standard health
// checks backed by dependency probes, plus reflection for grpcurl.
package admin

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const probeTimeout = 3 * time.Second

// Probe checks one backing dependency. Its Name is the health service name
// reported to clients.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	probes   []Probe
	interval time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	failed map[string]bool
}

func NewServer(interval time.Duration, log *slog.Logger, probes ...Probe) *Server {
	gs := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	// Not serving until the first probe round completes.
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, p := range probes {
		hs.SetServingStatus(p.Name, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	return &Server{
		grpc:     gs,
		health:   hs,
		probes:   probes,
		interval: interval,
		log:      log.With("component", "admin"),
		failed:   make(map[string]bool),
	}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Run probes dependencies every interval until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.CheckOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckOnce(ctx)
		}
	}
}

// CheckOnce runs every probe concurrently and publishes the results. The
// overall ("") status is SERVING only when every probe passes.
func (s *Server) CheckOnce(ctx context.Context) bool {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		healthy = true
	)
	for _, p := range s.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()

			err := p.Check(pctx)
			s.report(ctx, p.Name, err)
			if err != nil {
				mu.Lock()
				healthy = false
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.health.SetServingStatus("", servingStatus(healthy))
	return healthy
}

func (s *Server) report(ctx context.Context, name string, err error) {
	s.health.SetServingStatus(name, servingStatus(err == nil))

	s.mu.Lock()
	wasFailing := s.failed[name]
	s.failed[name] = err != nil
	s.mu.Unlock()

	switch {
	case err != nil && !wasFailing:
		s.log.WarnContext(ctx, "dependency unhealthy", "dependency", name, "error", err)
	case err == nil && wasFailing:
		s.log.InfoContext(ctx, "dependency recovered", "dependency", name)
	}
}

// GracefulStop flips every status to NOT_SERVING before draining.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
