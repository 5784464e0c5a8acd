package grpc

import (
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"liyu1981.xyz/aquapure-service/pkg/aqua"
	"liyu1981.xyz/aquapure-service/pkg/metrics"
)

type AquaServer struct {
	Aqua             *aqua.Aqua
	RateLimiterStore *aqua.RateLimiterStore
	Metrics          *metrics.Metrics
}

func (s *AquaServer) GetLimiter(userID string) *rate.Limiter {
	if s.RateLimiterStore == nil {
		return nil
	} else {
		return s.RateLimiterStore.GetLimiter(userID)
	}
}

func (s *AquaServer) CheckUserLimiter(userID string) bool {
	limiter := s.GetLimiter(userID)
	if limiter == nil {
		return true
	}
	if !limiter.Allow() {
		s.Metrics.RateLimited("grpc")
		return false
	}
	return true
}

// LimitedMethods are the unary calls the per-user limiter applies to.
// PostLimiter is left out so a throttled user can still be reconfigured.
var LimitedMethods = []string{
	LogUsageFullMethod,
	GetWindowFullMethod,
	GetSummaryFullMethod,
	GetAlertsFullMethod,
	PostSensorFullMethod,
}

// NewServer builds a grpc.Server with the usage service, the rate limit and
// metrics interceptors, and the standard health service.
func NewServer(s *AquaServer, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		s.CreateMetricsInterceptor(),
		s.CreateRateLimitInterceptor(LimitedMethods),
	))
	server := grpc.NewServer(opts...)
	RegisterUsageServiceServer(server, s)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server
}
