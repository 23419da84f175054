package grpc

import (
	"sync"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// APIServiceName is the health service name that tracks the HTTP API
const APIServiceName = "moviematch.v1.Api"

var (
	grpcServerMetrics         *grpcprom.ServerMetrics
	registerServerMetricsOnce sync.Once
)

// NewGRPCServer creates the operational gRPC server: health checking and reflection,
// instrumented with Prometheus. The returned health server lets the caller flip
// statuses during shutdown.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	// Set up Prometheus gRPC server metrics once per process
	registerServerMetricsOnce.Do(func() {
		grpcServerMetrics = grpcprom.NewServerMetrics(
			grpcprom.WithServerHandlingTimeHistogram(),
		)
		prometheus.MustRegister(grpcServerMetrics)
	})

	srvMetrics := grpcServerMetrics

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(srvMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(srvMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	SetServing(healthServer, true)

	// Register reflection service for tools like grpcurl
	reflection.Register(grpcServer)

	srvMetrics.InitializeMetrics(grpcServer)

	return grpcServer, healthServer
}

// SetServing flips both the overall and the API health status
func SetServing(h *health.Server, serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.SetServingStatus("", status)
	h.SetServingStatus(APIServiceName, status)
}
