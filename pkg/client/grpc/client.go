// Package grpc creates outbound gRPC connections with the shared interceptor chain.
package grpc

import (
	"fmt"

	"github.com/abgdnv/stitchnstyle/pkg/client/grpc/interceptors"
	"github.com/abgdnv/stitchnstyle/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// NewClient connects to cfg.Addr. Calls are retried on transient errors, guarded by a circuit
// breaker named after the target, and each attempt is bounded by cfg.Timeout.
func NewClient(name string, cfg config.GrpcClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(
			interceptors.NewRetryInterceptor(cfg.Resilience.Retry),
			interceptors.NewCircuitBreaker(name+"-cb", cfg.Resilience.CircuitBreaker),
			interceptors.UnaryClientTimeoutInterceptor(cfg.Timeout),
		),
	}, opts...)
	conn, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", name, err)
	}
	return conn, nil
}
