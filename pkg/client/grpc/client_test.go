package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// scriptedHealth answers Check with a queue of status codes, then OK.
type scriptedHealth struct {
	healthpb.UnimplementedHealthServer

	mu        sync.Mutex
	calls     int
	responses []codes.Code
	delay     time.Duration
}

func (s *scriptedHealth) Check(ctx context.Context, _ *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	s.mu.Lock()
	s.calls++
	code := codes.OK
	if len(s.responses) > 0 {
		code, s.responses = s.responses[0], s.responses[1:]
	}
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if code != codes.OK {
		return nil, status.Error(code, "scripted error")
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func (s *scriptedHealth) script(responses ...codes.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = responses
	s.calls = 0
}

func (s *scriptedHealth) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testClientConfig() config.GrpcClientConfig {
	return config.GrpcClientConfig{
		Addr:    "passthrough:///bufnet",
		Timeout: time.Second,
		Resilience: config.ResilienceConfig{
			Retry: config.RetryConfig{MaxAttempts: 3, InitialBackoff: 10 * time.Millisecond},
			CircuitBreaker: config.CircuitBreakerConfig{
				ConsecutiveFailures: 6,
				ErrorRatePercent:    60,
				MinRequests:         10,
				OpenTimeout:         5 * time.Second,
			},
		},
	}
}

// setup starts the scripted server and returns a client built by NewClient.
func setup(t *testing.T, cfg config.GrpcClientConfig) (healthpb.HealthClient, *scriptedHealth) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	svc := &scriptedHealth{}
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, svc)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := NewClient("test", cfg, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn), svc
}

func TestClient_HappyPath(t *testing.T) {
	client, svc := setup(t, testClientConfig())

	// when
	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})

	// then
	require.NoError(t, err)
	require.Equal(t, 1, svc.callCount())
}

func TestClient_RetryOnTransientError(t *testing.T) {
	client, svc := setup(t, testClientConfig())

	// given
	svc.script(codes.Unavailable, codes.Unavailable, codes.OK)

	// when
	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})

	// then
	require.NoError(t, err)
	require.Equal(t, 3, svc.callCount(), "two retries before success")
}

func TestClient_NoRetryOnDataError(t *testing.T) {
	client, svc := setup(t, testClientConfig())

	// given
	svc.script(codes.InvalidArgument)

	// when
	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})

	// then
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Equal(t, 1, svc.callCount())
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	client, svc := setup(t, testClientConfig())

	// given: two calls of three failing attempts each reach six consecutive failures
	svc.script(
		codes.Unavailable, codes.Unavailable, codes.Unavailable,
		codes.Unavailable, codes.Unavailable, codes.Unavailable,
	)

	// when
	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.Error(t, err)
	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.Error(t, err)
	require.Equal(t, 6, svc.callCount())

	// then
	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Equal(t, 6, svc.callCount(), "open breaker blocks the call")
}

func TestClient_CircuitBreakerIgnoresDataError(t *testing.T) {
	client, svc := setup(t, testClientConfig())

	// given
	responses := make([]codes.Code, 10)
	for i := range responses {
		responses[i] = codes.NotFound
	}
	svc.script(responses...)

	// when
	for range 10 {
		_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		require.Equal(t, codes.NotFound, status.Code(err))
	}

	// then
	require.Equal(t, 10, svc.callCount())
}

func TestClient_TimeoutPerAttempt(t *testing.T) {
	// given
	cfg := testClientConfig()
	cfg.Timeout = 50 * time.Millisecond
	client, svc := setup(t, cfg)
	svc.delay = 200 * time.Millisecond

	// when
	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})

	// then
	require.Equal(t, codes.DeadlineExceeded, status.Code(err))
	require.Equal(t, 1, svc.callCount(), "deadline exceeded is not retried")
}
