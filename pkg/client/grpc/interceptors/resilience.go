package interceptors

import (
	"context"

	"github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// transientCodes are retried and count against the circuit breaker.
var transientCodes = []codes.Code{codes.Unavailable, codes.ResourceExhausted, codes.Aborted}

func isTransient(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return true
	}
	for _, c := range transientCodes {
		if st.Code() == c {
			return true
		}
	}
	return false
}

// NewRetryInterceptor retries transient failures with exponential backoff.
func NewRetryInterceptor(cfg config.RetryConfig) grpc.UnaryClientInterceptor {
	return retry.UnaryClientInterceptor(
		retry.WithCodes(transientCodes...),
		retry.WithMax(cfg.MaxAttempts),
		retry.WithBackoff(retry.BackoffExponential(cfg.InitialBackoff)),
	)
}

// UnaryCircuitBreakerInterceptor runs every call through cb. Only the error matters to the
// breaker, the reply is filled in by the invoker.
func UnaryCircuitBreakerInterceptor[T any](cb *gobreaker.CircuitBreaker[T]) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		var zero T
		_, err := cb.Execute(func() (T, error) {
			return zero, invoker(ctx, method, req, reply, cc, opts...)
		})
		return err
	}
}

// NewCircuitBreaker opens after cfg.ConsecutiveFailures transient failures in a row, or once
// cfg.MinRequests calls have been seen and the failure rate reaches cfg.ErrorRatePercent.
// Business errors such as NotFound never trip it.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig) grpc.UnaryClientInterceptor {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if counts.Requests < cfg.MinRequests || cfg.ErrorRatePercent == 0 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests)*100 >= float64(cfg.ErrorRatePercent)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
	}
	return UnaryCircuitBreakerInterceptor(gobreaker.NewCircuitBreaker[struct{}](st))
}
