package config

import (
	"fmt"
	"time"
)

// GrpcClientConfig describes an outbound gRPC connection. Timeout bounds each call attempt,
// not the call as a whole: retries get a fresh deadline.
type GrpcClientConfig struct {
	Addr       string           `koanf:"addr"`
	Timeout    time.Duration    `koanf:"timeout"`
	Resilience ResilienceConfig `koanf:"resilience"`
}

func (c *GrpcClientConfig) String() string {
	return fmt.Sprintf("\n--- gRPC Client ---\n  addr: %s (attempt timeout %s)\n%s", c.Addr, c.Timeout, c.Resilience.String())
}

func (c *GrpcClientConfig) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("gRPC client addr is not configured")
	case c.Timeout <= 0:
		return fmt.Errorf("gRPC client attempt timeout must be greater than zero")
	}
	if err := c.Resilience.Validate(); err != nil {
		return fmt.Errorf("gRPC client %s: %w", c.Addr, err)
	}
	return nil
}
