package config

import (
	"fmt"
	"strings"
	"time"
)

// TelemetryConfig controls trace export. Metrics are always served on /metrics.
type TelemetryConfig struct {
	Enabled bool         `koanf:"enabled"`
	Traces  TracesConfig `koanf:"traces"`
}

// TracesConfig exports spans over OTLP/HTTP. SampleRatio applies to root spans only;
// children follow their parent's decision.
type TracesConfig struct {
	SampleRatio float64        `koanf:"sampleratio"`
	OtlpHttp    OtlpHttpConfig `koanf:"otlphttp"`
}

type OtlpHttpConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
}

func (c *TelemetryConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Telemetry ---\n")
	fmt.Fprintf(&b, "  enabled: %t\n", c.Enabled)
	if c.Enabled {
		o := c.Traces.OtlpHttp
		fmt.Fprintf(&b, "  traces: %s (insecure=%t, timeout=%s, ratio=%g)\n", o.Endpoint, o.Insecure, o.Timeout, c.Traces.SampleRatio)
	}
	return b.String()
}

func (c *TelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Traces.OtlpHttp.Endpoint == "" {
		return fmt.Errorf("OTel endpoint is not configured")
	}
	if c.Traces.OtlpHttp.Timeout <= 0 {
		return fmt.Errorf("telemetry timeout must be greater than 0")
	}
	if c.Traces.SampleRatio == 0 {
		c.Traces.SampleRatio = 1
	}
	if c.Traces.SampleRatio < 0 || c.Traces.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio %g is outside (0, 1]", c.Traces.SampleRatio)
	}
	return nil
}
