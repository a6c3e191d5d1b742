package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validator interface {
	Validate() error
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     validator
		wantErr bool
	}{
		{name: "log default level", cfg: &LogConfig{}},
		{name: "log warn", cfg: &LogConfig{Level: "warn"}},
		{name: "log unknown level", cfg: &LogConfig{Level: "verbose"}, wantErr: true},
		{name: "pprof disabled without addr", cfg: &PProfConfig{}},
		{name: "pprof enabled", cfg: &PProfConfig{Enabled: true, Addr: "localhost:6060"}},
		{name: "pprof addr without port", cfg: &PProfConfig{Enabled: true, Addr: "localhost"}, wantErr: true},
		{name: "nats server list", cfg: &NATSConfig{Url: "nats://a:4222, nats://b:4222", Timeout: time.Second}},
		{name: "nats missing scheme", cfg: &NATSConfig{Url: "localhost:4222", Timeout: time.Second}, wantErr: true},
		{name: "nats no timeout", cfg: &NATSConfig{Url: "nats://a:4222"}, wantErr: true},
		{name: "shutdown negative", cfg: &ShutdownConfig{Timeout: -time.Second}, wantErr: true},
		{name: "probes same file", cfg: &ProbesConfig{ReadinessFileName: "/tmp/p", LivenessFileName: "/tmp/p"}, wantErr: true},
		{name: "telemetry disabled", cfg: &TelemetryConfig{}},
		{name: "telemetry ratio too high", cfg: &TelemetryConfig{Enabled: true, Traces: TracesConfig{
			SampleRatio: 1.5, OtlpHttp: OtlpHttpConfig{Endpoint: "collector:4318", Timeout: time.Second},
		}}, wantErr: true},
		{name: "subscriber missing stream", cfg: &SubscriberConfig{Subject: "s", Consumer: "c", Batch: 1, Workers: 1, Timeout: time.Second, Interval: time.Second}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	// given
	shutdown := ShutdownConfig{}
	probes := ProbesConfig{}
	telemetry := TelemetryConfig{Enabled: true, Traces: TracesConfig{OtlpHttp: OtlpHttpConfig{Endpoint: "collector:4318", Timeout: time.Second}}}
	subscriber := SubscriberConfig{Stream: "CUSTOM_ORDERS", Subject: "s", Consumer: "c", Batch: 1, Workers: 1, Timeout: time.Second, Interval: time.Second}

	// when
	require.NoError(t, shutdown.Validate())
	require.NoError(t, probes.Validate())
	require.NoError(t, telemetry.Validate())
	require.NoError(t, subscriber.Validate())

	// then
	assert.Equal(t, 10*time.Second, shutdown.Timeout)
	assert.NotEqual(t, probes.ReadinessFileName, probes.LivenessFileName)
	assert.Equal(t, 20*time.Second, probes.LivenessInterval)
	assert.Equal(t, 1.0, telemetry.Traces.SampleRatio)
	assert.Equal(t, 5, subscriber.MaxDeliver)
	assert.Equal(t, 30*time.Second, subscriber.AckWait)
}
