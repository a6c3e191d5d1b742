package config

import (
	"strings"

	"github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/abgdnv/stitchnstyle/pkg/config/configloader"
)

var _ configloader.Validator = (*Notifier)(nil)

// Notifier is the configuration root of cmd/notifier.
type Notifier struct {
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Probes     config.ProbesConfig     `koanf:"probes"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *Notifier) String() string {
	var b strings.Builder
	b.WriteString(c.Nats.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Probes.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Notifier) Validate() error {
	validators := []configloader.Validator{
		&c.Log, &c.PProf, &c.Nats, &c.Subscriber, &c.Probes, &c.Telemetry, &c.Shutdown,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
