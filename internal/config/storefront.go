package config

import (
	"strings"

	"github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/abgdnv/stitchnstyle/pkg/config/configloader"
)

var _ configloader.Validator = (*Storefront)(nil)

// Storefront is the configuration root of cmd/storefront.
type Storefront struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Grpc       config.GrpcServerConfig `koanf:"grpc"`
	Storage    StorageConfig           `koanf:"storage"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Redis      config.RedisConfig      `koanf:"redis"`
	Messaging  config.MessagingConfig  `koanf:"messaging"`
	Auth       config.AuthConfig       `koanf:"auth"`
	Payment    config.PaymentConfig    `koanf:"payment"`
	Shop       ShopConfig              `koanf:"shop"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *Storefront) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Grpc.String())
	b.WriteString(c.Storage.String())
	if c.Storage.Backend == BackendPostgres {
		b.WriteString(c.Database.String())
	}
	if c.Storage.CartBackend == BackendRedis {
		b.WriteString(c.Redis.String())
	}
	b.WriteString(c.Messaging.String())
	b.WriteString(c.Auth.String())
	b.WriteString(c.Payment.String())
	b.WriteString(c.Shop.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks the sections in use. Database and Redis are only checked when a backend needs them.
func (c *Storefront) Validate() error {
	validators := []configloader.Validator{&c.HTTPServer, &c.Grpc, &c.Storage}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.Storage.Backend == BackendPostgres {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}
	if c.Storage.CartBackend == BackendRedis {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}
	validators = []configloader.Validator{
		&c.Messaging, &c.Auth, &c.Payment, &c.Shop, &c.Log, &c.PProf, &c.Telemetry, &c.Shutdown,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
