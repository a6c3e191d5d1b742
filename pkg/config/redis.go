package config

import (
	"fmt"
	"strings"
	"time"
)

type RedisConfig struct {
	Addr       string        `koanf:"addr"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"maxretries"`
	KeyPrefix  string        `koanf:"keyprefix"`
}

// String returns a string representation of the Redis configuration.
func (c *RedisConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Redis ---\n")
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  db: %d\n", c.DB))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  maxretries: %d\n", c.MaxRetries))
	b.WriteString(fmt.Sprintf("  keyprefix: %s\n", c.KeyPrefix))
	return b.String()
}

func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis address is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("redis timeout must be greater than zero")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("redis maxretries must be greater than zero")
	}
	return nil
}
