package config

import (
	"fmt"
	"strings"
	"time"
)

type AMQPConfig struct {
	URL      string        `koanf:"url"`
	Exchange string        `koanf:"exchange"`
	Timeout  time.Duration `koanf:"timeout"`
}

// String returns a string representation of the AMQP configuration.
func (c *AMQPConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- AMQP ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", MaskURL(c.URL)))
	b.WriteString(fmt.Sprintf("  exchange: %s\n", c.Exchange))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *AMQPConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("AMQP URL is not configured")
	}
	if c.Exchange == "" {
		return fmt.Errorf("AMQP exchange is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("AMQP publish timeout is not configured")
	}
	return nil
}
