package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// NATSConfig is the broker connection. Name shows up in the server's connection list.
type NATSConfig struct {
	Url     string        `koanf:"url"`
	Name    string        `koanf:"name"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *NATSConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS ---\n")
	fmt.Fprintf(&b, "  url: %s\n", c.Url)
	fmt.Fprintf(&b, "  name: %s\n", c.Name)
	fmt.Fprintf(&b, "  timeout: %s\n", c.Timeout)
	return b.String()
}

func (c *NATSConfig) Validate() error {
	if c.Url == "" {
		return fmt.Errorf("NATS URL is not configured")
	}
	// nats.Connect takes a comma separated server list
	for _, server := range strings.Split(c.Url, ",") {
		u, err := url.Parse(strings.TrimSpace(server))
		if err != nil || u.Host == "" {
			return fmt.Errorf("NATS server %q is not a valid URL", server)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("nats dial timeout is not configured")
	}
	return nil
}
