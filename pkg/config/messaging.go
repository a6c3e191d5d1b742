package config

import (
	"fmt"
	"strings"
)

const (
	BrokerNATS = "nats"
	BrokerAMQP = "amqp"
	BrokerNone = "none"
)

// MessagingConfig selects the event broker. Only the selected broker section is validated.
type MessagingConfig struct {
	Broker   string     `koanf:"broker"`
	Stream   string     `koanf:"stream"`
	Subjects []string   `koanf:"subjects"`
	Nats     NATSConfig `koanf:"nats"`
	AMQP     AMQPConfig `koanf:"amqp"`
}

// String returns a string representation of the messaging configuration.
func (c *MessagingConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Messaging ---\n")
	b.WriteString(fmt.Sprintf("  broker: %s\n", c.Broker))
	switch c.Broker {
	case BrokerNATS:
		b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
		b.WriteString(fmt.Sprintf("  subjects: %s\n", strings.Join(c.Subjects, ",")))
		b.WriteString(c.Nats.String())
	case BrokerAMQP:
		b.WriteString(c.AMQP.String())
	}
	return b.String()
}

func (c *MessagingConfig) Validate() error {
	switch c.Broker {
	case BrokerNATS:
		if c.Stream == "" {
			return fmt.Errorf("messaging stream is not configured")
		}
		if len(c.Subjects) == 0 {
			return fmt.Errorf("messaging subjects are not configured")
		}
		return c.Nats.Validate()
	case BrokerAMQP:
		return c.AMQP.Validate()
	case BrokerNone, "":
		c.Broker = BrokerNone
		return nil
	default:
		return fmt.Errorf("unknown messaging broker: %q", c.Broker)
	}
}
