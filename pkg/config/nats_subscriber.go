package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultMaxDeliver = 5
	defaultAckWait    = 30 * time.Second
)

// SubscriberConfig drives a pull consumer: Workers loops each fetch up to Batch messages,
// waiting at most Timeout per fetch and Interval after a failed fetch. A message is
// redelivered until MaxDeliver attempts or acked within AckWait.
type SubscriberConfig struct {
	Stream     string        `koanf:"stream"`
	Subject    string        `koanf:"subject"`
	Consumer   string        `koanf:"consumer"`
	Batch      int           `koanf:"batch"`
	Timeout    time.Duration `koanf:"timeout"`
	Interval   time.Duration `koanf:"interval"`
	Workers    int           `koanf:"workers"`
	MaxDeliver int           `koanf:"maxdeliver"`
	AckWait    time.Duration `koanf:"ackwait"`
}

func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS Subscriber ---\n")
	fmt.Fprintf(&b, "  stream: %s subject: %s consumer: %s\n", c.Stream, c.Subject, c.Consumer)
	fmt.Fprintf(&b, "  batch: %d workers: %d\n", c.Batch, c.Workers)
	fmt.Fprintf(&b, "  timeout: %s interval: %s\n", c.Timeout, c.Interval)
	fmt.Fprintf(&b, "  maxdeliver: %d ackwait: %s\n", c.MaxDeliver, c.AckWait)
	return b.String()
}

func (c *SubscriberConfig) Validate() error {
	var errs []error
	for name, v := range map[string]string{"stream": c.Stream, "subject": c.Subject, "consumer": c.Consumer} {
		if v == "" {
			errs = append(errs, fmt.Errorf("subscriber %s is not configured", name))
		}
	}
	for name, v := range map[string]int64{
		"batch":    int64(c.Batch),
		"workers":  int64(c.Workers),
		"timeout":  int64(c.Timeout),
		"interval": int64(c.Interval),
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("subscriber %s must be greater than zero", name))
		}
	}
	if c.MaxDeliver == 0 {
		c.MaxDeliver = defaultMaxDeliver
	}
	if c.AckWait == 0 {
		c.AckWait = defaultAckWait
	}
	if c.MaxDeliver < 0 || c.AckWait < 0 {
		errs = append(errs, fmt.Errorf("subscriber maxdeliver and ackwait must not be negative"))
	}
	return errors.Join(errs...)
}
