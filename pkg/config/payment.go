package config

import (
	"fmt"
	"strings"
	"time"
)

// PaymentConfig holds the Razorpay credentials and the breaker guarding gateway calls.
type PaymentConfig struct {
	Razorpay       RazorpayConfig       `koanf:"razorpay"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

type RazorpayConfig struct {
	BaseURL   string        `koanf:"baseurl"`
	KeyID     string        `koanf:"keyid"`
	KeySecret string        `koanf:"keysecret"`
	Timeout   time.Duration `koanf:"timeout"`
}

// String returns a string representation of the payment configuration without secrets.
func (c *PaymentConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Payment ---\n")
	b.WriteString(fmt.Sprintf("  razorpay.baseurl: %s\n", c.Razorpay.BaseURL))
	b.WriteString(fmt.Sprintf("  razorpay.keyid: %s\n", c.Razorpay.KeyID))
	b.WriteString(fmt.Sprintf("  razorpay.timeout: %s\n", c.Razorpay.Timeout))
	b.WriteString(fmt.Sprintf("  circuitbreaker.consecutivefailures: %d\n", c.CircuitBreaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  circuitbreaker.opentimeout: %s\n", c.CircuitBreaker.OpenTimeout))
	return b.String()
}

func (c *PaymentConfig) Validate() error {
	if c.Razorpay.BaseURL == "" {
		return fmt.Errorf("razorpay base URL is not configured")
	}
	if c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "" {
		return fmt.Errorf("razorpay key id and secret must be configured")
	}
	if c.Razorpay.Timeout <= 0 {
		return fmt.Errorf("razorpay timeout must be greater than 0")
	}
	return c.CircuitBreaker.Validate()
}
