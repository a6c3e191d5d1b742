// Package config holds the configuration roots of the storefront and notifier binaries.
package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// StorageConfig selects where products, orders and carts live. CartBackend defaults to Backend.
type StorageConfig struct {
	Backend     string `koanf:"backend"`
	CartBackend string `koanf:"cartbackend"`
}

// String returns a string representation of the storage configuration.
func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  backend: %s\n", c.Backend))
	b.WriteString(fmt.Sprintf("  cartbackend: %s\n", c.CartBackend))
	return b.String()
}

func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "":
		c.Backend = BackendPostgres
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Backend)
	}
	switch c.CartBackend {
	case "":
		c.CartBackend = c.Backend
	case BackendPostgres, BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown cart backend: %q", c.CartBackend)
	}
	if c.CartBackend == BackendPostgres && c.Backend != BackendPostgres {
		return fmt.Errorf("cart backend postgres requires the postgres storage backend")
	}
	return nil
}

// ShopConfig holds the storefront-wide pricing constants.
type ShopConfig struct {
	DeliveryFee string `koanf:"deliveryfee"`
	Currency    string `koanf:"currency"`

	fee decimal.Decimal
}

const (
	defaultDeliveryFee = "49"
	defaultCurrency    = "INR"
)

// Fee returns the parsed delivery fee. Valid only after Validate.
func (c *ShopConfig) Fee() decimal.Decimal {
	return c.fee
}

// String returns a string representation of the shop configuration.
func (c *ShopConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Shop ---\n")
	b.WriteString(fmt.Sprintf("  deliveryfee: %s\n", c.DeliveryFee))
	b.WriteString(fmt.Sprintf("  currency: %s\n", c.Currency))
	return b.String()
}

func (c *ShopConfig) Validate() error {
	if c.DeliveryFee == "" {
		c.DeliveryFee = defaultDeliveryFee
	}
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
	fee, err := decimal.NewFromString(c.DeliveryFee)
	if err != nil {
		return fmt.Errorf("invalid shop delivery fee %q: %w", c.DeliveryFee, err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("shop delivery fee must not be negative")
	}
	c.fee = fee
	return nil
}
