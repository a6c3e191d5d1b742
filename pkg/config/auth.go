package config

import (
	"fmt"
	"strings"
	"time"
)

type IdP struct {
	JwksURL     string        `koanf:"jwksurl"`
	Issuer      string        `koanf:"issuer"`
	ClientID    string        `koanf:"clientid"`
	MinInterval time.Duration `koanf:"mininterval"`
}

func (c *IdP) Validate() error {
	if c.JwksURL == "" {
		return fmt.Errorf("IdP JWKS URL cannot be empty")
	}
	if c.Issuer == "" {
		return fmt.Errorf("IdP issuer cannot be empty")
	}
	if c.ClientID == "" {
		return fmt.Errorf("IdP client ID cannot be empty")
	}
	if c.MinInterval <= 0 {
		return fmt.Errorf("IdP minimum interval must be greater than zero")
	}
	return nil
}

// KeycloakConfig resolves staff from Keycloak realm roles and groups through the admin API,
// using the client credentials of a service account. It is disabled while URL is empty.
type KeycloakConfig struct {
	URL         string        `koanf:"url"`
	Realm       string        `koanf:"realm"`
	ClientID    string        `koanf:"clientid"`
	Secret      string        `koanf:"secret"`
	StaffRoles  []string      `koanf:"staffroles"`
	StaffGroups []string      `koanf:"staffgroups"`
	CacheTTL    time.Duration `koanf:"cachettl"`
}

const defaultStaffCacheTTL = time.Minute

func (c *KeycloakConfig) Enabled() bool {
	return c.URL != ""
}

func (c *KeycloakConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Realm == "" || c.ClientID == "" || c.Secret == "" {
		return fmt.Errorf("keycloak realm, client ID and secret are required")
	}
	if len(c.StaffRoles) == 0 && len(c.StaffGroups) == 0 {
		return fmt.Errorf("keycloak needs at least one staff role or staff group")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("keycloak cache TTL must not be negative")
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = defaultStaffCacheTTL
	}
	return nil
}

// AuthConfig selects how bearer tokens are verified: against an IdP JWKS endpoint
// or with a shared HS256 secret. Staff lists the subjects allowed to act as designers/admins;
// Keycloak, when enabled, grants staff to holders of its roles or groups as well.
type AuthConfig struct {
	Mode     string         `koanf:"mode"`
	IdP      IdP            `koanf:"idp"`
	Secret   string         `koanf:"secret"`
	Staff    []string       `koanf:"staff"`
	Keycloak KeycloakConfig `koanf:"keycloak"`
}

const (
	AuthModeJWKS   = "jwks"
	AuthModeSecret = "secret"
)

// String returns a string representation of the auth configuration.
func (c *AuthConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  mode: %s\n", c.Mode))
	if c.Mode == AuthModeJWKS {
		b.WriteString(fmt.Sprintf("  idp.jwksurl: %s\n", c.IdP.JwksURL))
		b.WriteString(fmt.Sprintf("  idp.issuer: %s\n", c.IdP.Issuer))
		b.WriteString(fmt.Sprintf("  idp.clientid: %s\n", c.IdP.ClientID))
	}
	b.WriteString(fmt.Sprintf("  staff: %d subject(s)\n", len(c.Staff)))
	if c.Keycloak.Enabled() {
		fmt.Fprintf(&b, "  keycloak: %s realm=%s client=%s roles=%v groups=%v\n",
			c.Keycloak.URL, c.Keycloak.Realm, c.Keycloak.ClientID, c.Keycloak.StaffRoles, c.Keycloak.StaffGroups)
	}
	return b.String()
}

func (c *AuthConfig) Validate() error {
	if err := c.Keycloak.Validate(); err != nil {
		return err
	}
	switch c.Mode {
	case AuthModeJWKS:
		return c.IdP.Validate()
	case AuthModeSecret:
		if len(c.Secret) < 32 {
			return fmt.Errorf("auth secret must be at least 32 bytes")
		}
		return nil
	default:
		return fmt.Errorf("unknown auth mode: %q", c.Mode)
	}
}
