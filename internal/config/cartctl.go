package config

import (
	"strings"

	"github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/abgdnv/stitchnstyle/pkg/config/configloader"
)

var _ configloader.Validator = (*CartCtl)(nil)

// CartCtl is the configuration root of cmd/cartctl.
type CartCtl struct {
	Storefront config.GrpcClientConfig `koanf:"storefront"`
	Log        config.LogConfig        `koanf:"log"`
}

func (c *CartCtl) String() string {
	var b strings.Builder
	b.WriteString(c.Storefront.String())
	b.WriteString(c.Log.String())
	return b.String()
}

func (c *CartCtl) Validate() error {
	if err := c.Storefront.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
