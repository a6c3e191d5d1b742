package config

import (
	"fmt"
	"slices"
)

var logLevels = []string{"debug", "info", "warn", "error"}

type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) String() string {
	return fmt.Sprintf("\n--- Log ---\n  level: %s\n", c.Level)
}

// Validate accepts an empty level, which the logger treats as info.
func (c *LogConfig) Validate() error {
	if c.Level == "" || slices.Contains(logLevels, c.Level) {
		return nil
	}
	return fmt.Errorf("log level %q is not one of %v", c.Level, logLevels)
}
