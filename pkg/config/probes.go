package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ProbesConfig names the files a kubelet exec probe checks for. The readiness file exists
// while the process accepts work; the liveness file is touched every LivenessInterval.
type ProbesConfig struct {
	ReadinessFileName string        `koanf:"readinessfilename"`
	LivenessFileName  string        `koanf:"livenessfilename"`
	LivenessInterval  time.Duration `koanf:"livenessinterval"`
}

func (c *ProbesConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Probes ---\n")
	fmt.Fprintf(&b, "  readiness: %s\n", c.ReadinessFileName)
	fmt.Fprintf(&b, "  liveness: %s every %s\n", c.LivenessFileName, c.LivenessInterval)
	return b.String()
}

func (c *ProbesConfig) Validate() error {
	dir := os.TempDir()
	if c.ReadinessFileName == "" {
		c.ReadinessFileName = filepath.Join(dir, "ready")
		log.Printf("Using default readiness file %s", c.ReadinessFileName)
	}
	if c.LivenessFileName == "" {
		c.LivenessFileName = filepath.Join(dir, "live")
		log.Printf("Using default liveness file %s", c.LivenessFileName)
	}
	if c.LivenessInterval <= 0 {
		c.LivenessInterval = 20 * time.Second
	}
	if c.ReadinessFileName == c.LivenessFileName {
		return fmt.Errorf("readiness and liveness probes must use different files")
	}
	return nil
}
