// Package probes maintains the files checked by exec-style readiness and liveness probes of
// workers that expose no HTTP port.
package probes

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/abgdnv/stitchnstyle/pkg/config"
)

// MarkReady creates the readiness file. The returned func removes it.
func MarkReady(cfg config.ProbesConfig) (func(), error) {
	if err := touch(cfg.ReadinessFileName); err != nil {
		return nil, fmt.Errorf("failed to create readiness file: %w", err)
	}
	return func() { _ = os.Remove(cfg.ReadinessFileName) }, nil
}

// KeepAlive touches the liveness file every cfg.LivenessInterval until ctx is done, then removes it.
func KeepAlive(ctx context.Context, cfg config.ProbesConfig, logger *slog.Logger) error {
	defer func() { _ = os.Remove(cfg.LivenessFileName) }()
	if err := touch(cfg.LivenessFileName); err != nil {
		return fmt.Errorf("failed to create liveness file: %w", err)
	}
	ticker := time.NewTicker(cfg.LivenessInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := touch(cfg.LivenessFileName); err != nil {
				logger.Warn("failed to touch liveness file", "error", err)
			}
		}
	}
}

func touch(name string) error {
	now := time.Now()
	if err := os.Chtimes(name, now, now); err == nil {
		return nil
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	return f.Close()
}
