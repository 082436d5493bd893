package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// WriteFile stores cfg as yaml at path, creating parent directories.
// The JWT secret is written only as an env placeholder.
func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if path == "" {
		return errors.New("config path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"log_level":  cfg.App.LogLevel,
			"log_format": cfg.App.LogFormat,
		},
		"storage": map[string]any{
			"driver": cfg.Storage.Driver,
			"dsn":    cfg.Storage.DSN,
		},
		"http": map[string]any{
			"addr":       cfg.HTTP.Addr,
			"jwt_secret": "${TIMELEDGER_JWT_SECRET}",
		},
		"engine": map[string]any{
			"force_delete":   cfg.Engine.ForceDelete,
			"sweep_interval": cfg.Engine.SweepInterval.String(),
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
