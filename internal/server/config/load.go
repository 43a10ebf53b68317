package config

import (
	"fmt"

	"github.com/yndnr/kvantum-go/internal/infra/confloader"
)

// Load returns the defaults overlaid with path (if non-empty), the
// environment and overrides, verified.
func Load(path string, overrides map[string]any) (*ServerConfig, error) {
	cfg := Default()

	loader := confloader.NewLoader(confloader.WithConfigFile(path))
	if path != "" {
		if err := loader.LoadFile(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if err := loader.LoadEnv(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}
