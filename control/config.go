// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Adapter configuration loaded from YAML.

package control

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the file-configurable adapter settings.
type Config struct {
	// Enabled gates the whole adapter; when false every adapter operation
	// is a no-op.
	Enabled bool `yaml:"enabled"`

	// Threads is the number of worker threads, one reactor instance each.
	Threads int `yaml:"threads"`

	// SignalWatch controls registration of the interrupt-signal watch at
	// loop initialization.
	SignalWatch bool `yaml:"signal_watch"`
}

// DefaultConfig returns the adapter defaults: enabled, one thread, signal
// watch on.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Threads:     1,
		SignalWatch: true,
	}
}

// Load reads a YAML config file over the defaults. Keys absent from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("control: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("control: parse config: %w", err)
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}
	return cfg, nil
}
