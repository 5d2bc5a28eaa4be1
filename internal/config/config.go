// # internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Backend         string   `toml:"backend"`          // grammar-tree | native-ast
	LanguageVersion string   `toml:"language_version"` // e.g. "3.10"
	WorkerPath      string   `toml:"worker_path"`      // native-ast analyzer binary
	WatchPaths      []string `toml:"watch_paths"`
	Exclude         Exclude  `toml:"exclude"`
	Watch           Watch    `toml:"watch"`
	Export          Export   `toml:"export"`
	Analysis        Analysis `toml:"analysis"`
	History         History  `toml:"history"`
	Metrics         Metrics  `toml:"metrics"`
	Tracing         Tracing  `toml:"tracing"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Export mirrors the outline's export policy.
type Export struct {
	ModuleVariables bool `toml:"module_variables"`
	ClassVariables  bool `toml:"class_variables"`
	Imports         bool `toml:"imports"`
}

type Analysis struct {
	// Strict turns error recovery off: the first syntax error fails the
	// file instead of producing a partial outline.
	Strict bool `toml:"strict"`
	// RatePerSecond and Burst throttle re-analysis under event storms.
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

type History struct {
	Path string `toml:"path"` // sqlite file; empty disables snapshots
}

type Metrics struct {
	Addr string `toml:"addr"` // listen address; empty disables the server
}

type Tracing struct {
	Endpoint string `toml:"endpoint"` // OTLP gRPC collector; empty disables export
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Export switches default to on; decoding only overrides the ones the
	// file sets explicitly.
	cfg := Config{Export: defaultExport()}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if cfg.Backend != "grammar-tree" && cfg.Backend != "native-ast" {
		return nil, fmt.Errorf("config: unknown backend %q", cfg.Backend)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Export: defaultExport()}
	cfg.applyDefaults()
	return cfg
}

func defaultExport() Export {
	return Export{ModuleVariables: true, ClassVariables: true, Imports: true}
}

func (cfg *Config) applyDefaults() {
	if cfg.Backend == "" {
		cfg.Backend = "grammar-tree"
	}
	if cfg.LanguageVersion == "" {
		cfg.LanguageVersion = "3.10"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if len(cfg.WatchPaths) == 0 {
		cfg.WatchPaths = []string{"."}
	}
	if cfg.Analysis.RatePerSecond == 0 {
		cfg.Analysis.RatePerSecond = 20
	}
	if cfg.Analysis.Burst == 0 {
		cfg.Analysis.Burst = 5
	}
}
