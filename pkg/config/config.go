package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the layout engine CLI.
type Config struct {
	Snapshot  string `koanf:"snapshot"`  // path to the graph snapshot JSON
	Command   string `koanf:"command"`   // free-text layout command
	Serve     bool   `koanf:"serve"`     // start the dev server instead of printing
	Port      int    `koanf:"port"`      // dev server port
	Watch     bool   `koanf:"watch"`     // re-run layout when the snapshot changes
	Output    string `koanf:"output"`    // optional path for the position map JSON
	Verbosity string `koanf:"verbosity"` // debug, info, warn, error
}

// Load loads configuration from defaults, config file, environment
// variables, and flags. Priority: Flags > Env > Config File > Defaults.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"snapshot":  "graph.json",
		"command":   "",
		"serve":     false,
		"port":      8080,
		"watch":     false,
		"output":    "",
		"verbosity": "info",
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - layout-engine.toml
	// Errors are ignored as the file might not exist.
	_ = k.Load(file.Provider("layout-engine.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: LAYOUT_ENGINE_ (e.g., LAYOUT_ENGINE_PORT=9090)
	if err := k.Load(env.Provider("LAYOUT_ENGINE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "LAYOUT_ENGINE_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Helper to use a map as a provider.
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
