package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("snapshot", "graph.json", "")
	f.String("command", "", "")
	f.Bool("serve", false, "")
	f.Int("port", 8080, "")
	f.Bool("watch", false, "")
	f.String("output", "", "")
	f.String("verbosity", "info", "")
	if err := f.Parse(args); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	return f
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(testFlags(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Snapshot != "graph.json" {
		t.Errorf("Snapshot = %q, want graph.json", cfg.Snapshot)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Serve || cfg.Watch {
		t.Errorf("Serve/Watch should default to false")
	}
	if cfg.Verbosity != "info" {
		t.Errorf("Verbosity = %q, want info", cfg.Verbosity)
	}
}

func TestLoad_FlagsOverrideDefaults(t *testing.T) {
	flags := testFlags(t,
		"--snapshot", "world.json",
		"--command", "group people around companies",
		"--serve",
		"--port", "9090",
		"--verbosity", "debug")

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Snapshot != "world.json" {
		t.Errorf("Snapshot = %q, want world.json", cfg.Snapshot)
	}
	if cfg.Command != "group people around companies" {
		t.Errorf("Command = %q", cfg.Command)
	}
	if !cfg.Serve || cfg.Port != 9090 {
		t.Errorf("Serve=%v Port=%d, want true/9090", cfg.Serve, cfg.Port)
	}
	if cfg.Verbosity != "debug" {
		t.Errorf("Verbosity = %q, want debug", cfg.Verbosity)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("LAYOUT_ENGINE_PORT", "7070")
	t.Setenv("LAYOUT_ENGINE_VERBOSITY", "warn")

	cfg, err := Load(testFlags(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070 from env", cfg.Port)
	}
	if cfg.Verbosity != "warn" {
		t.Errorf("Verbosity = %q, want warn from env", cfg.Verbosity)
	}
}

func TestLoad_ExplicitFlagBeatsEnv(t *testing.T) {
	t.Setenv("LAYOUT_ENGINE_PORT", "7070")

	cfg, err := Load(testFlags(t, "--port", "6060"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 6060 {
		t.Errorf("Port = %d, want flag value 6060", cfg.Port)
	}
}

func TestLoad_NilFlagSet(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Snapshot != "graph.json" {
		t.Errorf("Snapshot = %q, want default", cfg.Snapshot)
	}
}
