package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// TestDefaultConfig tests the built-in defaults
func TestDefaultConfig(t *testing.T) {
	cfg, err := Load(Options{LookupEnv: envOf(nil)})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("Expected port 3000, got %d", cfg.Port)
	}
	if cfg.Sensitivity != 1.4 {
		t.Errorf("Expected sensitivity 1.4, got %v", cfg.Sensitivity)
	}
	if cfg.DrainInterval != 80*time.Millisecond {
		t.Errorf("Expected interval 80ms, got %v", cfg.DrainInterval)
	}
	if cfg.HostCallTimeout != 5*time.Second {
		t.Errorf("Expected call timeout 5s, got %v", cfg.HostCallTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected log level 'info', got '%s'", cfg.LogLevel)
	}
}

// TestEnvOverridesDefaults tests environment parsing
func TestEnvOverridesDefaults(t *testing.T) {
	cfg, err := Load(Options{LookupEnv: envOf(map[string]string{
		EnvPort:          "4000",
		EnvSensitivity:   "2.5",
		EnvApplyInterval: "16",
		EnvCallTimeout:   "0",
		EnvLogLevel:      "debug",
	})})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Port != 4000 || cfg.Sensitivity != 2.5 {
		t.Errorf("Expected port 4000 and sensitivity 2.5, got %d and %v", cfg.Port, cfg.Sensitivity)
	}
	if cfg.DrainInterval != 16*time.Millisecond {
		t.Errorf("Expected interval 16ms, got %v", cfg.DrainInterval)
	}
	if cfg.HostCallTimeout != 0 {
		t.Errorf("Expected no call timeout, got %v", cfg.HostCallTimeout)
	}
}

// TestPrecedence tests flag > env > file > default
func TestPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "padrelay.json")
	data := `{"port": 5000, "mouse_sensitivity": 3, "mouse_apply_interval_ms": 40, "tray": true}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	port := 6000
	cfg, err := Load(Options{
		Port: &port,
		LookupEnv: envOf(map[string]string{
			EnvConfigFile:  path,
			EnvPort:        "5500",
			EnvSensitivity: "2",
		}),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Port != 6000 {
		t.Errorf("Expected flag port 6000, got %d", cfg.Port)
	}
	if cfg.Sensitivity != 2 {
		t.Errorf("Expected env sensitivity 2, got %v", cfg.Sensitivity)
	}
	if cfg.DrainInterval != 40*time.Millisecond {
		t.Errorf("Expected file interval 40ms, got %v", cfg.DrainInterval)
	}
	if !cfg.Tray {
		t.Error("Expected tray enabled from file")
	}
	if cfg.ConfigFile != path {
		t.Errorf("Expected config file %s, got %s", path, cfg.ConfigFile)
	}
}

// TestInvalidValues tests that bad settings are rejected
func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port text", map[string]string{EnvPort: "abc"}, "PORT"},
		{"port range", map[string]string{EnvPort: "70000"}, "out of range"},
		{"sensitivity zero", map[string]string{EnvSensitivity: "0"}, "sensitivity"},
		{"sensitivity nan", map[string]string{EnvSensitivity: "NaN"}, "sensitivity"},
		{"interval", map[string]string{EnvApplyInterval: "-5"}, "interval"},
		{"level", map[string]string{EnvLogLevel: "loud"}, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(Options{LookupEnv: envOf(tt.env)})
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

// TestMissingFile tests that an explicit file must exist
func TestMissingFile(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.json"), LookupEnv: envOf(nil)})
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}
