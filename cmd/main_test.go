package main

import (
	"bytes"
	"strings"
	"testing"

	"padrelay/internal/config"

	"github.com/spf13/cobra"
)

func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.IntVarP(&flagPort, "port", "p", 3000, "")
	f.Float64VarP(&flagSensitivity, "sensitivity", "s", 1.4, "")
	f.IntVar(&flagIntervalMS, "interval", 80, "")
	f.IntVar(&flagCallTimeoutMS, "call-timeout", 5000, "")
	f.Float64Var(&flagRate, "rate", 200, "")
	f.IntVar(&flagBurst, "burst", 400, "")
	f.StringVar(&flagLogLevel, "log-level", "info", "")
	f.BoolVar(&flagTray, "tray", false, "")
	f.StringVarP(&flagConfig, "config", "c", "", "")
	if err := f.Parse(args); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	return cmd
}

func TestLoadOptionsOnlyChangedFlags(t *testing.T) {
	opts := loadOptions(newFlagCommand(t, "--port", "4000"))

	if opts.Port == nil || *opts.Port != 4000 {
		t.Errorf("Expected port option 4000, got %v", opts.Port)
	}
	if opts.Sensitivity != nil {
		t.Errorf("Expected sensitivity to be unset, got %v", *opts.Sensitivity)
	}
	if opts.Tray != nil {
		t.Error("Expected tray to be unset")
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	opts := loadOptions(newFlagCommand(t, "-s", "2.5", "--log-level", "debug"))
	opts.LookupEnv = func(key string) (string, bool) {
		switch key {
		case config.EnvSensitivity:
			return "0.5", true
		case config.EnvPort:
			return "5000", true
		}
		return "", false
	}

	cfg, err := config.Load(opts)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Sensitivity != 2.5 {
		t.Errorf("Expected sensitivity 2.5, got %v", cfg.Sensitivity)
	}
	if cfg.Port != 5000 {
		t.Errorf("Expected env port 5000, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
}

func TestRenderBanner(t *testing.T) {
	cfg := config.DefaultConfig()
	out := renderBanner("linux", "192.168.1.10", cfg)

	for _, want := range []string{"linux", "http://localhost:3000", "ws://192.168.1.10:3000/ws", "1.4x", "80ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected banner to contain %q", want)
		}
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, "port in use")
	if !strings.Contains(buf.String(), "port in use") {
		t.Errorf("Expected error message in output, got %q", buf.String())
	}
}
