// Package config resolves relay settings from flags, environment and an
// optional JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables
const (
	EnvPort          = "PORT"
	EnvSensitivity   = "MOUSE_SENSITIVITY"
	EnvApplyInterval = "MOUSE_APPLY_INTERVAL_MS"
	EnvCallTimeout   = "HOST_CALL_TIMEOUT_MS"
	EnvRatePerSecond = "RATE_LIMIT_PER_SECOND"
	EnvRateBurst     = "RATE_LIMIT_BURST"
	EnvLogLevel      = "LOG_LEVEL"
	EnvConfigFile    = "PADRELAY_CONFIG"
)

var validLevels = map[string]bool{
	"debug": true, "dev": true, "development": true,
	"info": true,
	"warn": true, "warning": true,
	"error": true, "production": true, "prod": true,
}

// Config is the resolved relay configuration
type Config struct {
	// Port is the TCP port for HTTP and WebSocket traffic
	Port int

	// Sensitivity scales every relative pointer delta
	Sensitivity float64

	// DrainInterval is how often accumulated motion is applied
	DrainInterval time.Duration

	// HostCallTimeout bounds each host input call; zero means unbounded
	HostCallTimeout time.Duration

	// MessagesPerSecond and MessageBurst limit inbound frames per connection.
	// A zero rate disables limiting.
	MessagesPerSecond float64
	MessageBurst      int

	// LogLevel is one of debug, info, warn, error
	LogLevel string

	// Tray shows the system tray icon
	Tray bool

	// ConfigFile is the JSON file that was read, if any
	ConfigFile string
}

// DefaultConfig returns a new Config with the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Port:              3000,
		Sensitivity:       1.4,
		DrainInterval:     80 * time.Millisecond,
		HostCallTimeout:   5 * time.Second,
		MessagesPerSecond: 200,
		MessageBurst:      400,
		LogLevel:          "info",
	}
}

// fileConfig is the on-disk shape. Absent keys keep the lower-precedence value.
type fileConfig struct {
	Port              *int     `json:"port"`
	Sensitivity       *float64 `json:"mouse_sensitivity"`
	ApplyIntervalMS   *int     `json:"mouse_apply_interval_ms"`
	HostCallTimeoutMS *int     `json:"host_call_timeout_ms"`
	RatePerSecond     *float64 `json:"rate_limit_per_second"`
	RateBurst         *int     `json:"rate_limit_burst"`
	LogLevel          *string  `json:"log_level"`
	Tray              *bool    `json:"tray"`
}

// Options carries explicitly set command-line values. Nil fields were not set.
type Options struct {
	Port              *int
	Sensitivity       *float64
	ApplyIntervalMS   *int
	HostCallTimeoutMS *int
	RatePerSecond     *float64
	RateBurst         *int
	LogLevel          *string
	Tray              *bool

	// File overrides PADRELAY_CONFIG
	File string

	// LookupEnv defaults to os.LookupEnv
	LookupEnv func(string) (string, bool)
}

// Load resolves the configuration with precedence flag > env > file > default
func Load(opts Options) (*Config, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := DefaultConfig()

	path := opts.File
	if path == "" {
		path, _ = lookup(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.applyOptions(opts)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if f.Port != nil {
		c.Port = *f.Port
	}
	if f.Sensitivity != nil {
		c.Sensitivity = *f.Sensitivity
	}
	if f.ApplyIntervalMS != nil {
		c.DrainInterval = millis(*f.ApplyIntervalMS)
	}
	if f.HostCallTimeoutMS != nil {
		c.HostCallTimeout = millis(*f.HostCallTimeoutMS)
	}
	if f.RatePerSecond != nil {
		c.MessagesPerSecond = *f.RatePerSecond
	}
	if f.RateBurst != nil {
		c.MessageBurst = *f.RateBurst
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.Tray != nil {
		c.Tray = *f.Tray
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	envInt := func(name string, set func(int)) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", name, v))
				return
			}
			set(n)
		}
	}
	envFloat := func(name string, set func(float64)) {
		if v, ok := lookup(name); ok && v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a number", name, v))
				return
			}
			set(f)
		}
	}

	envInt(EnvPort, func(n int) { c.Port = n })
	envFloat(EnvSensitivity, func(f float64) { c.Sensitivity = f })
	envInt(EnvApplyInterval, func(n int) { c.DrainInterval = millis(n) })
	envInt(EnvCallTimeout, func(n int) { c.HostCallTimeout = millis(n) })
	envFloat(EnvRatePerSecond, func(f float64) { c.MessagesPerSecond = f })
	envInt(EnvRateBurst, func(n int) { c.MessageBurst = n })
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	return errors.Join(errs...)
}

func (c *Config) applyOptions(o Options) {
	if o.Port != nil {
		c.Port = *o.Port
	}
	if o.Sensitivity != nil {
		c.Sensitivity = *o.Sensitivity
	}
	if o.ApplyIntervalMS != nil {
		c.DrainInterval = millis(*o.ApplyIntervalMS)
	}
	if o.HostCallTimeoutMS != nil {
		c.HostCallTimeout = millis(*o.HostCallTimeoutMS)
	}
	if o.RatePerSecond != nil {
		c.MessagesPerSecond = *o.RatePerSecond
	}
	if o.RateBurst != nil {
		c.MessageBurst = *o.RateBurst
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.Tray != nil {
		c.Tray = *o.Tray
	}
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range 1-65535", c.Port))
	}
	if math.IsNaN(c.Sensitivity) || math.IsInf(c.Sensitivity, 0) || c.Sensitivity <= 0 {
		errs = append(errs, fmt.Errorf("mouse sensitivity must be a positive number, got %v", c.Sensitivity))
	}
	if c.DrainInterval <= 0 {
		errs = append(errs, fmt.Errorf("mouse apply interval must be positive, got %v", c.DrainInterval))
	}
	if c.HostCallTimeout < 0 {
		errs = append(errs, fmt.Errorf("host call timeout must not be negative, got %v", c.HostCallTimeout))
	}
	if math.IsNaN(c.MessagesPerSecond) || c.MessagesPerSecond < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %v", c.MessagesPerSecond))
	}
	if c.MessagesPerSecond > 0 && c.MessageBurst < 1 {
		errs = append(errs, fmt.Errorf("rate limit burst must be at least 1, got %d", c.MessageBurst))
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
