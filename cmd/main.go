// padrelay - remote pointer, keyboard and media relay
// Phones on the LAN pair over WebSocket and drive this host's input.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"padrelay/internal/api"
	"padrelay/internal/config"
	"padrelay/internal/input"
	"padrelay/internal/logging"
	"padrelay/internal/motion"
	"padrelay/internal/osutils"
	"padrelay/internal/session"
	"padrelay/internal/tray"
	"padrelay/internal/version"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagPort          int
	flagSensitivity   float64
	flagIntervalMS    int
	flagCallTimeoutMS int
	flagRate          float64
	flagBurst         int
	flagLogLevel      string
	flagTray          bool
	flagConfig        string
	flagFirewall      bool
)

var rootCmd = &cobra.Command{
	Use:   "padrelay",
	Short: "Relay pointer, keyboard and media input from a phone to this computer",
	Long: `padrelay runs a WebSocket relay on the local network. A phone pairs with a
short room code and then moves the pointer, clicks, scrolls, types and
controls media playback on this host.

Examples:
  padrelay
  padrelay --port 4000 --sensitivity 2
  PADRELAY_CONFIG=relay.json padrelay --tray`,
	Version: version.Version,
	RunE:    runServe,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify this host can inject input",
	RunE: func(cmd *cobra.Command, args []string) error {
		host, err := input.New()
		if err != nil {
			return err
		}
		if dc, ok := host.(input.DependencyChecker); ok {
			if err := dc.CheckDependencies(cmd.Context()); err != nil {
				return err
			}
		}
		fmt.Println(successStyle.Render("✓ " + host.Platform() + " input injection available"))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("padrelay version %s\n", version.Version)
	},
}

func init() {
	f := rootCmd.Flags()
	f.IntVarP(&flagPort, "port", "p", 3000, "TCP port for HTTP and WebSocket ("+config.EnvPort+")")
	f.Float64VarP(&flagSensitivity, "sensitivity", "s", 1.4, "Pointer sensitivity multiplier ("+config.EnvSensitivity+")")
	f.IntVar(&flagIntervalMS, "interval", 80, "Motion apply interval in milliseconds ("+config.EnvApplyInterval+")")
	f.IntVar(&flagCallTimeoutMS, "call-timeout", 5000, "Host input call timeout in milliseconds, 0 disables ("+config.EnvCallTimeout+")")
	f.Float64Var(&flagRate, "rate", 200, "Inbound messages per second per connection, 0 disables ("+config.EnvRatePerSecond+")")
	f.IntVar(&flagBurst, "burst", 400, "Inbound message burst per connection ("+config.EnvRateBurst+")")
	f.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error ("+config.EnvLogLevel+")")
	f.BoolVar(&flagTray, "tray", false, "Show a system tray icon with the pairing code")
	f.StringVarP(&flagConfig, "config", "c", "", "JSON config file ("+config.EnvConfigFile+")")
	f.BoolVar(&flagFirewall, "firewall", false, "Create an inbound firewall rule for the port (Windows)")

	rootCmd.AddCommand(checkCmd, versionCmd)
}

// loadOptions passes through only flags set on the command line so env and file values survive
func loadOptions(cmd *cobra.Command) config.Options {
	f := cmd.Flags()
	opts := config.Options{File: flagConfig}
	if f.Changed("port") {
		opts.Port = &flagPort
	}
	if f.Changed("sensitivity") {
		opts.Sensitivity = &flagSensitivity
	}
	if f.Changed("interval") {
		opts.ApplyIntervalMS = &flagIntervalMS
	}
	if f.Changed("call-timeout") {
		opts.HostCallTimeoutMS = &flagCallTimeoutMS
	}
	if f.Changed("rate") {
		opts.RatePerSecond = &flagRate
	}
	if f.Changed("burst") {
		opts.RateBurst = &flagBurst
	}
	if f.Changed("log-level") {
		opts.LogLevel = &flagLogLevel
	}
	if f.Changed("tray") {
		opts.Tray = &flagTray
	}
	return opts
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(loadOptions(cmd))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A host without input support cannot do anything useful, so refuse to start
	capability, err := input.New()
	if err != nil {
		return fmt.Errorf("cannot start relay: %w", err)
	}
	host := input.WithLogging(capability, logger)
	if err := host.CheckDependencies(ctx); err != nil {
		logger.Warn("Input dependencies missing, host calls will fail", "err", err)
	}

	if flagFirewall {
		if err := osutils.EnsureFirewallRule(ctx, cfg.Port, logger); err != nil {
			logger.Warn("Firewall rule not applied", "err", err)
		}
	}

	acc := motion.New(host, motion.Options{
		Sensitivity: cfg.Sensitivity,
		Interval:    cfg.DrainInterval,
		CallTimeout: cfg.HostCallTimeout,
	}, logger)
	registry := session.NewRegistry(logger)
	server := api.NewServer(cfg, host, acc, registry, logger)

	printBanner(os.Stdout, host.Platform(), cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		acc.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return server.Start(gctx, cfg.Port)
	})

	if cfg.Tray {
		runTray(gctx, server, stop, logger)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Relay stopped")
	return nil
}

// runTray blocks on the tray event loop until Quit or ctx ends
func runTray(ctx context.Context, server *api.Server, stop context.CancelFunc, logger *slog.Logger) {
	t := tray.New(func() string { return server.Pair().RoomID }, stop, logger)
	server.OnPair(t.SetRoom)
	go func() {
		<-ctx.Done()
		t.Stop()
	}()
	logger.Info("Tray started")
	t.Run()
}

func main() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err.Error())
		os.Exit(1)
	}
}
