package main

import (
	"fmt"
	"io"
	"strings"

	"padrelay/internal/config"
	"padrelay/internal/network"
	"padrelay/internal/version"

	"github.com/charmbracelet/lipgloss"
)

var (
	primary = lipgloss.Color("#22d3ee")
	success = lipgloss.Color("#10B981")
	danger  = lipgloss.Color("#EF4444")
	muted   = lipgloss.Color("#6B7280")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	labelStyle   = lipgloss.NewStyle().Foreground(muted).Width(13)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(muted).Italic(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(1, 2)
)

func bannerRow(label, value string) string {
	return labelStyle.Render(label) + value
}

// renderBanner builds the startup box shown on the console
func renderBanner(platform, networkIP string, cfg *config.Config) string {
	rows := []string{
		titleStyle.Render("padrelay " + version.Version),
		"",
		bannerRow("Platform", platform),
		bannerRow("Local", fmt.Sprintf("http://localhost:%d", cfg.Port)),
		bannerRow("Network", fmt.Sprintf("http://%s:%d", networkIP, cfg.Port)),
		bannerRow("WebSocket", fmt.Sprintf("ws://%s:%d/ws", networkIP, cfg.Port)),
		bannerRow("Sensitivity", fmt.Sprintf("%gx", cfg.Sensitivity)),
		bannerRow("Interval", cfg.DrainInterval.String()),
		"",
		hintStyle.Render("GET /api/pair to issue a pairing code"),
	}
	if cfg.ConfigFile != "" {
		rows = append(rows, hintStyle.Render("Config file: "+cfg.ConfigFile))
	}
	return boxStyle.Render(strings.Join(rows, "\n"))
}

func printBanner(w io.Writer, platform string, cfg *config.Config) {
	fmt.Fprintln(w, renderBanner(platform, network.PrimaryIPv4(), cfg))
}

func printError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("✗ Error: ")+msg)
}
