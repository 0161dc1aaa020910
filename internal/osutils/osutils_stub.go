//go:build !windows

package osutils

import (
	"context"
	"log/slog"
)

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// EnsureFirewallRule is a no-op outside Windows
func EnsureFirewallRule(ctx context.Context, port int, logger *slog.Logger) error {
	logger.Debug("Firewall rule management is only supported on Windows", "component", "firewall")
	return nil
}
