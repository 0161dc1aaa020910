//go:build windows

package osutils

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// RuleName is the display name of the inbound firewall rule
const RuleName = "padrelay"

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token)
	if err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err = windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}
	return member
}

// EnsureFirewallRule makes sure phones on the LAN can reach the relay port.
// Without admin rights it asks for UAC elevation and returns without waiting.
func EnsureFirewallRule(ctx context.Context, port int, logger *slog.Logger) error {
	logger = logger.With("component", "firewall", "rule", RuleName, "port", port)

	out, err := exec.CommandContext(ctx, "netsh", "advfirewall", "firewall", "show", "rule", "name="+RuleName).CombinedOutput()
	if err == nil && ruleMatches(string(out), port) {
		logger.Debug("Firewall rule present")
		return nil
	}
	logger.Info("Firewall rule missing or stale, creating")

	ps := ruleScript(port)
	if !IsAdmin() {
		verb, _ := syscall.UTF16PtrFromString("runas")
		exe, _ := syscall.UTF16PtrFromString("powershell.exe")
		args, _ := syscall.UTF16PtrFromString(fmt.Sprintf("-NoProfile -WindowStyle Hidden -Command \"%s\"", ps))

		if err := windows.ShellExecute(0, verb, exe, args, nil, windows.SW_HIDE); err != nil {
			return fmt.Errorf("launch elevated powershell: %w", err)
		}
		logger.Info("UAC elevation requested for firewall rule")
		return nil
	}

	if out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", ps).CombinedOutput(); err != nil {
		return fmt.Errorf("create firewall rule: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	logger.Info("Firewall rule created")
	return nil
}

func ruleMatches(netshOutput string, port int) bool {
	return strings.Contains(netshOutput, RuleName) &&
		strings.Contains(netshOutput, strconv.Itoa(port)) &&
		strings.Contains(netshOutput, "Allow")
}

func ruleScript(port int) string {
	return fmt.Sprintf(
		"Remove-NetFirewallRule -DisplayName '%s' -ErrorAction SilentlyContinue; New-NetFirewallRule -DisplayName '%s' -Direction Inbound -LocalPort %d -Protocol TCP -Action Allow -Profile Private,Domain",
		RuleName, RuleName, port,
	)
}
