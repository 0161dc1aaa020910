package network

import (
	"errors"
	"net"
	"testing"
)

func stubDiscovery(t *testing.T, probe func() (net.IP, error), addrs []net.Addr) {
	t.Helper()
	oldProbe, oldAddrs := dialProbe, interfaceAddrs
	dialProbe = probe
	interfaceAddrs = func() ([]net.Addr, error) { return addrs, nil }
	t.Cleanup(func() {
		dialProbe, interfaceAddrs = oldProbe, oldAddrs
	})
}

func noRoute() (net.IP, error) { return nil, errors.New("network unreachable") }

// TestGetLocalIPsFiltersAddresses tests that only IPv4 non-loopback addresses are returned
func TestGetLocalIPsFiltersAddresses(t *testing.T) {
	stubDiscovery(t, noRoute, []net.Addr{
		&net.IPNet{IP: net.ParseIP("127.0.0.1")},
		&net.IPNet{IP: net.ParseIP("fe80::1")},
		&net.IPNet{IP: net.ParseIP("192.168.1.20")},
		&net.IPAddr{IP: net.ParseIP("10.0.0.5")},
	})

	ips, err := GetLocalIPs()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(ips) != 2 || ips[0] != "192.168.1.20" || ips[1] != "10.0.0.5" {
		t.Errorf("Expected [192.168.1.20 10.0.0.5], got %v", ips)
	}
}

// TestPrimaryIPv4PrefersRoute tests the default route source
func TestPrimaryIPv4PrefersRoute(t *testing.T) {
	stubDiscovery(t, func() (net.IP, error) { return net.ParseIP("192.168.1.30"), nil },
		[]net.Addr{&net.IPNet{IP: net.ParseIP("10.0.0.5")}})

	if ip := PrimaryIPv4(); ip != "192.168.1.30" {
		t.Errorf("Expected 192.168.1.30, got %s", ip)
	}
}

// TestPrimaryIPv4FallsBackToInterface tests the offline case
func TestPrimaryIPv4FallsBackToInterface(t *testing.T) {
	stubDiscovery(t, noRoute, []net.Addr{&net.IPNet{IP: net.ParseIP("10.0.0.5")}})

	if ip := PrimaryIPv4(); ip != "10.0.0.5" {
		t.Errorf("Expected 10.0.0.5, got %s", ip)
	}
}

// TestPrimaryIPv4FallsBackToLocalhost tests a host with no usable address
func TestPrimaryIPv4FallsBackToLocalhost(t *testing.T) {
	stubDiscovery(t, noRoute, nil)

	if ip := PrimaryIPv4(); ip != Fallback {
		t.Errorf("Expected %s, got %s", Fallback, ip)
	}
}
