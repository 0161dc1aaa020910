// Package network provides local address discovery for the pairing endpoint.
package network

import (
	"net"
)

// Fallback is returned by PrimaryIPv4 when no usable address exists
const Fallback = "localhost"

// dialProbe finds the source address the OS would route external traffic from.
// No packets are sent for a UDP dial.
var dialProbe = func() (net.IP, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP, nil
}

// interfaceAddrs is replaced in tests
var interfaceAddrs = func() ([]net.Addr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var addrs []net.Addr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue // interface down
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue // loopback interface
		}
		a, err := iface.Addrs()
		if err != nil {
			continue
		}
		addrs = append(addrs, a...)
	}
	return addrs, nil
}

// GetLocalIPs returns all non-loopback local IPv4 addresses of interfaces that are up
func GetLocalIPs() ([]string, error) {
	addrs, err := interfaceAddrs()
	if err != nil {
		return nil, err
	}
	var ips []string
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		ip = ip.To4()
		if ip == nil {
			continue // not an ipv4 address
		}
		ips = append(ips, ip.String())
	}
	return ips, nil
}

// PrimaryIPv4 returns the address a phone on the LAN should use to reach this
// host. It prefers the default route source, then the first interface address,
// then Fallback.
func PrimaryIPv4() string {
	if ip, err := dialProbe(); err == nil {
		if v4 := ip.To4(); v4 != nil && !v4.IsLoopback() && !v4.IsUnspecified() {
			return v4.String()
		}
	}
	if ips, err := GetLocalIPs(); err == nil && len(ips) > 0 {
		return ips[0]
	}
	return Fallback
}
