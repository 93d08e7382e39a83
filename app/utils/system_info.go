package utils

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"time"
)

// HostIPAddress returns the primary outbound IP of this host. The UDP dial
// never sends a packet; it only resolves the local address the kernel would
// route from.
func HostIPAddress() string {
	conn, err := net.DialTimeout("udp", "8.8.8.8:80", 2*time.Second)
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

// OSInfo returns a short OS description for registration
func OSInfo() string {
	return fmt.Sprintf("%s %s", runtime.GOOS, runtime.GOARCH)
}

// Hostname returns the host name, falling back to a placeholder
func Hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown-host"
	}
	return name
}
