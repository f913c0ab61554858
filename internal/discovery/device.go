package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Router represents a KUMO router found on the network
type Router struct {
	// Instance is the mDNS service instance name (e.g., "KUMO 1604 Studio A")
	Instance string

	// Hostname is the mDNS hostname (e.g., "kumo-1604-a.local.")
	Hostname string

	// IP is the preferred address, IPv4 when the router advertises one
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the router was first seen in this scan
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the router
func (r *Router) String() string {
	return fmt.Sprintf("KUMO %s (%s) at %s", r.Instance, r.Hostname, r.Address())
}

// Address returns host or host:port, the form expected by the session layer.
// The port is omitted when it is the default HTTP port.
func (r *Router) Address() string {
	if r.Port == 0 || r.Port == DefaultPort {
		if ip := net.ParseIP(r.IP); ip != nil && ip.To4() == nil {
			return "[" + r.IP + "]"
		}
		return r.IP
	}
	return net.JoinHostPort(r.IP, strconv.Itoa(r.Port))
}

// BaseURL returns the HTTP base URL for the router
func (r *Router) BaseURL() string {
	return "http://" + r.Address()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (r *Router) GetMetadata(key string) string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}
