package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
)

const (
	// ServiceType is the mDNS service type KUMO routers advertise their web UI under
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for router discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default HTTP port for KUMO routers
	DefaultPort = 80

	routerMarker = "kumo"
)

// Scanner handles mDNS router discovery
type Scanner struct {
	// Timeout is the maximum time to wait for router discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers KUMO routers on the local network until the timeout or ctx
// ends. Routers advertising more than once are reported once, keyed by address.
func (s *Scanner) Scan(ctx context.Context) ([]*Router, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu      sync.Mutex
		routers []*Router
		seen    = make(map[string]bool)
	)
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				router := parseServiceEntry(entry)
				if router == nil {
					continue
				}
				mu.Lock()
				if !seen[router.Address()] {
					seen[router.Address()] = true
					routers = append(routers, router)
					logging.Debug("Router discovered", zap.String("router", router.String()))
				}
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-collected

	mu.Lock()
	defer mu.Unlock()
	return routers, nil
}

// Find waits for a router whose instance name or hostname contains name,
// case-insensitively.
func (s *Scanner) Find(ctx context.Context, name string) (*Router, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Router, 1)
	needle := strings.ToLower(name)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				router := parseServiceEntry(entry)
				if router == nil {
					continue
				}
				if strings.Contains(strings.ToLower(router.Instance), needle) ||
					strings.Contains(strings.ToLower(router.Hostname), needle) {
					found <- router
					cancel()
					return
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case router := <-found:
		return router, nil
	case <-ctx.Done():
		select {
		case router := <-found:
			return router, nil
		default:
		}
		return nil, fmt.Errorf("router %q not found within timeout", name)
	}
}

// isRouter reports whether an mDNS entry belongs to a KUMO router. The
// routers advertise a generic HTTP service, so the instance and host names
// are the only distinguishing marks.
func isRouter(entry *zeroconf.ServiceEntry) bool {
	return strings.Contains(strings.ToLower(entry.Instance), routerMarker) ||
		strings.Contains(strings.ToLower(entry.HostName), routerMarker)
}

// parseServiceEntry converts a zeroconf service entry to a Router.
// Returns nil if the entry is not a KUMO router or has no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Router {
	if entry == nil || !isRouter(entry) {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string, len(entry.Text))
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Router{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// QuickScan performs a fast scan with a 3-second timeout
func QuickScan(ctx context.Context) ([]*Router, error) {
	scanner := NewScanner()
	scanner.Timeout = 3 * time.Second
	return scanner.Scan(ctx)
}
