// Package discovery locates KUMO routers on the local network over mDNS.
//
// KUMO routers announce their web interface as a plain "_http._tcp" service,
// so the scanner browses that type and keeps entries whose instance name or
// hostname contains "kumo" (any case). Each match becomes a Router carrying
// the address in the form the session layer accepts.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 5 * time.Second
//	routers, err := scanner.Scan(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range routers {
//	    fmt.Println(r.Instance, r.Address())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Routers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
