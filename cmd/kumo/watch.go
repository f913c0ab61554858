package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/tui"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/ui"
)

var watchKinds []string

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dashCmd)
	watchCmd.Flags().StringSliceVar(&watchKinds, "kinds", nil,
		"Only these notification kinds (matrix, temperature, text, color, lock, topology_reset, connectivity)")
}

// watchCmd streams change notifications
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream router changes as they happen",
	Long: `Log in, start polling and print every change the router reports until
interrupted. With --format json each notification is one JSON object per
line.`,
	Example: `  kumo watch
  kumo watch --kinds matrix,lock --format json`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func parseKinds(names []string) ([]kumo.NotificationKind, error) {
	known := make(map[kumo.NotificationKind]bool, len(kumo.AllKinds))
	for _, k := range kumo.AllKinds {
		known[k] = true
	}
	kinds := make([]kumo.NotificationKind, 0, len(names))
	for _, name := range names {
		k := kumo.NotificationKind(strings.ToLower(strings.TrimSpace(name)))
		if !known[k] {
			return nil, fmt.Errorf("unknown notification kind %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	kinds, err := parseKinds(watchKinds)
	if err != nil {
		return err
	}
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	client, err := connect(ctx, s)
	if err != nil {
		return err
	}

	p.PrintHeader("Watch", "kumo watch",
		ui.Detail{Key: "Router", Value: client.Address()},
		ui.Detail{Key: "Interval", Value: s.Connection.PollInterval.String()},
	)

	// Handlers run on the poll goroutine; hand off so printing never stalls it.
	notifications := make(chan kumo.Notification, 64)
	id := client.Subscribe(func(n kumo.Notification) {
		select {
		case notifications <- n:
		default:
		}
	}, kinds...)
	defer client.Unsubscribe(id)

	client.StartPolling(ctx)
	defer client.StopPolling()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-notifications:
			if p.JSON() {
				if err := p.PrintJSON(n); err != nil {
					return err
				}
				continue
			}
			writeNotification(p.Writer(), time.Now(), n)
		}
	}
}

// writeNotification prints one notification as a single human-readable line.
func writeNotification(w io.Writer, at time.Time, n kumo.Notification) {
	var b strings.Builder
	switch n.Kind {
	case kumo.KindMatrix:
		parts := make([]string, 0, len(n.Matrix))
		for _, src := range n.Matrix.Sources() {
			dests := make([]string, len(n.Matrix[src]))
			for i, d := range n.Matrix[src] {
				dests[i] = strconv.Itoa(d)
			}
			parts = append(parts, fmt.Sprintf("source %d → %s", src, strings.Join(dests, ",")))
		}
		b.WriteString(strings.Join(parts, "; "))
	case kumo.KindTemperature:
		fmt.Fprintf(&b, "%d°C", n.Temperature)
	case kumo.KindText:
		parts := make([]string, 0, len(n.Texts))
		for _, t := range n.Texts {
			if t.Line1Changed {
				parts = append(parts, fmt.Sprintf("%s %d line 1 = %q", t.PortType, t.PortNum, t.Line1))
			}
			if t.Line2Changed {
				parts = append(parts, fmt.Sprintf("%s %d line 2 = %q", t.PortType, t.PortNum, t.Line2))
			}
		}
		b.WriteString(strings.Join(parts, "; "))
	case kumo.KindColor:
		parts := make([]string, len(n.Colors))
		for i, c := range n.Colors {
			parts[i] = fmt.Sprintf("%s %d %s", c.PortType, c.PortNum, c.ColorHex)
		}
		b.WriteString(strings.Join(parts, "; "))
	case kumo.KindLock:
		parts := make([]string, len(n.Locks))
		for i, l := range n.Locks {
			verb := "unlocked"
			if l.IsLocked {
				verb = "locked"
			}
			parts[i] = fmt.Sprintf("destination %d %s", l.PortNum, verb)
		}
		b.WriteString(strings.Join(parts, "; "))
	case kumo.KindTopologyReset:
		fmt.Fprintf(&b, "signal switching changed, %d ports", n.PortCount)
	case kumo.KindConnectivity:
		if n.Connected {
			b.WriteString("router reachable")
		} else {
			b.WriteString("router unreachable")
		}
	}
	fmt.Fprintf(w, "%s  %-14s %s\n", at.Format("15:04:05"), n.Kind, b.String())
}

// dashCmd launches the full-screen dashboard
var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Launch the full-screen routing dashboard",
	Long: `Launch the full-screen routing dashboard.

Without a router address, the dashboard starts with mDNS discovery.`,
	Example: `  kumo dash --address studio
  kumo --simulator`,
	Args: cobra.NoArgs,
	RunE: runDash,
}

func runDash(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	// An empty address is fine here: the dashboard starts with discovery.
	check := *s
	if check.Connection.Address == "" {
		check.Connection.Address = "discover"
	}
	if err := check.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	cfg := s.EngineConfig()
	return tui.Run(cmd.Context(), tui.Options{
		Engine:   cfg,
		Password: s.LoginPassword,
		UI:       s.UI,
	})
}
