package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/discovery"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/state"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/ui"
)

// Command flags
var (
	scanTimeout  time.Duration
	scanRemember bool
	labelType    string
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(identifyCmd)
}

// scanCmd discovers routers on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for KUMO routers on the network",
	Long: `Scan for KUMO routers using mDNS/DNS-SD discovery.

Lists every router that answered with its address and host name. With
--remember, each one is saved in the settings file under its mDNS name so
it can be used as an --address nickname later.`,
	Example: `  # Scan for 10 seconds (default)
  kumo scan

  # Quick scan and remember what answers
  kumo scan --timeout 3s --remember`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for answers")
	scanCmd.Flags().BoolVar(&scanRemember, "remember", false, "Save found routers in the settings file")
}

func runScan(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	p.PrintHeader("Scan", "kumo scan", ui.Detail{Key: "Timeout", Value: scanTimeout.String()})
	p.PrintPleaseWait("Browsing mDNS for KUMO routers", "up to "+scanTimeout.String())

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout
	routers, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if scanRemember && len(routers) > 0 {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		for _, r := range routers {
			s.RememberRouter(r.Instance, r.Address(), r.GetMetadata("serial"))
		}
		path, err := settingsPath()
		if err != nil {
			return err
		}
		if err := s.SaveFile(path); err != nil {
			return err
		}
	}

	type scanResult struct {
		Name     string `json:"name"`
		Address  string `json:"address"`
		Hostname string `json:"hostname"`
	}
	results := make([]scanResult, len(routers))
	rows := make([][]string, len(routers))
	for i, r := range routers {
		results[i] = scanResult{Name: r.Instance, Address: r.Address(), Hostname: r.Hostname}
		rows[i] = []string{strconv.Itoa(i + 1), r.Instance, r.Address(), r.Hostname}
	}

	return p.Emit(results, func() {
		p.Newline()
		if len(routers) == 0 {
			p.PrintWarning("No routers found",
				ui.Detail{Key: "Hint", Value: "Check the router is on this network"},
				ui.Detail{Key: "Hint", Value: "Some networks block mDNS; use --address"},
			)
			return
		}
		p.Println(ui.RenderTable([]string{"#", "Name", "Address", "Host"}, rows, nil))
		if scanRemember {
			p.Println("Routers saved; use their names with --address.")
		}
	})
}

// infoCmd shows router identity and network settings
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show router information",
	Long: `Show the router's identity, firmware, network settings and temperature.`,
	Example: `  kumo info --address 192.168.1.50
  kumo info --simulator --format json`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var info kumo.Info
	err = runSteps(p, "Router Info", "kumo info", routerLabel(s),
		[]string{"Logging in", "Reading device information"},
		func(onStep ui.StepCallback) ([]ui.Detail, error) {
			client, err := connectStep(ctx, s, onStep)
			if err != nil {
				return nil, err
			}
			onStep(2, ui.StepRunning, "")
			info = client.ReadInfo(ctx)
			onStep(2, ui.StepComplete, "")

			return []ui.Detail{
				{Key: "Name", Value: info.SysName},
				{Key: "Product", Value: info.ProductID},
				{Key: "Serial", Value: info.SerialNumber},
				{Key: "Firmware", Value: info.SWVersion},
				{Key: "MAC", Value: info.MACAddress},
				{Key: "IP config", Value: info.IPConfig},
				{Key: "IP address", Value: info.IPAddress},
				{Key: "Subnet mask", Value: info.SubnetMask},
				{Key: "Gateway", Value: info.DefaultGateway},
				{Key: "Ports", Value: strconv.Itoa(info.PortCount)},
				{Key: "Temperature", Value: info.Temperature + "°C"},
			}, nil
		})
	if err != nil {
		return err
	}
	if p.JSON() {
		return p.PrintJSON(info)
	}
	return nil
}

// matrixCmd prints the full routing state
var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show the routing matrix",
	Long: `Read the full router state and print one row per destination: its
label, the source feeding it, and whether it is locked.`,
	Example: `  kumo matrix
  kumo matrix --format json`,
	Args: cobra.NoArgs,
	RunE: runMatrix,
}

func runMatrix(cmd *cobra.Command, args []string) error {
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
	mirror := state.NewMirror(client.Address())
	mirror.Load(ctx, client)
	snap := mirror.Snapshot()

	return p.Emit(snap, func() {
		p.PrintHeader("Routing Matrix", "kumo matrix",
			ui.Detail{Key: "Router", Value: snap.Address},
			ui.Detail{Key: "Ports", Value: fmt.Sprintf("%d×%d", snap.PortCount, snap.PortCount)},
		)
		p.Println(renderMatrix(snap, s.UI.JoinLabel))
	})
}

// renderMatrix renders one table row per destination. Locked rows are dimmed.
func renderMatrix(snap state.Snapshot, join func(line1, line2 string) string) string {
	rows := make([][]string, len(snap.Destinations))
	for i, d := range snap.Destinations {
		src, srcLabel := "–", ""
		if d.Source > 0 {
			src = strconv.Itoa(d.Source)
			if d.Source <= len(snap.Sources) {
				s := snap.Sources[d.Source-1]
				srcLabel = join(s.Line1, s.Line2)
			}
		}
		locked := ""
		if d.Locked {
			locked = ui.MarkerLocked
		}
		rows[i] = []string{strconv.Itoa(d.Num), join(d.Line1, d.Line2), src, srcLabel, locked}
	}
	return ui.RenderTable(
		[]string{"Dest", "Label", "Source", "Source label", "Lock"},
		rows,
		func(row int) bool { return row >= 0 && row < len(snap.Destinations) && snap.Destinations[row].Locked },
	)
}

// routeCmd changes one crosspoint
var routeCmd = &cobra.Command{
	Use:   "route <destination> <source>",
	Short: "Route a source to a destination",
	Long: `Route a source to a destination. Locked destinations are refused;
unlock them first with 'kumo unlock'.`,
	Example: `  # Feed destination 3 from source 1
  kumo route 3 1`,
	Args: cobra.ExactArgs(2),
	RunE: runRoute,
}

// errDestinationLocked is returned when routing to a locked destination.
var errDestinationLocked = errors.New("destination is locked")

func runRoute(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	type routeResult struct {
		Destination int `json:"destination"`
		Source      int `json:"source"`
	}
	var result routeResult

	err = runSteps(p, "Route", "kumo route "+strings.Join(args, " "), routerLabel(s),
		[]string{"Logging in", "Checking lock", "Routing"},
		func(onStep ui.StepCallback) ([]ui.Detail, error) {
			client, err := connectStep(ctx, s, onStep)
			if err != nil {
				return nil, err
			}
			dest, err := parsePort(args[0], "destination", client.PortCount())
			if err != nil {
				return nil, err
			}
			src, err := parsePort(args[1], "source", client.PortCount())
			if err != nil {
				return nil, err
			}

			onStep(2, ui.StepRunning, "")
			if client.IsLocked(ctx, dest) {
				onStep(2, ui.StepFailed, "locked")
				return nil, fmt.Errorf("%w: unlock destination %d first", errDestinationLocked, dest)
			}
			onStep(2, ui.StepComplete, "unlocked")

			onStep(3, ui.StepRunning, "")
			if err := client.Route(ctx, dest, src); err != nil {
				onStep(3, ui.StepFailed, "")
				return nil, err
			}
			onStep(3, ui.StepComplete, "")

			result = routeResult{Destination: dest, Source: src}
			return []ui.Detail{
				{Key: "Destination", Value: args[0]},
				{Key: "Source", Value: args[1]},
			}, nil
		})
	if err != nil {
		return err
	}
	if p.JSON() {
		return p.PrintJSON(result)
	}
	return nil
}

var lockCmd = &cobra.Command{
	Use:     "lock <destination>",
	Short:   "Lock a destination",
	Example: `  kumo lock 2`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLock(cmd, args[0], true)
	},
}

var unlockCmd = &cobra.Command{
	Use:     "unlock <destination>",
	Short:   "Unlock a destination",
	Example: `  kumo unlock 2`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLock(cmd, args[0], false)
	},
}

func runLock(cmd *cobra.Command, arg string, locked bool) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	title, verb := "Unlock", "unlock"
	if locked {
		title, verb = "Lock", "lock"
	}

	dest := 0
	err = runSteps(p, title, "kumo "+verb+" "+arg, routerLabel(s),
		[]string{"Logging in", title + "ing destination"},
		func(onStep ui.StepCallback) ([]ui.Detail, error) {
			client, err := connectStep(ctx, s, onStep)
			if err != nil {
				return nil, err
			}
			dest, err = parsePort(arg, "destination", client.PortCount())
			if err != nil {
				return nil, err
			}
			onStep(2, ui.StepRunning, "")
			if err := client.Lock(ctx, dest, locked); err != nil {
				onStep(2, ui.StepFailed, "")
				return nil, err
			}
			onStep(2, ui.StepComplete, "")
			return []ui.Detail{{Key: "Destination", Value: arg}}, nil
		})
	if err != nil {
		return err
	}
	if p.JSON() {
		return p.PrintJSON(kumo.PortLock{PortNum: dest, IsLocked: locked})
	}
	return nil
}

// labelCmd groups the label subcommands
var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Read or change port labels",
}

var labelGetCmd = &cobra.Command{
	Use:   "get [port]",
	Short: "Show port labels",
	Example: `  # All source and destination labels
  kumo label get

  # Destination 3 only
  kumo label get 3 --type destination`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLabelGet,
}

var labelSetCmd = &cobra.Command{
	Use:   "set <source|destination> <port> <text>",
	Short: "Change a port label",
	Long: `Change both label lines of a port. The settings splitter (default
"##") separates line 1 from line 2; text without it clears line 2.`,
	Example: `  kumo label set destination 3 "Monitor##Studio A"
  kumo label set source 1 CAM1`,
	Args: cobra.ExactArgs(3),
	RunE: runLabelSet,
}

func init() {
	labelCmd.AddCommand(labelGetCmd)
	labelCmd.AddCommand(labelSetCmd)
	labelGetCmd.Flags().StringVar(&labelType, "type", "", "Only this port type (source, destination)")
}

func parsePortType(s string) (kumo.PortType, error) {
	var pt kumo.PortType
	err := pt.UnmarshalText([]byte(s))
	return pt, err
}

func runLabelGet(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	types := []kumo.PortType{kumo.Source, kumo.Destination}
	if labelType != "" {
		pt, err := parsePortType(labelType)
		if err != nil {
			return err
		}
		types = []kumo.PortType{pt}
	}

	client, err := connect(ctx, s)
	if err != nil {
		return err
	}

	ports := make([]int, 0, client.PortCount())
	if len(args) == 1 {
		port, err := parsePort(args[0], "port", client.PortCount())
		if err != nil {
			return err
		}
		ports = append(ports, port)
	} else {
		for i := 1; i <= client.PortCount(); i++ {
			ports = append(ports, i)
		}
	}

	var labels []kumo.PortText
	for _, pt := range types {
		for _, port := range ports {
			labels = append(labels, kumo.PortText{
				PortType: pt,
				PortNum:  port,
				Line1:    client.Label(ctx, pt, port, 1),
				Line2:    client.Label(ctx, pt, port, 2),
			})
		}
	}

	return p.Emit(labels, func() {
		rows := make([][]string, len(labels))
		for i, l := range labels {
			rows[i] = []string{l.PortType.String(), strconv.Itoa(l.PortNum), l.Line1, l.Line2}
		}
		p.Println(ui.RenderTable([]string{"Type", "Port", "Line 1", "Line 2"}, rows, nil))
	})
}

func runLabelSet(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	pt, err := parsePortType(args[0])
	if err != nil {
		return err
	}
	line1, line2 := s.UI.SplitLabel(args[2])
	label := kumo.PortText{PortType: pt}
	label.SetLine1(line1)
	label.SetLine2(line2)

	err = runSteps(p, "Label", "kumo label set "+strings.Join(args, " "), routerLabel(s),
		[]string{"Logging in", "Writing line 1", "Writing line 2"},
		func(onStep ui.StepCallback) ([]ui.Detail, error) {
			client, err := connectStep(ctx, s, onStep)
			if err != nil {
				return nil, err
			}
			label.PortNum, err = parsePort(args[1], "port", client.PortCount())
			if err != nil {
				return nil, err
			}
			for i, text := range []string{line1, line2} {
				step := i + 2
				onStep(step, ui.StepRunning, "")
				if err := client.TrySetLabel(ctx, pt, label.PortNum, i+1, text); err != nil {
					onStep(step, ui.StepFailed, "")
					return nil, err
				}
				onStep(step, ui.StepComplete, strconv.Quote(text))
			}
			return []ui.Detail{
				{Key: "Port", Value: fmt.Sprintf("%s %d", pt, label.PortNum)},
				{Key: "Line 1", Value: line1},
				{Key: "Line 2", Value: line2},
			}, nil
		})
	if err != nil {
		return err
	}
	if p.JSON() {
		return p.PrintJSON(label)
	}
	return nil
}

// identifyCmd blinks the front panel LEDs
var identifyCmd = &cobra.Command{
	Use:       "identify <on|off>",
	Short:     "Blink the router's front panel to find it in a rack",
	Example:   `  kumo identify on`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runIdentify,
}

func runIdentify(cmd *cobra.Command, args []string) error {
	var on bool
	switch strings.ToLower(args[0]) {
	case "on":
		on = true
	case "off":
	default:
		return fmt.Errorf("invalid argument %q: want on or off", args[0])
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
	value := "0"
	if on {
		value = "1"
	}
	if _, err := client.Sessions().TrySetCommand(ctx, kumo.ParamLEDIdentify, value); err != nil {
		p.PrintFailure("Identify failed", err, troubleshooting(err))
		return err
	}

	blinking := client.LEDIdentify(ctx)
	return p.Emit(map[string]bool{"identify": blinking}, func() {
		p.PrintSuccess("Identify "+args[0], ui.Detail{Key: "Router", Value: client.Address()})
	})
}
