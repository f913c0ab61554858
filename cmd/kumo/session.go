package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/config"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/discovery"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/ui"
)

// settingsPath returns --config or the default settings location.
func settingsPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

// loadSettings reads the settings file, then applies the environment and the
// global flags on top, in that order.
func loadSettings() (*config.Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, err
	}
	s, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyEnv(); err != nil {
		return nil, err
	}

	if address != "" {
		s.Connection.Address = address
	}
	if password != "" {
		s.LoginPassword = password
	}
	if simulator {
		s.Mode = config.ModeSimulator
	}
	if timeout > 0 {
		s.Connection.Timeout = timeout
	}
	return s, nil
}

func newPrinter(cmd *cobra.Command) (*ui.Printer, error) {
	format, err := ui.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return ui.NewPrinter(cmd.OutOrStdout(), format), nil
}

// resolveAddress fills in the router address by mDNS when none is configured.
// Exactly one router must answer.
func resolveAddress(ctx context.Context, s *config.Settings) error {
	if s.Mode == config.ModeSimulator || s.Connection.Address != "" {
		return nil
	}

	logging.Info("No router address configured, scanning")
	routers, err := discovery.QuickScan(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	switch len(routers) {
	case 0:
		return errors.New("no routers found; use --address to name one")
	case 1:
		s.Connection.Address = routers[0].Address()
		logging.Info("Found router", zap.String("address", s.Connection.Address))
		return nil
	default:
		return fmt.Errorf("%d routers found; use --address to pick one (see 'kumo scan')", len(routers))
	}
}

// engineConfig validates the settings and converts them for the client.
func engineConfig(ctx context.Context, s *config.Settings) (kumo.Config, error) {
	if err := resolveAddress(ctx, s); err != nil {
		return kumo.Config{}, err
	}
	if err := s.Validate(); err != nil {
		return kumo.Config{}, fmt.Errorf("invalid settings: %w", err)
	}
	cfg := s.EngineConfig()
	if s.Mode == config.ModeSimulator {
		// No point waiting for a login round-trip that does not exist.
		cfg.SimulatorLoginDelay = 0
	}
	return cfg, nil
}

// connect builds a client and logs in. When login fails on a terminal without
// a password given, the password is prompted for once.
func connect(ctx context.Context, s *config.Settings) (*kumo.Client, error) {
	cfg, err := engineConfig(ctx, s)
	if err != nil {
		return nil, err
	}

	client := kumo.NewFromConfig(cfg)
	if client.Login(ctx, s.LoginPassword) {
		return client, nil
	}

	if s.LoginPassword == "" && ui.IsInteractive() {
		pw, err := ui.ReadPassword(fmt.Sprintf("Password for %s: ", client.Address()))
		if err != nil {
			return nil, err
		}
		if client.Login(ctx, pw) {
			return client, nil
		}
	}
	return nil, fmt.Errorf("login to %s failed", client.Address())
}

// parsePort parses a 1-based port argument and checks it against the router.
func parsePort(arg, what string, portCount int) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: not a number", what, arg)
	}
	if n < 1 || (portCount > 0 && n > portCount) {
		return 0, fmt.Errorf("%s %d out of range 1..%d", what, n, portCount)
	}
	return n, nil
}

// troubleshooting turns an engine error into hints for a failure box.
func troubleshooting(err error) []string {
	var tips []string
	if hint := kumo.GetTroubleshootingHint(err); hint != "" {
		tips = append(tips, hint)
	}
	return append(tips,
		"Check the router address with 'kumo scan'",
		"Run with --log-level debug for request logs",
	)
}

// runSteps wraps op in a Runner in text mode and runs it bare in JSON mode.
func runSteps(p *ui.Printer, title, command, router string, steps []string, op ui.Operation) error {
	if p.JSON() {
		_, err := op(func(int, ui.StepStatus, string) {})
		return err
	}
	r := ui.NewRunner(ui.RunnerConfig{
		Title:           title,
		Command:         command,
		Params:          []ui.Detail{{Key: "Router", Value: router}},
		StepNames:       steps,
		Troubleshooting: troubleshooting,
		Output:          p.Writer(),
		Width:           p.Width(),
	})
	return r.Run(op)
}

// routerLabel names the router for headers before a client exists.
func routerLabel(s *config.Settings) string {
	if s.Mode == config.ModeSimulator {
		return kumo.SimulatorAddress
	}
	if s.Connection.Address == "" {
		return "(discover)"
	}
	return s.ResolveAddress(s.Connection.Address)
}

// connectStep logs in as step 1 of a Runner.
func connectStep(ctx context.Context, s *config.Settings, onStep ui.StepCallback) (*kumo.Client, error) {
	onStep(1, ui.StepRunning, "")
	start := time.Now()
	client, err := connect(ctx, s)
	if err != nil {
		onStep(1, ui.StepFailed, "")
		return nil, err
	}
	onStep(1, ui.StepComplete, fmt.Sprintf("%d ports, %s", client.PortCount(), time.Since(start).Round(time.Millisecond)))
	return client, nil
}
