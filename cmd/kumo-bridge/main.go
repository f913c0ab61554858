// Kumo-bridge serves one AJA KUMO router over HTTP and websockets.
//
// It logs in to the router, keeps a live mirror of its state from the poll
// loop, pushes every change to websocket clients, and accepts route, lock and
// label commands over a small JSON API. Prometheus metrics are served on
// /metrics.
//
// Usage:
//
//	kumo-bridge server [flags]
//
// See 'kumo-bridge server --help' for available options.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/config"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/server"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kumo-bridge",
	Short: "KUMO Router HTTP/WebSocket Bridge",
	Long: `A bridge that serves one AJA KUMO router to browsers and automation.

Clients read the mirrored router state over HTTP, receive every change as it
happens over a websocket, and send route, lock and label commands as JSON.

For one-off commands and the terminal dashboard, use the separate 'kumo' tool.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// Server command flags
var (
	configPath     string
	listen         string
	certPath       string
	keyPath        string
	address        string
	password       string
	simulator      bool
	logLevel       string
	allowedOrigins []string
	commandRate    float64
	commandBurst   int
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the bridge",
	Long: `Log in to the router and start serving.

Settings come from the settings file, then KUMO_* environment variables, then
these flags. HTTPS is served when both --cert and --key are given.

Endpoints:
  GET  /api/state    full router state
  POST /api/route    {"destination": 3, "source": 1}
  POST /api/lock     {"destination": 3, "locked": true}
  POST /api/label    {"type": "source", "port": 1, "line": 1, "text": "CAM1"}
  POST /api/poll     run one poll cycle now
  GET  /ws           snapshot, then one message per change
  GET  /healthz      connectivity and poll status
  GET  /metrics      Prometheus metrics`,
	Example: `  # Serve the router named in the settings file
  kumo-bridge server

  # Serve a specific router on port 9000
  kumo-bridge server --address 192.168.1.50 --listen :9000

  # Try it without hardware
  kumo-bridge server --simulator --log-level debug

  # HTTPS with a browser app on another origin
  kumo-bridge server --cert cert.pem --key key.pem --allow-origin https://panel.example.com`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	f := serverCmd.Flags()
	f.StringVar(&configPath, "config", "", "Settings file (default: per-user config directory)")
	f.StringVar(&listen, "listen", "", "Listen address (default from settings, :8080)")
	f.StringVar(&certPath, "cert", "", "Path to TLS certificate file")
	f.StringVar(&keyPath, "key", "", "Path to TLS private key file")
	f.StringVarP(&address, "address", "a", "", "Router address or remembered nickname")
	f.StringVarP(&password, "password", "p", "", "Router password")
	f.BoolVar(&simulator, "simulator", false, "Serve the built-in 4x4 simulated router")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	f.StringSliceVar(&allowedOrigins, "allow-origin", nil, "Extra websocket origins to accept (\"*\" for any)")
	f.Float64Var(&commandRate, "command-rate", -1, "Commands per second per client, 0 for unlimited (default from settings)")
	f.IntVar(&commandBurst, "command-burst", 0, "Command burst per client (default from settings)")
}

func loadSettings() (*config.Settings, error) {
	var (
		s   *config.Settings
		err error
	)
	if configPath != "" {
		s, err = config.LoadFile(configPath)
	} else {
		s, err = config.LoadSettings()
	}
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
	if listen != "" {
		s.Bridge.Listen = listen
	}
	if commandRate >= 0 {
		s.Bridge.CommandRate = commandRate
	}
	if commandBurst > 0 {
		s.Bridge.CommandBurst = commandBurst
	}
	return s, s.Validate()
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	if (certPath == "") != (keyPath == "") {
		return errors.New("both --cert and --key must be provided together, or neither")
	}
	for _, p := range []string{certPath, keyPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	s, err := loadSettings()
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	ctx := cmd.Context()
	client := kumo.NewFromConfig(s.EngineConfig())
	if !client.Login(ctx, s.LoginPassword) {
		return fmt.Errorf("login to %s failed", client.Address())
	}
	logging.Info("Logged in",
		zap.String("router", client.Address()),
		zap.Int("port_count", client.PortCount()),
	)

	srv, err := server.New(&server.Config{
		Listen:         s.Bridge.Listen,
		CertPath:       certPath,
		KeyPath:        keyPath,
		CommandRate:    s.Bridge.CommandRate,
		CommandBurst:   s.Bridge.CommandBurst,
		AllowedOrigins: allowedOrigins,
		ResyncInterval: s.Bridge.ResyncInterval,
	}, client)
	if err != nil {
		return fmt.Errorf("failed to create bridge: %w", err)
	}

	return srv.Start(ctx)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kumo-bridge %s\n", version.Full())
	},
}
