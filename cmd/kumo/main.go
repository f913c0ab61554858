// Kumo is a command line controller for AJA KUMO video routers.
//
// It discovers routers with mDNS, reads and changes crosspoints, labels and
// locks, streams change notifications, and runs a full-screen routing
// dashboard.
//
// Usage:
//
//	kumo [command] [flags]
//
// Running without arguments launches the dashboard.
// See 'kumo --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath   string
	address      string
	password     string
	simulator    bool
	timeout      time.Duration
	logLevel     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "kumo",
	Short: "AJA KUMO Router Controller",
	Long: `A command line controller for AJA KUMO video routers.

Reads and changes the routing matrix, port labels and destination locks,
streams live change notifications, and runs a full-screen dashboard.

The router address comes from --address, KUMO_ADDRESS or the settings file,
in that order. A remembered router nickname works wherever an address does.
Without any address, routers are discovered with mDNS.

If no command is specified, the dashboard launches.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless asked, so curated output stays readable.
		if logLevel == "" {
			return logging.InitializeFromEnv()
		}
		return logging.Initialize(logLevel)
	},
	RunE: runDash,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Settings file (default: per-user config directory)")
	flags.StringVarP(&address, "address", "a", "", "Router address or remembered nickname")
	flags.StringVarP(&password, "password", "p", "", "Router password (prompted when login fails)")
	flags.BoolVar(&simulator, "simulator", false, "Use the built-in 4x4 simulated router")
	flags.DurationVar(&timeout, "timeout", 0, "Per-request timeout (default from settings)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
	flags.StringVar(&outputFormat, "format", "text", "Output format (text, json)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "kumo %s\n", version.Full())
	},
}
