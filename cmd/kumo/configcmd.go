package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/config"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/ui"
)

var configForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file without asking")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the settings file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long: `Print the settings after the environment and flags are applied. The
password is masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPrinter(cmd)
		if err != nil {
			return err
		}
		s, err := loadSettings()
		if err != nil {
			return err
		}
		if s.LoginPassword != "" {
			s.LoginPassword = "********"
		}
		if p.JSON() {
			return p.PrintJSON(s)
		}
		data, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		p.Println(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default settings file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	path, err := settingsPath()
	if err != nil {
		return err
	}

	force := configForce
	if _, err := os.Stat(path); err == nil && !force {
		if !ui.IsInteractive() {
			return fmt.Errorf("config file already exists: %s (use --force)", path)
		}
		if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Overwrite settings file", []string{
			path + " already exists",
			"Remembered routers and dashboard settings will be reset",
		}) {
			return nil
		}
		force = true
	}

	if configPath == "" {
		if _, err := config.CreateDefaultConfig(force); err != nil {
			return err
		}
	} else if err := config.NewSettings().SaveFile(path); err != nil {
		return err
	}

	p.PrintSuccess("Settings written", ui.Detail{Key: "Path", Value: path})
	return nil
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (not created yet)\n", path)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}
