package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
)

// Environment variables that override the settings file.
const (
	EnvAddress      = "KUMO_ADDRESS"
	EnvPassword     = "KUMO_PASSWORD"
	EnvMode         = "KUMO_MODE"
	EnvPollInterval = "KUMO_POLL_INTERVAL"
	EnvTimeout      = "KUMO_TIMEOUT"
)

// ApplyEnv overrides connection fields from the environment. Unset variables
// leave the file values in place.
func (s *Settings) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvAddress); ok {
		s.Connection.Address = v
	}
	if v, ok := os.LookupEnv(EnvPassword); ok {
		s.LoginPassword = v
	}
	if v, ok := os.LookupEnv(EnvMode); ok {
		mode, valid := ParseMode(v)
		if !valid {
			return fmt.Errorf("%s: unknown mode %q", EnvMode, v)
		}
		s.Mode = mode
	}
	if v, ok := os.LookupEnv(EnvPollInterval); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		s.Connection.PollInterval = d
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		s.Connection.Timeout = d
	}
	return nil
}

// Validate checks the settings before they are used to build a client.
func (s *Settings) Validate() error {
	var errs []error
	if _, ok := ParseMode(string(s.Mode)); !ok {
		errs = append(errs, fmt.Errorf("mode: unknown mode %q", s.Mode))
	}
	if s.Mode == ModeKumo && s.Connection.Address == "" {
		errs = append(errs, errors.New("connection.address: required in kumo mode"))
	}
	if s.Connection.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("connection.timeout: must be positive, got %s", s.Connection.Timeout))
	}
	if s.Connection.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("connection.poll_interval: must be positive, got %s", s.Connection.PollInterval))
	}
	if s.Bridge.ResyncInterval < 0 {
		errs = append(errs, fmt.Errorf("bridge.resync_interval: must not be negative, got %s", s.Bridge.ResyncInterval))
	}
	if s.Bridge.CommandRate < 0 {
		errs = append(errs, fmt.Errorf("bridge.command_rate: must not be negative, got %v", s.Bridge.CommandRate))
	}
	return errors.Join(errs...)
}

// EngineConfig converts the settings to the engine's client configuration.
func (s *Settings) EngineConfig() kumo.Config {
	return kumo.Config{
		Address:             s.ResolveAddress(s.Connection.Address),
		Timeout:             s.Connection.Timeout,
		PollInterval:        s.Connection.PollInterval,
		Simulator:           s.Mode == ModeSimulator,
		SimulatorLoginDelay: kumo.DefaultSimulatorLoginDelay,
	}
}
