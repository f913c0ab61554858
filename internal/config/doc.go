// Package config manages the KUMO router settings file.
//
// Settings are stored as YAML and hold the engine mode (live router or
// simulator), the connection parameters, the dashboard preferences, the
// bridge listener and a list of remembered routers. Environment variables
// override the file for the connection fields, so containers and scripts can
// run without one.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/kumo-router/config.yaml or $HOME/.config/kumo-router/config.yaml
//   - macOS: $HOME/.config/kumo-router/config.yaml
//   - Windows: %LOCALAPPDATA%\kumo-router\config.yaml
//
// # Environment Overrides
//
//	KUMO_ADDRESS        connection.address
//	KUMO_PASSWORD       login_password
//	KUMO_MODE           mode (kumo or simulator)
//	KUMO_POLL_INTERVAL  connection.poll_interval (Go duration, e.g. 500ms)
//	KUMO_TIMEOUT        connection.timeout
//
// # Security
//
// login_password is optional. When it is set the file is still written with
// 0600 permissions; leave it empty to be prompted instead.
//
// # Usage Example
//
//	settings, err := config.LoadSettings()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := settings.ApplyEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	client := kumo.NewFromConfig(settings.EngineConfig())
//
// # Thread Safety
//
// The global settings use sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
