// Package logging provides structured logging for the KUMO router tools.
//
// This package wraps a package-level zap logger with convenience functions.
// Every other package logs through it, so the CLI, the dashboard and the
// bridge share one configuration.
//
// # Log Levels
//
//   - Debug: device requests and response bodies, long-poll batches
//   - Info: connectivity transitions, poll loop start and stop, bridge clients
//   - Warn: malformed parameter events, rejected commands
//   - Error: non-OK device responses, failed cycles
//
// # Configuration
//
// Logging is silent unless a level is given, either explicitly or through
// the KUMO_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr in console format so that command output on stdout
// (for example `kumo matrix --format json`) stays machine readable.
//
// # Domain Helpers
//
//	logging.LogRequest("GetCommand", "/config?action=get&paramid=eParamID_SysName")
//	logging.LogResponse("GetCommand", 200, body)
//	logging.LogConnectivity("192.168.1.50", true)
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and
// SetLogger are meant to be called once at startup.
package logging
