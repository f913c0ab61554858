package kumo

import "context"

// DeviceSession is the router capability the engine runs on. HTTPSession talks
// to a real router; SimulatedSession answers from memory. Both report changes
// through WaitForEvents, so the poll loop and the classifier behave the same
// against either.
//
// The cookie argument is the token returned by Login ("" when the router has
// authentication disabled). Implementations attach it to every request.
type DeviceSession interface {
	// Login posts the password and returns the session cookie.
	// A rejected login returns an auth error.
	Login(ctx context.Context, password string) (string, error)

	// Get reads one parameter.
	Get(ctx context.Context, cookie, paramID string) (ParamValue, error)

	// Set writes one parameter and returns the router's response body.
	Set(ctx context.Context, cookie, paramID, value string) (string, error)

	// Connect acquires a connection id for the long-poll.
	Connect(ctx context.Context, cookie string) (int, error)

	// WaitForEvents blocks until the router reports parameter changes for
	// connectionID or its own wait elapses.
	WaitForEvents(ctx context.Context, cookie string, connectionID int) ([]ParameterEvent, error)

	// DeviceInfo returns the router's description string.
	DeviceInfo(ctx context.Context, cookie string) (string, error)

	// Address identifies the router in logs and metrics.
	Address() string
}
