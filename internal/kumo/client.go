package kumo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/metrics"
)

// Config selects and tunes the DeviceSession behind a Client.
type Config struct {
	// Address is the router host or URL. Ignored in simulator mode.
	Address string

	// Timeout bounds every HTTP request, the long-poll included.
	Timeout time.Duration

	// PollInterval is the pause between poll cycles.
	PollInterval time.Duration

	// Simulator selects the in-memory router.
	Simulator bool

	// SimulatorLoginDelay is how long a simulated login takes.
	SimulatorLoginDelay time.Duration
}

// Client ties a DeviceSession to its SessionManager, Registry and PollLoop.
// It is the entry point used by the CLI, the bridge and the dashboard.
type Client struct {
	device   DeviceSession
	sessions *SessionManager
	registry *Registry
	poller   *PollLoop
}

// New creates a Client over an existing DeviceSession.
func New(device DeviceSession, pollInterval time.Duration) *Client {
	c := &Client{
		device:   device,
		registry: NewRegistry(),
	}
	c.sessions = NewSessionManager(device, c.connectivityChanged)
	c.poller = NewPollLoop(c.sessions, c.registry, pollInterval)
	return c
}

// NewFromConfig creates a Client backed by an HTTPSession, or by a
// SimulatedSession when cfg.Simulator is set.
func NewFromConfig(cfg Config) *Client {
	var device DeviceSession
	if cfg.Simulator {
		device = NewSimulatedSession(cfg.SimulatorLoginDelay)
	} else {
		device = NewHTTPSession(cfg.Address, cfg.Timeout)
	}
	return New(device, cfg.PollInterval)
}

func (c *Client) connectivityChanged(connected bool) {
	metrics.SetConnected(connected)
	metrics.RecordNotification(string(KindConnectivity))
	c.registry.Publish(Notification{Kind: KindConnectivity, Connected: connected})
}

// Device returns the underlying DeviceSession.
func (c *Client) Device() DeviceSession { return c.device }

// Sessions returns the SessionManager.
func (c *Client) Sessions() *SessionManager { return c.sessions }

// Poller returns the PollLoop.
func (c *Client) Poller() *PollLoop { return c.poller }

// Address returns the router address.
func (c *Client) Address() string { return c.device.Address() }

// Connected reports the connectivity flag.
func (c *Client) Connected() bool { return c.sessions.Connected() }

// PortCount returns the last known number of sources.
func (c *Client) PortCount() int { return c.sessions.PortCount() }

// Login authenticates and reads the port count. It reports success only.
func (c *Client) Login(ctx context.Context, password string) bool {
	ok := c.sessions.Login(ctx, password)
	if ok {
		metrics.PortCount.Set(float64(c.sessions.PortCount()))
	}
	return ok
}

// GetMatrix reads the full routing matrix.
func (c *Client) GetMatrix(ctx context.Context) MatrixState {
	return c.sessions.GetMatrix(ctx)
}

// Subscribe registers a notification handler. With no kinds it receives every kind.
func (c *Client) Subscribe(handler Handler, kinds ...NotificationKind) uuid.UUID {
	return c.registry.Subscribe(handler, kinds...)
}

// Unsubscribe removes a handler.
func (c *Client) Unsubscribe(id uuid.UUID) bool {
	return c.registry.Unsubscribe(id)
}

// StartPolling starts the background poll loop.
func (c *Client) StartPolling(ctx context.Context) { c.poller.Start(ctx) }

// StopPolling stops the background poll loop.
func (c *Client) StopPolling() { c.poller.Stop() }

// ForcePoll runs one poll cycle now.
func (c *Client) ForcePoll(ctx context.Context) error { return c.poller.ForcePoll(ctx) }

// IsPolling reports whether the poll loop is running.
func (c *Client) IsPolling() bool { return c.poller.IsActive() }

// LastPoll returns when the last successful cycle finished.
func (c *Client) LastPoll() time.Time { return c.poller.LastPoll() }
