package kumo

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
)

// SessionManager owns the Session: login cookie, long-poll connection id,
// connectivity flag and port count. All reads and writes of the Session go
// through it.
type SessionManager struct {
	device DeviceSession

	// notify receives connectivity changes. It is called outside the lock.
	notify func(connected bool)

	mu      sync.Mutex
	session Session
}

// NewSessionManager creates a manager with an empty session.
func NewSessionManager(device DeviceSession, notify func(connected bool)) *SessionManager {
	if notify == nil {
		notify = func(bool) {}
	}
	return &SessionManager{
		device:  device,
		notify:  notify,
		session: NewSession(),
	}
}

// Session returns a copy of the current session.
func (m *SessionManager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Connected reports the connectivity flag.
func (m *SessionManager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Connected
}

// PortCount returns the last known number of sources.
func (m *SessionManager) PortCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.PortCount
}

// Device returns the underlying DeviceSession.
func (m *SessionManager) Device() DeviceSession {
	return m.device
}

func (m *SessionManager) cookie() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.CookieToken
}

// Login authenticates with the router. On success the port count is read and
// connectivity becomes true. Every failure sets connectivity false. Both
// outcomes are announced, and no error escapes.
func (m *SessionManager) Login(ctx context.Context, password string) bool {
	cookie, err := m.device.Login(ctx, password)
	if err != nil {
		if IsAuthError(err) {
			logging.Warn("Login rejected", zap.String("address", m.device.Address()), zap.Error(err))
		} else {
			logging.Error("Login failed", zap.String("address", m.device.Address()), zap.Error(err))
		}
		m.loginFailed(cookie)
		return false
	}

	m.mu.Lock()
	m.session.CookieToken = cookie
	m.mu.Unlock()

	count, err := m.readPortCount(ctx)
	if err != nil {
		logging.Error("Login failed", zap.String("address", m.device.Address()), zap.Error(err))
		m.loginFailed(cookie)
		return false
	}

	m.mu.Lock()
	m.session.PortCount = count
	m.session.Connected = true
	m.mu.Unlock()

	logging.Info("Logged in",
		zap.String("address", m.device.Address()),
		zap.Int("port_count", count),
	)
	m.notify(true)
	return true
}

func (m *SessionManager) loginFailed(cookie string) {
	m.mu.Lock()
	m.session.CookieToken = cookie
	m.session.Connected = false
	m.mu.Unlock()
	m.notify(false)
}

// readPortCount reads the number of sources. Anything but a positive integer
// is a format error.
func (m *SessionManager) readPortCount(ctx context.Context) (int, error) {
	value := m.GetCommand(ctx, ParamNumberOfSources)
	count, err := strconv.Atoi(value)
	if err != nil || count <= 0 {
		return 0, NewFormatError(fmt.Sprintf("unreadable number of sources %q", value))
	}
	return count, nil
}

// RefreshPortCount re-reads the number of sources from the router. A failed
// read keeps the previous count.
func (m *SessionManager) RefreshPortCount(ctx context.Context) int {
	count, err := m.readPortCount(ctx)
	if err != nil {
		logging.Warn("Could not read number of sources", zap.Error(err))
		return m.PortCount()
	}

	m.mu.Lock()
	m.session.PortCount = count
	m.mu.Unlock()
	return count
}

// EnsureConnectionID returns the cached connection id, acquiring one from the
// router if none is cached. A failed acquisition returns NoConnectionID and
// caches nothing, so the next call retries.
func (m *SessionManager) EnsureConnectionID(ctx context.Context) int {
	m.mu.Lock()
	id := m.session.ConnectionID
	cookie := m.session.CookieToken
	m.mu.Unlock()

	if id != NoConnectionID {
		return id
	}

	logging.Debug("Connection id is not set")
	id, err := m.device.Connect(ctx, cookie)
	if err != nil {
		logging.Error("Failed to acquire connection id", zap.Error(err))
		return NoConnectionID
	}

	m.mu.Lock()
	m.session.ConnectionID = id
	m.mu.Unlock()
	logging.Info("Acquired connection id", zap.Int("connection_id", id))
	return id
}

// ResetConnectionID discards the cached connection id.
func (m *SessionManager) ResetConnectionID() {
	m.mu.Lock()
	m.session.ConnectionID = NoConnectionID
	m.mu.Unlock()
}

// SetConnected updates the connectivity flag and announces it only when it
// actually changed. It returns whether it changed.
func (m *SessionManager) SetConnected(connected bool) bool {
	m.mu.Lock()
	changed := m.session.Connected != connected
	m.session.Connected = connected
	m.mu.Unlock()

	if changed {
		logging.LogConnectivity(m.device.Address(), connected)
		m.notify(connected)
	}
	return changed
}

// GetCommand reads a parameter's value. Errors are logged and yield "".
func (m *SessionManager) GetCommand(ctx context.Context, paramID string) string {
	v, err := m.device.Get(ctx, m.cookie(), paramID)
	if err != nil {
		logging.Error("get command failed", zap.String("param", paramID), zap.Error(err))
		return ""
	}
	return v.Value
}

// GetValueName reads a parameter's display name. Errors are logged and yield "".
func (m *SessionManager) GetValueName(ctx context.Context, paramID string) string {
	v, err := m.device.Get(ctx, m.cookie(), paramID)
	if err != nil {
		logging.Error("get command failed", zap.String("param", paramID), zap.Error(err))
		return ""
	}
	return v.ValueName
}

// SetCommand writes a parameter. On failure the returned string carries the
// error message prefixed with "Error: ".
func (m *SessionManager) SetCommand(ctx context.Context, paramID, value string) string {
	body, err := m.device.Set(ctx, m.cookie(), paramID, value)
	if err != nil {
		logging.Error("set command failed",
			zap.String("param", paramID),
			zap.String("value", value),
			zap.Error(err),
		)
		return "Error: " + err.Error()
	}
	return body
}

// TrySetCommand writes a parameter and reports failure as an error. The
// bridge uses it so a failing router trips its circuit breaker.
func (m *SessionManager) TrySetCommand(ctx context.Context, paramID, value string) (string, error) {
	return m.device.Set(ctx, m.cookie(), paramID, value)
}

// DeviceInformation returns the router description, or "" on failure.
func (m *SessionManager) DeviceInformation(ctx context.Context) string {
	info, err := m.device.DeviceInfo(ctx, m.cookie())
	if err != nil {
		logging.Error("Get info failed", zap.Error(err))
		return ""
	}
	return info
}
