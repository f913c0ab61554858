package kumo

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/metrics"
)

// DefaultPollInterval is the pause between two poll cycles.
const DefaultPollInterval = time.Second

// PollLoop runs the long-poll cycle in the background and publishes typed
// notifications to a Registry.
//
// A capacity-1 semaphore serializes cycle bodies, so the scheduled loop and
// ForcePoll never have a request in flight at the same time. Cancellation is
// checked at the top of the loop and during the inter-cycle wait. A cycle that
// already holds the semaphore runs to completion.
type PollLoop struct {
	sessions *SessionManager
	fetcher  *EventFetcher
	registry *Registry
	interval time.Duration

	sem chan struct{}

	mu       sync.Mutex
	active   bool
	cancel   context.CancelFunc
	done     chan struct{}
	lastPoll time.Time
}

// NewPollLoop creates a stopped poll loop.
func NewPollLoop(sessions *SessionManager, registry *Registry, interval time.Duration) *PollLoop {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollLoop{
		sessions: sessions,
		fetcher:  NewEventFetcher(sessions.Device()),
		registry: registry,
		interval: interval,
		sem:      make(chan struct{}, 1),
	}
}

// Start launches the background cycle. Calling Start on a running loop does nothing.
func (l *PollLoop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active {
		logging.Info("Polling already active")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.active = true
	l.cancel = cancel
	l.done = done

	logging.Info("Starting polling", zap.Duration("interval", l.interval))
	go l.run(ctx, done)
}

// Stop cancels the background cycle and discards the connection id, so the
// next Start acquires a fresh one. It does not wait for an in-flight cycle;
// that cycle discards the id again before it releases the semaphore.
func (l *PollLoop) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.active = false
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.sessions.ResetConnectionID()
}

// Done returns a channel closed when the current background cycle exits, or
// nil when the loop is not running.
func (l *PollLoop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// IsActive reports whether the background cycle is running.
func (l *PollLoop) IsActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// LastPoll returns when the last successful cycle finished. The zero time means
// none has since the last ForcePoll.
func (l *PollLoop) LastPoll() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastPoll
}

// Interval returns the pause between cycles.
func (l *PollLoop) Interval() time.Duration {
	return l.interval
}

// ForcePoll clears the last-poll marker and runs one cycle now. It blocks while
// a scheduled cycle holds the semaphore and returns ctx's error if ctx ends
// first.
func (l *PollLoop) ForcePoll(ctx context.Context) error {
	l.mu.Lock()
	l.lastPoll = time.Time{}
	l.mu.Unlock()

	return l.cycle(ctx, false)
}

func (l *PollLoop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			logging.Info("Polling cancelled")
			return
		}

		if err := l.cycle(ctx, true); err != nil {
			logging.Info("Polling cancelled", zap.Error(err))
			return
		}

		select {
		case <-ctx.Done():
			logging.Info("Polling cancelled")
			return
		case <-time.After(l.interval):
		}
	}
}

// cycle acquires the semaphore and runs one poll. Only waiting for the
// semaphore observes cancellation; the requests themselves are not aborted.
// A background cycle whose loop was stopped meanwhile drops the connection id
// it may have acquired, still holding the semaphore.
func (l *PollLoop) cycle(ctx context.Context, background bool) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.sem }()
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	result := l.poll(context.WithoutCancel(ctx))
	metrics.RecordPollCycle(result, time.Since(start))

	if background && ctx.Err() != nil {
		l.sessions.ResetConnectionID()
	}
	return nil
}

// poll is the body of one cycle: connection id, long-poll, classify, emit.
func (l *PollLoop) poll(ctx context.Context) string {
	cookie := l.sessions.cookie()
	connectionID := l.sessions.EnsureConnectionID(ctx)
	if connectionID == NoConnectionID {
		// Connect failed and was logged. The next cycle retries it.
		return metrics.ResultNetworkError
	}

	events, err := l.fetcher.Fetch(ctx, cookie, connectionID)
	if err != nil {
		switch {
		case IsExpectationFailed(err):
			// The router answers, it just refused this wait. Still reachable.
			if !l.sessions.Connected() {
				l.sessions.SetConnected(true)
			}
			return metrics.ResultExpectationFailed
		case IsNetworkError(err):
			logging.Debug("Poll cycle failed", zap.Error(err))
			l.sessions.ResetConnectionID()
			l.sessions.SetConnected(false)
			return metrics.ResultNetworkError
		case errors.Is(err, context.Canceled):
			logging.Info("Poll cycle cancelled")
			return metrics.ResultError
		default:
			logging.Error("Poll cycle failed", zap.Error(err))
			return metrics.ResultError
		}
	}

	portCount := l.sessions.PortCount()
	if portCount <= 0 {
		portCount = l.sessions.RefreshPortCount(ctx)
	}

	c := Classify(events, portCount)
	if len(c.Malformed) > 0 {
		for _, e := range c.Malformed {
			logging.Warn("Dropped malformed event", zap.Error(e))
		}
		metrics.RecordMalformedEvents(len(c.Malformed))
	}

	result := metrics.ResultEmpty
	if c.TopologyReset {
		count := l.sessions.RefreshPortCount(ctx)
		logging.Info("Signal switching mode changed", zap.Int("port_count", count))
		metrics.PortCount.Set(float64(count))
		l.publish(Notification{Kind: KindTopologyReset, PortCount: count})
		result = metrics.ResultOK
	} else if l.emit(c.Event) {
		result = metrics.ResultOK
	}

	l.mu.Lock()
	l.lastPoll = time.Now()
	l.mu.Unlock()

	l.sessions.SetConnected(true)
	return result
}

// emit publishes one notification per non-empty category and reports whether
// any was published.
func (l *PollLoop) emit(ev AggregateEvent) bool {
	if ev.IsEmpty() {
		return false
	}
	if len(ev.Matrix) > 0 {
		l.publish(Notification{Kind: KindMatrix, Matrix: ev.Matrix})
	}
	if ev.Temperature != NoTemperature {
		metrics.Temperature.Set(float64(ev.Temperature))
		l.publish(Notification{Kind: KindTemperature, Temperature: ev.Temperature})
	}
	if len(ev.Texts) > 0 {
		l.publish(Notification{Kind: KindText, Texts: ev.Texts})
	}
	if len(ev.Colors) > 0 {
		l.publish(Notification{Kind: KindColor, Colors: ev.Colors})
	}
	if len(ev.Locks) > 0 {
		l.publish(Notification{Kind: KindLock, Locks: ev.Locks})
	}
	return true
}

func (l *PollLoop) publish(n Notification) {
	metrics.RecordNotification(string(n.Kind))
	l.registry.Publish(n)
}
