package kumo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// scriptedBatch is one long-poll answer.
type scriptedBatch struct {
	events []ParameterEvent
	err    error
}

// scriptedDevice is a DeviceSession answering from fixed parameters and a
// queue of long-poll results.
type scriptedDevice struct {
	mu         sync.Mutex
	params     map[string]ParamValue
	loginErr   error
	cookie     string
	connectErr error
	connects   int
	waits      int
	batches    []scriptedBatch
	sets       []string
	waitDelay  time.Duration

	// connectEntered and connectGate, when set, hold Connect until the gate
	// is closed.
	connectEntered chan struct{}
	connectGate    chan struct{}

	inFlight    int32
	maxInFlight int32
}

func newScriptedDevice(portCount string) *scriptedDevice {
	return &scriptedDevice{
		cookie: "serenity-session=abc123",
		params: map[string]ParamValue{
			ParamNumberOfSources: {Value: portCount, ValueName: portCount},
		},
	}
}

func (d *scriptedDevice) queue(batches ...scriptedBatch) {
	d.mu.Lock()
	d.batches = append(d.batches, batches...)
	d.mu.Unlock()
}

func (d *scriptedDevice) setParam(id string, v ParamValue) {
	d.mu.Lock()
	d.params[id] = v
	d.mu.Unlock()
}

func (d *scriptedDevice) Address() string { return "scripted" }

func (d *scriptedDevice) Login(context.Context, string) (string, error) {
	if d.loginErr != nil {
		return "", d.loginErr
	}
	return d.cookie, nil
}

func (d *scriptedDevice) Get(_ context.Context, _ string, paramID string) (ParamValue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.params[paramID]
	if !ok {
		return ParamValue{}, NewParseError("unknown parameter "+paramID, nil)
	}
	return v, nil
}

func (d *scriptedDevice) Set(_ context.Context, _ string, paramID, value string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sets = append(d.sets, paramID+"="+value)
	d.params[paramID] = ParamValue{Value: value}
	return "ok", nil
}

func (d *scriptedDevice) Connect(context.Context, string) (int, error) {
	if d.connectGate != nil {
		d.connectEntered <- struct{}{}
		<-d.connectGate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connectErr != nil {
		return NoConnectionID, d.connectErr
	}
	d.connects++
	return 100 + d.connects, nil
}

func (d *scriptedDevice) WaitForEvents(context.Context, string, int) ([]ParameterEvent, error) {
	n := atomic.AddInt32(&d.inFlight, 1)
	defer atomic.AddInt32(&d.inFlight, -1)
	for {
		maxSeen := atomic.LoadInt32(&d.maxInFlight)
		if n <= maxSeen || atomic.CompareAndSwapInt32(&d.maxInFlight, maxSeen, n) {
			break
		}
	}

	if d.waitDelay > 0 {
		time.Sleep(d.waitDelay)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.waits++
	if len(d.batches) == 0 {
		return nil, nil
	}
	b := d.batches[0]
	d.batches = d.batches[1:]
	return b.events, b.err
}

func (d *scriptedDevice) DeviceInfo(context.Context, string) (string, error) {
	return "scripted KUMO", nil
}

func (d *scriptedDevice) inFlightNow() int32 {
	return atomic.LoadInt32(&d.inFlight)
}

var errLinkDown = errors.New("connection reset by peer")

func networkFailure() scriptedBatch {
	return scriptedBatch{err: NewNetworkError("WaitForEvents request failed", errLinkDown)}
}

// recorder collects notifications.
type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) handle(n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *recorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

func (r *recorder) kinds() []NotificationKind {
	var out []NotificationKind
	for _, n := range r.all() {
		out = append(out, n.Kind)
	}
	return out
}
