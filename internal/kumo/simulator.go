package kumo

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	// SimulatorAddress is what a SimulatedSession reports as its address.
	SimulatorAddress = "simulator"

	// DefaultSimulatorLoginDelay mimics a router's login round-trip.
	DefaultSimulatorLoginDelay = time.Second

	// DefaultSimulatorWait bounds how long WaitForEvents blocks with nothing queued.
	DefaultSimulatorWait = 2 * time.Second

	simulatorPorts  = 4
	simulatorCookie = "simulator"
)

// SimulatedSession is an in-memory DeviceSession. It starts with a fixed
// 4x4 router: destinations 1..4 fed by sources 1, 2, 3 and 2, labels
// "source_N" and "dest_N", even destinations locked, even buttons color_9 and
// odd buttons color_3. Every Set is queued as a change event and handed out
// by the next WaitForEvents, so the poll loop sees simulated changes exactly
// as it would see a router's.
type SimulatedSession struct {
	// LoginDelay is how long Login takes. It always succeeds.
	LoginDelay time.Duration

	// Wait is how long WaitForEvents blocks when nothing is queued.
	Wait time.Duration

	mu       sync.Mutex
	params   map[string]ParamValue
	pending  []ParameterEvent
	wake     chan struct{}
	nextConn int
	updates  int
}

// NewSimulatedSession creates a simulator with the default router layout.
func NewSimulatedSession(loginDelay time.Duration) *SimulatedSession {
	s := &SimulatedSession{
		LoginDelay: loginDelay,
		Wait:       DefaultSimulatorWait,
		params:     make(map[string]ParamValue),
		wake:       make(chan struct{}, 1),
	}
	s.seed()
	return s
}

func (s *SimulatedSession) seed() {
	routes := []int{1, 2, 3, 2}

	s.params[ParamNumberOfSources] = ParamValue{Value: strconv.Itoa(simulatorPorts), ValueName: strconv.Itoa(simulatorPorts)}
	s.params[ParamTemperature] = ParamValue{Value: "38", ValueName: "38"}
	s.params[ParamSysName] = ParamValue{Value: "KUMO-SIM", ValueName: "KUMO-SIM"}
	s.params[ParamProductID] = ParamValue{Value: "0", ValueName: "KUMO 1604 Simulator"}
	s.params[ParamSerialNumber] = ParamValue{Value: "SIM00000001"}
	s.params[ParamSWVersion] = ParamValue{Value: "0.0.0-sim"}
	s.params[ParamMACAddress] = ParamValue{Value: "00:0c:17:00:00:01"}
	s.params[ParamNetworkState] = ParamValue{Value: "1", ValueName: "Connected"}
	s.params[ParamIPConfig] = ParamValue{Value: "0", ValueName: "Static"}
	s.params[ParamIPAddress] = ParamValue{Value: "16777343"} // 127.0.0.1
	s.params[ParamSubnetMask] = ParamValue{Value: "16777215"} // 255.255.255.0
	s.params[ParamDefaultGateway] = ParamValue{Value: "0"}
	s.params[ParamLEDIdentify] = ParamValue{Value: "0", ValueName: "Off"}
	s.params[ParamAuthentication] = ParamValue{Value: "0", ValueName: "Disabled"}
	s.params[ParamControlPanelMode] = ParamValue{Value: "0"}
	s.params[ParamTemperatureAlarm] = ParamValue{Value: "0", ValueName: "Normal"}
	s.params[ParamPSAlarm] = ParamValue{Value: "0", ValueName: "Normal"}
	s.params[ParamReferenceAlarm] = ParamValue{Value: "0", ValueName: "Normal"}

	for port := 1; port <= simulatorPorts; port++ {
		src := strconv.Itoa(routes[port-1])
		s.params[DestinationStatusParam(port)] = ParamValue{Value: src, ValueName: src}
		s.params[LineParam(Source, port, 1)] = ParamValue{Value: fmt.Sprintf("source_%d", port)}
		s.params[LineParam(Source, port, 2)] = ParamValue{}
		s.params[LineParam(Destination, port, 1)] = ParamValue{Value: fmt.Sprintf("dest_%d", port)}
		s.params[LineParam(Destination, port, 2)] = ParamValue{}
		s.params[DestinationLockParam(port)] = lockValue(port%2 == 0)
	}
	for button := 1; button <= 2*simulatorPorts; button++ {
		class := "color_3"
		if button%2 == 0 {
			class = "color_9"
		}
		s.params[ButtonSettingsParam(button)] = ParamValue{Value: class, ValueName: class}
	}
}

func lockValue(locked bool) ParamValue {
	if locked {
		return ParamValue{Value: "1", ValueName: "Locked"}
	}
	return ParamValue{Value: "0", ValueName: "Unlocked"}
}

// Address implements DeviceSession.
func (s *SimulatedSession) Address() string {
	return SimulatorAddress
}

// Login waits LoginDelay and succeeds whatever the password.
func (s *SimulatedSession) Login(ctx context.Context, _ string) (string, error) {
	if s.LoginDelay > 0 {
		t := time.NewTimer(s.LoginDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", NewNetworkError("login cancelled", ctx.Err())
		case <-t.C:
		}
	}
	return simulatorCookie, nil
}

// Get implements DeviceSession.
func (s *SimulatedSession) Get(_ context.Context, _ string, paramID string) (ParamValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.params[paramID]
	if !ok {
		return ParamValue{}, NewParseError(fmt.Sprintf("unknown parameter %s", paramID), nil)
	}
	return v, nil
}

// Set stores the value and queues the matching change event.
func (s *SimulatedSession) Set(_ context.Context, _ string, paramID, value string) (string, error) {
	var v ParamValue
	switch kindOf(paramID) {
	case kindLock:
		v = lockValue(value == "1")
	case kindColor:
		v = ParamValue{Value: value, ValueName: value}
	default:
		v = ParamValue{Value: value, ValueName: value}
		if paramID == ParamLEDIdentify {
			v.ValueName = "Off"
			if value == "1" {
				v.ValueName = "Blink"
			}
		}
	}

	s.mu.Lock()
	s.params[paramID] = v
	s.mu.Unlock()

	s.Inject(s.eventFor(paramID, v))
	return `{"result":"ok"}`, nil
}

func (s *SimulatedSession) eventFor(paramID string, v ParamValue) ParameterEvent {
	s.mu.Lock()
	s.updates++
	update := s.updates
	s.mu.Unlock()

	ev := ParameterEvent{
		ParamID:    paramID,
		ParamType:  "string",
		LastUpdate: strconv.Itoa(update),
	}
	if n, err := strconv.Atoi(v.Value); err == nil {
		ev.ParamType = "int"
		ev.NumericValue = n
	}
	ev.StringValue = v.Value
	if v.ValueName != "" && v.ValueName != v.Value {
		ev.StringValue = v.ValueName
	}
	return ev
}

// Inject queues raw events for the next WaitForEvents, as if the router had
// reported them.
func (s *SimulatedSession) Inject(events ...ParameterEvent) {
	s.mu.Lock()
	s.pending = append(s.pending, events...)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Connect hands out increasing connection ids.
func (s *SimulatedSession) Connect(context.Context, string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextConn++
	return s.nextConn, nil
}

// WaitForEvents returns queued events, blocking up to Wait for some to arrive.
func (s *SimulatedSession) WaitForEvents(ctx context.Context, _ string, _ int) ([]ParameterEvent, error) {
	if events := s.drain(); len(events) > 0 {
		return events, nil
	}

	wait := s.Wait
	if wait <= 0 {
		wait = DefaultSimulatorWait
	}
	t := time.NewTimer(wait)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return nil, NewNetworkError("wait cancelled", ctx.Err())
	case <-t.C:
		return nil, nil
	case <-s.wake:
		return s.drain(), nil
	}
}

func (s *SimulatedSession) drain() []ParameterEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.pending
	s.pending = nil
	return events
}

// DeviceInfo implements DeviceSession.
func (s *SimulatedSession) DeviceInfo(context.Context, string) (string, error) {
	return "KUMO Simulator", nil
}
