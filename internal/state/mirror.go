package state

import (
	"sync"
	"time"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
)

// Port is the mirrored appearance of one source or destination button.
type Port struct {
	Num    int    `json:"num"`
	Line1  string `json:"line1"`
	Line2  string `json:"line2"`
	Color  string `json:"color"`
	Locked bool   `json:"locked,omitempty"`
	Source int    `json:"source,omitempty"` // destinations only: routed source, 0 if none
}

// Snapshot is a point-in-time copy of the mirror.
type Snapshot struct {
	Address      string           `json:"address"`
	Connected    bool             `json:"connected"`
	PortCount    int              `json:"port_count"`
	Temperature  int              `json:"temperature"`
	Matrix       kumo.MatrixState `json:"matrix"`
	Sources      []Port           `json:"sources"`
	Destinations []Port           `json:"destinations"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Mirror holds the last known router state. It is safe for concurrent use.
type Mirror struct {
	mu           sync.RWMutex
	address      string
	connected    bool
	portCount    int
	temperature  int
	matrix       kumo.MatrixState
	sources      map[int]*Port
	destinations map[int]*Port
	updatedAt    time.Time
}

// NewMirror creates an empty mirror for a router address.
func NewMirror(address string) *Mirror {
	m := &Mirror{address: address}
	m.reset(0)
	return m
}

func (m *Mirror) reset(portCount int) {
	m.portCount = portCount
	m.temperature = kumo.NoTemperature
	m.matrix = make(kumo.MatrixState)
	m.sources = make(map[int]*Port)
	m.destinations = make(map[int]*Port)
	for i := 1; i <= portCount; i++ {
		m.sources[i] = &Port{Num: i, Color: kumo.DefaultColor}
		m.destinations[i] = &Port{Num: i, Color: kumo.DefaultColor}
	}
}

func (m *Mirror) port(pt kumo.PortType, num int) *Port {
	ports := m.sources
	if pt == kumo.Destination {
		ports = m.destinations
	}
	p, ok := ports[num]
	if !ok {
		p = &Port{Num: num, Color: kumo.DefaultColor}
		ports[num] = p
	}
	return p
}

// Hydrate replaces the mirror with a full read of the router. The last
// temperature sample is kept.
func (m *Mirror) Hydrate(portCount int, matrix kumo.MatrixState, texts []kumo.PortText, colors []kumo.PortColor, locks []kumo.PortLock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	temperature := m.temperature
	m.reset(portCount)
	m.temperature = temperature
	for src, dests := range matrix {
		m.matrix[src] = append([]int{}, dests...)
	}
	m.applyTexts(texts)
	m.applyColors(colors)
	m.applyLocks(locks)
	m.updatedAt = time.Now()
}

// Apply folds one notification into the mirror.
//
// Matrix notifications only carry destinations that gained a source. A
// destination that loses its source keeps the old one here until the next
// Load.
func (m *Mirror) Apply(n kumo.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch n.Kind {
	case kumo.KindMatrix:
		m.applyMatrix(n.Matrix)
	case kumo.KindTemperature:
		m.temperature = n.Temperature
	case kumo.KindText:
		m.applyTexts(n.Texts)
	case kumo.KindColor:
		m.applyColors(n.Colors)
	case kumo.KindLock:
		m.applyLocks(n.Locks)
	case kumo.KindTopologyReset:
		m.reset(n.PortCount)
	case kumo.KindConnectivity:
		m.connected = n.Connected
	}
	m.updatedAt = time.Now()
}

// applyMatrix moves every destination in the delta under its new source.
func (m *Mirror) applyMatrix(delta kumo.MatrixState) {
	for _, src := range delta.Sources() {
		for _, dest := range delta[src] {
			for s, dests := range m.matrix {
				m.matrix[s] = removeInt(dests, dest)
			}
			m.matrix[src] = append(m.matrix[src], dest)
		}
	}
}

func (m *Mirror) applyTexts(texts []kumo.PortText) {
	for _, t := range texts {
		p := m.port(t.PortType, t.PortNum)
		if t.Line1Changed {
			p.Line1 = t.Line1
		}
		if t.Line2Changed {
			p.Line2 = t.Line2
		}
	}
}

func (m *Mirror) applyColors(colors []kumo.PortColor) {
	for _, c := range colors {
		m.port(c.PortType, c.PortNum).Color = c.ColorHex
	}
}

func (m *Mirror) applyLocks(locks []kumo.PortLock) {
	for _, l := range locks {
		m.port(kumo.Destination, l.PortNum).Locked = l.IsLocked
	}
}

func removeInt(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Connected reports the mirrored connectivity.
func (m *Mirror) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// SetConnected records connectivity without a notification, e.g. after login.
func (m *Mirror) SetConnected(connected bool) {
	m.mu.Lock()
	m.connected = connected
	m.mu.Unlock()
}

// IsLocked reports whether a destination is locked.
func (m *Mirror) IsLocked(dest int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.destinations[dest]
	return ok && p.Locked
}

// Snapshot returns a deep copy of the mirror.
func (m *Mirror) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Address:     m.address,
		Connected:   m.connected,
		PortCount:   m.portCount,
		Temperature: m.temperature,
		Matrix:      m.matrix.Clone(),
		UpdatedAt:   m.updatedAt,
	}
	if s.Matrix == nil {
		s.Matrix = kumo.MatrixState{}
	}
	s.Sources = copyPorts(m.sources, m.portCount)
	s.Destinations = copyPorts(m.destinations, m.portCount)
	for i := range s.Destinations {
		s.Destinations[i].Source = m.matrix.SourceOf(s.Destinations[i].Num)
	}
	return s
}

func copyPorts(ports map[int]*Port, portCount int) []Port {
	out := make([]Port, 0, portCount)
	for i := 1; i <= portCount; i++ {
		if p, ok := ports[i]; ok {
			out = append(out, *p)
		} else {
			out = append(out, Port{Num: i, Color: kumo.DefaultColor})
		}
	}
	return out
}
