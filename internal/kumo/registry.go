package kumo

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// NotificationKind names a notification category.
type NotificationKind string

const (
	KindMatrix        NotificationKind = "matrix"
	KindTemperature   NotificationKind = "temperature"
	KindText          NotificationKind = "text"
	KindColor         NotificationKind = "color"
	KindLock          NotificationKind = "lock"
	KindTopologyReset NotificationKind = "topology_reset"
	KindConnectivity  NotificationKind = "connectivity"
)

// AllKinds lists every notification kind.
var AllKinds = []NotificationKind{
	KindMatrix, KindTemperature, KindText, KindColor, KindLock, KindTopologyReset, KindConnectivity,
}

// Notification is one typed change delivered to subscribers. Only the field
// matching Kind is set, and only that field is encoded.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Matrix      MatrixState      `json:"matrix,omitempty"`
	Temperature int              `json:"temperature,omitempty"`
	Texts       []PortText       `json:"texts,omitempty"`
	Colors      []PortColor      `json:"colors,omitempty"`
	Locks       []PortLock       `json:"locks,omitempty"`
	PortCount   int              `json:"port_count,omitempty"`
	Connected   bool             `json:"connected"`
}

// MarshalJSON writes the kind and only the field that belongs to it, so a 0°C
// sample keeps its temperature and a matrix change carries no connectivity.
func (n Notification) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind        NotificationKind `json:"kind"`
		Matrix      MatrixState      `json:"matrix,omitempty"`
		Temperature *int             `json:"temperature,omitempty"`
		Texts       []PortText       `json:"texts,omitempty"`
		Colors      []PortColor      `json:"colors,omitempty"`
		Locks       []PortLock       `json:"locks,omitempty"`
		PortCount   *int             `json:"port_count,omitempty"`
		Connected   *bool            `json:"connected,omitempty"`
	}{Kind: n.Kind}

	switch n.Kind {
	case KindMatrix:
		out.Matrix = n.Matrix
	case KindTemperature:
		out.Temperature = &n.Temperature
	case KindText:
		out.Texts = n.Texts
	case KindColor:
		out.Colors = n.Colors
	case KindLock:
		out.Locks = n.Locks
	case KindTopologyReset:
		out.PortCount = &n.PortCount
	case KindConnectivity:
		out.Connected = &n.Connected
	}
	return json.Marshal(out)
}

// Handler receives notifications. Handlers run synchronously on the poll
// goroutine and must not block for long.
type Handler func(Notification)

type subscription struct {
	id      uuid.UUID
	handler Handler
	kinds   map[NotificationKind]bool
}

// Registry is a set of notification subscribers.
type Registry struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Subscribe registers handler for the given kinds (all kinds when none are
// given) and returns an id for Unsubscribe.
func (r *Registry) Subscribe(handler Handler, kinds ...NotificationKind) uuid.UUID {
	sub := subscription{id: uuid.New(), handler: handler}
	if len(kinds) > 0 {
		sub.kinds = make(map[NotificationKind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
	return sub.id
}

// Unsubscribe removes a subscriber. It reports whether the id was known.
func (r *Registry) Unsubscribe(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sub := range r.subs {
		if sub.id == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Publish delivers n to every subscriber interested in its kind, in
// subscription order.
func (r *Registry) Publish(n Notification) {
	r.mu.RLock()
	targets := make([]Handler, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub.kinds == nil || sub.kinds[n.Kind] {
			targets = append(targets, sub.handler)
		}
	}
	r.mu.RUnlock()

	for _, h := range targets {
		h(n)
	}
}
