package kumo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PortType tells whether a port index refers to a source (input) or a destination (output).
type PortType int

const (
	Source PortType = iota
	Destination
)

// String returns the port type name used in parameter ids.
func (p PortType) String() string {
	if p == Destination {
		return "Destination"
	}
	return "Source"
}

// MarshalText encodes the port type as "source" or "destination".
func (p PortType) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(p.String())), nil
}

// UnmarshalText accepts "source" or "destination" in any case.
func (p *PortType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "source":
		*p = Source
	case "destination":
		*p = Destination
	default:
		return fmt.Errorf("unknown port type %q", text)
	}
	return nil
}

// ParameterEvent is one raw parameter change reported by the router's long-poll.
type ParameterEvent struct {
	ParamID      string `json:"param_id"`
	ParamType    string `json:"param_type"`
	NumericValue int    `json:"int_value"`
	StringValue  string `json:"str_value"`
	LastUpdate   string `json:"last_config_update"`
}

// UnmarshalJSON decodes a long-poll record. The router sends str_value either as
// a string or as a bare number, and both end up in StringValue.
func (e *ParameterEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		ParamID      string          `json:"param_id"`
		ParamType    string          `json:"param_type"`
		NumericValue json.Number     `json:"int_value"`
		StringValue  json.RawMessage `json:"str_value"`
		LastUpdate   json.RawMessage `json:"last_config_update"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.ParamID = raw.ParamID
	e.ParamType = raw.ParamType
	e.NumericValue = 0
	if raw.NumericValue != "" {
		n, err := strconv.ParseFloat(string(raw.NumericValue), 64)
		if err != nil {
			return fmt.Errorf("param %s: int_value: %w", raw.ParamID, err)
		}
		e.NumericValue = int(n)
	}
	e.StringValue = scalarString(raw.StringValue)
	e.LastUpdate = scalarString(raw.LastUpdate)
	return nil
}

// scalarString renders a JSON string or number as plain text. null and absent become "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// String returns a compact description for logs.
func (e ParameterEvent) String() string {
	return fmt.Sprintf("%s(type=%s int=%d str=%q)", e.ParamID, e.ParamType, e.NumericValue, e.StringValue)
}

// ParamValue is the answer to a single parameter get. Value carries the raw value,
// ValueName the router's display name for it (e.g. "1" and "Locked").
type ParamValue struct {
	Value     string `json:"value"`
	ValueName string `json:"value_name"`
}

// MatrixState maps a source index to the destinations it currently feeds, in order.
type MatrixState map[int][]int

// Sources returns the source indices in ascending order.
func (m MatrixState) Sources() []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// SourceOf returns the source feeding dest, or 0 when none does.
func (m MatrixState) SourceOf(dest int) int {
	for src, dests := range m {
		for _, d := range dests {
			if d == dest {
				return src
			}
		}
	}
	return 0
}

// Clone returns a deep copy.
func (m MatrixState) Clone() MatrixState {
	if m == nil {
		return nil
	}
	out := make(MatrixState, len(m))
	for k, v := range m {
		out[k] = append(make([]int, 0, len(v)), v...)
	}
	return out
}

// MarshalJSON writes the map with string keys in ascending order so output is stable.
func (m MatrixState) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, src := range m.Sources() {
		if i > 0 {
			buf.WriteByte(',')
		}
		dests := m[src]
		if dests == nil {
			dests = []int{}
		}
		b, err := json.Marshal(dests)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%q:", strconv.Itoa(src))
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PortText is a label change for one port. The Changed flags mark which line was
// assigned; consumers clear them once they have applied the change.
type PortText struct {
	PortType     PortType `json:"port_type"`
	PortNum      int      `json:"port_num"`
	Line1        string   `json:"line1,omitempty"`
	Line2        string   `json:"line2,omitempty"`
	Line1Changed bool     `json:"line1_changed"`
	Line2Changed bool     `json:"line2_changed"`
}

// SetLine1 assigns line 1 and marks it changed.
func (t *PortText) SetLine1(s string) {
	t.Line1 = s
	t.Line1Changed = true
}

// SetLine2 assigns line 2 and marks it changed.
func (t *PortText) SetLine2(s string) {
	t.Line2 = s
	t.Line2Changed = true
}

// PortColor is a button color change. PortNum is already normalized to a
// 1-based index within PortType.
type PortColor struct {
	PortType PortType `json:"port_type"`
	PortNum  int      `json:"port_num"`
	ColorHex string   `json:"color"`
}

// PortLock is a destination lock change.
type PortLock struct {
	PortNum  int  `json:"port_num"`
	IsLocked bool `json:"locked"`
}

// NoTemperature marks an AggregateEvent without a temperature sample.
const NoTemperature = -1

// AggregateEvent is everything one poll cycle learned, split by category.
type AggregateEvent struct {
	Temperature int         `json:"temperature"`
	Matrix      MatrixState `json:"matrix,omitempty"`
	Texts       []PortText  `json:"texts,omitempty"`
	Colors      []PortColor `json:"colors,omitempty"`
	Locks       []PortLock  `json:"locks,omitempty"`
}

// Empty returns the canonical "nothing changed" event.
func Empty() AggregateEvent {
	return AggregateEvent{Temperature: NoTemperature}
}

// IsEmpty reports whether no category carries anything.
func (e AggregateEvent) IsEmpty() bool {
	return e.Temperature == NoTemperature &&
		len(e.Matrix) == 0 &&
		len(e.Texts) == 0 &&
		len(e.Colors) == 0 &&
		len(e.Locks) == 0
}

// Session is the connection state owned by SessionManager.
type Session struct {
	CookieToken  string
	ConnectionID int
	Connected    bool
	PortCount    int
}

// NoConnectionID is the ConnectionID of a session that has not acquired one yet.
const NoConnectionID = -1

// NewSession returns a session with no cookie and no connection id.
func NewSession() Session {
	return Session{ConnectionID: NoConnectionID}
}
