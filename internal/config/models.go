package config

import (
	"strings"
	"time"
)

// Mode selects the DeviceSession implementation.
type Mode string

const (
	ModeKumo      Mode = "kumo"
	ModeSimulator Mode = "simulator"
)

// ParseMode accepts "kumo" or "simulator" in any case.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeKumo:
		return ModeKumo, true
	case ModeSimulator:
		return ModeSimulator, true
	}
	return "", false
}

// Settings represents the entire user configuration file.
type Settings struct {
	Version       int                `yaml:"version"`
	Mode          Mode               `yaml:"mode"`
	Connection    Connection         `yaml:"connection"`
	LoginPassword string             `yaml:"login_password,omitempty"`
	UI            UI                 `yaml:"ui"`
	Bridge        Bridge             `yaml:"bridge"`
	Routers       map[string]*Router `yaml:"routers,omitempty"` // Keyed by nickname
}

// Connection holds the router connection parameters.
type Connection struct {
	Address      string        `yaml:"address"`
	Timeout      time.Duration `yaml:"timeout"`       // Per request, long-poll included
	PollInterval time.Duration `yaml:"poll_interval"` // Pause between poll cycles
}

// UI holds the dashboard preferences.
type UI struct {
	Title                   string `yaml:"title"`
	UseColorsForButtonsText bool   `yaml:"use_colors_for_buttons_text"`
	FlatButtons             bool   `yaml:"flat_buttons"`
	DrawConnectionLines     bool   `yaml:"draw_connection_lines"`
	CircleSize              int    `yaml:"circle_size"`
	DisableColorName        string `yaml:"disable_color_name"` // Color for locked destinations
	Splitter                string `yaml:"splitter"`           // Separates line 1 from line 2 in label input
}

// Bridge holds the bridge server settings.
type Bridge struct {
	Listen         string        `yaml:"listen"`
	CommandRate    float64       `yaml:"command_rate"` // Commands per second per client
	CommandBurst   int           `yaml:"command_burst"`
	ResyncInterval time.Duration `yaml:"resync_interval"` // Full re-read of the router state
}

// Router is a remembered router.
type Router struct {
	Address  string    `yaml:"address"`
	Serial   string    `yaml:"serial,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// Defaults
const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = time.Second
	DefaultListen       = ":8080"
	DefaultResync       = 5 * time.Minute
)

// NewSettings creates Settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Mode:    ModeKumo,
		Connection: Connection{
			Timeout:      DefaultTimeout,
			PollInterval: DefaultPollInterval,
		},
		UI: UI{
			Title:            "Video Routing",
			CircleSize:       7,
			DisableColorName: "DimGray",
			Splitter:         "##",
		},
		Bridge: Bridge{
			Listen:         DefaultListen,
			CommandRate:    5,
			CommandBurst:   10,
			ResyncInterval: DefaultResync,
		},
		Routers: make(map[string]*Router),
	}
}

// fillDefaults sets zero fields to their defaults. Files written by older
// versions may lack whole sections.
func (s *Settings) fillDefaults() {
	d := NewSettings()
	if s.Mode == "" {
		s.Mode = d.Mode
	}
	if s.Connection.Timeout == 0 {
		s.Connection.Timeout = d.Connection.Timeout
	}
	if s.Connection.PollInterval == 0 {
		s.Connection.PollInterval = d.Connection.PollInterval
	}
	if s.UI.Title == "" {
		s.UI.Title = d.UI.Title
	}
	if s.UI.CircleSize == 0 {
		s.UI.CircleSize = d.UI.CircleSize
	}
	if s.UI.DisableColorName == "" {
		s.UI.DisableColorName = d.UI.DisableColorName
	}
	if s.UI.Splitter == "" {
		s.UI.Splitter = d.UI.Splitter
	}
	if s.Bridge.Listen == "" {
		s.Bridge.Listen = d.Bridge.Listen
	}
	if s.Bridge.CommandRate == 0 {
		s.Bridge.CommandRate = d.Bridge.CommandRate
	}
	if s.Bridge.CommandBurst == 0 {
		s.Bridge.CommandBurst = d.Bridge.CommandBurst
	}
	if s.Bridge.ResyncInterval == 0 {
		s.Bridge.ResyncInterval = d.Bridge.ResyncInterval
	}
	if s.Routers == nil {
		s.Routers = make(map[string]*Router)
	}
}

// SplitLabel splits label input into line 1 and line 2 at the splitter.
// Input without the splitter is line 1 only.
func (u UI) SplitLabel(text string) (string, string) {
	if u.Splitter == "" {
		return text, ""
	}
	line1, line2, _ := strings.Cut(text, u.Splitter)
	return line1, line2
}

// JoinLabel is the inverse of SplitLabel.
func (u UI) JoinLabel(line1, line2 string) string {
	if line2 == "" {
		return line1
	}
	return line1 + u.Splitter + line2
}

// RememberRouter records a router under a nickname and stamps it as seen now.
func (s *Settings) RememberRouter(nickname, address, serial string) *Router {
	if s.Routers == nil {
		s.Routers = make(map[string]*Router)
	}
	r, ok := s.Routers[nickname]
	if !ok {
		r = &Router{}
		s.Routers[nickname] = r
	}
	r.Address = address
	if serial != "" {
		r.Serial = serial
	}
	r.LastSeen = time.Now()
	return r
}

// ResolveAddress returns the address of a remembered router when name is one
// of its nicknames, and name itself otherwise.
func (s *Settings) ResolveAddress(name string) string {
	if r, ok := s.Routers[name]; ok && r.Address != "" {
		return r.Address
	}
	return name
}
