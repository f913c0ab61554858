package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "kumo-router") {
		t.Errorf("GetConfigDir() = %v, should contain 'kumo-router'", configDir)
	}

	if runtime.GOOS == "darwin" && !strings.Contains(configDir, ".config") {
		t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
	}
}

func TestGetConfigDirXDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME is only honored on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, "kumo-router"); got != want {
		t.Errorf("GetConfigDir() = %v, want %v", got, want)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewSettings(t *testing.T) {
	s := NewSettings()

	if s.Version != 1 {
		t.Errorf("Version = %v, want 1", s.Version)
	}
	if s.Mode != ModeKumo {
		t.Errorf("Mode = %v, want %v", s.Mode, ModeKumo)
	}
	if s.Connection.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", s.Connection.Timeout)
	}
	if s.Connection.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", s.Connection.PollInterval)
	}
	if s.UI.Title != "Video Routing" {
		t.Errorf("UI.Title = %q, want %q", s.UI.Title, "Video Routing")
	}
	if s.UI.CircleSize != 7 {
		t.Errorf("UI.CircleSize = %v, want 7", s.UI.CircleSize)
	}
	if s.UI.DisableColorName != "DimGray" {
		t.Errorf("UI.DisableColorName = %q, want DimGray", s.UI.DisableColorName)
	}
	if s.UI.Splitter != "##" {
		t.Errorf("UI.Splitter = %q, want ##", s.UI.Splitter)
	}
	if s.Bridge.Listen != ":8080" {
		t.Errorf("Bridge.Listen = %q, want :8080", s.Bridge.Listen)
	}
	if s.Bridge.ResyncInterval != DefaultResync {
		t.Errorf("Bridge.ResyncInterval = %s, want %s", s.Bridge.ResyncInterval, DefaultResync)
	}
	if s.Routers == nil {
		t.Error("Routers should not be nil")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in     string
		want   Mode
		wantOK bool
	}{
		{"kumo", ModeKumo, true},
		{"KUMO", ModeKumo, true},
		{" Simulator ", ModeSimulator, true},
		{"", "", false},
		{"emulator", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseMode(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSplitLabel(t *testing.T) {
	ui := NewSettings().UI
	tests := []struct {
		in           string
		line1, line2 string
	}{
		{"Camera 1", "Camera 1", ""},
		{"Camera 1##Wide", "Camera 1", "Wide"},
		{"##Wide", "", "Wide"},
		{"a##b##c", "a", "b##c"},
	}
	for _, tt := range tests {
		l1, l2 := ui.SplitLabel(tt.in)
		if l1 != tt.line1 || l2 != tt.line2 {
			t.Errorf("SplitLabel(%q) = %q, %q, want %q, %q", tt.in, l1, l2, tt.line1, tt.line2)
		}
	}

	if got := ui.JoinLabel("Camera 1", "Wide"); got != "Camera 1##Wide" {
		t.Errorf("JoinLabel() = %q, want %q", got, "Camera 1##Wide")
	}
	if got := ui.JoinLabel("Camera 1", ""); got != "Camera 1" {
		t.Errorf("JoinLabel() = %q, want %q", got, "Camera 1")
	}
}

func TestRememberRouter(t *testing.T) {
	s := NewSettings()
	r := s.RememberRouter("studio", "10.0.0.5", "SN1")
	if r.LastSeen.IsZero() {
		t.Error("LastSeen should be set")
	}

	s.RememberRouter("studio", "10.0.0.6", "")
	if got := s.Routers["studio"]; got.Address != "10.0.0.6" || got.Serial != "SN1" {
		t.Errorf("router = %+v, want address 10.0.0.6 and serial SN1", got)
	}

	if got := s.ResolveAddress("studio"); got != "10.0.0.6" {
		t.Errorf("ResolveAddress(studio) = %q, want 10.0.0.6", got)
	}
	if got := s.ResolveAddress("10.0.0.9"); got != "10.0.0.9" {
		t.Errorf("ResolveAddress(10.0.0.9) = %q, want 10.0.0.9", got)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := NewSettings()
	s.Mode = ModeSimulator
	s.Connection.Address = "10.0.0.5"
	s.Connection.PollInterval = 250 * time.Millisecond
	s.UI.FlatButtons = true
	s.RememberRouter("studio", "10.0.0.5", "")

	if err := s.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# KUMO Router Configuration File") {
		t.Error("saved file should start with the header comment")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Mode != ModeSimulator {
		t.Errorf("Mode = %v, want %v", loaded.Mode, ModeSimulator)
	}
	if loaded.Connection.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", loaded.Connection.PollInterval)
	}
	if !loaded.UI.FlatButtons {
		t.Error("UI.FlatButtons should survive a round trip")
	}
	if r := loaded.Routers["studio"]; r == nil || r.Address != "10.0.0.5" {
		t.Errorf("Routers[studio] = %+v, want address 10.0.0.5", r)
	}
}

func TestLoadFileMissing(t *testing.T) {
	s, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if s.Connection.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want default", s.Connection.Timeout)
	}
}

func TestLoadFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nconnection:\n  address: 10.0.0.7\n"), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if s.Connection.Address != "10.0.0.7" {
		t.Errorf("Address = %q, want 10.0.0.7", s.Connection.Address)
	}
	if s.Mode != ModeKumo || s.Connection.PollInterval != DefaultPollInterval || s.UI.Splitter != "##" {
		t.Errorf("defaults not filled: %+v", s)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad version", "version: 2\n", "unsupported config version"},
		{"bad yaml", "version: [1\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFile() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME is only honored on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := CreateDefaultConfig(false)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if _, err := CreateDefaultConfig(false); err == nil {
		t.Error("second CreateDefaultConfig(false) should refuse to overwrite")
	}
	if _, err := CreateDefaultConfig(true); err != nil {
		t.Errorf("CreateDefaultConfig(true) error = %v", err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if s.Routers["studio"] == nil {
		t.Error("default config should include the example router")
	}
}
