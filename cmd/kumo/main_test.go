package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/state"
)

// execute runs the root command against the simulator with a private
// settings file and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flags bind to package variables, so reset them between runs.
	configPath, address, password, logLevel = "", "", "", ""
	simulator, timeout, outputFormat = false, 0, "text"
	labelType, watchKinds, configForce = "", nil, false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(""))
	settings := filepath.Join(t.TempDir(), "config.yaml")
	rootCmd.SetArgs(append([]string{"--simulator", "--config", settings}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestMatrixJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "matrix")
	if err != nil {
		t.Fatalf("matrix error = %v\n%s", err, out)
	}

	var snap state.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("output is not a snapshot: %v\n%s", err, out)
	}
	if snap.PortCount != 4 {
		t.Errorf("PortCount = %d, want 4", snap.PortCount)
	}
	wantSources := []int{1, 2, 3, 2}
	for i, d := range snap.Destinations {
		if d.Source != wantSources[i] {
			t.Errorf("destination %d source = %d, want %d", d.Num, d.Source, wantSources[i])
		}
	}
	if !snap.Destinations[1].Locked {
		t.Error("destination 2 not locked")
	}
}

func TestMatrixText(t *testing.T) {
	out, err := execute(t, "matrix")
	if err != nil {
		t.Fatalf("matrix error = %v", err)
	}
	for _, want := range []string{"ROUTING MATRIX", "dest_1", "source_3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRoute(t *testing.T) {
	out, err := execute(t, "--format", "json", "route", "1", "4")
	if err != nil {
		t.Fatalf("route error = %v\n%s", err, out)
	}
	var got struct {
		Destination int `json:"destination"`
		Source      int `json:"source"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Destination != 1 || got.Source != 4 {
		t.Errorf("route = %+v, want destination 1 source 4", got)
	}
}

func TestRouteRejections(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"locked destination", []string{"route", "2", "1"}, "locked"},
		{"destination out of range", []string{"route", "9", "1"}, "out of range"},
		{"source not a number", []string{"route", "1", "x"}, "not a number"},
		{"missing source", []string{"route", "1"}, "accepts 2 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	_, err := execute(t, "route", "2", "1")
	if !errors.Is(err, errDestinationLocked) {
		t.Errorf("error = %v, want errDestinationLocked", err)
	}
}

func TestLockUnlock(t *testing.T) {
	out, err := execute(t, "--format", "json", "unlock", "2")
	if err != nil {
		t.Fatalf("unlock error = %v", err)
	}
	var got kumo.PortLock
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.PortNum != 2 || got.IsLocked {
		t.Errorf("unlock = %+v, want destination 2 unlocked", got)
	}

	if _, err := execute(t, "lock", "1"); err != nil {
		t.Errorf("lock error = %v", err)
	}
}

func TestLabelGet(t *testing.T) {
	out, err := execute(t, "--format", "json", "label", "get", "2", "--type", "destination")
	if err != nil {
		t.Fatalf("label get error = %v", err)
	}
	var labels []kumo.PortText
	if err := json.Unmarshal([]byte(out), &labels); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(labels) != 1 || labels[0].Line1 != "dest_2" || labels[0].PortType != kumo.Destination {
		t.Errorf("labels = %+v, want dest_2", labels)
	}
}

func TestLabelSetSplitsLines(t *testing.T) {
	out, err := execute(t, "--format", "json", "label", "set", "source", "1", "CAM1##Wide")
	if err != nil {
		t.Fatalf("label set error = %v", err)
	}
	var label kumo.PortText
	if err := json.Unmarshal([]byte(out), &label); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if label.Line1 != "CAM1" || label.Line2 != "Wide" || label.PortNum != 1 {
		t.Errorf("label = %+v, want CAM1 / Wide on port 1", label)
	}
}

func TestInfo(t *testing.T) {
	out, err := execute(t, "--format", "json", "info")
	if err != nil {
		t.Fatalf("info error = %v", err)
	}
	var info kumo.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if info.SysName != "KUMO-SIM" || info.IPAddress != "127.0.0.1" || info.PortCount != 4 {
		t.Errorf("info = %+v", info)
	}
}

func TestIdentify(t *testing.T) {
	out, err := execute(t, "--format", "json", "identify", "on")
	if err != nil {
		t.Fatalf("identify error = %v", err)
	}
	if !strings.Contains(out, `"identify": true`) {
		t.Errorf("output = %s, want identify true", out)
	}

	if _, err := execute(t, "identify", "maybe"); err == nil {
		t.Error("identify maybe succeeded")
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kumo.yaml")

	configPath = path
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"config", "init", "--config", path})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("settings file not written: %v", err)
	}

	// Not a terminal and no --force: refuse to overwrite.
	rootCmd.SetArgs([]string{"config", "init", "--config", path})
	if err := rootCmd.ExecuteContext(context.Background()); err == nil {
		t.Error("second config init succeeded without --force")
	}
	configForce = false
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		arg       string
		portCount int
		want      int
		wantErr   bool
	}{
		{"1", 4, 1, false},
		{"4", 4, 4, false},
		{"5", 4, 0, true},
		{"0", 4, 0, true},
		{"abc", 4, 0, true},
		{"40", 0, 40, false},
	}
	for _, tt := range tests {
		got, err := parsePort(tt.arg, "port", tt.portCount)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePort(%q, %d) error = %v, wantErr %v", tt.arg, tt.portCount, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePort(%q, %d) = %d, want %d", tt.arg, tt.portCount, got, tt.want)
		}
	}
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"Matrix", " lock "})
	if err != nil {
		t.Fatalf("parseKinds() error = %v", err)
	}
	if len(kinds) != 2 || kinds[0] != kumo.KindMatrix || kinds[1] != kumo.KindLock {
		t.Errorf("parseKinds() = %v", kinds)
	}
	if _, err := parseKinds([]string{"weather"}); err == nil {
		t.Error("parseKinds(weather) succeeded")
	}
}

func TestWriteNotification(t *testing.T) {
	at := time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC)
	tests := []struct {
		n    kumo.Notification
		want string
	}{
		{kumo.Notification{Kind: kumo.KindMatrix, Matrix: kumo.MatrixState{3: {1, 4}}}, "source 3 → 1,4"},
		{kumo.Notification{Kind: kumo.KindTemperature, Temperature: 41}, "41°C"},
		{kumo.Notification{Kind: kumo.KindLock, Locks: []kumo.PortLock{{PortNum: 2, IsLocked: true}}}, "destination 2 locked"},
		{kumo.Notification{Kind: kumo.KindText, Texts: []kumo.PortText{{PortType: kumo.Source, PortNum: 1, Line1: "CAM", Line1Changed: true}}}, `Source 1 line 1 = "CAM"`},
		{kumo.Notification{Kind: kumo.KindConnectivity}, "router unreachable"},
		{kumo.Notification{Kind: kumo.KindTopologyReset, PortCount: 16}, "16 ports"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		writeNotification(&buf, at, tt.n)
		out := buf.String()
		if !strings.HasPrefix(out, "13:04:05") || !strings.Contains(out, tt.want) {
			t.Errorf("writeNotification(%s) = %q, want containing %q", tt.n.Kind, out, tt.want)
		}
	}
}
