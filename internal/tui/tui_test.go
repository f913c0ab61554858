package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/config"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/discovery"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/state"
)

func newSimulatorClient(t *testing.T) *kumo.Client {
	t.Helper()
	sim := kumo.NewSimulatedSession(0)
	sim.Wait = 20 * time.Millisecond
	client := kumo.New(sim, 10*time.Millisecond)
	if !client.Login(context.Background(), "") {
		t.Fatal("simulator login failed")
	}
	return client
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loadedDashboard returns a dashboard over the simulator with its state loaded.
func loadedDashboard(t *testing.T) DashboardModel {
	t.Helper()
	client := newSimulatorClient(t)
	m := NewDashboardModel(context.Background(), client, config.NewSettings().UI)
	t.Cleanup(m.Close)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(DashboardModel)
	updated, _ = m.Update(m.load()())
	return updated.(DashboardModel)
}

func TestDashboardLoad(t *testing.T) {
	m := loadedDashboard(t)

	if m.Loading {
		t.Error("Loading = true after load")
	}
	if m.snap.PortCount != 4 {
		t.Fatalf("PortCount = %d, want 4", m.snap.PortCount)
	}

	view := m.View()
	for _, want := range []string{"source_1", "[des", "connected"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestDashboardCursorStaysInGrid(t *testing.T) {
	m := loadedDashboard(t)

	for i := 0; i < 10; i++ {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m = updated.(DashboardModel)
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
		m = updated.(DashboardModel)
	}
	if m.Row != 3 || m.Col != 3 {
		t.Errorf("cursor = (%d,%d), want (3,3)", m.Row, m.Col)
	}

	for i := 0; i < 10; i++ {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
		m = updated.(DashboardModel)
	}
	if m.Row != 0 {
		t.Errorf("Row = %d, want 0", m.Row)
	}
}

func TestDashboardRoute(t *testing.T) {
	m := loadedDashboard(t)
	m.Row, m.Col = 2, 0

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("route returned no command")
	}
	done, ok := cmd().(commandDoneMsg)
	if !ok {
		t.Fatalf("command returned %T, want commandDoneMsg", cmd())
	}
	if done.err != nil {
		t.Fatalf("route error = %v", done.err)
	}

	if got := m.Client.GetMatrix(context.Background()).SourceOf(1); got != 3 {
		t.Errorf("destination 1 source = %d, want 3", got)
	}
}

func TestDashboardRouteLockedDestination(t *testing.T) {
	m := loadedDashboard(t)
	m.Row, m.Col = 0, 1 // destination 2 starts locked

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("routing a locked destination returned a command")
	}
	m = updated.(DashboardModel)
	if !m.StatusErr || !strings.Contains(m.Status, "locked") {
		t.Errorf("Status = %q (err %v), want a locked error", m.Status, m.StatusErr)
	}
}

func TestDashboardToggleLock(t *testing.T) {
	m := loadedDashboard(t)
	m.Col = 1

	_, cmd := m.Update(keyRunes("x"))
	if cmd == nil {
		t.Fatal("lock returned no command")
	}
	if done := cmd().(commandDoneMsg); done.err != nil {
		t.Fatalf("lock error = %v", done.err)
	}
	if m.Client.IsLocked(context.Background(), 2) {
		t.Error("destination 2 still locked after toggle")
	}
}

func TestDashboardNotificationUpdatesSnapshot(t *testing.T) {
	m := loadedDashboard(t)

	n := kumo.Notification{Kind: kumo.KindMatrix, Matrix: kumo.MatrixState{4: {1}}}
	m.Mirror.Apply(n)
	updated, cmd := m.Update(notificationMsg{n: n})
	m = updated.(DashboardModel)

	if cmd == nil {
		t.Error("notification did not re-arm the listener")
	}
	if got := m.snap.Destinations[0].Source; got != 4 {
		t.Errorf("destination 1 source = %d, want 4", got)
	}
}

func TestDashboardTopologyResetReloads(t *testing.T) {
	m := loadedDashboard(t)

	updated, _ := m.Update(notificationMsg{n: kumo.Notification{Kind: kumo.KindTopologyReset, PortCount: 4}})
	m = updated.(DashboardModel)
	if !m.Loading {
		t.Error("Loading = false after topology reset")
	}
}

func TestDashboardCommandFailure(t *testing.T) {
	m := loadedDashboard(t)

	updated, _ := m.Update(commandDoneMsg{action: "Route", err: kumo.NewHTTPError(500, "boom")})
	m = updated.(DashboardModel)
	if !m.StatusErr || !strings.HasPrefix(m.Status, "Route failed") {
		t.Errorf("Status = %q, want a route failure", m.Status)
	}
}

func TestCellGlyph(t *testing.T) {
	tests := []struct {
		name  string
		lines bool
		src   int
		dest  state.Port
		want  string
	}{
		{"routed", false, 2, state.Port{Source: 2}, "●"},
		{"not routed", false, 1, state.Port{Source: 2}, "·"},
		{"line above routed", true, 1, state.Port{Source: 3}, "│"},
		{"below routed", true, 4, state.Port{Source: 3}, "·"},
		{"unrouted column", true, 1, state.Port{}, "·"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DashboardModel{UI: config.UI{DrawConnectionLines: tt.lines}}
			if got := m.cellGlyph(tt.src, tt.dest); got != tt.want {
				t.Errorf("cellGlyph() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestButtonText(t *testing.T) {
	m := DashboardModel{}
	if got := m.buttonText("dest_1", 10); got != "[dest_1]" {
		t.Errorf("buttonText() = %q, want %q", got, "[dest_1]")
	}
	m.UI.FlatButtons = true
	if got := m.buttonText("dest_1", 10); got != "dest_1" {
		t.Errorf("flat buttonText() = %q, want %q", got, "dest_1")
	}
}

func TestCellWidthClamped(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, minCellWidth},
		{7, 7},
		{40, maxCellWidth},
	}
	for _, tt := range tests {
		m := DashboardModel{UI: config.UI{CircleSize: tt.size}}
		if got := m.cellWidth(); got != tt.want {
			t.Errorf("cellWidth(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestDiscoveryScanResults(t *testing.T) {
	routers := []*discovery.Router{{Instance: "KUMO 1604", IP: "192.168.1.50", Port: 80}}
	m := NewDiscoveryModel(context.Background(), func(context.Context) ([]*discovery.Router, error) {
		return routers, nil
	})

	updated, _ := m.Update(scanStartMsg{})
	m = updated.(DiscoveryModel)
	if !m.Scanning {
		t.Fatal("Scanning = false after scan start")
	}

	updated, _ = m.Update(scanCompleteMsg{routers: routers})
	m = updated.(DiscoveryModel)
	if m.Scanning {
		t.Error("Scanning = true after scan complete")
	}
	if len(m.RouterList.Items()) != 1 {
		t.Fatalf("items = %d, want 1", len(m.RouterList.Items()))
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	sel, ok := cmd().(routerSelectedMsg)
	if !ok || sel.address != "192.168.1.50" {
		t.Errorf("selection = %+v, want 192.168.1.50", sel)
	}
}

func TestDiscoveryScanError(t *testing.T) {
	m := NewDiscoveryModel(context.Background(), nil)
	updated, _ := m.Update(scanCompleteMsg{err: errors.New("no multicast")})
	m = updated.(DiscoveryModel)

	if !strings.Contains(m.View(), "no multicast") {
		t.Error("View() does not show the scan error")
	}
}

func TestDiscoveryManualEntry(t *testing.T) {
	m := NewDiscoveryModel(context.Background(), nil)

	updated, _ := m.Update(keyRunes("m"))
	m = updated.(DiscoveryModel)
	if !m.ManualMode {
		t.Fatal("ManualMode = false after 'm'")
	}

	updated, _ = m.Update(keyRunes("10.0.0.9"))
	m = updated.(DiscoveryModel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	sel, ok := cmd().(routerSelectedMsg)
	if !ok || sel.address != "10.0.0.9" {
		t.Errorf("selection = %+v, want 10.0.0.9", sel)
	}
}

func TestAppModelStartScreen(t *testing.T) {
	tests := []struct {
		name string
		cfg  kumo.Config
		want Screen
	}{
		{"no address", kumo.Config{}, ScreenDiscovery},
		{"address", kumo.Config{Address: "192.168.1.50"}, ScreenConnecting},
		{"simulator", kumo.Config{Simulator: true}, ScreenConnecting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAppModel(context.Background(), Options{Engine: tt.cfg})
			if m.CurrentScreen != tt.want {
				t.Errorf("CurrentScreen = %s, want %s", m.CurrentScreen, tt.want)
			}
		})
	}
}

func TestAppModelSimulatorLogin(t *testing.T) {
	m := NewAppModel(context.Background(), Options{Engine: kumo.Config{Simulator: true}})

	msg := m.login()()
	result, ok := msg.(loginResultMsg)
	if !ok || !result.ok {
		t.Fatalf("login() = %+v, want success", msg)
	}

	updated, _ := m.Update(result)
	m = updated.(AppModel)
	defer m.Close()

	if m.CurrentScreen != ScreenDashboard {
		t.Errorf("CurrentScreen = %s, want %s", m.CurrentScreen, ScreenDashboard)
	}
	if !m.Client.IsPolling() {
		t.Error("polling not started after login")
	}
}

func TestAppModelLoginFailure(t *testing.T) {
	m := NewAppModel(context.Background(), Options{Engine: kumo.Config{Address: "192.168.1.50"}})

	client := kumo.NewFromConfig(kumo.Config{Address: "192.168.1.50"})
	updated, _ := m.Update(loginResultMsg{client: client, ok: false})
	m = updated.(AppModel)

	if m.CurrentScreen != ScreenFailure {
		t.Fatalf("CurrentScreen = %s, want %s", m.CurrentScreen, ScreenFailure)
	}
	if !strings.Contains(m.View(), "192.168.1.50") {
		t.Error("failure view does not name the router")
	}
}

func TestResolveColor(t *testing.T) {
	tests := []struct {
		in   string
		want lipgloss.Color
	}{
		{"#112233", "#112233"},
		{"DimGray", "#696969"},
		{"red", "#FF0000"},
		{"nope", "#696969"},
	}
	for _, tt := range tests {
		if got := ResolveColor(tt.in); got != tt.want {
			t.Errorf("ResolveColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"source_1", 10, "source_1"},
		{"source_1", 5, "sour…"},
		{"source_1", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
