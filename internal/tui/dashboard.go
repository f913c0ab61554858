package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/config"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/state"
)

// Message types for async operations
type notificationMsg struct {
	n kumo.Notification
}

type loadedMsg struct{}

type commandDoneMsg struct {
	action string
	err    error
}

type tickMsg time.Time

// notificationBuffer is how many notifications may queue between renders.
// The mirror is updated on the poll goroutine, so a dropped signal only
// delays a redraw.
const notificationBuffer = 64

// dashboardKeyMap defines key bindings for the dashboard screen
type dashboardKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Route  key.Binding
	Lock   key.Binding
	Reload key.Binding
	Poll   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Route, k.Lock, k.Reload, k.Poll, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Route, k.Lock, k.Reload, k.Poll},
		{k.Help, k.Quit},
	}
}

func newDashboardKeys() dashboardKeyMap {
	return dashboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous source"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next source"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous destination"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next destination"),
		),
		Route: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "route"),
		),
		Lock: key.NewBinding(
			key.WithKeys("L", "x"),
			key.WithHelp("L/x", "lock"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Poll: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "force poll"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DashboardModel shows the routing matrix of one router: sources as rows,
// destinations as columns.
type DashboardModel struct {
	Client *kumo.Client
	Mirror *state.Mirror
	UI     config.UI

	// UI state
	Width  int
	Height int

	// Cursor, zero-based: Row is the source, Col the destination
	Row       int
	Col       int
	rowOffset int
	colOffset int

	Loading     bool
	ShowingHelp bool
	Status      string
	StatusErr   bool
	Spinner     spinner.Model
	Help        help.Model
	Keys        dashboardKeyMap

	snap          state.Snapshot
	ctx           context.Context
	notifications chan kumo.Notification
	subscription  uuid.UUID
}

// NewDashboardModel subscribes to client and returns a dashboard that loads
// the full router state on Init. Call Close when done.
func NewDashboardModel(ctx context.Context, client *kumo.Client, ui config.UI) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := DashboardModel{
		Client:        client,
		Mirror:        state.NewMirror(client.Address()),
		UI:            ui,
		Loading:       true,
		Spinner:       s,
		Help:          help.New(),
		Keys:          newDashboardKeys(),
		ctx:           ctx,
		notifications: make(chan kumo.Notification, notificationBuffer),
	}

	mirror, ch := m.Mirror, m.notifications
	m.subscription = client.Subscribe(func(n kumo.Notification) {
		mirror.Apply(n)
		select {
		case ch <- n:
		default:
		}
	})
	m.snap = m.Mirror.Snapshot()
	return m
}

// Close drops the notification subscription.
func (m DashboardModel) Close() {
	m.Client.Unsubscribe(m.subscription)
}

// Init loads the router state and starts listening for notifications
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		m.load(),
		waitForNotification(m.notifications),
		tick(),
	)
}

func (m DashboardModel) load() tea.Cmd {
	ctx, client, mirror := m.ctx, m.Client, m.Mirror
	return func() tea.Msg {
		mirror.Load(ctx, client)
		return loadedMsg{}
	}
}

func waitForNotification(ch <-chan kumo.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg{n: n}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages and updates the model
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.scroll()
		return m, nil

	case loadedMsg:
		m.Loading = false
		m.snap = m.Mirror.Snapshot()
		m.clampCursor()
		m.setStatus(fmt.Sprintf("Loaded %d×%d matrix", m.snap.PortCount, m.snap.PortCount), false)
		return m, nil

	case notificationMsg:
		m.snap = m.Mirror.Snapshot()
		cmds := []tea.Cmd{waitForNotification(m.notifications)}
		switch msg.n.Kind {
		case kumo.KindTopologyReset:
			m.Loading = true
			m.setStatus("Signal switching mode changed, reloading", false)
			cmds = append(cmds, m.load(), m.Spinner.Tick)
		case kumo.KindConnectivity:
			if msg.n.Connected {
				m.setStatus("Router reachable", false)
			} else {
				m.setStatus("Router unreachable", true)
			}
		}
		m.clampCursor()
		return m, tea.Batch(cmds...)

	case commandDoneMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("%s failed: %s", msg.action, kumo.GetShortErrorMessage(msg.err)), true)
		} else {
			m.setStatus(msg.action+" done", false)
		}
		return m, nil

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.ShowingHelp {
			m.ShowingHelp = false
			return m, nil
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Help):
		m.ShowingHelp = true
	case key.Matches(msg, m.Keys.Up):
		m.Row--
	case key.Matches(msg, m.Keys.Down):
		m.Row++
	case key.Matches(msg, m.Keys.Left):
		m.Col--
	case key.Matches(msg, m.Keys.Right):
		m.Col++
	case key.Matches(msg, m.Keys.Route):
		return m.route()
	case key.Matches(msg, m.Keys.Lock):
		return m.toggleLock()
	case key.Matches(msg, m.Keys.Reload):
		if m.Loading {
			return m, nil
		}
		m.Loading = true
		m.setStatus("Reloading", false)
		return m, tea.Batch(m.load(), m.Spinner.Tick)
	case key.Matches(msg, m.Keys.Poll):
		ctx, client := m.ctx, m.Client
		return m, func() tea.Msg {
			return commandDoneMsg{action: "Poll", err: client.ForcePoll(ctx)}
		}
	}
	m.clampCursor()
	return m, nil
}

func (m DashboardModel) route() (tea.Model, tea.Cmd) {
	if m.snap.PortCount == 0 {
		return m, nil
	}
	dest, src := m.Col+1, m.Row+1
	if m.snap.Destinations[m.Col].Locked {
		m.setStatus(fmt.Sprintf("Destination %d is locked", dest), true)
		return m, nil
	}

	ctx, client := m.ctx, m.Client
	action := fmt.Sprintf("Route source %d to destination %d", src, dest)
	return m, func() tea.Msg {
		return commandDoneMsg{action: action, err: client.Route(ctx, dest, src)}
	}
}

func (m DashboardModel) toggleLock() (tea.Model, tea.Cmd) {
	if m.snap.PortCount == 0 {
		return m, nil
	}
	dest := m.Col + 1
	locked := !m.snap.Destinations[m.Col].Locked

	ctx, client := m.ctx, m.Client
	action := fmt.Sprintf("Unlock destination %d", dest)
	if locked {
		action = fmt.Sprintf("Lock destination %d", dest)
	}
	return m, func() tea.Msg {
		return commandDoneMsg{action: action, err: client.Lock(ctx, dest, locked)}
	}
}

func (m *DashboardModel) setStatus(text string, isErr bool) {
	m.Status = text
	m.StatusErr = isErr
}

func (m *DashboardModel) clampCursor() {
	n := m.snap.PortCount
	if n <= 0 {
		m.Row, m.Col = 0, 0
		return
	}
	m.Row = clamp(m.Row, 0, n-1)
	m.Col = clamp(m.Col, 0, n-1)
	m.scroll()
}

// scroll moves the viewport so the cursor stays visible.
func (m *DashboardModel) scroll() {
	cols, rows := m.visibleCols(), m.visibleRows()
	if m.Col < m.colOffset {
		m.colOffset = m.Col
	} else if m.Col >= m.colOffset+cols {
		m.colOffset = m.Col - cols + 1
	}
	if m.Row < m.rowOffset {
		m.rowOffset = m.Row
	} else if m.Row >= m.rowOffset+rows {
		m.rowOffset = m.Row - rows + 1
	}
}

func (m DashboardModel) cellWidth() int {
	return clamp(m.UI.CircleSize, minCellWidth, maxCellWidth)
}

func (m DashboardModel) contentWidth() int {
	w := m.Width
	if w < MinTerminalWidth {
		w = MinTerminalWidth
	}
	if w > MaxContentWidth {
		w = MaxContentWidth
	}
	return w - 8
}

func (m DashboardModel) visibleCols() int {
	return max(1, (m.contentWidth()-rowHeaderWidth)/m.cellWidth())
}

func (m DashboardModel) visibleRows() int {
	// Header, footer, status lines and the three grid header rows.
	return max(1, m.Height-14)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.ShowingHelp {
		return RenderModal(m.renderHelpModal(), m.Width, m.Height)
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatusBar(),
		"",
		m.renderGrid(),
		"",
		m.renderStatusLine(),
	)
	return RenderApplicationContainer(m.UI.Title, content, m.Help.View(m.Keys), m.Width, m.Height)
}

func (m DashboardModel) renderStatusBar() string {
	conn := StatusBadStyle.Render("✗ disconnected")
	if m.snap.Connected {
		conn = StatusOKStyle.Render("✓ connected")
	}

	temp := "–"
	if m.snap.Temperature != kumo.NoTemperature {
		temp = fmt.Sprintf("%d°C", m.snap.Temperature)
	}

	lastPoll := "never"
	if t := m.Client.LastPoll(); !t.IsZero() {
		lastPoll = time.Since(t).Truncate(time.Second).String() + " ago"
	}

	polling := StatusWarnStyle.Render("stopped")
	if m.Client.IsPolling() {
		polling = "polling"
	}

	return fmt.Sprintf("%s  %s  │  %d×%d  │  %s  │  %s, last %s",
		m.snap.Address, conn, m.snap.PortCount, m.snap.PortCount, temp, polling, lastPoll)
}

func (m DashboardModel) renderStatusLine() string {
	if m.Loading {
		return m.Spinner.View() + " Loading router state..."
	}
	if m.Status == "" {
		return ""
	}
	if m.StatusErr {
		return StatusBadStyle.Render(m.Status)
	}
	return SubtitleStyle.Render(m.Status)
}

// buttonStyle renders a port label with its button color.
func (m DashboardModel) buttonStyle(p state.Port, locked bool) lipgloss.Style {
	style := lipgloss.NewStyle()
	switch {
	case locked:
		style = style.Foreground(ResolveColor(m.UI.DisableColorName))
	case m.UI.UseColorsForButtonsText:
		style = style.Foreground(lipgloss.Color(p.Color))
	default:
		style = style.Background(lipgloss.Color(p.Color)).Foreground(lipgloss.Color("#000000"))
	}
	return style
}

func (m DashboardModel) buttonText(label string, width int) string {
	if m.UI.FlatButtons {
		return truncate(label, width)
	}
	return "[" + truncate(label, width-2) + "]"
}

func (m DashboardModel) renderGrid() string {
	n := m.snap.PortCount
	if n == 0 {
		return SubtitleStyle.Render("No ports")
	}

	cw := m.cellWidth()
	firstCol, lastCol := m.colOffset, min(n, m.colOffset+m.visibleCols())
	firstRow, lastRow := m.rowOffset, min(n, m.rowOffset+m.visibleRows())
	center := lipgloss.NewStyle().Width(cw).Align(lipgloss.Center)

	var b strings.Builder

	// Destination numbers, labels and lock markers.
	b.WriteString(strings.Repeat(" ", rowHeaderWidth))
	for c := firstCol; c < lastCol; c++ {
		b.WriteString(center.Render(fmt.Sprintf("%d", c+1)))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", rowHeaderWidth))
	for c := firstCol; c < lastCol; c++ {
		d := m.snap.Destinations[c]
		label := m.buttonStyle(d, d.Locked).Render(m.buttonText(d.Line1, cw-1))
		b.WriteString(center.Render(label))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", rowHeaderWidth))
	for c := firstCol; c < lastCol; c++ {
		marker := ""
		if m.snap.Destinations[c].Locked {
			marker = StatusWarnStyle.Render("L")
		}
		b.WriteString(center.Render(marker))
	}
	b.WriteString("\n")

	for r := firstRow; r < lastRow; r++ {
		src := m.snap.Sources[r]
		header := fmt.Sprintf("%2d ", r+1) + m.buttonStyle(src, false).Render(m.buttonText(src.Line1, rowHeaderWidth-4))
		b.WriteString(lipgloss.NewStyle().Width(rowHeaderWidth).Render(header))

		for c := firstCol; c < lastCol; c++ {
			cell := m.cellGlyph(r+1, m.snap.Destinations[c])
			style := center
			if r == m.Row && c == m.Col {
				style = style.Inherit(CursorStyle)
			}
			b.WriteString(style.Render(cell))
		}
		if r < lastRow-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// cellGlyph draws the crossing of source row src and destination d: a dot
// where they are routed and, with connection lines on, a line above it.
func (m DashboardModel) cellGlyph(src int, d state.Port) string {
	switch {
	case d.Source == src:
		return "●"
	case m.UI.DrawConnectionLines && d.Source > src:
		return "│"
	default:
		return "·"
	}
}

func (m DashboardModel) renderHelpModal() string {
	h := m.Help
	h.ShowAll = true
	body := lipgloss.JoinVertical(lipgloss.Left,
		RenderTitle("Keyboard shortcuts"),
		h.View(m.Keys),
		"",
		SubtitleStyle.Render("Press any key to close"),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(1, 2).
		Width(SafeModalWidth(70, m.Width)).
		Render(body)
}
