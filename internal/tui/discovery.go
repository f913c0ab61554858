package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/discovery"
)

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	routers []*discovery.Router
	err     error
}

// routerSelectedMsg is sent when the user picks a router.
type routerSelectedMsg struct {
	address string
}

// ScanFunc finds routers on the network.
type ScanFunc func(ctx context.Context) ([]*discovery.Router, error)

// discoveryKeyMap defines key bindings for the discovery screen
type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualModeKeyMap defines key bindings for manual address entry
type manualModeKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (m manualModeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.Confirm, m.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (m manualModeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.Confirm, m.Cancel}}
}

// routerItem wraps a Router for use with bubbles/list
type routerItem struct {
	router *discovery.Router
}

func (r routerItem) FilterValue() string {
	return r.router.Instance + " " + r.router.IP + " " + r.router.Hostname
}

// Title returns the router name for list display
func (r routerItem) Title() string {
	if r.router.Instance == "" {
		return fmt.Sprintf("Manual: %s", r.router.Address())
	}
	return r.router.Instance
}

// Description returns router details for list display
func (r routerItem) Description() string {
	return fmt.Sprintf("%s • %s", r.router.Address(), r.router.Hostname)
}

// routerDelegate renders one router card
type routerDelegate struct {
	width int
}

func (d routerDelegate) Height() int { return 6 }

func (d routerDelegate) Spacing() int { return 1 }

func (d routerDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d routerDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ri, ok := item.(routerItem)
	if !ok {
		return
	}
	selected := index == m.Index()

	var content strings.Builder
	if selected {
		content.WriteString(SelectedMenuItemStyle.Render("→ " + ri.Title()))
	} else {
		content.WriteString("  " + ri.Title())
	}
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("  Address:  %s\n", ri.router.Address()))
	host := ri.router.Hostname
	if host == "" {
		host = "–"
	}
	content.WriteString(fmt.Sprintf("  Hostname: %s", host))

	cardWidth := clamp(d.width-6, MinTerminalWidth-6, MaxContentWidth-6)
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 2).
		MarginLeft(2).
		Width(cardWidth)
	if selected {
		cardStyle = cardStyle.BorderForeground(HighlightColor)
	}

	fmt.Fprint(w, cardStyle.Render(content.String()))
}

// DiscoveryModel is the router picker: an mDNS scan plus manual address entry.
type DiscoveryModel struct {
	Scanning   bool
	RouterList list.Model
	Err        error

	ManualMode   bool
	AddressInput textinput.Model

	Width         int
	Height        int
	Spinner       spinner.Model
	ProgressBar   progress.Model
	ScanStartTime time.Time
	ScanTimeout   time.Duration
	Help          help.Model
	Keys          discoveryKeyMap
	ManualKeys    manualModeKeyMap

	scan ScanFunc
	ctx  context.Context
}

// NewDiscoveryModel creates a router picker. A nil scan uses an mDNS Scanner.
func NewDiscoveryModel(ctx context.Context, scan ScanFunc) DiscoveryModel {
	scanner := discovery.NewScanner()
	if scan == nil {
		scan = scanner.Scan
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "192.168.1.50"
	input.CharLimit = 64
	input.Width = 40

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	routers := list.New([]list.Item{}, routerDelegate{width: MinTerminalWidth}, 0, 0)
	routers.Title = "Discovered Routers"
	routers.SetShowStatusBar(false)
	routers.SetFilteringEnabled(true)
	routers.Styles.Title = TitleStyle

	return DiscoveryModel{
		RouterList:   routers,
		AddressInput: input,
		Spinner:      s,
		ProgressBar:  bar,
		ScanTimeout:  scanner.Timeout,
		Help:         help.New(),
		Keys: discoveryKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter address")),
			Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		},
		ManualKeys: manualModeKeyMap{
			Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
			Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		},
		scan: scan,
		ctx:  ctx,
	}
}

// Init starts a scan
func (m DiscoveryModel) Init() tea.Cmd {
	return m.startScan()
}

func (m DiscoveryModel) startScan() tea.Cmd {
	ctx, scan := m.ctx, m.scan
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		func() tea.Msg {
			routers, err := scan(ctx)
			return scanCompleteMsg{routers: routers, err: err}
		},
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.RouterList.SetDelegate(routerDelegate{width: msg.Width - 4})
		m.RouterList.SetWidth(msg.Width - 4)
		m.RouterList.SetHeight(msg.Height - 10)

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.routers))
		for i, r := range msg.routers {
			items[i] = routerItem{router: r}
		}
		m.RouterList.SetItems(items)

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.ManualMode && !m.Scanning {
		m.RouterList, cmd = m.RouterList.Update(msg)
	}
	return m, cmd
}

func (m DiscoveryModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Enter):
		if item, ok := m.RouterList.SelectedItem().(routerItem); ok {
			address := item.router.Address()
			return m, func() tea.Msg { return routerSelectedMsg{address: address} }
		}
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		if m.Scanning {
			return m, nil
		}
		m.RouterList.SetItems([]list.Item{})
		m.Err = nil
		return m, m.startScan()

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.AddressInput.SetValue("")
		m.AddressInput.Focus()
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	if !m.Scanning {
		m.RouterList, cmd = m.RouterList.Update(msg)
	}
	return m, cmd
}

func (m DiscoveryModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ManualKeys.Cancel):
		m.ManualMode = false
		m.AddressInput.SetValue("")
		m.AddressInput.Blur()
		return m, nil

	case key.Matches(msg, m.ManualKeys.Confirm):
		address := strings.TrimSpace(m.AddressInput.Value())
		if address == "" {
			return m, nil
		}
		m.ManualMode = false
		m.AddressInput.Blur()
		return m, func() tea.Msg { return routerSelectedMsg{address: address} }
	}

	var cmd tea.Cmd
	m.AddressInput, cmd = m.AddressInput.Update(msg)
	return m, cmd
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	var content, helpText string
	switch {
	case m.ManualMode:
		content = m.renderManualEntry()
		helpText = m.Help.View(m.ManualKeys)
	case m.Scanning:
		content = m.renderScanning()
		helpText = m.Help.View(m.ManualKeys)
	default:
		content = m.renderResults()
		helpText = m.Help.View(m.Keys)
	}
	return RenderApplicationContainer("Router Discovery", content, helpText, m.Width, m.Height)
}

func (m DiscoveryModel) renderScanning() string {
	elapsed := time.Since(m.ScanStartTime)
	fraction := 0.0
	if m.ScanTimeout > 0 {
		fraction = min(1, float64(elapsed)/float64(m.ScanTimeout))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR ROUTERS"),
		SubtitleStyle.Render("Browsing mDNS for KUMO routers..."),
		"",
		m.ProgressBar.ViewAs(fraction),
		"",
		SubtitleStyle.Render(fmt.Sprintf("Elapsed: %ds", int(elapsed.Seconds()))),
	)
	width := m.Width
	if width == 0 {
		width = MinTerminalWidth
	}
	return lipgloss.Place(width-8, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m DiscoveryModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(RenderError(fmt.Sprintf("Scan failed: %v", m.Err)))
		b.WriteString("\n\n")
		b.WriteString(troubleshooting)
	case len(m.RouterList.Items()) == 0:
		b.WriteString("  ")
		b.WriteString(StatusWarnStyle.Render("⚠ No routers found on your network"))
		b.WriteString("\n\n")
		b.WriteString(troubleshooting)
	default:
		b.WriteString(m.RouterList.View())
	}
	return b.String()
}

const troubleshooting = `  Troubleshooting:
    • Ensure the router is powered on and on this network
    • Some networks block mDNS; press 'm' to enter the address
    • Press 'r' to rescan
`

func (m DiscoveryModel) renderManualEntry() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		RenderTitle("Enter router address"),
		SubtitleStyle.Render("Host name, IP address or http:// URL"),
		"",
		"  "+m.AddressInput.View(),
	)
}
