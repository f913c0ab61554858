package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/config"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery  Screen = "discovery"
	ScreenConnecting Screen = "connecting"
	ScreenDashboard  Screen = "dashboard"
	ScreenFailure    Screen = "failure"
)

// loginResultMsg carries the outcome of a login attempt.
type loginResultMsg struct {
	client *kumo.Client
	ok     bool
}

// failureKeyMap defines key bindings for the failure screen
type failureKeyMap struct {
	Retry    key.Binding
	Discover key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k failureKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Retry, k.Discover, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k failureKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Retry, k.Discover, k.Quit}}
}

// Options configures the application.
type Options struct {
	// Engine is the client configuration. An empty Address outside simulator
	// mode starts on the discovery screen.
	Engine kumo.Config

	// Password is sent on login.
	Password string

	// UI holds the display settings.
	UI config.UI

	// Scan overrides router discovery. Nil uses mDNS.
	Scan ScanFunc
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen Screen

	DiscoveryModel DiscoveryModel
	DashboardModel DashboardModel

	Options   Options
	Address   string
	Client    *kumo.Client
	LastError string

	Width  int
	Height int

	Spinner     spinner.Model
	Help        help.Model
	FailureKeys failureKeyMap

	ctx context.Context
}

// NewAppModel creates the application. It connects straight away when the
// router address is known and shows the discovery screen otherwise.
func NewAppModel(ctx context.Context, opts Options) AppModel {
	if opts.UI.Title == "" {
		opts.UI = config.NewSettings().UI
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := AppModel{
		Options: opts,
		Address: opts.Engine.Address,
		Spinner: s,
		Help:    help.New(),
		FailureKeys: failureKeyMap{
			Retry:    key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "retry")),
			Discover: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "discover")),
			Quit:     key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
		},
		ctx: ctx,
	}

	if m.Address == "" && !opts.Engine.Simulator {
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(ctx, opts.Scan)
	} else {
		m.CurrentScreen = ScreenConnecting
	}
	return m
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.Init()
	case ScreenConnecting:
		return tea.Batch(m.Spinner.Tick, m.login())
	default:
		return nil
	}
}

func (m AppModel) login() tea.Cmd {
	ctx, cfg, password := m.ctx, m.Options.Engine, m.Options.Password
	cfg.Address = m.Address
	return func() tea.Msg {
		client := kumo.NewFromConfig(cfg)
		ok := client.Login(ctx, password)
		if !ok {
			logging.Warn("Login failed", zap.String("address", client.Address()))
		}
		return loginResultMsg{client: client, ok: ok}
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case routerSelectedMsg:
		m.Address = msg.address
		m.CurrentScreen = ScreenConnecting
		return m, tea.Batch(m.Spinner.Tick, m.login())

	case loginResultMsg:
		if !msg.ok {
			m.CurrentScreen = ScreenFailure
			m.LastError = fmt.Sprintf("Could not log in to %s", msg.client.Address())
			return m, nil
		}
		m.Client = msg.client
		m.DashboardModel = NewDashboardModel(m.ctx, msg.client, m.Options.UI)
		m.DashboardModel.Width = m.Width
		m.DashboardModel.Height = m.Height
		msg.client.StartPolling(m.ctx)
		m.CurrentScreen = ScreenDashboard
		return m, m.DashboardModel.Init()

	case spinner.TickMsg:
		if m.CurrentScreen == ScreenConnecting {
			var cmd tea.Cmd
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}
	}

	return m.updateScreen(msg)
}

func (m AppModel) updateScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var updated tea.Model

	switch m.CurrentScreen {
	case ScreenDiscovery:
		updated, cmd = m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)
	case ScreenDashboard:
		updated, cmd = m.DashboardModel.Update(msg)
		m.DashboardModel = updated.(DashboardModel)
	case ScreenFailure:
		if k, ok := msg.(tea.KeyMsg); ok {
			return m.updateFailure(k)
		}
	}
	return m, cmd
}

func (m AppModel) updateFailure(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.FailureKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.FailureKeys.Retry):
		m.CurrentScreen = ScreenConnecting
		return m, tea.Batch(m.Spinner.Tick, m.login())
	case key.Matches(msg, m.FailureKeys.Discover):
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(m.ctx, m.Options.Scan)
		m.DiscoveryModel.Width = m.Width
		m.DiscoveryModel.Height = m.Height
		return m, m.DiscoveryModel.Init()
	}
	return m, nil
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	case ScreenDashboard:
		return m.DashboardModel.View()
	case ScreenFailure:
		content := lipgloss.JoinVertical(lipgloss.Left,
			"",
			RenderError(m.LastError),
			"",
			SubtitleStyle.Render("Check the address and the router password."),
		)
		return RenderApplicationContainer(m.Options.UI.Title, content, m.Help.View(m.FailureKeys), m.Width, m.Height)
	default:
		content := fmt.Sprintf("\n  %s Connecting to %s...", m.Spinner.View(), m.connectingTo())
		return RenderApplicationContainer(m.Options.UI.Title, content, "", m.Width, m.Height)
	}
}

func (m AppModel) connectingTo() string {
	if m.Options.Engine.Simulator {
		return kumo.SimulatorAddress
	}
	return m.Address
}

// Close stops polling and drops the dashboard subscription. Call it after the
// program exits.
func (m AppModel) Close() {
	if m.Client == nil {
		return
	}
	m.DashboardModel.Close()
	m.Client.StopPolling()
}

// Run starts the full-screen application and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewAppModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if app, ok := final.(AppModel); ok {
		app.Close()
	}
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
