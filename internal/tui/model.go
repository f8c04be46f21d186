package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/grantlens/internal/tui/themes"
)

// State represents the current state of the dashboard.
type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

// chromeHeight is the number of lines taken by the tab bar, the status bar
// and the help line.
const chromeHeight = 4

// Model holds the dashboard state.
type Model struct {
	ctx       context.Context
	lastError error
	data      *Data
	load      LoadFunc
	theme     themes.Theme
	keymap    KeyMap
	help      help.Model
	spinner   spinner.Model
	viewport  viewport.Model
	config    Config
	width     int
	height    int
	tab       Tab
	state     State
	quitting  bool
}

// newModel creates a new model with the given configuration.
func newModel(ctx context.Context, load LoadFunc, cfg Config) Model {
	h := help.New()
	h.ShowAll = false

	m := Model{
		ctx:     ctx,
		load:    load,
		config:  cfg,
		keymap:  DefaultKeyMap(),
		theme:   cfg.Theme,
		help:    h,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		state:   StateLoading,
		width:   cfg.Width,
		height:  cfg.Height,
	}
	m.viewport = viewport.New(cfg.Width, m.bodyHeight())
	return m
}

// Init starts loading data.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadData(), m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case dataLoadedMsg:
		if msg.err != nil {
			m.state = StateError
			m.lastError = msg.err
			return m, nil
		}
		m.data = msg.data
		m.state = StateReady
		m.lastError = nil
		m.refreshContent()
		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleKey handles keys. Tab and scroll keys are ignored until data has
// loaded.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.handleResize()
		return m, nil
	case key.Matches(msg, m.keymap.Reload):
		if m.state == StateLoading {
			return m, nil
		}
		m.state = StateLoading
		return m, tea.Batch(m.loadData(), m.spinner.Tick)
	}

	if m.state != StateReady {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.NextTab):
		m.setTab((m.tab + 1) % tabCount)
	case key.Matches(msg, m.keymap.PrevTab):
		m.setTab((m.tab + tabCount - 1) % tabCount)
	case key.Matches(msg, m.keymap.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keymap.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keymap.PageUp):
		m.viewport.PageUp()
	case key.Matches(msg, m.keymap.PageDown):
		m.viewport.PageDown()
	case key.Matches(msg, m.keymap.Home):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keymap.End):
		m.viewport.GotoBottom()
	}
	return m, nil
}

// setTab switches tabs and scrolls the new one to the top.
func (m *Model) setTab(t Tab) {
	m.tab = t
	m.refreshContent()
	m.viewport.GotoTop()
}

func (m *Model) refreshContent() {
	m.viewport.SetContent(renderTab(m.tab, m.data, m.theme, m.config.TopN))
}

// handleResize adjusts the viewport when the terminal or help line changes.
func (m *Model) handleResize() {
	m.viewport.Width = m.width
	m.viewport.Height = m.bodyHeight()
	m.help.Width = m.width
	if m.state == StateReady {
		m.refreshContent()
	}
}

func (m Model) bodyHeight() int {
	used := chromeHeight
	if m.help.ShowAll {
		used += len(m.keymap.FullHelp()[1]) - 1
	}
	return max(m.height-used, 1)
}

// Tab returns the active tab.
func (m Model) Tab() Tab {
	return m.tab
}

// State returns the load state.
func (m Model) State() State {
	return m.state
}

// Err returns the last load error, if any.
func (m Model) Err() error {
	return m.lastError
}
