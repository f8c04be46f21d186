package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case StateLoading:
		return m.renderLoading()
	case StateError:
		return m.renderError()
	}

	parts := []string{m.renderTabBar(), m.viewport.View(), m.renderStatusBar()}
	if m.config.ShowHelp {
		parts = append(parts, m.help.View(m.keymap))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render("Grant Analysis"),
		"",
		m.spinner.View()+" "+m.theme.Muted.Render("Loading grant data..."),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// renderError shows the load error with a hint to retry.
func (m Model) renderError() string {
	msg := "unknown error"
	if m.lastError != nil {
		msg = m.lastError.Error()
	}
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		m.theme.Bad.Render("Failed to load data"),
		"",
		lipgloss.NewStyle().Width(max(m.width-8, 20)).Render(msg),
		"",
		m.theme.Muted.Render("Press r to retry or q to quit"),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.theme.Box.Render(content))
}

// renderTabBar renders tab titles, highlighting the active one. On narrow
// terminals only the active tab and its position are shown.
func (m Model) renderTabBar() string {
	tabs := make([]string, 0, tabCount)
	for _, t := range AllTabs() {
		style := m.theme.TabInactive
		if t == m.tab {
			style = m.theme.TabActive
		}
		tabs = append(tabs, style.Render(t.Title()))
	}
	bar := strings.Join(tabs, m.theme.TabGap.Render("│"))
	if lipgloss.Width(bar) <= m.width {
		return bar
	}
	return m.theme.TabActive.Render(fmt.Sprintf("%s (%d/%d)", m.tab.Title(), int(m.tab)+1, int(tabCount)))
}

// renderStatusBar shows the run, the scroll position and the warning count.
func (m Model) renderStatusBar() string {
	left := ""
	warnings := 0
	if m.data != nil && m.data.Report != nil {
		left = "Run " + m.data.Report.RunID
		warnings = len(m.data.Report.Warnings)
	}
	right := fmt.Sprintf("%3.0f%%", m.viewport.ScrollPercent()*100)
	if warnings > 0 {
		right = fmt.Sprintf("%d skipped  %s", warnings, right)
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return m.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}
