package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// loadTimeout bounds one load of the dashboard data.
const loadTimeout = 2 * time.Minute

// loadData runs the loader in the background and reports the result.
func (m Model) loadData() tea.Cmd {
	load := m.load
	parent := m.ctx
	return func() tea.Msg {
		if load == nil {
			return dataLoadedMsg{err: fmt.Errorf("no data loader configured")}
		}

		ctx, cancel := context.WithTimeout(parent, loadTimeout)
		defer cancel()

		data, err := load(ctx)
		if err == nil && (data == nil || data.Report == nil) {
			err = fmt.Errorf("loader returned no report")
		}
		return dataLoadedMsg{data: data, err: err}
	}
}
