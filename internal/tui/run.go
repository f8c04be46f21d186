package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the dashboard and blocks until the user quits or ctx is
// cancelled. load is called once on start and again on every reload.
func Run(ctx context.Context, load LoadFunc, opts ...Option) error {
	if load == nil {
		return fmt.Errorf("data loader is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(newModel(ctx, load, cfg), programOpts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("dashboard error: %w", err)
	}

	if m, ok := final.(Model); ok && m.state == StateError && m.lastError != nil {
		return fmt.Errorf("failed to load dashboard data: %w", m.lastError)
	}
	return nil
}
