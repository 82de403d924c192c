package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/notenexus/internal/shared"
	"github.com/desertthunder/notenexus/internal/store"
	"github.com/desertthunder/notenexus/internal/ui"
)

// TUI launches the interactive browser over a user's saved content.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/notenexus-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	return r.withStore(func(s *store.Store) error {
		u, err := r.userFor(s, cmd)
		if err != nil {
			return err
		}

		p := tea.NewProgram(ui.NewModel(s, u.ID, u.Email), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})
}
