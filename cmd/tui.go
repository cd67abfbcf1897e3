package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for playlist copies.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/spx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.logger = fileLogger

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}
	session, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, engine, session)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if result, err := model.Result(); result != nil && err == nil {
		r.writePlain("✓ Copied %d tracks from %s to %s\n", result.ItemsTransferred, result.SourceID, result.TargetID)
	}
	return nil
}
