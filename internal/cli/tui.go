// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	uichat "github.com/jeranaias/tariel/internal/ui/chat"
)

// runTUI opens the full-screen chat view.
func runTUI(ctx context.Context, opts *rootOptions) error {
	app, err := opts.open(modeTUI)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := app.Store.Follow(ctx); err != nil {
		app.Logger.Warn().Err(err).Msg("not following session rotations")
	}

	m := uichat.New(uichat.Deps{
		Store:        app.Store,
		Orchestrator: app.Orchestrator,
		Retry:        app.Retry,
		System:       app.System,
		Transcripts:  app.Transcripts,
		Render:       app.Config.Render,
		Logger:       &app.Logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(uichat.Model); ok {
		fm.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run chat view")
	}
	return nil
}
