package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/lists"
	"github.com/mmcdole/moviebase/internal/tui"
)

// runTUI opens the interactive browser. Lists load in the background so
// the UI shows its loading state instead of a blank terminal.
func runTUI(ctx context.Context) error {
	events := make(chan domain.CollectionEvent, 16)
	a, err := openApp(ctx, lists.WithObserver(tui.NewChannelObserver(events)))
	if err != nil {
		return err
	}
	defer a.close()

	model := tui.NewModel(a.lists, events, a.logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		if _, err := a.session.Start(ctx, a.cfg.Session.ActorID); err != nil {
			// Surfaced in the footer through the store's event
			a.logger.Warn("initial load failed", "error", err)
		}
	}()

	a.logger.Info("starting TUI")
	_, runErr := p.Run()
	<-loaded

	if runErr != nil && ctx.Err() == nil {
		a.logger.Error("TUI error", "error", runErr)
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
