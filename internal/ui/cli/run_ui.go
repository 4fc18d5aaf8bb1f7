package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"usagelens/internal/core/ports"
)

func runUI(ctx context.Context, ws ports.WatchService) error {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen(), tea.WithContext(ctx))

	ws.Subscribe(func(u ports.WatchUpdate) {
		p.Send(updateMsg{update: u})
	})

	errCh := make(chan error, 1)
	go func() {
		err := ws.Start(ctx)
		errCh <- err
		if err != nil {
			p.Quit()
		}
	}()

	_, err := p.Run()
	select {
	case startErr := <-errCh:
		if startErr != nil {
			return classifyError(startErr)
		}
	default:
	}
	if ctx.Err() != nil {
		return nil
	}
	return err
}
