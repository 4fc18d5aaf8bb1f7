// # internal/core/app/write_worker.go
package app

import (
	"context"
	"log/slog"
	"time"

	"usagelens/internal/core/ports"
	"usagelens/internal/data/history"
)

const (
	historyQueueCapacity = 32
	historyMaxAttempts   = 4
)

// historyWriter persists watch-mode runs off the analysis path. When the
// queue is full the oldest pending run is dropped.
type historyWriter struct {
	store     ports.HistoryStore
	queue     chan history.Run
	baseDelay time.Duration
	quit      chan struct{}
	done      chan struct{}
}

func (a *App) startHistoryWriter() {
	a.closeMu.Lock()
	defer a.closeMu.Unlock()
	if a.history == nil || a.writer != nil || a.isClosed {
		return
	}
	w := &historyWriter{
		store:     a.history,
		queue:     make(chan history.Run, historyQueueCapacity),
		baseDelay: 100 * time.Millisecond,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	a.writer = w
	go w.run()
}

func (a *App) historyQueue() *historyWriter {
	a.closeMu.Lock()
	defer a.closeMu.Unlock()
	if a.isClosed {
		return nil
	}
	return a.writer
}

func (w *historyWriter) enqueue(run history.Run) {
	for {
		select {
		case w.queue <- run:
			return
		default:
		}
		select {
		case dropped := <-w.queue:
			slog.Warn("history queue full, dropping oldest run", "run_id", dropped.ID)
		default:
		}
	}
}

func (w *historyWriter) run() {
	defer close(w.done)
	for {
		select {
		case run := <-w.queue:
			w.save(run)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

// drain flushes whatever is still queued after a stop request.
func (w *historyWriter) drain() {
	for {
		select {
		case run := <-w.queue:
			w.save(run)
		default:
			return
		}
	}
}

func (w *historyWriter) save(run history.Run) {
	var err error
	for attempt := 1; attempt <= historyMaxAttempts; attempt++ {
		if err = w.store.SaveRun(context.Background(), run); err == nil {
			return
		}
		if attempt < historyMaxAttempts {
			time.Sleep(backoffDelay(w.baseDelay, attempt))
		}
	}
	slog.Warn("failed to save run history", "run_id", run.ID, "attempts", historyMaxAttempts, "error", err)
}

// stop asks the writer to drain and waits until it has, or ctx expires.
func (w *historyWriter) stop(ctx context.Context) error {
	close(w.quit)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func backoffDelay(base time.Duration, attempts int) time.Duration {
	const maxDelay = 5 * time.Second
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return delay
}
