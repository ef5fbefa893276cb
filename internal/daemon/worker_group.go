package daemon

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/autopage/internal/logfields"
)

// WorkerGroup tracks daemon-owned goroutines and provides a safe shutdown
// boundary so we never call WaitGroup.Add concurrently with Wait.
type WorkerGroup struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	stopping bool
	logger   *slog.Logger
}

// Go starts a named worker if the group is not stopping. A returned error
// is logged; it does not stop other workers.
func (g *WorkerGroup) Go(name string, fn func() error) bool {
	if fn == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopping {
		return false
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := fn(); err != nil {
			g.log().Error("Worker failed", slog.String("worker", name), logfields.Error(err))
		}
	}()
	return true
}

// StopAndWait prevents new workers from being started and waits for all current
// workers to exit, bounded by ctx.
func (g *WorkerGroup) StopAndWait(ctx context.Context) error {
	g.mu.Lock()
	g.stopping = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *WorkerGroup) log() *slog.Logger {
	if g.logger == nil {
		return slog.Default()
	}
	return g.logger
}
