package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/logger"
)

// interruptHandler maps Ctrl-C onto the engine. The first press asks the turn
// to stop at the next batch. A second press while that request is still
// pending cancels the turn's context, which also ends a stalled stream. With
// nothing streaming, quit is closed.
type interruptHandler struct {
	engine   *chat.Engine
	quit     chan struct{}
	quitOnce sync.Once

	mu      sync.Mutex
	abort   context.CancelFunc
	pending bool
}

func newInterruptHandler(engine *chat.Engine) *interruptHandler {
	return &interruptHandler{
		engine: engine,
		quit:   make(chan struct{}),
	}
}

// Quit is closed once an interrupt arrives while nothing is streaming
func (h *interruptHandler) Quit() <-chan struct{} {
	return h.quit
}

// turn derives the context for one Submit. Call done when the turn returns.
func (h *interruptHandler) turn(parent context.Context) (ctx context.Context, done func()) {
	ctx, cancel := context.WithCancel(parent)

	h.mu.Lock()
	h.abort = cancel
	h.pending = false
	h.mu.Unlock()

	return ctx, func() {
		h.mu.Lock()
		h.abort = nil
		h.pending = false
		h.mu.Unlock()
		cancel()
	}
}

func (h *interruptHandler) interrupt() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.engine.RequestCancel() {
		h.quitOnce.Do(func() { close(h.quit) })
		return
	}
	if h.pending && h.abort != nil {
		logger.Warn("Interrupted again before the stream stopped, aborting the turn")
		h.abort()
		return
	}
	h.pending = true
}

// watch routes SIGINT to interrupt until stop is called
func (h *interruptHandler) watch() (stop func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-signals:
				h.interrupt()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(signals)
			close(done)
		})
	}
}
