// Package background tracks goroutines started outside the request cycle so
// shutdown can wait for them.
package background

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrShuttingDown is returned by Go and Loop once Shutdown has been called.
var ErrShuttingDown = errors.New("background: shutting down")

type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup

	// ctx is handed to tasks, it is only cancelled when draining times out.
	ctx    context.Context
	cancel context.CancelFunc

	// loopCtx is handed to loops, it is cancelled as soon as Shutdown starts.
	loopCtx    context.Context
	loopCancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

func New(log logrus.FieldLogger) *Background {
	ctx, cancel := context.WithCancel(context.Background())
	loopCtx, loopCancel := context.WithCancel(ctx)
	return &Background{
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		loopCtx:    loopCtx,
		loopCancel: loopCancel,
	}
}

// Go runs a task that ends on its own, such as publishing an event. Shutdown
// lets it finish.
func (b *Background) Go(name string, fn func(ctx context.Context)) error {
	return b.start(b.ctx, name, fn)
}

// Loop runs fn until its context is cancelled, which Shutdown does first.
func (b *Background) Loop(name string, fn func(ctx context.Context)) error {
	return b.start(b.loopCtx, name, fn)
}

func (b *Background) start(ctx context.Context, name string, fn func(ctx context.Context)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return ErrShuttingDown
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithFields(logrus.Fields{
					"task":  name,
					"panic": fmt.Sprint(rec),
				}).Error("background task panicked")
			}
		}()

		fn(ctx)
	}()
	return nil
}

// Shutdown stops accepting work, stops the loops and waits for the running
// tasks. When ctx expires first the remaining tasks are cancelled.
func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	b.loopCancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.cancel()
		return nil
	case <-ctx.Done():
		b.cancel()
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}
