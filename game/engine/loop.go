package engine

import (
	"context"
	"time"
)

// Loop runs a callback at a fixed interval until its context is cancelled
type Loop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartLoop starts calling fn every interval on its own goroutine
func StartLoop(parent context.Context, interval time.Duration, fn func()) *Loop {
	ctx, cancel := context.WithCancel(parent)
	l := &Loop{cancel: cancel, done: make(chan struct{})}
	go l.run(ctx, interval, fn)
	return l
}

func (l *Loop) run(ctx context.Context, interval time.Duration, fn func()) {
	defer close(l.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// stop may have raced with the tick
			if ctx.Err() != nil {
				return
			}
			fn()
		}
	}
}

// Stop cancels the loop. Safe to call repeatedly, concurrently, or from fn.
func (l *Loop) Stop() {
	if l == nil {
		return
	}
	l.cancel()
}

// Done is closed once the loop goroutine has exited
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
