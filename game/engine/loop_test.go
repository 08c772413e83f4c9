package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopTicksUntilStopped(t *testing.T) {
	var ticks atomic.Int32
	l := StartLoop(context.Background(), time.Millisecond, func() { ticks.Add(1) })

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	l.Stop()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after Stop")
	}

	after := ticks.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

func TestLoopStopIsIdempotent(t *testing.T) {
	l := StartLoop(context.Background(), time.Millisecond, func() {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Stop()
		}()
	}
	wg.Wait()
	l.Stop()

	<-l.Done()

	var nilLoop *Loop
	assert.NotPanics(t, func() { nilLoop.Stop() })
}

func TestLoopStopFromCallback(t *testing.T) {
	var l *Loop
	var mu sync.Mutex
	calls := 0

	mu.Lock()
	l = StartLoop(context.Background(), time.Millisecond, func() {
		mu.Lock()
		defer mu.Unlock()
		calls++
		l.Stop()
	})
	mu.Unlock()

	<-l.Done()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestLoopParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := StartLoop(ctx, time.Millisecond, func() {})
	cancel()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on parent cancel")
	}
}
