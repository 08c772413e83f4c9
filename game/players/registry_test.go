package players

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (r *recorder) Send(msg interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()
	conn := &recorder{}

	h := reg.Register("p1", conn)
	assert.Equal(t, "p1", h.ID)
	assert.False(t, h.ConnectedAt.IsZero())
	assert.Equal(t, 1, reg.Count())

	got, ok := reg.Get("p1")
	require.True(t, ok)
	assert.Same(t, h, got)

	require.NoError(t, got.Send("hello"))
	assert.Equal(t, []interface{}{"hello"}, conn.msgs)

	removed, ok := reg.Unregister("p1")
	require.True(t, ok)
	assert.Same(t, h, removed)
	assert.Zero(t, reg.Count())

	_, ok = reg.Unregister("p1")
	assert.False(t, ok)
	_, ok = reg.Get("p1")
	assert.False(t, ok)
}

func TestHandleRoom(t *testing.T) {
	h := NewHandle("p1", nil)
	assert.Empty(t, h.Room())

	h.SetRoom("r1")
	assert.Equal(t, "r1", h.Room())

	h.ClearRoom("r2")
	assert.Equal(t, "r1", h.Room(), "clearing another room is a no-op")

	h.ClearRoom("r1")
	assert.Empty(t, h.Room())

	assert.ErrorIs(t, h.Send("x"), ErrNoTransport)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("p%d", i)
			h := reg.Register(id, &recorder{})
			h.SetRoom("room")
			_, _ = reg.Get(id)
			_ = reg.List()
			if i%2 == 0 {
				reg.Unregister(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, reg.Count())
	assert.Len(t, reg.List(), 25)
}
