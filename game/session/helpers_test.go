package session

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
	"github.com/wricardo/mcp-training/gamerooms/game/engine/fiveinrow"
	"github.com/wricardo/mcp-training/gamerooms/game/events"
	"github.com/wricardo/mcp-training/gamerooms/game/players"
	"github.com/wricardo/mcp-training/gamerooms/game/protocol"
)

const stubGame engine.GameType = "stub"

// recorder is a Sender that keeps every message
type recorder struct {
	mu     sync.Mutex
	msgs   []interface{}
	err    error
	panics bool
}

func (r *recorder) Send(msg interface{}) error {
	if r.panics {
		panic("transport exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recorder) messages() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interface{}(nil), r.msgs...)
}

func (r *recorder) states() []protocol.GameState {
	var out []protocol.GameState
	for _, m := range r.messages() {
		if st, ok := m.(protocol.GameState); ok {
			out = append(out, st)
		}
	}
	return out
}

func (r *recorder) lastState() protocol.GameState {
	states := r.states()
	if len(states) == 0 {
		return protocol.GameState{}
	}
	return states[len(states)-1]
}

func (r *recorder) notices() []protocol.Notice {
	var out []protocol.Notice
	for _, m := range r.messages() {
		if n, ok := m.(protocol.Notice); ok {
			out = append(out, n)
		}
	}
	return out
}

func newHandle(id string) (*players.Handle, *recorder) {
	rec := &recorder{}
	return players.NewHandle(id, rec), rec
}

// stubEngine is a minimal simulation for exercising the room plumbing
type stubEngine struct {
	max       int
	status    engine.Status
	running   bool
	stopAfter int32
	panics    bool
	startErr  error
	interval  time.Duration

	steps    atomic.Int32
	started  [][]string
	settings json.RawMessage
	notices  []engine.Notice
}

func (e *stubEngine) Type() engine.GameType { return stubGame }
func (e *stubEngine) MaxPlayers() int       { return e.max }

func (e *stubEngine) Status() engine.Status {
	if e.status == "" {
		return engine.StatusWaiting
	}
	return e.status
}

func (e *stubEngine) OnJoin(playerID string) (interface{}, error) {
	return map[string]string{"seat": playerID}, nil
}

func (e *stubEngine) OnLeave(string) {}

func (e *stubEngine) Start(members []string, settings json.RawMessage) error {
	if e.startErr != nil {
		return e.startErr
	}
	e.started = append(e.started, members)
	e.settings = settings
	e.status = engine.StatusPlaying
	e.running = e.interval > 0
	return nil
}

func (e *stubEngine) ApplyAction(_ string, action engine.Action) error {
	if action.Name != "poke" {
		return engine.ErrInvalidAction
	}
	e.notices = append(e.notices, engine.Notice{Event: "poked"})
	return nil
}

func (e *stubEngine) Reset() {
	e.status = engine.StatusWaiting
	e.running = false
}

func (e *stubEngine) Snapshot() interface{} {
	return map[string]int32{"steps": e.steps.Load()}
}

func (e *stubEngine) Running() bool               { return e.running }
func (e *stubEngine) TickInterval() time.Duration { return e.interval }

func (e *stubEngine) Step() bool {
	if e.panics {
		panic("step exploded")
	}
	n := e.steps.Add(1)
	if e.stopAfter > 0 && n >= e.stopAfter {
		e.running = false
		e.status = engine.StatusFinished
	}
	return true
}

func (e *stubEngine) DrainNotices() []engine.Notice {
	n := e.notices
	e.notices = nil
	return n
}

var errSend = errors.New("send failed")

type fixture struct {
	dir    *Directory
	events *events.Memory
	stub   *stubEngine
}

// newFixture builds a directory hosting fiveinrow and a single shared stub engine
func newFixture(t *testing.T, stub *stubEngine, opts ...Option) *fixture {
	t.Helper()
	if stub == nil {
		stub = &stubEngine{max: 4}
	}
	mem := &events.Memory{}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithPublisher(mem)}, opts...)
	dir := NewDirectory(map[engine.GameType]engine.Factory{
		engine.FiveInRow: fiveinrow.NewEngine,
		stubGame:         func() engine.Engine { return stub },
	}, opts...)
	t.Cleanup(dir.Close)
	return &fixture{dir: dir, events: mem, stub: stub}
}

func place(row, col int) engine.Action {
	data, _ := json.Marshal(map[string]int{"row": row, "col": col})
	return engine.Action{Name: "place", Data: data}
}
