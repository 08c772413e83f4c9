// Package race implements the real-time obstacle race: racers fly out through
// a course of pipes, turn at the far end and race back to the start, collecting
// and using items on the way.
//
// The engine advances one fixed tick per Step call. The owning room drives
// Step from its own ticker while Running reports true and serializes every
// call, so the engine itself holds no locks.
package race

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
)

// DefaultMaxPlayers bounds a race room when Options leave it unset
const DefaultMaxPlayers = 4

// Presets resolves map configurations by name
type Presets interface {
	Preset(name string) (*MapConfig, error)
}

// Options configure a race engine
type Options struct {
	Presets    Presets
	MaxPlayers int
	DefaultMap string
}

// Settings are supplied with ready signals to configure the next round
type Settings struct {
	Mode          Mode   `json:"mode,omitempty"`
	Map           string `json:"map,omitempty"`
	Lives         int    `json:"lives,omitempty"`
	TimeLimit     int    `json:"timeLimit,omitempty"`
	Seed          *int64 `json:"seed,omitempty"`
	PreserveScore *bool  `json:"preserveScore,omitempty"`
}

// Engine holds one race room
type Engine struct {
	opts Options

	cfg       *MapConfig
	mode      Mode
	settings  Settings
	phase     Phase
	round     int
	countdown int
	elapsed   int

	players     []*PlayerState
	pipes       []Pipe
	items       []ItemBox
	projectiles []Projectile
	traps       []Trap
	gen         *generator

	leaderboard    []Standing
	respawnOffered bool
	startedWith    int
	nextRank       int
	nextID         int
	notices        []engine.Notice
}

// New creates an idle race room
func New(opts Options) *Engine {
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	if opts.DefaultMap == "" {
		opts.DefaultMap = DefaultPreset
	}
	cfg, _ := BuiltinPreset(DefaultPreset)
	return &Engine{opts: opts, cfg: cfg, mode: cfg.Mode, phase: PhaseWaiting}
}

// NewFactory returns an engine.Factory producing race engines with opts
func NewFactory(opts Options) engine.Factory {
	return func() engine.Engine { return New(opts) }
}

func (e *Engine) Type() engine.GameType { return engine.Race }
func (e *Engine) MaxPlayers() int       { return e.opts.MaxPlayers }

// Status maps the round phase onto the room's match status
func (e *Engine) Status() engine.Status {
	switch e.phase {
	case PhaseCountdown:
		return engine.StatusSetup
	case PhasePlaying, PhasePaused:
		return engine.StatusPlaying
	case PhaseFinished:
		return engine.StatusFinished
	}
	return engine.StatusWaiting
}

// Phase returns the round phase
func (e *Engine) Phase() Phase { return e.phase }

// OnJoin adds a racer. Players arriving mid-round sit out until the next respawn.
func (e *Engine) OnJoin(playerID string) (interface{}, error) {
	if len(e.players) >= e.opts.MaxPlayers {
		return nil, engine.ErrRoomFull
	}
	p := &PlayerState{ID: playerID, Slot: e.freeSlot()}
	p.Color = slotColors[p.Slot%len(slotColors)]
	e.place(p, true)

	switch e.phase {
	case PhasePlaying, PhasePaused, PhaseFinished:
		p.Alive = false
		p.Lives = 0
		e.respawnOffered = true
	}
	e.players = append(e.players, p)
	e.leaderboard = e.standings()
	return SeatInfo{Slot: p.Slot, Color: p.Color}, nil
}

// OnLeave removes the racer. An empty room returns to waiting.
func (e *Engine) OnLeave(playerID string) {
	for i, p := range e.players {
		if p.ID == playerID {
			e.players = append(e.players[:i], e.players[i+1:]...)
			break
		}
	}
	if len(e.players) == 0 {
		e.Reset()
		return
	}
	if e.phase == PhasePlaying && e.roundOver() {
		e.finishRound()
	}
	e.leaderboard = e.standings()
	e.respawnOffered = e.offerRespawn()
}

// MarkReady starts the first round, or respawns everyone once all members are
// ready after a round with eliminated racers
func (e *Engine) MarkReady(_ string, members []string, ready map[string]bool, raw json.RawMessage) (bool, error) {
	if e.phase != PhaseWaiting && e.phase != PhaseFinished && !e.respawnOffered {
		return false, engine.ErrWrongPhase.WithMessage(fmt.Sprintf("race is %s", e.phase))
	}

	all := len(members) == 1
	if !all {
		all = true
		for _, id := range members {
			if !ready[id] {
				all = false
				break
			}
		}
	}
	if !all {
		return false, nil
	}

	if e.respawnOffered {
		var s Settings
		if err := engine.DecodeSettings(raw, &s); err != nil {
			return false, err
		}
		e.respawn(e.keepScore(s))
		return true, nil
	}
	return true, e.Start(members, raw)
}

// Start configures and begins a new round with fresh scores
func (e *Engine) Start(_ []string, raw json.RawMessage) error {
	switch e.phase {
	case PhaseCountdown, PhasePlaying, PhasePaused:
		return engine.ErrWrongPhase.WithMessage(fmt.Sprintf("race is %s", e.phase))
	}
	if len(e.players) == 0 {
		return engine.ErrNotEnoughPlayers
	}

	var s Settings
	if err := engine.DecodeSettings(raw, &s); err != nil {
		return err
	}
	cfg, err := e.resolve(s)
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.mode = cfg.Mode
	e.settings = s
	e.round = 0
	e.respawn(false)
	return nil
}

func (e *Engine) resolve(s Settings) (*MapConfig, error) {
	name := s.Map
	if name == "" {
		name = e.opts.DefaultMap
	}

	var cfg *MapConfig
	if e.opts.Presets != nil {
		loaded, err := e.opts.Presets.Preset(name)
		if err != nil {
			return nil, engine.ErrInvalidPayload.WithMessage(fmt.Sprintf("unknown map %q", name)).Wrap(err)
		}
		c := *loaded
		cfg = &c
	} else {
		builtin, ok := BuiltinPreset(name)
		if !ok {
			return nil, engine.ErrInvalidPayload.WithMessage(fmt.Sprintf("unknown map %q", name))
		}
		cfg = builtin
	}

	if s.Mode != "" {
		cfg.Mode = s.Mode
	}
	if s.Lives > 0 {
		cfg.Lives = s.Lives
	}
	if s.TimeLimit > 0 {
		cfg.TimeLimit = s.TimeLimit
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	if err := ValidateMapConfig(cfg); err != nil {
		return nil, engine.ErrInvalidPayload.WithMessage(err.Error())
	}
	return cfg, nil
}

func (e *Engine) keepScore(s Settings) bool {
	if s.PreserveScore != nil {
		return *s.PreserveScore
	}
	if e.settings.PreserveScore != nil {
		return *e.settings.PreserveScore
	}
	return true
}

// respawn regenerates the course and puts every racer back at the start
func (e *Engine) respawn(keepScore bool) {
	e.round++
	e.gen = newGenerator(e.cfg)
	var m Map
	e.gen.extend(&m, e.gen.limit(0))
	e.pipes, e.items = m.Pipes, m.Items
	e.projectiles = nil
	e.traps = nil

	for _, p := range e.players {
		score := p.Score
		e.place(p, true)
		if keepScore {
			p.Score = score
		}
	}

	e.phase = PhaseCountdown
	e.countdown = CountdownTicks
	e.elapsed = 0
	e.nextRank = 0
	e.startedWith = len(e.players)
	e.respawnOffered = false
	e.leaderboard = e.standings()
	e.notify("roundStart", map[string]interface{}{"round": e.round, "map": e.cfg.Name, "mode": e.mode})
}

// place resets p to the start line; alive decides whether it races
func (e *Engine) place(p *PlayerState, alive bool) {
	p.X = StartX
	p.Y = StartY
	p.VY = 0
	p.Lives = e.cfg.Lives
	p.Alive = alive
	p.Phase = Outbound
	p.Effects = Effects{}
	p.Item = ItemNone
	p.Score = 0
	p.Rank = 0
	p.nextPipe = 0
}

type useItemData struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (e *Engine) ApplyAction(playerID string, action engine.Action) error {
	p := e.player(playerID)
	if p == nil {
		return engine.ErrNotMember
	}

	switch action.Name {
	case "flap":
		if e.phase != PhasePlaying {
			return engine.ErrWrongPhase.WithMessage(fmt.Sprintf("race is %s", e.phase))
		}
		if p.racing() && !p.Effects.Active(EffectStun) {
			p.VY = e.cfg.FlapVelocity
		}
		return nil

	case "useItem":
		if e.phase != PhasePlaying {
			return engine.ErrWrongPhase.WithMessage(fmt.Sprintf("race is %s", e.phase))
		}
		if !p.racing() {
			return engine.ErrWrongPhase.WithMessage("you are out of this round")
		}
		if p.Item == ItemNone {
			return engine.ErrNoItem
		}
		var data useItemData
		if err := action.Decode(&data); err != nil {
			return err
		}
		var target *point
		if data.X != nil && data.Y != nil {
			target = &point{X: *data.X, Y: *data.Y}
		}
		e.useItem(p, target)
		return nil

	case "pause":
		if e.phase != PhasePlaying {
			return engine.ErrWrongPhase.WithMessage("race is not running")
		}
		e.phase = PhasePaused
		e.notify("paused", map[string]interface{}{"player": playerID})
		return nil

	case "resume":
		if e.phase != PhasePaused {
			return engine.ErrWrongPhase.WithMessage("race is not paused")
		}
		e.phase = PhasePlaying
		e.notify("resumed", map[string]interface{}{"player": playerID})
		return nil
	}
	return engine.ErrInvalidAction.WithMessage(fmt.Sprintf("unsupported action %q", action.Name))
}

// Reset abandons the round and returns the room to waiting
func (e *Engine) Reset() {
	e.phase = PhaseWaiting
	e.round = 0
	e.countdown = 0
	e.elapsed = 0
	e.pipes, e.items, e.projectiles, e.traps = nil, nil, nil, nil
	e.gen = nil
	e.respawnOffered = false
	e.nextRank = 0
	for _, p := range e.players {
		e.place(p, true)
	}
	e.leaderboard = e.standings()
}

// Running reports whether the room's ticker should be active
func (e *Engine) Running() bool {
	return e.phase == PhaseCountdown || e.phase == PhasePlaying
}

// TickInterval is the fixed simulation step
func (e *Engine) TickInterval() time.Duration { return TickInterval }

// Step advances the simulation by one tick
func (e *Engine) Step() bool {
	switch e.phase {
	case PhaseCountdown:
		e.countdown--
		if e.countdown <= 0 {
			e.countdown = 0
			e.phase = PhasePlaying
			e.notify("go", nil)
			return true
		}
		if e.countdown%TickRate == 0 {
			e.notify("countdown", map[string]int{"seconds": e.countdown / TickRate})
			return true
		}
		return false

	case PhasePlaying:
		e.elapsed++
		for _, p := range e.players {
			if p.racing() {
				e.advance(p)
			}
		}
		e.advanceWorld()
		e.leaderboard = e.standings()

		if e.roundOver() {
			e.finishRound()
		}
		e.respawnOffered = e.offerRespawn()
		if e.respawnOffered && len(e.players) == 1 {
			e.respawn(e.keepScore(Settings{}))
		}
		return true
	}
	return false
}

// roundOver applies the mode's end condition
func (e *Engine) roundOver() bool {
	alive, racing, finished := 0, 0, 0
	for _, p := range e.players {
		if p.Alive {
			alive++
		}
		if p.racing() {
			racing++
		}
		if p.Phase == Finished {
			finished++
		}
	}
	if racing == 0 {
		return true
	}

	switch e.mode {
	case ModeClassic:
		return finished > 0
	case ModeBattle:
		if e.startedWith > 1 {
			return alive <= 1
		}
		return alive == 0
	case ModeTime:
		return e.elapsed >= e.cfg.TimeLimit*TickRate
	}
	return alive == 0
}

func (e *Engine) finishRound() {
	e.phase = PhaseFinished
	e.leaderboard = e.standings()
	e.notify("roundOver", map[string]interface{}{"round": e.round, "leaderboard": e.leaderboard})
}

// offerRespawn reports whether an eliminated racer can ask for a new round
func (e *Engine) offerRespawn() bool {
	if e.phase != PhasePlaying && e.phase != PhaseFinished {
		return false
	}
	for _, p := range e.players {
		if !p.Alive {
			return true
		}
	}
	return false
}

func (e *Engine) standings() []Standing {
	players := make([]PlayerState, len(e.players))
	for i, p := range e.players {
		players[i] = *p
	}
	return Leaderboard(players, e.cfg.Distance)
}

func (e *Engine) Snapshot() interface{} {
	players := make([]PlayerState, len(e.players))
	for i, p := range e.players {
		players[i] = *p
	}
	return State{
		Phase:            e.phase,
		Status:           e.Status(),
		Mode:             e.mode,
		Map:              e.cfg.Name,
		Round:            e.round,
		Countdown:        int(math.Ceil(float64(e.countdown) / TickRate)),
		Elapsed:          float64(e.elapsed) / TickRate,
		TimeLimit:        e.timeLimit(),
		Distance:         e.cfg.Distance,
		WorldHeight:      WorldHeight,
		Players:          players,
		Pipes:            append([]Pipe(nil), e.pipes...),
		Items:            append([]ItemBox(nil), e.items...),
		Projectiles:      append([]Projectile(nil), e.projectiles...),
		Traps:            append([]Trap(nil), e.traps...),
		Leaderboard:      append([]Standing(nil), e.leaderboard...),
		RespawnAvailable: e.respawnOffered,
	}
}

func (e *Engine) DrainNotices() []engine.Notice {
	n := e.notices
	e.notices = nil
	return n
}

// Leaderboard returns the latest standings
func (e *Engine) Leaderboard() []Standing {
	return append([]Standing(nil), e.leaderboard...)
}

func (e *Engine) timeLimit() int {
	if e.mode == ModeTime {
		return e.cfg.TimeLimit
	}
	return 0
}

func (e *Engine) player(id string) *PlayerState {
	for _, p := range e.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (e *Engine) freeSlot() int {
	used := make(map[int]bool, len(e.players))
	for _, p := range e.players {
		used[p.Slot] = true
	}
	for slot := 0; ; slot++ {
		if !used[slot] {
			return slot
		}
	}
}

func (e *Engine) notify(event string, data interface{}) {
	e.notices = append(e.notices, engine.Notice{Event: event, Data: data})
}
