package race

import (
	"encoding/json"
	"time"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
)

// World and timing constants
const (
	TickRate     = 60
	TickInterval = time.Second / TickRate

	WorldHeight  = 600.0
	PlayerRadius = 15.0
	StartX       = 0.0
	StartY       = WorldHeight / 2

	CountdownTicks   = 3 * TickRate
	InvincibleTicks  = TickRate
	SpeedTicks       = 3 * TickRate
	ShieldTicks      = 5 * TickRate
	StunTicks        = 3 * TickRate / 2
	ItemRespawnTicks = 5 * TickRate
	TrapTicks        = 10 * TickRate
	ProjectileTicks  = 2 * TickRate

	SpeedMultiplier  = 1.6
	ItemBoxHalf      = 15.0
	TrapRadius       = 18.0
	ProjectileRadius = 6.0
	ProjectileSpeed  = 9.0
	BombRadius       = 150.0
	BombPush         = 80.0
	TrapDropOffset   = 40.0

	PipeScore     = 10
	TurnBonus     = 100
	FinishBonus   = 200
	DamagePenalty = 50

	// endless maps are generated this far ahead of the leader
	endlessLookahead = 2400.0
)

// Phase is the round-scoped phase of a race
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhasePaused    Phase = "paused"
	PhaseFinished  Phase = "finished"
)

// PlayerPhase is a player's progress stage within a round
type PlayerPhase string

const (
	Outbound PlayerPhase = "outbound"
	Return   PlayerPhase = "return"
	Finished PlayerPhase = "finished"
)

// EffectKind indexes the fixed effect table
type EffectKind int

const (
	EffectSpeed EffectKind = iota
	EffectShield
	EffectStun
	EffectInvincible
	effectCount
)

var effectNames = [effectCount]string{"speed", "shield", "stun", "invincible"}

func (k EffectKind) String() string {
	if k < 0 || k >= effectCount {
		return "unknown"
	}
	return effectNames[k]
}

// Effects holds remaining ticks per effect kind; zero means inactive
type Effects [effectCount]int

// Grant activates k for at least ticks
func (e *Effects) Grant(k EffectKind, ticks int) {
	if ticks > e[k] {
		e[k] = ticks
	}
}

// Active reports whether k has time remaining
func (e *Effects) Active(k EffectKind) bool {
	return e[k] > 0
}

// Decay removes one tick from every active effect
func (e *Effects) Decay() {
	for k := range e {
		if e[k] > 0 {
			e[k]--
		}
	}
}

// MarshalJSON encodes active effects by name
func (e Effects) MarshalJSON() ([]byte, error) {
	active := make(map[string]int)
	for k, ticks := range e {
		if ticks > 0 {
			active[EffectKind(k).String()] = ticks
		}
	}
	return json.Marshal(active)
}

// ItemKind is a collectible item type
type ItemKind string

const (
	ItemNone    ItemKind = ""
	ItemSpeed   ItemKind = "speed"
	ItemShield  ItemKind = "shield"
	ItemBomb    ItemKind = "bomb"
	ItemTrap    ItemKind = "trap"
	ItemMissile ItemKind = "missile"
)

// AllItemKinds lists every collectible item
func AllItemKinds() []ItemKind {
	return []ItemKind{ItemSpeed, ItemShield, ItemBomb, ItemTrap, ItemMissile}
}

// Valid reports whether k is a collectible item
func (k ItemKind) Valid() bool {
	switch k {
	case ItemSpeed, ItemShield, ItemBomb, ItemTrap, ItemMissile:
		return true
	}
	return false
}

// PlayerState is one racer
type PlayerState struct {
	ID      string      `json:"id"`
	Slot    int         `json:"slot"`
	Color   string      `json:"color"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	VY      float64     `json:"vy"`
	Lives   int         `json:"lives"`
	Alive   bool        `json:"alive"`
	Phase   PlayerPhase `json:"phase"`
	Effects Effects     `json:"effects"`
	Item    ItemKind    `json:"item,omitempty"`
	Score   int         `json:"score"`
	Rank    int         `json:"rank,omitempty"`

	nextPipe int
}

// Pipe is an obstacle with a vertical gap centred on GapY
type Pipe struct {
	ID        int     `json:"id"`
	X         float64 `json:"x"`
	Width     float64 `json:"width"`
	GapY      float64 `json:"gapY"`
	GapHeight float64 `json:"gapHeight"`
}

// ItemBox grants its kind on contact and reappears after a delay
type ItemBox struct {
	ID      int      `json:"id"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Kind    ItemKind `json:"kind"`
	Active  bool     `json:"active"`
	respawn int
}

// Projectile damages the first non-owner it touches
type Projectile struct {
	ID     int     `json:"id"`
	Owner  string  `json:"owner"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	TTL    int     `json:"ttl"`
	Active bool    `json:"active"`
}

// Trap stuns the first non-owner it touches
type Trap struct {
	ID     int     `json:"id"`
	Owner  string  `json:"owner"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	TTL    int     `json:"ttl"`
	Active bool    `json:"active"`
}

// SeatInfo is returned to a player on join
type SeatInfo struct {
	Slot  int    `json:"slot"`
	Color string `json:"color"`
}

// State is the snapshot broadcast to room members
type State struct {
	Phase            Phase         `json:"phase"`
	Status           engine.Status `json:"status"`
	Mode             Mode          `json:"mode"`
	Map              string        `json:"map"`
	Round            int           `json:"round"`
	Countdown        int           `json:"countdown"`
	Elapsed          float64       `json:"elapsed"`
	TimeLimit        int           `json:"timeLimit,omitempty"`
	Distance         float64       `json:"distance"`
	WorldHeight      float64       `json:"worldHeight"`
	Players          []PlayerState `json:"players"`
	Pipes            []Pipe        `json:"pipes"`
	Items            []ItemBox     `json:"items"`
	Projectiles      []Projectile  `json:"projectiles"`
	Traps            []Trap        `json:"traps"`
	Leaderboard      []Standing    `json:"leaderboard"`
	RespawnAvailable bool          `json:"respawnAvailable"`
}

var slotColors = []string{"#f94144", "#277da1", "#90be6d", "#f9c74f", "#9b5de5", "#f3722c", "#43aa8b", "#4d908e"}
