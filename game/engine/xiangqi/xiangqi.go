// Package xiangqi implements Chinese chess with full move legality, check and
// checkmate detection.
//
// Rows are numbered from black's back rank (0) to red's back rank (9); the
// river lies between rows 4 and 5. Red moves first.
package xiangqi

import (
	"encoding/json"
	"fmt"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
)

// Outcome reasons
const (
	ReasonCheckmate = "checkmate"
	ReasonSurrender = "surrender"
	ReasonCapture   = "capture"
	// the side to move has no legal move and loses
	ReasonStalemate = "stalemate"
)

// SeatInfo is returned to a player on join
type SeatInfo struct {
	Color Color `json:"color"`
}

// State is the snapshot broadcast to room members
type State struct {
	Board    [][]*Piece       `json:"board"`
	Players  map[Color]string `json:"players"`
	Turn     Color            `json:"currentPlayer"`
	Status   engine.Status    `json:"status"`
	Winner   Color            `json:"winner,omitempty"`
	Reason   string           `json:"reason,omitempty"`
	InCheck  map[Color]bool   `json:"inCheck"`
	LastMove *MoveRecord      `json:"lastMove,omitempty"`
	Moves    int              `json:"moveCount"`
}

// Engine holds one xiangqi match
type Engine struct {
	board   Board
	seats   [2]string
	turn    Color
	status  engine.Status
	winner  Color
	reason  string
	history []MoveRecord
	notices []engine.Notice
}

// New creates a match in the starting position waiting for two players
func New() *Engine {
	return &Engine{board: NewBoard(), turn: Red, status: engine.StatusWaiting}
}

// NewEngine adapts New to engine.Factory
func NewEngine() engine.Engine {
	return New()
}

func (e *Engine) Type() engine.GameType { return engine.Xiangqi }
func (e *Engine) MaxPlayers() int       { return 2 }
func (e *Engine) Status() engine.Status { return e.status }

// OnJoin seats red then black. A full table starts the game.
func (e *Engine) OnJoin(playerID string) (interface{}, error) {
	seat := -1
	for i, id := range e.seats {
		if id == "" {
			seat = i
			break
		}
	}
	if seat < 0 {
		return nil, engine.ErrRoomFull
	}
	e.seats[seat] = playerID
	if e.seats[0] != "" && e.seats[1] != "" && e.status == engine.StatusWaiting {
		e.begin()
	}
	return SeatInfo{Color: seatColor(seat)}, nil
}

// OnLeave frees the seat; a game in progress is abandoned
func (e *Engine) OnLeave(playerID string) {
	for i, id := range e.seats {
		if id == playerID {
			e.seats[i] = ""
		}
	}
	e.clear()
	e.status = engine.StatusWaiting
}

// Start begins a fresh game, used for rematches
func (e *Engine) Start(_ []string, _ json.RawMessage) error {
	if e.seats[0] == "" || e.seats[1] == "" {
		return engine.ErrNotEnoughPlayers
	}
	e.begin()
	return nil
}

type moveData struct {
	From *Pos `json:"from"`
	To   *Pos `json:"to"`
}

func (e *Engine) ApplyAction(playerID string, action engine.Action) error {
	switch action.Name {
	case "move":
		var data moveData
		if err := action.Decode(&data); err != nil {
			return err
		}
		if data.From == nil || data.To == nil {
			return engine.ErrInvalidPayload.WithMessage("move requires from and to")
		}
		return e.Move(playerID, Move{From: *data.From, To: *data.To})
	case "surrender":
		return e.Surrender(playerID)
	}
	return engine.ErrInvalidAction.WithMessage(fmt.Sprintf("unsupported action %q", action.Name))
}

// Move validates and applies m for the player, then resolves check and mate
func (e *Engine) Move(playerID string, m Move) error {
	color, err := e.activeColor(playerID)
	if err != nil {
		return err
	}
	if color != e.turn {
		return engine.ErrNotYourTurn
	}
	if !m.From.InBounds() || !m.To.InBounds() {
		return engine.ErrOutOfBounds
	}
	piece := e.board.At(m.From)
	if piece.Empty() || piece.Color != color {
		return engine.ErrIllegalMove.WithMessage(fmt.Sprintf("no %s piece at (%d,%d)", color, m.From.Row, m.From.Col))
	}
	if !e.board.IsLegal(color, m) {
		return engine.ErrIllegalMove.WithMessage(fmt.Sprintf("%s cannot move from (%d,%d) to (%d,%d)",
			piece.Kind, m.From.Row, m.From.Col, m.To.Row, m.To.Col))
	}

	rec := e.board.apply(m)
	if e.board.InCheck(color) {
		e.board.revert(rec)
		return engine.ErrIllegalMove.WithMessage("move would leave your general in check")
	}
	e.history = append(e.history, rec)

	opp := color.Opponent()
	switch {
	case rec.Captured.Kind == General:
		e.finish(color, ReasonCapture)
	case e.board.IsCheckmate(opp):
		e.finish(color, ReasonCheckmate)
	case !e.board.hasEscape(opp):
		e.finish(color, ReasonStalemate)
	default:
		if e.board.InCheck(opp) {
			e.notices = append(e.notices, engine.Notice{Event: "check", Data: map[string]Color{"color": opp}})
		}
		e.turn = opp
	}
	return nil
}

// Surrender ends the game in favour of the other color
func (e *Engine) Surrender(playerID string) error {
	color, err := e.activeColor(playerID)
	if err != nil {
		return err
	}
	e.finish(color.Opponent(), ReasonSurrender)
	return nil
}

// Reset restores the starting position
func (e *Engine) Reset() {
	if e.seats[0] != "" && e.seats[1] != "" {
		e.begin()
		return
	}
	e.clear()
	e.status = engine.StatusWaiting
}

func (e *Engine) Snapshot() interface{} {
	board := make([][]*Piece, Rows)
	for r := 0; r < Rows; r++ {
		board[r] = make([]*Piece, Cols)
		for c := 0; c < Cols; c++ {
			if pc := e.board[r][c]; !pc.Empty() {
				p := pc
				board[r][c] = &p
			}
		}
	}

	players := make(map[Color]string, 2)
	for i, id := range e.seats {
		if id != "" {
			players[seatColor(i)] = id
		}
	}

	var last *MoveRecord
	if n := len(e.history); n > 0 {
		rec := e.history[n-1]
		last = &rec
	}

	return State{
		Board:    board,
		Players:  players,
		Turn:     e.turn,
		Status:   e.status,
		Winner:   e.winner,
		Reason:   e.reason,
		InCheck:  map[Color]bool{Red: e.board.InCheck(Red), Black: e.board.InCheck(Black)},
		LastMove: last,
		Moves:    len(e.history),
	}
}

func (e *Engine) DrainNotices() []engine.Notice {
	n := e.notices
	e.notices = nil
	return n
}

// History returns the applied moves in order
func (e *Engine) History() []MoveRecord {
	return append([]MoveRecord(nil), e.history...)
}

// Winner returns the winning color, empty while undecided
func (e *Engine) Winner() Color { return e.winner }

// Turn returns the color to move
func (e *Engine) Turn() Color { return e.turn }

// Board returns a copy of the current position
func (e *Engine) Board() Board { return e.board }

// LoadPosition replaces the position and side to move of a game in progress
func (e *Engine) LoadPosition(b Board, turn Color) {
	e.board = b
	e.turn = turn
	e.history = nil
}

func (e *Engine) activeColor(playerID string) (Color, error) {
	switch e.status {
	case engine.StatusPlaying:
	case engine.StatusFinished:
		return "", engine.ErrGameOver
	default:
		return "", engine.ErrNotEnoughPlayers
	}
	for i, id := range e.seats {
		if id != "" && id == playerID {
			return seatColor(i), nil
		}
	}
	return "", engine.ErrNotMember
}

func (e *Engine) finish(winner Color, reason string) {
	e.winner = winner
	e.reason = reason
	e.status = engine.StatusFinished
	e.notices = append(e.notices, engine.Notice{Event: "gameOver", Data: map[string]string{"winner": string(winner), "reason": reason}})
}

func (e *Engine) begin() {
	e.clear()
	e.status = engine.StatusPlaying
}

func (e *Engine) clear() {
	e.board = NewBoard()
	e.turn = Red
	e.winner = ""
	e.reason = ""
	e.history = nil
}

func seatColor(seat int) Color {
	if seat == 0 {
		return Red
	}
	return Black
}
