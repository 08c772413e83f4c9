// Package fiveinrow implements the five-in-a-row board game on a 20x20 grid.
package fiveinrow

import (
	"encoding/json"
	"fmt"

	"github.com/wricardo/mcp-training/gamerooms/game/engine"
)

const (
	BoardSize = 20
	WinLength = 5
)

// Symbol marks a board cell
type Symbol string

const (
	None Symbol = ""
	X    Symbol = "X"
	O    Symbol = "O"
)

func (s Symbol) other() Symbol {
	if s == X {
		return O
	}
	return X
}

// SeatInfo is returned to a player on join
type SeatInfo struct {
	Symbol Symbol `json:"symbol"`
}

// State is the snapshot broadcast to room members
type State struct {
	Board     [][]Symbol        `json:"board"`
	Players   map[Symbol]string `json:"players"`
	Turn      Symbol            `json:"currentPlayer"`
	Status    engine.Status     `json:"status"`
	Winner    Symbol            `json:"winner,omitempty"`
	Draw      bool              `json:"draw"`
	LastMove  *engine.Cell      `json:"lastMove,omitempty"`
	MoveCount int               `json:"moveCount"`
}

type placeData struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

// Engine holds one five-in-a-row match
type Engine struct {
	board     [BoardSize][BoardSize]Symbol
	seats     [2]string
	turn      Symbol
	status    engine.Status
	winner    Symbol
	draw      bool
	moveCount int
	lastMove  *engine.Cell
}

// New creates an empty board waiting for two players
func New() *Engine {
	return &Engine{turn: X, status: engine.StatusWaiting}
}

// NewEngine adapts New to engine.Factory
func NewEngine() engine.Engine {
	return New()
}

func (e *Engine) Type() engine.GameType { return engine.FiveInRow }
func (e *Engine) MaxPlayers() int       { return 2 }
func (e *Engine) Status() engine.Status { return e.status }

// OnJoin seats the player as X or O in join order. A full table starts the game.
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

	if e.seated() == 2 && e.status == engine.StatusWaiting {
		e.begin()
	}
	return SeatInfo{Symbol: seatSymbol(seat)}, nil
}

// OnLeave frees the seat and abandons any game in progress
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
	if e.seated() < 2 {
		return engine.ErrNotEnoughPlayers
	}
	e.begin()
	return nil
}

func (e *Engine) ApplyAction(playerID string, action engine.Action) error {
	if action.Name != "place" {
		return engine.ErrInvalidAction.WithMessage(fmt.Sprintf("unsupported action %q", action.Name))
	}

	var data placeData
	if err := action.Decode(&data); err != nil {
		return err
	}
	if data.Row == nil || data.Col == nil {
		return engine.ErrInvalidPayload.WithMessage("place requires row and col")
	}
	return e.Place(playerID, *data.Row, *data.Col)
}

// Place puts the player's symbol at (row, col) and resolves win or draw
func (e *Engine) Place(playerID string, row, col int) error {
	switch e.status {
	case engine.StatusFinished:
		return engine.ErrGameOver
	case engine.StatusPlaying:
	default:
		return engine.ErrNotEnoughPlayers
	}

	symbol := e.symbolOf(playerID)
	if symbol == None {
		return engine.ErrNotMember
	}
	if symbol != e.turn {
		return engine.ErrNotYourTurn
	}
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return engine.ErrOutOfBounds.WithMessage(fmt.Sprintf("position (%d,%d) out of bounds", row, col))
	}
	if e.board[row][col] != None {
		return engine.ErrCellOccupied.WithMessage(fmt.Sprintf("cell (%d,%d) is occupied", row, col))
	}

	e.board[row][col] = symbol
	e.moveCount++
	e.lastMove = &engine.Cell{Row: row, Col: col}

	if e.wins(row, col) {
		e.winner = symbol
		e.status = engine.StatusFinished
		return nil
	}
	if e.moveCount == BoardSize*BoardSize {
		e.draw = true
		e.status = engine.StatusFinished
		return nil
	}
	e.turn = symbol.other()
	return nil
}

// Reset clears the board, restarting immediately when both seats are taken
func (e *Engine) Reset() {
	if e.seated() == 2 {
		e.begin()
		return
	}
	e.clear()
	e.status = engine.StatusWaiting
}

func (e *Engine) Snapshot() interface{} {
	board := make([][]Symbol, BoardSize)
	for r := range e.board {
		board[r] = append([]Symbol(nil), e.board[r][:]...)
	}

	players := make(map[Symbol]string, 2)
	for i, id := range e.seats {
		if id != "" {
			players[seatSymbol(i)] = id
		}
	}

	return State{
		Board:     board,
		Players:   players,
		Turn:      e.turn,
		Status:    e.status,
		Winner:    e.winner,
		Draw:      e.draw,
		LastMove:  e.lastMove,
		MoveCount: e.moveCount,
	}
}

// Winner returns the winning symbol, or None
func (e *Engine) Winner() Symbol { return e.winner }

// Draw reports whether the game ended on a full board
func (e *Engine) Draw() bool { return e.draw }

// Turn returns the symbol to move
func (e *Engine) Turn() Symbol { return e.turn }

// At returns the symbol at (row, col)
func (e *Engine) At(row, col int) Symbol { return e.board[row][col] }

func (e *Engine) begin() {
	e.clear()
	e.status = engine.StatusPlaying
}

func (e *Engine) clear() {
	e.board = [BoardSize][BoardSize]Symbol{}
	e.turn = X
	e.winner = None
	e.draw = false
	e.moveCount = 0
	e.lastMove = nil
}

func (e *Engine) seated() int {
	n := 0
	for _, id := range e.seats {
		if id != "" {
			n++
		}
	}
	return n
}

func (e *Engine) symbolOf(playerID string) Symbol {
	for i, id := range e.seats {
		if id != "" && id == playerID {
			return seatSymbol(i)
		}
	}
	return None
}

func seatSymbol(seat int) Symbol {
	if seat == 0 {
		return X
	}
	return O
}

var axes = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// wins scans the four axes through (row, col)
func (e *Engine) wins(row, col int) bool {
	symbol := e.board[row][col]
	for _, axis := range axes {
		count := 1 + e.run(row, col, axis[0], axis[1], symbol) + e.run(row, col, -axis[0], -axis[1], symbol)
		if count >= WinLength {
			return true
		}
	}
	return false
}

func (e *Engine) run(row, col, dr, dc int, symbol Symbol) int {
	n := 0
	for r, c := row+dr, col+dc; r >= 0 && r < BoardSize && c >= 0 && c < BoardSize; r, c = r+dr, c+dc {
		if e.board[r][c] != symbol {
			break
		}
		n++
	}
	return n
}
