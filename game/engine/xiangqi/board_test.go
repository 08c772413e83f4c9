package xiangqi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func p(row, col int) Pos { return Pos{Row: row, Col: col} }

func mv(fr, fc, tr, tc int) Move { return Move{From: p(fr, fc), To: p(tr, tc)} }

// bareBoard holds only the two generals on different files
func bareBoard() Board {
	var b Board
	b.Set(p(9, 4), Piece{Kind: General, Color: Red})
	b.Set(p(0, 3), Piece{Kind: General, Color: Black})
	return b
}

func TestInitialPosition(t *testing.T) {
	b := NewBoard()

	assert.False(t, b.InCheck(Red))
	assert.False(t, b.InCheck(Black))
	assert.Len(t, b.LegalMoves(Red), 44)
	assert.Len(t, b.LegalMoves(Black), 44)
}

func TestCannonNeedsExactlyOneScreen(t *testing.T) {
	tests := []struct {
		name    string
		screens []Pos
		legal   bool
	}{
		{"no screen", nil, false},
		{"one screen", []Pos{p(5, 3)}, true},
		{"two screens", []Pos{p(5, 3), p(5, 5)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bareBoard()
			b.Set(p(5, 0), Piece{Kind: Cannon, Color: Red})
			b.Set(p(5, 8), Piece{Kind: Chariot, Color: Black})
			for _, s := range tt.screens {
				b.Set(s, Piece{Kind: Soldier, Color: Black})
			}
			assert.Equal(t, tt.legal, b.IsLegal(Red, mv(5, 0, 5, 8)))
		})
	}
}

func TestCannonQuietMoveNeedsClearLine(t *testing.T) {
	b := bareBoard()
	b.Set(p(5, 0), Piece{Kind: Cannon, Color: Red})
	assert.True(t, b.IsLegal(Red, mv(5, 0, 5, 6)))

	b.Set(p(5, 3), Piece{Kind: Soldier, Color: Black})
	assert.False(t, b.IsLegal(Red, mv(5, 0, 5, 6)), "cannot jump to an empty point")
	assert.False(t, b.IsLegal(Red, mv(5, 0, 4, 1)), "not a straight line")
}

func TestChariotNeedsClearLine(t *testing.T) {
	tests := []struct {
		name     string
		blockers []Pos
		legal    bool
	}{
		{"clear", nil, true},
		{"one piece between", []Pos{p(5, 3)}, false},
		{"two pieces between", []Pos{p(5, 3), p(5, 5)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bareBoard()
			b.Set(p(5, 0), Piece{Kind: Chariot, Color: Red})
			b.Set(p(5, 8), Piece{Kind: Chariot, Color: Black})
			for _, s := range tt.blockers {
				b.Set(s, Piece{Kind: Soldier, Color: Red})
			}
			assert.Equal(t, tt.legal, b.IsLegal(Red, mv(5, 0, 5, 8)))
		})
	}
}

func TestHorseLeg(t *testing.T) {
	b := bareBoard()
	b.Set(p(5, 4), Piece{Kind: Horse, Color: Red})

	assert.True(t, b.IsLegal(Red, mv(5, 4, 3, 5)))
	assert.True(t, b.IsLegal(Red, mv(5, 4, 4, 6)))
	assert.False(t, b.IsLegal(Red, mv(5, 4, 3, 6)), "not an L shape")

	b.Set(p(4, 4), Piece{Kind: Soldier, Color: Black})
	assert.False(t, b.IsLegal(Red, mv(5, 4, 3, 5)), "leg blocked")
	assert.True(t, b.IsLegal(Red, mv(5, 4, 4, 6)), "other leg is free")

	b.Set(p(5, 5), Piece{Kind: Soldier, Color: Black})
	assert.False(t, b.IsLegal(Red, mv(5, 4, 4, 6)))
}

func TestElephantEyeAndRiver(t *testing.T) {
	b := bareBoard()
	b.Set(p(7, 2), Piece{Kind: Elephant, Color: Red})
	b.Set(p(5, 6), Piece{Kind: Elephant, Color: Red})

	assert.True(t, b.IsLegal(Red, mv(7, 2, 5, 4)))
	assert.False(t, b.IsLegal(Red, mv(7, 2, 6, 3)), "one step is not an elephant move")
	assert.False(t, b.IsLegal(Red, mv(5, 6, 3, 8)), "cannot cross the river")

	b.Set(p(6, 3), Piece{Kind: Soldier, Color: Red})
	assert.False(t, b.IsLegal(Red, mv(7, 2, 5, 4)), "eye blocked")

	var black Board
	black.Set(p(2, 4), Piece{Kind: Elephant, Color: Black})
	assert.True(t, black.IsLegal(Black, mv(2, 4, 4, 2)))
	black.Set(p(4, 2), Piece{Kind: Elephant, Color: Black})
	assert.False(t, black.IsLegal(Black, mv(4, 2, 6, 4)), "cannot cross the river")
}

func TestAdvisorAndGeneralStayInPalace(t *testing.T) {
	b := bareBoard()
	b.Set(p(9, 3), Piece{Kind: Advisor, Color: Red})

	assert.True(t, b.IsLegal(Red, mv(9, 3, 8, 4)))
	assert.False(t, b.IsLegal(Red, mv(9, 3, 8, 2)), "outside palace")
	assert.False(t, b.IsLegal(Red, mv(9, 3, 8, 3)), "advisor moves diagonally")

	assert.True(t, b.IsLegal(Red, mv(9, 4, 8, 4)))
	assert.False(t, b.IsLegal(Red, mv(9, 4, 8, 5)), "general moves orthogonally")
	assert.False(t, b.IsLegal(Red, mv(9, 4, 9, 3)), "own piece on target")

	b.Set(p(9, 4), Piece{})
	b.Set(p(7, 4), Piece{Kind: General, Color: Red})
	assert.False(t, b.IsLegal(Red, mv(7, 4, 6, 4)), "leaves palace")
	assert.True(t, b.IsLegal(Red, mv(7, 4, 7, 5)))
}

func TestFlyingGeneral(t *testing.T) {
	var b Board
	b.Set(p(9, 4), Piece{Kind: General, Color: Red})
	b.Set(p(0, 4), Piece{Kind: General, Color: Black})

	assert.True(t, b.IsLegal(Red, mv(9, 4, 0, 4)))
	assert.True(t, b.InCheck(Black))
	assert.True(t, b.InCheck(Red))

	b.Set(p(5, 4), Piece{Kind: Horse, Color: Red})
	assert.False(t, b.IsLegal(Red, mv(9, 4, 0, 4)))
	assert.False(t, b.InCheck(Black))
}

func TestSoldierMoves(t *testing.T) {
	b := bareBoard()
	b.Set(p(6, 0), Piece{Kind: Soldier, Color: Red})
	b.Set(p(4, 2), Piece{Kind: Soldier, Color: Red})
	b.Set(p(3, 8), Piece{Kind: Soldier, Color: Black})
	b.Set(p(5, 6), Piece{Kind: Soldier, Color: Black})

	tests := []struct {
		name  string
		color Color
		move  Move
		legal bool
	}{
		{"red forward", Red, mv(6, 0, 5, 0), true},
		{"red sideways before river", Red, mv(6, 0, 6, 1), false},
		{"red backward", Red, mv(6, 0, 7, 0), false},
		{"red crossed forward", Red, mv(4, 2, 3, 2), true},
		{"red crossed sideways", Red, mv(4, 2, 4, 1), true},
		{"red crossed backward", Red, mv(4, 2, 5, 2), false},
		{"red two steps", Red, mv(6, 0, 4, 0), false},
		{"black forward", Black, mv(3, 8, 4, 8), true},
		{"black sideways before river", Black, mv(3, 8, 3, 7), false},
		{"black crossed sideways", Black, mv(5, 6, 5, 5), true},
		{"black crossed backward", Black, mv(5, 6, 4, 6), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.legal, b.IsLegal(tt.color, tt.move))
		})
	}
}

func TestMoveOwnership(t *testing.T) {
	b := NewBoard()

	assert.False(t, b.IsLegal(Black, mv(6, 0, 5, 0)), "cannot move the opponent's piece")
	assert.False(t, b.IsLegal(Red, mv(5, 0, 4, 0)), "empty source")
	assert.False(t, b.IsLegal(Red, mv(9, 0, 10, 0)), "target off board")
	assert.False(t, b.IsLegal(Red, mv(9, 0, 9, 0)), "null move")
}

// doubleChariotMate has black's general on (0,4) checked along row 0 with row 1 covered
func doubleChariotMate() Board {
	var b Board
	b.Set(p(0, 4), Piece{Kind: General, Color: Black})
	b.Set(p(9, 3), Piece{Kind: General, Color: Red})
	b.Set(p(0, 0), Piece{Kind: Chariot, Color: Red})
	b.Set(p(1, 0), Piece{Kind: Chariot, Color: Red})
	return b
}

func TestCheckmate(t *testing.T) {
	b := doubleChariotMate()

	assert.True(t, b.InCheck(Black))
	assert.True(t, b.IsCheckmate(Black))
	assert.Empty(t, b.LegalMoves(Black))
	assert.Equal(t, doubleChariotMate(), b, "search must restore the board")
}

func TestCheckWithEscapeIsNotMate(t *testing.T) {
	b := doubleChariotMate()
	b.Set(p(1, 4), Piece{Kind: Advisor, Color: Black})

	assert.True(t, b.InCheck(Black))
	assert.False(t, b.IsCheckmate(Black))
	assert.Equal(t, []Move{mv(1, 4, 0, 3)}, b.LegalMoves(Black))
}

func TestNotInCheckIsNotMate(t *testing.T) {
	b := bareBoard()
	assert.False(t, b.IsCheckmate(Red))
	assert.False(t, b.IsCheckmate(Black))
}
