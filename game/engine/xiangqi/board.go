package xiangqi

const (
	Cols = 9
	Rows = 10
)

// Color is a side; red moves first and starts at the bottom (rows 7-9)
type Color string

const (
	Red   Color = "red"
	Black Color = "black"
)

// Opponent returns the other color
func (c Color) Opponent() Color {
	if c == Red {
		return Black
	}
	return Red
}

// Kind is a piece type
type Kind string

const (
	General  Kind = "general"
	Advisor  Kind = "advisor"
	Elephant Kind = "elephant"
	Horse    Kind = "horse"
	Chariot  Kind = "chariot"
	Cannon   Kind = "cannon"
	Soldier  Kind = "soldier"
)

// Piece occupies a point; the zero value is an empty point
type Piece struct {
	Kind  Kind  `json:"type"`
	Color Color `json:"color"`
}

// Empty reports whether p is the empty point
func (p Piece) Empty() bool { return p.Kind == "" }

// Pos is a board point
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether p lies on the board
func (p Pos) InBounds() bool {
	return p.Row >= 0 && p.Row < Rows && p.Col >= 0 && p.Col < Cols
}

// Move is a from/to pair
type Move struct {
	From Pos `json:"from"`
	To   Pos `json:"to"`
}

// MoveRecord describes an applied move and is enough to revert it
type MoveRecord struct {
	From     Pos   `json:"from"`
	To       Pos   `json:"to"`
	Piece    Piece `json:"piece"`
	Captured Piece `json:"captured"`
	Mover    Color `json:"mover"`
}

// Board is the 10x9 grid indexed [row][col]
type Board [Rows][Cols]Piece

var backRank = [Cols]Kind{Chariot, Horse, Elephant, Advisor, General, Advisor, Elephant, Horse, Chariot}

// NewBoard returns the standard starting position
func NewBoard() Board {
	var b Board
	for col, kind := range backRank {
		b[0][col] = Piece{Kind: kind, Color: Black}
		b[9][col] = Piece{Kind: kind, Color: Red}
	}
	for _, col := range []int{1, 7} {
		b[2][col] = Piece{Kind: Cannon, Color: Black}
		b[7][col] = Piece{Kind: Cannon, Color: Red}
	}
	for col := 0; col < Cols; col += 2 {
		b[3][col] = Piece{Kind: Soldier, Color: Black}
		b[6][col] = Piece{Kind: Soldier, Color: Red}
	}
	return b
}

// At returns the piece at p
func (b *Board) At(p Pos) Piece { return b[p.Row][p.Col] }

// Set places pc at p
func (b *Board) Set(p Pos, pc Piece) { b[p.Row][p.Col] = pc }

func (b *Board) apply(m Move) MoveRecord {
	rec := MoveRecord{From: m.From, To: m.To, Piece: b.At(m.From), Captured: b.At(m.To)}
	rec.Mover = rec.Piece.Color
	b.Set(m.To, rec.Piece)
	b.Set(m.From, Piece{})
	return rec
}

func (b *Board) revert(rec MoveRecord) {
	b.Set(rec.From, rec.Piece)
	b.Set(rec.To, rec.Captured)
}

// General returns the position of color's general
func (b *Board) General(color Color) (Pos, bool) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if pc := b[r][c]; pc.Kind == General && pc.Color == color {
				return Pos{Row: r, Col: c}, true
			}
		}
	}
	return Pos{}, false
}

// IsLegal reports whether color may move m under the piece movement rules.
// It does not consider whether the move exposes the mover's own general.
func (b *Board) IsLegal(color Color, m Move) bool {
	if !m.From.InBounds() || !m.To.InBounds() || m.From == m.To {
		return false
	}
	piece := b.At(m.From)
	if piece.Empty() || piece.Color != color {
		return false
	}
	target := b.At(m.To)
	if !target.Empty() && target.Color == color {
		return false
	}

	switch piece.Kind {
	case General:
		return b.generalMove(color, m, target)
	case Advisor:
		return advisorMove(color, m)
	case Elephant:
		return b.elephantMove(color, m)
	case Horse:
		return b.horseMove(m)
	case Chariot:
		return straight(m) && b.between(m) == 0
	case Cannon:
		if !straight(m) {
			return false
		}
		if target.Empty() {
			return b.between(m) == 0
		}
		return b.between(m) == 1
	case Soldier:
		return soldierMove(color, m)
	}
	return false
}

// InCheck reports whether any opposing piece can reach color's general
func (b *Board) InCheck(color Color) bool {
	g, ok := b.General(color)
	if !ok {
		return false
	}
	opp := color.Opponent()
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if pc := b[r][c]; !pc.Empty() && pc.Color == opp {
				if b.IsLegal(opp, Move{From: Pos{Row: r, Col: c}, To: g}) {
					return true
				}
			}
		}
	}
	return false
}

// IsCheckmate reports whether color is in check with no move that escapes it
func (b *Board) IsCheckmate(color Color) bool {
	if !b.InCheck(color) {
		return false
	}
	return !b.hasEscape(color)
}

// LegalMoves lists every move for color that does not leave its general in check
func (b *Board) LegalMoves(color Color) []Move {
	var moves []Move
	b.eachMove(color, func(m Move) bool {
		moves = append(moves, m)
		return true
	})
	return moves
}

func (b *Board) hasEscape(color Color) bool {
	found := false
	b.eachMove(color, func(Move) bool {
		found = true
		return false
	})
	return found
}

// eachMove visits every safe move for color until visit returns false
func (b *Board) eachMove(color Color, visit func(Move) bool) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if pc := b[r][c]; pc.Empty() || pc.Color != color {
				continue
			}
			from := Pos{Row: r, Col: c}
			for tr := 0; tr < Rows; tr++ {
				for tc := 0; tc < Cols; tc++ {
					m := Move{From: from, To: Pos{Row: tr, Col: tc}}
					if !b.IsLegal(color, m) {
						continue
					}
					rec := b.apply(m)
					safe := !b.InCheck(color)
					b.revert(rec)
					if safe && !visit(m) {
						return
					}
				}
			}
		}
	}
}

func (b *Board) generalMove(color Color, m Move, target Piece) bool {
	dr, dc := abs(m.To.Row-m.From.Row), abs(m.To.Col-m.From.Col)
	if dr+dc == 1 && inPalace(color, m.To) {
		return true
	}
	// flying general: capture along an open file
	return target.Kind == General && m.From.Col == m.To.Col &&
		m.From.Col >= 3 && m.From.Col <= 5 && b.between(m) == 0
}

func advisorMove(color Color, m Move) bool {
	dr, dc := abs(m.To.Row-m.From.Row), abs(m.To.Col-m.From.Col)
	return dr == 1 && dc == 1 && inPalace(color, m.To)
}

func (b *Board) elephantMove(color Color, m Move) bool {
	dr, dc := m.To.Row-m.From.Row, m.To.Col-m.From.Col
	if abs(dr) != 2 || abs(dc) != 2 {
		return false
	}
	if !ownSide(color, m.To.Row) {
		return false
	}
	eye := Pos{Row: m.From.Row + dr/2, Col: m.From.Col + dc/2}
	return b.At(eye).Empty()
}

func (b *Board) horseMove(m Move) bool {
	dr, dc := m.To.Row-m.From.Row, m.To.Col-m.From.Col
	var leg Pos
	switch {
	case abs(dr) == 2 && abs(dc) == 1:
		leg = Pos{Row: m.From.Row + dr/2, Col: m.From.Col}
	case abs(dr) == 1 && abs(dc) == 2:
		leg = Pos{Row: m.From.Row, Col: m.From.Col + dc/2}
	default:
		return false
	}
	return b.At(leg).Empty()
}

func soldierMove(color Color, m Move) bool {
	dr, dc := m.To.Row-m.From.Row, m.To.Col-m.From.Col
	forward := -1
	if color == Black {
		forward = 1
	}
	if dr == forward && dc == 0 {
		return true
	}
	return dr == 0 && abs(dc) == 1 && !ownSide(color, m.From.Row)
}

// between counts pieces strictly between the endpoints of a straight move
func (b *Board) between(m Move) int {
	dr, dc := sign(m.To.Row-m.From.Row), sign(m.To.Col-m.From.Col)
	n := 0
	for p := (Pos{Row: m.From.Row + dr, Col: m.From.Col + dc}); p != m.To; p = (Pos{Row: p.Row + dr, Col: p.Col + dc}) {
		if !b.At(p).Empty() {
			n++
		}
	}
	return n
}

func straight(m Move) bool {
	return (m.From.Row == m.To.Row) != (m.From.Col == m.To.Col)
}

func inPalace(color Color, p Pos) bool {
	if p.Col < 3 || p.Col > 5 {
		return false
	}
	if color == Red {
		return p.Row >= 7 && p.Row <= 9
	}
	return p.Row >= 0 && p.Row <= 2
}

// ownSide reports whether row is on color's side of the river
func ownSide(color Color, row int) bool {
	if color == Red {
		return row >= 5
	}
	return row <= 4
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
