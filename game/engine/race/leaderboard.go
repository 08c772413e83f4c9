package race

import "sort"

// Standing is one leaderboard row
type Standing struct {
	Position int         `json:"position"`
	PlayerID string      `json:"playerId"`
	Phase    PlayerPhase `json:"phase"`
	Progress float64     `json:"progress"`
	Score    int         `json:"score"`
	Rank     int         `json:"rank,omitempty"`
	Alive    bool        `json:"alive"`
}

// Progress measures how far p has travelled over the whole course. Any point
// on the return leg counts more than any point on the way out.
func Progress(p PlayerState, distance float64) float64 {
	switch p.Phase {
	case Return:
		return distance + (distance - p.X)
	case Finished:
		return 2 * distance
	}
	return p.X
}

// Leaderboard orders finished players by rank, then everyone else by progress
func Leaderboard(players []PlayerState, distance float64) []Standing {
	rows := make([]Standing, len(players))
	for i, p := range players {
		rows[i] = Standing{
			PlayerID: p.ID,
			Phase:    p.Phase,
			Progress: Progress(p, distance),
			Score:    p.Score,
			Rank:     p.Rank,
			Alive:    p.Alive,
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		aDone, bDone := a.Phase == Finished, b.Phase == Finished
		switch {
		case aDone && bDone:
			return a.Rank < b.Rank
		case aDone != bDone:
			return aDone
		case a.Progress != b.Progress:
			return a.Progress > b.Progress
		}
		return a.Alive && !b.Alive
	})

	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}
