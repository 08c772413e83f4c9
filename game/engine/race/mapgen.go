package race

import "math/rand"

// Map is the generated obstacle course of a round
type Map struct {
	Pipes []Pipe
	Items []ItemBox
}

// generator lays out pipes and item boxes from a seeded source so the same
// config always yields the same course
type generator struct {
	cfg    *MapConfig
	rng    *rand.Rand
	nextX  float64
	pipes  int
	nextID int
}

func newGenerator(cfg *MapConfig) *generator {
	return &generator{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		nextX: cfg.FirstPipeX,
	}
}

// GenerateMap builds the course for cfg. Pipes stop short of the turnaround
// point so the far end is always open.
func GenerateMap(cfg *MapConfig) Map {
	g := newGenerator(cfg)
	var m Map
	g.extend(&m, g.limit(0))
	return m
}

func (g *generator) limit(leaderX float64) float64 {
	if g.cfg.Mode == ModeEndless {
		return leaderX + endlessLookahead
	}
	return g.cfg.Distance - g.cfg.PipeSpacing/2
}

// extend appends pipes whose right edge lies before limit
func (g *generator) extend(m *Map, limit float64) {
	cfg := g.cfg
	span := WorldHeight - 2*cfg.GapMargin - cfg.GapHeight

	for g.nextX+cfg.PipeWidth <= limit {
		gapY := cfg.GapMargin + cfg.GapHeight/2 + g.rng.Float64()*span
		g.nextID++
		m.Pipes = append(m.Pipes, Pipe{
			ID:        g.nextID,
			X:         g.nextX,
			Width:     cfg.PipeWidth,
			GapY:      gapY,
			GapHeight: cfg.GapHeight,
		})
		g.pipes++

		if cfg.ItemEvery > 0 && g.pipes%cfg.ItemEvery == 0 {
			kind := cfg.ItemKinds[g.rng.Intn(len(cfg.ItemKinds))]
			g.nextID++
			m.Items = append(m.Items, ItemBox{
				ID:     g.nextID,
				X:      g.nextX + cfg.PipeWidth + (cfg.PipeSpacing-cfg.PipeWidth)/2,
				Y:      gapY,
				Kind:   kind,
				Active: true,
			})
		}
		g.nextX += cfg.PipeSpacing
	}
}
