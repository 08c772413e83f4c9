package race

import "math"

func (p *PlayerState) direction() float64 {
	if p.Phase == Return {
		return -1
	}
	return 1
}

func (p *PlayerState) racing() bool {
	return p.Alive && p.Phase != Finished
}

// advance runs one tick of physics, progress and collisions for p
func (e *Engine) advance(p *PlayerState) {
	cfg := e.cfg

	p.VY = math.Min(p.VY+cfg.Gravity, cfg.MaxFallSpeed)
	p.Y += p.VY
	if p.Y < PlayerRadius {
		p.Y, p.VY = PlayerRadius, 0
	} else if p.Y > WorldHeight-PlayerRadius {
		p.Y, p.VY = WorldHeight-PlayerRadius, 0
	}

	p.Effects.Decay()

	if !p.Effects.Active(EffectStun) {
		speed := cfg.ForwardSpeed
		if p.Effects.Active(EffectSpeed) {
			speed *= SpeedMultiplier
		}
		p.X += speed * p.direction()
	}

	switch {
	case p.Phase == Outbound && e.mode != ModeEndless && p.X >= cfg.Distance:
		p.X = cfg.Distance
		p.Phase = Return
		p.Score += TurnBonus
		p.nextPipe = len(e.pipes) - 1
		e.notify("turnaround", map[string]interface{}{"player": p.ID})
	case p.Phase == Return && p.X <= StartX:
		p.X = StartX
		p.Phase = Finished
		p.Score += FinishBonus
		e.nextRank++
		p.Rank = e.nextRank
		e.notify("playerFinished", map[string]interface{}{"player": p.ID, "rank": p.Rank})
		return
	}

	e.scorePipes(p)
	e.collide(p)
}

// scorePipes awards points for pipes fully passed in the direction of travel
func (e *Engine) scorePipes(p *PlayerState) {
	if p.Phase == Outbound {
		for p.nextPipe < len(e.pipes) && e.pipes[p.nextPipe].X+e.pipes[p.nextPipe].Width < p.X-PlayerRadius {
			p.Score += PipeScore
			p.nextPipe++
		}
		return
	}
	for p.nextPipe >= 0 && p.nextPipe < len(e.pipes) && e.pipes[p.nextPipe].X > p.X+PlayerRadius {
		p.Score += PipeScore
		p.nextPipe--
	}
}

func (e *Engine) collide(p *PlayerState) {
	for i := range e.pipes {
		if hitsPipe(p, &e.pipes[i]) {
			e.damage(p, "pipe")
			break
		}
	}
	if !p.Alive {
		return
	}

	for i := range e.items {
		box := &e.items[i]
		if box.Active && math.Abs(p.X-box.X) < PlayerRadius+ItemBoxHalf && math.Abs(p.Y-box.Y) < PlayerRadius+ItemBoxHalf {
			p.Item = box.Kind
			box.Active = false
			box.respawn = ItemRespawnTicks
			e.notify("itemPickup", map[string]interface{}{"player": p.ID, "item": box.Kind})
		}
	}

	for i := range e.projectiles {
		pr := &e.projectiles[i]
		if pr.Active && pr.Owner != p.ID && touches(p, pr.X, pr.Y, ProjectileRadius) {
			pr.Active = false
			e.damage(p, "projectile")
			if !p.Alive {
				return
			}
		}
	}

	for i := range e.traps {
		tr := &e.traps[i]
		if tr.Active && tr.Owner != p.ID && touches(p, tr.X, tr.Y, TrapRadius) {
			tr.Active = false
			p.Effects.Grant(EffectStun, StunTicks)
			p.VY = 0
			e.notify("trapped", map[string]interface{}{"player": p.ID, "by": tr.Owner})
		}
	}
}

func hitsPipe(p *PlayerState, pipe *Pipe) bool {
	if p.X+PlayerRadius <= pipe.X || p.X-PlayerRadius >= pipe.X+pipe.Width {
		return false
	}
	top := pipe.GapY - pipe.GapHeight/2
	bottom := pipe.GapY + pipe.GapHeight/2
	return p.Y-PlayerRadius < top || p.Y+PlayerRadius > bottom
}

func touches(p *PlayerState, x, y, radius float64) bool {
	dx, dy := p.X-x, p.Y-y
	r := PlayerRadius + radius
	return dx*dx+dy*dy < r*r
}

// damage costs a life unless p is shielded or recovering from a hit
func (e *Engine) damage(p *PlayerState, cause string) bool {
	if p.Effects.Active(EffectShield) || p.Effects.Active(EffectInvincible) {
		return false
	}
	p.Lives--
	p.Score = max(0, p.Score-DamagePenalty)
	p.Effects.Grant(EffectInvincible, InvincibleTicks)
	e.notify("damage", map[string]interface{}{"player": p.ID, "cause": cause, "lives": max(p.Lives, 0)})

	if p.Lives <= 0 {
		p.Lives = 0
		p.Alive = false
		p.VY = 0
		e.notify("eliminated", map[string]interface{}{"player": p.ID})
	}
	return true
}

// useItem consumes p's held item. target is only used by traps.
func (e *Engine) useItem(p *PlayerState, target *point) {
	kind := p.Item
	p.Item = ItemNone

	switch kind {
	case ItemSpeed:
		p.Effects.Grant(EffectSpeed, SpeedTicks)
	case ItemShield:
		p.Effects.Grant(EffectShield, ShieldTicks)
	case ItemBomb:
		e.detonate(p)
	case ItemTrap:
		at := point{X: p.X - p.direction()*TrapDropOffset, Y: p.Y}
		if target != nil {
			at = *target
		}
		e.nextID++
		e.traps = append(e.traps, Trap{
			ID:     e.nextID,
			Owner:  p.ID,
			X:      e.clampX(at.X),
			Y:      clampY(at.Y),
			TTL:    TrapTicks,
			Active: true,
		})
	case ItemMissile:
		dir := p.direction()
		e.nextID++
		e.projectiles = append(e.projectiles, Projectile{
			ID:     e.nextID,
			Owner:  p.ID,
			X:      p.X + dir*(PlayerRadius+ProjectileRadius+1),
			Y:      p.Y,
			VX:     dir * (ProjectileSpeed + e.cfg.ForwardSpeed),
			TTL:    ProjectileTicks,
			Active: true,
		})
	}
	e.notify("itemUsed", map[string]interface{}{"player": p.ID, "item": kind})
}

// detonate pushes and stuns every other living racer within BombRadius
func (e *Engine) detonate(bomber *PlayerState) {
	for _, o := range e.players {
		if o == bomber || !o.racing() {
			continue
		}
		dx, dy := o.X-bomber.X, o.Y-bomber.Y
		dist := math.Hypot(dx, dy)
		if dist > BombRadius {
			continue
		}
		nx, ny := bomber.direction(), 0.0
		if dist > 0 {
			nx, ny = dx/dist, dy/dist
		}
		o.X = e.clampX(o.X + nx*BombPush)
		o.Y = clampY(o.Y + ny*BombPush)
		o.VY = 0
		o.Effects.Grant(EffectStun, StunTicks)
	}
	e.notify("bomb", map[string]interface{}{"player": bomber.ID, "x": bomber.X, "y": bomber.Y})
}

// advanceWorld moves projectiles, ages traps and respawns item boxes
func (e *Engine) advanceWorld() {
	projectiles := e.projectiles[:0]
	for _, pr := range e.projectiles {
		pr.X += pr.VX
		pr.TTL--
		if pr.Active && pr.TTL > 0 && pr.X >= StartX && (e.mode == ModeEndless || pr.X <= e.cfg.Distance) {
			projectiles = append(projectiles, pr)
		}
	}
	e.projectiles = projectiles

	traps := e.traps[:0]
	for _, tr := range e.traps {
		tr.TTL--
		if tr.Active && tr.TTL > 0 {
			traps = append(traps, tr)
		}
	}
	e.traps = traps

	for i := range e.items {
		box := &e.items[i]
		if !box.Active {
			box.respawn--
			if box.respawn <= 0 {
				box.Active = true
			}
		}
	}

	if e.mode == ModeEndless {
		lead := 0.0
		for _, p := range e.players {
			lead = math.Max(lead, p.X)
		}
		if limit := e.gen.limit(lead); e.gen.nextX+e.cfg.PipeWidth <= limit {
			m := Map{Pipes: e.pipes, Items: e.items}
			e.gen.extend(&m, limit)
			e.pipes, e.items = m.Pipes, m.Items
		}
	}
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (e *Engine) clampX(x float64) float64 {
	if x < StartX {
		return StartX
	}
	if e.mode != ModeEndless && x > e.cfg.Distance {
		return e.cfg.Distance
	}
	return x
}

func clampY(y float64) float64 {
	return math.Max(PlayerRadius, math.Min(WorldHeight-PlayerRadius, y))
}
