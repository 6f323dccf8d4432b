package perception

import (
	"github.com/pixil98/go-bunker/internal/events"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/registry"
	"github.com/pixil98/go-bunker/internal/sight"
)

// Noise is one sound emitted during the previous phase of the tick: a shot,
// a door, or the player's footsteps. Noises live for a single observation
// pass and are not retained.
type Noise struct {
	Pos   game.TileCoord
	Class *game.SoundClass
}

// Perceptor runs the detection pass. It reads actor positions and the level
// geometry and writes perception events; it never mutates actor state itself,
// behavior does that when it consumes the events.
type Perceptor struct {
	tracer *sight.Tracer
}

func NewPerceptor(tracer *sight.Tracer) *Perceptor {
	return &Perceptor{tracer: tracer}
}

// Observe runs one detection pass over every live enemy. Enemies already in
// an engaged state only re-validate sight of the player; calm enemies check
// sight first and fall back to hearing the tick's noises. At most one event
// is emitted per enemy per tick, sight winning over sound.
func (p *Perceptor) Observe(reg *registry.Registry, player registry.Handle, noises []Noise, q *events.Queue) {
	pl, ok := reg.Deref(player)
	if !ok || !pl.State.Alive() {
		return
	}

	reg.Live(func(a *registry.Actor) {
		if a.Class != registry.ClassEnemy || !a.State.Alive() {
			return
		}

		engaged := a.State == registry.StateAlert || a.State == registry.StateAttack

		if p.tracer.LineOfSight(a.Tile, pl.Tile) {
			q.EmitPerception(events.PerceptionEvent{
				Enemy:      a.Handle,
				Kind:       events.SawPlayer,
				Source:     pl.Tile,
				Confidence: 1,
			})
			return
		}

		if engaged {
			// Already hunting; losing sight is handled by the alert timer,
			// and fresh noises only matter once the episode has lapsed.
			return
		}

		for _, n := range noises {
			heard, confidence := p.tracer.CanHear(n.Pos, n.Class, a.Tile)
			if !heard {
				continue
			}
			q.EmitPerception(events.PerceptionEvent{
				Enemy:      a.Handle,
				Kind:       events.HeardSomething,
				Source:     n.Pos,
				Confidence: confidence,
			})
			return
		}
	})
}
