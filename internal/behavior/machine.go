package behavior

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/pixil98/go-bunker/internal/events"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/perception"
	"github.com/pixil98/go-bunker/internal/registry"
	"github.com/pixil98/go-bunker/internal/sight"
)

// Patrol movement runs at a fraction of chase speed.
const patrolSpeedFactor = 0.65

// IntentSink receives fire requests for later resolution. Behavior never
// applies damage itself; it only declares that an actor wants to shoot.
type IntentSink interface {
	SubmitFireIntent(attacker, target registry.Handle, weapon *game.Weapon)
}

// Config carries the collaborators a Machine needs. All fields are required
// unless noted.
type Config struct {
	Registry *registry.Registry
	Tracer   *sight.Tracer
	Grid     *game.Grid
	Level    *game.Level
	Sink     IntentSink

	// TickSeconds converts per-second speeds to per-tick movement
	TickSeconds float64

	// AlertTicks is how long an episode persists without fresh contact
	AlertTicks int

	// ShoutNoise and DoorNoise classify the sounds of alert shouts and of
	// doors being opened; nil disables propagation of that noise
	ShoutNoise *game.SoundClass
	DoorNoise  *game.SoundClass

	Rand *rand.Rand
}

// Machine advances every enemy's behavior state once per tick. Transitions
// are driven by the tick's perception events plus per-state clocks; the only
// outputs are movement, door changes, fire intents and events, so the combat
// rules stay out of this package entirely.
type Machine struct {
	cfg Config
}

func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// Update consumes the tick's perception events and then acts every enemy. It
// returns the noises enemies generated (shouts, doors) for the next tick's
// hearing pass.
func (m *Machine) Update(player registry.Handle, q *events.Queue) []perception.Noise {
	var noises []perception.Noise

	for _, ev := range q.Perception() {
		if n := m.consume(ev, q); n != nil {
			noises = append(noises, *n)
		}
	}

	pl, ok := m.cfg.Registry.Deref(player)
	playerAlive := ok && pl.State.Alive()

	m.cfg.Registry.Live(func(a *registry.Actor) {
		if a.Class != registry.ClassEnemy {
			return
		}
		if n := m.act(a, pl, playerAlive, q); n != nil {
			noises = append(noises, *n)
		}
	})

	return noises
}

// consume applies one perception event to its enemy. First contact of any
// kind raises the alarm and enters Alert; a sighting on a later tick while
// alerted escalates to attacking, so the soonest an enemy fires is the tick
// after it first noticed anything. Returns the shout noise when the
// transition triggers the once-per-episode alert cry.
func (m *Machine) consume(ev events.PerceptionEvent, q *events.Queue) *perception.Noise {
	a, ok := m.cfg.Registry.Deref(ev.Enemy)
	if !ok || !a.State.Alive() {
		return nil
	}

	var noise *perception.Noise

	switch a.State {
	case registry.StatePatrol, registry.StateSentry:
		a.Episode = uuid.NewString()
		a.Shouted = false
		a.Moving = false
		noise = m.shout(a, q)
		a.State = registry.StateAlert
	case registry.StateAlert:
		if ev.Kind == events.SawPlayer {
			a.State = registry.StateAttack
		}
	case registry.StateAttack, registry.StateFlee:
	default:
		return nil
	}

	a.LastKnown = ev.Source
	a.AlertTimer = m.cfg.AlertTicks
	return noise
}

// shout emits the alert cry at most once per episode.
func (m *Machine) shout(a *registry.Actor, q *events.Queue) *perception.Noise {
	if a.Shouted || a.Def.AlertSound == "" {
		return nil
	}
	a.Shouted = true

	q.EmitCombat(events.CombatEvent{
		Kind:    events.AlertSounded,
		Subject: a.Handle,
		Pos:     a.Pos,
		Sound:   a.Def.AlertSound,
		Episode: a.Episode,
		Actor:   a.Def.ShortDesc,
	})
	q.EmitCombat(events.CombatEvent{
		Kind:  events.PlaySound,
		Pos:   a.Pos,
		Sound: a.Def.AlertSound,
	})

	if m.cfg.ShoutNoise == nil {
		return nil
	}
	return &perception.Noise{Pos: a.Tile, Class: m.cfg.ShoutNoise}
}

func (m *Machine) act(a *registry.Actor, pl *registry.Actor, playerAlive bool, q *events.Queue) *perception.Noise {
	if a.Cooldown > 0 {
		a.Cooldown--
	}

	switch a.State {
	case registry.StateDying:
		a.DeathLeft--
		if a.DeathLeft <= 0 {
			// Dead enemies stay in the registry as corpses.
			a.State = registry.StateDead
		}
		return nil
	case registry.StateDead:
		return nil
	case registry.StateSentry:
		return nil
	case registry.StatePatrol:
		if !a.OnPatrol {
			return nil
		}
		return m.patrol(a)
	case registry.StateAlert:
		return m.investigate(a)
	case registry.StateAttack:
		if !playerAlive {
			m.standDown(a)
			return nil
		}
		return m.attack(a, pl, q)
	case registry.StateFlee:
		if !playerAlive {
			m.standDown(a)
			return nil
		}
		return m.flee(a, pl)
	}
	return nil
}

// standDown ends the episode and returns the enemy to its spawn disposition.
func (m *Machine) standDown(a *registry.Actor) {
	a.Episode = ""
	a.Shouted = false
	a.Moving = false
	if a.Def.Capabilities.Sentry && !a.OnPatrol {
		a.State = registry.StateSentry
	} else {
		a.State = registry.StatePatrol
	}
}

func (m *Machine) tickTimer(a *registry.Actor) bool {
	a.AlertTimer--
	if a.AlertTimer > 0 {
		return false
	}
	m.standDown(a)
	return true
}

// patrol walks the spawn route: straight ahead, turned by path arrows,
// reversed at dead ends.
func (m *Machine) patrol(a *registry.Actor) *perception.Noise {
	speed := a.Def.Speed * patrolSpeedFactor * m.cfg.TickSeconds

	if !a.Moving {
		if d, ok := m.cfg.Level.ArrowAt(a.Tile); ok {
			a.Facing = d
		}
		next := a.Tile.Add(a.Facing.Step())
		noise := m.tryDoor(a, next)
		if m.blocked(a, next) {
			a.Facing = a.Facing.Reverse()
			return noise
		}
		a.MoveTarget = next
		a.Moving = true
		return noise
	}

	m.advance(a, speed)
	return nil
}

// investigate walks toward the last known contact point, standing down when
// it arrives or the episode lapses.
func (m *Machine) investigate(a *registry.Actor) *perception.Noise {
	if m.tickTimer(a) {
		return nil
	}
	if a.Tile == a.LastKnown && !a.Moving {
		return nil
	}
	return m.chase(a, a.LastKnown)
}

func (m *Machine) attack(a *registry.Actor, pl *registry.Actor, q *events.Queue) *perception.Noise {
	if m.tickTimer(a) {
		return nil
	}

	// Retreat check uses the scaled spawn health recorded at spawn time.
	if a.Def.Capabilities.CanRetreat && a.MaxHealth > 0 &&
		float64(a.Health) < a.Def.RetreatBelow*float64(a.MaxHealth) {
		a.State = registry.StateFlee
		a.Moving = false
		return nil
	}

	// Losing sight drops back to investigating the last known position.
	if !m.cfg.Tracer.LineOfSight(a.Tile, pl.Tile) {
		a.State = registry.StateAlert
		return m.chase(a, a.LastKnown)
	}

	a.Facing = game.DirTowards(a.Tile, pl.Tile)

	if a.Tile.ChebyshevDist(pl.Tile) <= a.Def.AttackRange {
		a.Moving = false
		if a.Cooldown == 0 {
			weapon := a.Def.Weapon.Get()
			a.Cooldown = weapon.CooldownTicks
			m.cfg.Sink.SubmitFireIntent(a.Handle, pl.Handle, weapon)
		}
		return nil
	}

	return m.chase(a, a.LastKnown)
}

// flee runs directly away from the player until the episode lapses.
func (m *Machine) flee(a *registry.Actor, pl *registry.Actor) *perception.Noise {
	if m.tickTimer(a) {
		return nil
	}

	away := game.DirTowards(pl.Tile, a.Tile)
	if !a.Moving {
		want := a.Tile.Add(away.Step())
		noise := m.tryDoor(a, want)
		next, ok := m.pickStep(a, want)
		if !ok {
			return noise
		}
		a.Facing = game.DirTowards(a.Tile, next)
		a.MoveTarget = next
		a.Moving = true
		return noise
	}

	m.advance(a, a.Def.Speed*m.cfg.TickSeconds)
	return nil
}

// chase takes one greedy step toward the goal tile. No path memory is kept;
// the step is re-decided every tile.
func (m *Machine) chase(a *registry.Actor, goal game.TileCoord) *perception.Noise {
	if !a.Moving {
		want := goal
		if want == a.Tile {
			return nil
		}
		step := game.DirTowards(a.Tile, want).Step()
		ahead := a.Tile.Add(step)
		noise := m.tryDoor(a, ahead)
		next, ok := m.pickStep(a, ahead)
		if !ok {
			return noise
		}
		a.Facing = game.DirTowards(a.Tile, next)
		a.MoveTarget = next
		a.Moving = true
		return noise
	}

	m.advance(a, a.Def.Speed*m.cfg.TickSeconds)
	return nil
}

// pickStep returns the preferred next tile or, when it is blocked, a sidestep
// chosen at random from the walkable neighbors closest to the preferred one.
func (m *Machine) pickStep(a *registry.Actor, want game.TileCoord) (game.TileCoord, bool) {
	if !m.blocked(a, want) {
		return want, true
	}

	var candidates []game.TileCoord
	best := -1
	for d := game.Dir8(0); d < 8; d++ {
		next := a.Tile.Add(d.Step())
		if next == a.LastStep || m.blocked(a, next) {
			continue
		}
		score := -next.ChebyshevDist(want)
		if score > best {
			best = score
			candidates = candidates[:0]
		}
		if score == best {
			candidates = append(candidates, next)
		}
	}
	if len(candidates) == 0 {
		return game.TileCoord{}, false
	}
	return candidates[m.cfg.Rand.IntN(len(candidates))], true
}

// blocked reports whether the enemy cannot enter the tile. Closed doors block
// unless tryDoor opened them first this tick.
func (m *Machine) blocked(a *registry.Actor, t game.TileCoord) bool {
	if !m.cfg.Tracer.Passable(t) {
		return true
	}
	for _, other := range m.cfg.Registry.ActorsAt(t) {
		if other.Handle == a.Handle {
			continue
		}
		if other.Class == registry.ClassEnemy && other.State.Alive() {
			return true
		}
	}
	return false
}

// tryDoor opens a closed door ahead of a door-capable enemy. The opening is
// itself a noise for the next tick's hearing pass.
func (m *Machine) tryDoor(a *registry.Actor, t game.TileCoord) *perception.Noise {
	if !a.Def.Capabilities.OpensDoors {
		return nil
	}
	if m.cfg.Grid.Tile(t) != game.TileDoorClosed {
		return nil
	}

	m.cfg.Grid.SetTile(t, game.TileDoorOpen)

	if m.cfg.DoorNoise == nil {
		return nil
	}
	return &perception.Noise{Pos: t, Class: m.cfg.DoorNoise}
}

// advance moves the actor toward its move target and snaps on arrival.
func (m *Machine) advance(a *registry.Actor, dist float64) {
	target := a.MoveTarget.Center()
	delta := target.Sub(a.Pos)
	if delta.Len() <= dist {
		a.LastStep = a.Tile
		a.PlaceAt(a.MoveTarget)
		a.Moving = false

		if a.State == registry.StatePatrol {
			if d, ok := m.cfg.Level.ArrowAt(a.Tile); ok {
				a.Facing = d
			}
		}
		return
	}
	a.SetPos(a.Pos.Add(delta.Norm().Scale(dist)))
}
