package combat

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/pixil98/go-bunker/internal/events"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/perception"
	"github.com/pixil98/go-bunker/internal/registry"
	"github.com/pixil98/go-bunker/internal/sight"
	"github.com/pixil98/go-bunker/internal/storage"
)

// Actors within this perpendicular distance of a shot ray can be hit.
const hitRadius = 0.5

// Projectiles advance in substeps of this length so a fast rocket cannot
// tunnel through a wall or a target in one tick.
const projectileStep = 0.2

type fireIntent struct {
	attacker registry.Handle
	target   registry.Handle
	weapon   *game.Weapon
}

// Engine resolves all damage. Intents are collected during the behavior and
// input phases and resolved in submission order in a single pass, so no kill
// can retroactively cancel a shot submitted earlier in the same tick.
type Engine struct {
	reg     *registry.Registry
	tracer  *sight.Tracer
	weapons storage.Storer[*game.Weapon]
	skill   game.Skill
	rng     *rand.Rand

	intents []fireIntent
}

func NewEngine(reg *registry.Registry, tracer *sight.Tracer, weapons storage.Storer[*game.Weapon], skill game.Skill, rng *rand.Rand) *Engine {
	return &Engine{
		reg:     reg,
		tracer:  tracer,
		weapons: weapons,
		skill:   skill,
		rng:     rng,
	}
}

// SubmitFireIntent queues a shot at an explicit target. A zero target means
// the shot travels along the attacker's facing and picks up whatever it hits;
// that is how player fire works.
func (e *Engine) SubmitFireIntent(attacker, target registry.Handle, weapon *game.Weapon) {
	e.intents = append(e.intents, fireIntent{attacker: attacker, target: target, weapon: weapon})
}

// Resolve fires every queued intent in submission order and returns the
// gunfire noises for the next tick's hearing pass. An intent whose attacker
// has gone stale, or whose player attacker is out of ammo, is dropped
// silently.
func (e *Engine) Resolve(q *events.Queue) []perception.Noise {
	var noises []perception.Noise

	for _, in := range e.intents {
		a, ok := e.reg.Deref(in.attacker)
		if !ok || !a.State.Alive() {
			continue
		}

		if a.Class == registry.ClassPlayer && in.weapon.UsesAmmo {
			id := a.Weapon
			if a.Ammo[id] <= 0 {
				continue
			}
			a.Ammo[id]--
		}

		if in.weapon.FireSound != "" {
			q.EmitCombat(events.CombatEvent{
				Kind:  events.PlaySound,
				Pos:   a.Pos,
				Sound: in.weapon.FireSound,
			})
		}
		if vol := in.weapon.Volume.Get(); vol != nil {
			noises = append(noises, perception.Noise{Pos: a.Tile, Class: vol})
		}

		switch in.weapon.Kind {
		case game.WeaponProjectile:
			e.launch(a, in.target, in.weapon)
		default:
			e.fireRay(a, in.target, in.weapon, q)
		}
	}

	e.intents = e.intents[:0]
	return noises
}

// fireRay resolves a hitscan or melee shot.
func (e *Engine) fireRay(a *registry.Actor, target registry.Handle, weapon *game.Weapon, q *events.Queue) {
	t, ok := e.reg.Deref(target)
	if target != registry.Zero {
		if !ok || !t.State.Alive() {
			return
		}
	} else {
		t = e.acquire(a, weapon)
		if t == nil {
			return
		}
	}

	dist := a.Tile.ChebyshevDist(t.Tile)
	if dist > weapon.MaxRange {
		return
	}

	// A wall closer than the target eats the shot.
	delta := t.Pos.Sub(a.Pos)
	euclid := delta.Len()
	if euclid > 1e-9 {
		if e.tracer.WallDistance(a.Pos, delta, euclid) < euclid-1e-6 {
			return
		}
	}

	// Enemy marksmanship falls off with range; adjacent and near shots
	// always pass the gate.
	if a.Class == registry.ClassEnemy && dist > 3 {
		if e.rng.IntN(256)/12 < dist {
			return
		}
	}

	dmg := e.rollDamage(weapon, dist)
	e.applyDamage(a, t, dmg, q)
}

// acquire finds the nearest live target along the attacker's facing, within
// the weapon's range and not behind a wall.
func (e *Engine) acquire(a *registry.Actor, weapon *game.Weapon) *registry.Actor {
	dir := a.Facing.Vec()
	wallDist := e.tracer.WallDistance(a.Pos, dir, float64(weapon.MaxRange))

	var best *registry.Actor
	bestAlong := math.Inf(1)

	e.reg.Live(func(c *registry.Actor) {
		if c.Handle == a.Handle || !c.State.Alive() {
			return
		}
		if c.Class != registry.ClassEnemy && c.Class != registry.ClassPlayer {
			return
		}

		delta := c.Pos.Sub(a.Pos)
		along := delta.Dot(dir)
		if along <= 0 || along > wallDist+hitRadius {
			return
		}
		perp := delta.Sub(dir.Scale(along)).Len()
		if perp > hitRadius {
			return
		}
		if along < bestAlong {
			bestAlong = along
			best = c
		}
	})

	return best
}

// launch spawns a projectile actor travelling at its target, or straight
// ahead when the intent had none.
func (e *Engine) launch(a *registry.Actor, target registry.Handle, weapon *game.Weapon) {
	dir := a.Facing.Vec()
	if t, ok := e.reg.Deref(target); ok {
		dir = t.Pos.Sub(a.Pos).Norm()
	}
	if dir == (game.Vec2{}) {
		return
	}

	p, _ := e.reg.Allocate(registry.ClassProjectile)
	p.SetPos(a.Pos.Add(dir.Scale(hitRadius)))
	p.Vel = dir.Scale(weapon.ProjectileSpeed)
	p.Owner = a.Handle
	p.ProjDef = weapon
	p.ProjRange = float64(weapon.MaxRange)
	p.State = registry.StatePatrol
}

// AdvanceProjectiles moves every projectile by one tick, in substeps, and
// detonates on the first wall or actor struck. The owner handle is
// re-validated at impact time: if the shooter died since launch the hit still
// lands, only the kill credit is lost.
func (e *Engine) AdvanceProjectiles(dt float64, q *events.Queue) {
	e.reg.Live(func(p *registry.Actor) {
		if p.Class != registry.ClassProjectile {
			return
		}

		remaining := p.Vel.Len() * dt
		stepDir := p.Vel.Norm()

		for remaining > 0 {
			step := math.Min(projectileStep, remaining)
			remaining -= step
			p.SetPos(p.Pos.Add(stepDir.Scale(step)))
			p.ProjDist += step

			if e.tracer.Solid(p.Tile) || p.ProjDist > p.ProjRange {
				e.reg.MarkForRemoval(p.Handle)
				return
			}

			if victim := e.projectileVictim(p); victim != nil {
				owner, _ := e.reg.Deref(p.Owner)
				dmg := e.rollDamage(p.ProjDef, 1)
				e.applyDamage(owner, victim, dmg, q)
				e.reg.MarkForRemoval(p.Handle)
				return
			}
		}
	})
}

func (e *Engine) describe(a *registry.Actor) string {
	if a.Class == registry.ClassPlayer {
		return "player"
	}
	if a.Def != nil {
		return a.Def.ShortDesc
	}
	return ""
}

// projectileVictim returns a live player or enemy within the hit radius,
// excluding the projectile's owner.
func (e *Engine) projectileVictim(p *registry.Actor) *registry.Actor {
	var victim *registry.Actor
	e.reg.Live(func(c *registry.Actor) {
		if victim != nil {
			return
		}
		if c.Class != registry.ClassEnemy && c.Class != registry.ClassPlayer {
			return
		}
		if !c.State.Alive() || c.Handle == p.Owner {
			return
		}
		if c.Pos.Sub(p.Pos).Len() <= hitRadius {
			victim = c
		}
	})
	return victim
}

// rollDamage rolls uniformly up to the weapon's maximum for the distance
// bucket.
func (e *Engine) rollDamage(weapon *game.Weapon, distTiles int) int {
	max := weapon.DamageMax(distTiles)
	if max <= 0 {
		return 0
	}
	return 1 + e.rng.IntN(max)
}

// applyDamage lands a hit, scales it for skill when the player is the victim,
// and processes death exactly once no matter how many hits arrive this tick.
// attacker may be nil when the shooter no longer exists.
func (e *Engine) applyDamage(attacker, victim *registry.Actor, dmg int, q *events.Queue) {
	if dmg <= 0 || !victim.State.Alive() {
		return
	}

	if victim.Class == registry.ClassPlayer {
		scaled := int(math.Round(float64(dmg) * e.skill.PlayerDamageScale()))
		if scaled < 1 {
			scaled = 1
		}
		dmg = scaled
	}

	victim.Health -= dmg
	if victim.Health < 0 {
		victim.Health = 0
	}

	var attackerHandle registry.Handle
	if attacker != nil {
		attackerHandle = attacker.Handle
	}

	q.EmitCombat(events.CombatEvent{
		Kind:     events.Hit,
		Subject:  victim.Handle,
		Attacker: attackerHandle,
		Pos:      victim.Pos,
		Damage:   dmg,
		Actor:    e.describe(victim),
	})

	if victim.Health > 0 {
		return
	}
	e.kill(attacker, victim, q)
}

// kill transitions a victim at zero health. The alive check in applyDamage
// guarantees this runs once per victim even with multiple lethal hits queued.
func (e *Engine) kill(attacker, victim *registry.Actor, q *events.Queue) {
	if victim.Class == registry.ClassPlayer {
		victim.State = registry.StateDead
		q.EmitCombat(events.CombatEvent{
			Kind:    events.EntityDied,
			Subject: victim.Handle,
			Pos:     victim.Pos,
			Actor:   "player",
		})
		return
	}

	victim.State = registry.StateDying
	victim.DeathLeft = victim.Def.DeathTicks

	q.EmitCombat(events.CombatEvent{
		Kind:    events.EntityDied,
		Subject: victim.Handle,
		Pos:     victim.Pos,
		Actor:   victim.Def.ShortDesc,
		Episode: victim.Episode,
	})
	if victim.Def.DeathSound != "" {
		q.EmitCombat(events.CombatEvent{
			Kind:  events.PlaySound,
			Pos:   victim.Pos,
			Sound: victim.Def.DeathSound,
		})
	}

	if attacker != nil && attacker.Class == registry.ClassPlayer && victim.Def.Score > 0 {
		attacker.Score += victim.Def.Score
		q.EmitCombat(events.CombatEvent{
			Kind:    events.ScoreAwarded,
			Subject: attacker.Handle,
			Amount:  victim.Def.Score,
			Actor:   victim.Def.ShortDesc,
		})
	}

	e.rollDrops(victim, q)
}

// rollDrops rolls the victim's drop table once and spawns pickup actors on
// its tile.
func (e *Engine) rollDrops(victim *registry.Actor, q *events.Queue) {
	for _, d := range victim.Def.Drops {
		if e.rng.Float64() >= d.Chance {
			continue
		}

		p, _ := e.reg.Allocate(registry.ClassPickup)
		p.PlaceAt(victim.Tile)
		p.State = registry.StatePatrol
		p.PickupKind = d.Kind
		p.PickupWeapon = d.Weapon
		p.PickupAmount = d.Amount
		p.InstanceId = uuid.NewString()

		q.EmitCombat(events.CombatEvent{
			Kind:    events.ItemDropped,
			Subject: p.Handle,
			Pos:     p.Pos,
			Item:    d.Kind,
			Weapon:  d.Weapon,
			Amount:  d.Amount,
		})
	}
}

// CollectPickups grants the player any pickup on its tile. Health left on the
// floor at full health, weapons already owned convert to an ammo grant.
func (e *Engine) CollectPickups(player registry.Handle, q *events.Queue) {
	pl, ok := e.reg.Deref(player)
	if !ok || !pl.State.Alive() {
		return
	}

	for _, p := range e.reg.ActorsAt(pl.Tile) {
		if p.Class != registry.ClassPickup {
			continue
		}

		var amount int
		switch p.PickupKind {
		case game.DropAmmo:
			amount = p.PickupAmount
			pl.Ammo[p.PickupWeapon] += amount
		case game.DropWeapon:
			w := e.weapons.Get(p.PickupWeapon)
			if w == nil {
				e.reg.MarkForRemoval(p.Handle)
				continue
			}
			amount = w.AmmoPerPickup
			pl.Ammo[p.PickupWeapon] += amount
			if !pl.OwnedWeapons[p.PickupWeapon] {
				pl.OwnedWeapons[p.PickupWeapon] = true
				pl.Weapon = p.PickupWeapon
			}
		case game.DropHealth:
			if pl.Health >= pl.MaxHealth {
				continue
			}
			amount = p.PickupAmount
			pl.Health += amount
			if pl.Health > pl.MaxHealth {
				pl.Health = pl.MaxHealth
			}
		case game.DropTreasure:
			amount = p.PickupAmount
			pl.Score += amount
		default:
			continue
		}

		e.reg.MarkForRemoval(p.Handle)
		q.EmitCombat(events.CombatEvent{
			Kind:    events.ItemPickedUp,
			Subject: pl.Handle,
			Pos:     p.Pos,
			Item:    p.PickupKind,
			Weapon:  p.PickupWeapon,
			Amount:  amount,
		})
	}
}
