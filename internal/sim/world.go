package sim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/pixil98/go-bunker/internal/behavior"
	"github.com/pixil98/go-bunker/internal/combat"
	"github.com/pixil98/go-bunker/internal/events"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/perception"
	"github.com/pixil98/go-bunker/internal/registry"
	"github.com/pixil98/go-bunker/internal/sight"
	"github.com/pixil98/go-log"
)

const playerMaxHealth = 100

// Well-known sound class ids looked up from the sound store. Missing entries
// disable that noise rather than failing the load.
const (
	soundShout     = "shout"
	soundDoor      = "door"
	soundFootsteps = "footsteps"
)

// Publisher receives each tick's combat events after compaction.
type Publisher interface {
	PublishCombat(tick uint64, evs []events.CombatEvent) error
}

// Config assembles a World from loaded assets.
type Config struct {
	Dict    *game.Dictionary
	LevelId string
	Skill   game.Skill

	// TickSeconds is the fixed simulation step
	TickSeconds float64

	// AlertSeconds is how long an enemy stays alerted without fresh contact
	AlertSeconds float64

	// DoorOpenSeconds before an unoccupied door swings shut
	DoorOpenSeconds float64

	// DecorationsBlockSight makes decoration tiles stop sight lines; they
	// always block movement
	DecorationsBlockSight bool

	// StartWeapons the player spawns owning, in pickup order; the last one
	// is selected
	StartWeapons []string

	// StartAmmo granted for each ammo-using start weapon
	StartAmmo int

	// Seed for the simulation's random stream; a fixed seed replays a run
	Seed uint64

	// Publisher is optional; nil runs the simulation headless
	Publisher Publisher
}

// World owns one running level: the registry, the level geometry and every
// subsystem. Tick is the only mutator; input arrives asynchronously and is
// buffered until the next tick, so all simulation state is single-writer.
type World struct {
	cfg Config

	reg       *registry.Registry
	grid      *game.Grid
	level     *game.Level
	tracer    *sight.Tracer
	queue     *events.Queue
	perceptor *perception.Perceptor
	machine   *behavior.Machine
	engine    *combat.Engine

	player registry.Handle

	tick    uint64
	pending []perception.Noise

	doorTiles  []game.TileCoord
	doorTimers map[game.TileCoord]int
	doorTicks  int

	footsteps *game.SoundClass
	doorNoise *game.SoundClass

	mu    sync.Mutex
	input inputState
}

type inputState struct {
	move     *game.Dir8
	fire     bool
	openDoor bool
	weapon   string
}

func NewWorld(cfg Config) (*World, error) {
	level := cfg.Dict.Levels.Get(cfg.LevelId)
	if level == nil {
		return nil, fmt.Errorf("level %q not found", cfg.LevelId)
	}

	grid, decorations, err := level.BuildGrid()
	if err != nil {
		return nil, fmt.Errorf("building level grid: %w", err)
	}

	if cfg.TickSeconds <= 0 {
		return nil, fmt.Errorf("tick length must be positive")
	}

	w := &World{
		cfg:        cfg,
		grid:       grid,
		level:      level,
		tracer:     sight.NewTracer(grid, decorations, cfg.DecorationsBlockSight),
		queue:      events.NewQueue(),
		reg:        registry.NewRegistry(len(level.Spawns) + 16),
		doorTimers: map[game.TileCoord]int{},
		doorTicks:  int(cfg.DoorOpenSeconds / cfg.TickSeconds),
		footsteps:  cfg.Dict.Sounds.Get(soundFootsteps),
		doorNoise:  cfg.Dict.Sounds.Get(soundDoor),
	}

	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			t := game.TileCoord{X: x, Y: y}
			if tile := grid.Tile(t); tile == game.TileDoorClosed || tile == game.TileDoorOpen {
				w.doorTiles = append(w.doorTiles, t)
			}
		}
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	w.perceptor = perception.NewPerceptor(w.tracer)
	w.engine = combat.NewEngine(w.reg, w.tracer, cfg.Dict.Weapons, cfg.Skill, rng)
	w.machine = behavior.NewMachine(behavior.Config{
		Registry:    w.reg,
		Tracer:      w.tracer,
		Grid:        w.grid,
		Level:       level,
		Sink:        w.engine,
		TickSeconds: cfg.TickSeconds,
		AlertTicks:  max(1, int(cfg.AlertSeconds/cfg.TickSeconds)),
		ShoutNoise:  cfg.Dict.Sounds.Get(soundShout),
		DoorNoise:   w.doorNoise,
		Rand:        rng,
	})

	if err := w.spawnPlayer(); err != nil {
		return nil, err
	}
	w.spawnEnemies()

	return w, nil
}

func (w *World) spawnPlayer() error {
	a, h := w.reg.Allocate(registry.ClassPlayer)
	a.PlaceAt(w.level.PlayerSpawn.Tile)
	a.Facing = w.level.PlayerSpawn.Facing
	a.Health = playerMaxHealth
	a.MaxHealth = playerMaxHealth
	a.State = registry.StateAttack
	a.Ammo = map[string]int{}
	a.OwnedWeapons = map[string]bool{}

	for _, id := range w.cfg.StartWeapons {
		weapon := w.cfg.Dict.Weapons.Get(id)
		if weapon == nil {
			return fmt.Errorf("start weapon %q not found", id)
		}
		a.OwnedWeapons[id] = true
		a.Weapon = id
		if weapon.UsesAmmo {
			a.Ammo[id] = w.cfg.StartAmmo
		}
	}

	w.player = h
	return nil
}

func (w *World) spawnEnemies() {
	for _, s := range w.level.Spawns {
		def := s.Enemy.Get()

		a, _ := w.reg.Allocate(registry.ClassEnemy)
		a.PlaceAt(s.Tile)
		a.Facing = s.Facing
		a.Def = def
		a.KindId = s.Enemy.Id()
		a.MaxHealth = int(float64(def.MaxHP) * w.cfg.Skill.EnemyHPScale())
		a.Health = a.MaxHealth
		a.OnPatrol = s.Patrol

		if s.Patrol {
			a.State = registry.StatePatrol
		} else {
			a.State = registry.StateSentry
		}
	}
}

// Tick advances the simulation one fixed step: input, perception, behavior,
// combat, projectiles, pickups, doors, then a single compaction and the event
// drain. Input noises are heard the same tick; noises made after the
// perception pass (shots, shouts, enemy doors) are heard on the next one.
func (w *World) Tick(ctx context.Context) error {
	w.mu.Lock()
	in := w.input
	w.input = inputState{}
	w.mu.Unlock()

	w.tick++

	noises := w.pending
	w.pending = nil
	noises = append(noises, w.applyInput(in)...)

	w.perceptor.Observe(w.reg, w.player, noises, w.queue)
	next := w.machine.Update(w.player, w.queue)
	next = append(next, w.engine.Resolve(w.queue)...)
	w.engine.AdvanceProjectiles(w.cfg.TickSeconds, w.queue)
	w.engine.CollectPickups(w.player, w.queue)
	w.tickDoors()

	w.reg.Compact()

	evs := w.queue.DrainCombat()
	w.queue.Reset()
	if w.cfg.Publisher != nil && len(evs) > 0 {
		if err := w.cfg.Publisher.PublishCombat(w.tick, evs); err != nil {
			log.GetLogger(ctx).Errorf("publishing tick %d events: %v", w.tick, err)
		}
	}

	w.pending = next
	return nil
}

// applyInput runs the player's buffered commands and returns the noises they
// made.
func (w *World) applyInput(in inputState) []perception.Noise {
	pl, ok := w.reg.Deref(w.player)
	if !ok || !pl.State.Alive() {
		return nil
	}

	if pl.Cooldown > 0 {
		pl.Cooldown--
	}

	var noises []perception.Noise

	if in.weapon != "" && pl.OwnedWeapons[in.weapon] {
		pl.Weapon = in.weapon
	}

	if in.move != nil {
		pl.Facing = *in.move
		next := pl.Tile.Add(in.move.Step())
		if w.tracer.Passable(next) && !w.occupiedByEnemy(next) {
			pl.PlaceAt(next)
			if w.footsteps != nil {
				noises = append(noises, perception.Noise{Pos: pl.Tile, Class: w.footsteps})
			}
		}
	}

	if in.openDoor {
		target := pl.Tile.Add(pl.Facing.Step())
		switch w.grid.Tile(target) {
		case game.TileDoorClosed:
			w.grid.SetTile(target, game.TileDoorOpen)
			w.doorTimers[target] = w.doorTicks
			if w.doorNoise != nil {
				noises = append(noises, perception.Noise{Pos: target, Class: w.doorNoise})
			}
		case game.TileDoorOpen:
			if len(w.reg.ActorsAt(target)) == 0 {
				w.grid.SetTile(target, game.TileDoorClosed)
				delete(w.doorTimers, target)
			}
		}
	}

	if in.fire && pl.Cooldown == 0 {
		if weapon := w.cfg.Dict.Weapons.Get(pl.Weapon); weapon != nil {
			pl.Cooldown = weapon.CooldownTicks
			w.engine.SubmitFireIntent(w.player, registry.Zero, weapon)
		}
	}

	return noises
}

func (w *World) occupiedByEnemy(t game.TileCoord) bool {
	for _, a := range w.reg.ActorsAt(t) {
		if a.Class == registry.ClassEnemy && a.State.Alive() {
			return true
		}
	}
	return false
}

// tickDoors swings unoccupied open doors shut after the configured hold. A
// door with anyone standing in it holds open, enemies included.
func (w *World) tickDoors() {
	if w.doorTicks <= 0 {
		return
	}

	for _, t := range w.doorTiles {
		if w.grid.Tile(t) != game.TileDoorOpen {
			continue
		}

		if _, ok := w.doorTimers[t]; !ok {
			w.doorTimers[t] = w.doorTicks
		}
		if len(w.reg.ActorsAt(t)) > 0 {
			w.doorTimers[t] = w.doorTicks
			continue
		}

		w.doorTimers[t]--
		if w.doorTimers[t] <= 0 {
			w.grid.SetTile(t, game.TileDoorClosed)
			delete(w.doorTimers, t)
		}
	}
}

// QueueMove buffers one step in the given direction for the next tick. Later
// calls in the same tick replace earlier ones.
func (w *World) QueueMove(d game.Dir8) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.input.move = &d
}

// QueueFire buffers a trigger pull for the next tick.
func (w *World) QueueFire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.input.fire = true
}

// QueueOpenDoor buffers a use of the door ahead for the next tick.
func (w *World) QueueOpenDoor() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.input.openDoor = true
}

// QueueSelectWeapon buffers a weapon switch; unowned weapons are ignored.
func (w *World) QueueSelectWeapon(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.input.weapon = id
}

// Snapshot is a read-only view of the world for status consumers.
type Snapshot struct {
	Tick    uint64         `json:"tick"`
	Health  int            `json:"health"`
	Score   int            `json:"score"`
	Weapon  string         `json:"weapon"`
	Ammo    map[string]int `json:"ammo"`
	Tile    game.TileCoord `json:"tile"`
	Alive   bool           `json:"alive"`
	Enemies int            `json:"enemies"`
}

// Snapshot summarizes the player and the opposition. It reads live state and
// is safe only between ticks or from the tick goroutine; asynchronous callers
// should consume the event stream instead.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{Tick: w.tick, Ammo: map[string]int{}}

	if pl, ok := w.reg.Deref(w.player); ok {
		s.Health = pl.Health
		s.Score = pl.Score
		s.Weapon = pl.Weapon
		s.Tile = pl.Tile
		s.Alive = pl.State.Alive()
		for k, v := range pl.Ammo {
			s.Ammo[k] = v
		}
	}

	w.reg.Live(func(a *registry.Actor) {
		if a.Class == registry.ClassEnemy && a.State.Alive() {
			s.Enemies++
		}
	})

	return s
}
