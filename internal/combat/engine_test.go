package combat

import (
	"math/rand/v2"
	"testing"

	"github.com/pixil98/go-bunker/internal/events"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/registry"
	"github.com/pixil98/go-bunker/internal/sight"
	"github.com/pixil98/go-bunker/internal/storage"
	"github.com/pixil98/go-testutil"
)

type weaponStore map[string]*game.Weapon

func (s weaponStore) Get(id string) *game.Weapon { return s[id] }
func (s weaponStore) GetAll() map[string]*game.Weapon { return s }

var openRoom = []string{
	"##########",
	"#........#",
	"#........#",
	"#........#",
	"##########",
}

type fixture struct {
	engine  *Engine
	reg     *registry.Registry
	queue   *events.Queue
	weapons weaponStore
}

func newFixture(t *testing.T, rows []string, skill game.Skill, seed uint64) *fixture {
	t.Helper()

	level := &game.Level{Name: "test", Rows: rows}
	grid, decorations, err := level.BuildGrid()
	if err != nil {
		t.Fatalf("building grid: %v", err)
	}

	reg := registry.NewRegistry(8)
	weapons := weaponStore{}
	engine := NewEngine(reg, sight.NewTracer(grid, decorations, true), weapons, skill, rand.New(rand.NewPCG(seed, seed+1)))

	return &fixture{engine: engine, reg: reg, queue: events.NewQueue(), weapons: weapons}
}

// flatWeapon always rolls exactly one point of damage, which keeps the tests
// independent of the random stream.
func flatWeapon(kind string) *game.Weapon {
	return &game.Weapon{
		Name:          "Test",
		Kind:          kind,
		DamageClose:   1,
		DamageMid:     1,
		DamageFar:     1,
		MaxRange:      10,
		CooldownTicks: 4,
		Volume:        storage.NewResolvedSmartIdentifier("gunshot", &game.SoundClass{Radius: 15, WallFactor: 0.6}),
	}
}

func testEnemyDef() *game.Enemy {
	return &game.Enemy{
		Aliases:      []string{"guard"},
		ShortDesc:    "guard",
		MaxHP:        25,
		Speed:        3,
		AttackRange:  8,
		Weapon:       storage.NewResolvedSmartIdentifier("pistol", flatWeapon(game.WeaponHitscan)),
		Capabilities: game.Capabilities{Ranged: true},
		DeathTicks:   3,
		Score:        100,
	}
}

func (f *fixture) spawnPlayer(tile game.TileCoord) (*registry.Actor, registry.Handle) {
	a, h := f.reg.Allocate(registry.ClassPlayer)
	a.PlaceAt(tile)
	a.State = registry.StateAttack
	a.Health = 100
	a.MaxHealth = 100
	a.Ammo = map[string]int{}
	a.OwnedWeapons = map[string]bool{}
	return a, h
}

func (f *fixture) spawnEnemy(tile game.TileCoord, def *game.Enemy) (*registry.Actor, registry.Handle) {
	a, h := f.reg.Allocate(registry.ClassEnemy)
	a.PlaceAt(tile)
	a.State = registry.StateSentry
	a.Def = def
	a.Health = def.MaxHP
	a.MaxHealth = def.MaxHP
	return a, h
}

func countKind(evs []events.CombatEvent, kind events.CombatKind) int {
	n := 0
	for _, ev := range evs {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestResolve_IntentsResolveInSubmissionOrder(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)

	pl, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 2})
	_, e1 := f.spawnEnemy(game.TileCoord{X: 3, Y: 2}, testEnemyDef())
	_, e2 := f.spawnEnemy(game.TileCoord{X: 3, Y: 3}, testEnemyDef())

	w := flatWeapon(game.WeaponHitscan)
	f.engine.SubmitFireIntent(e1, player, w)
	f.engine.SubmitFireIntent(e2, player, w)

	noises := f.engine.Resolve(f.queue)

	evs := f.queue.DrainCombat()
	hits := []events.CombatEvent{}
	for _, ev := range evs {
		if ev.Kind == events.Hit {
			hits = append(hits, ev)
		}
	}
	testutil.AssertEqual(t, "hit count", len(hits), 2)
	testutil.AssertEqual(t, "first attacker", hits[0].Attacker, e1)
	testutil.AssertEqual(t, "second attacker", hits[1].Attacker, e2)
	testutil.AssertEqual(t, "player health", pl.Health, 98)
	testutil.AssertEqual(t, "gunfire noises", len(noises), 2)
}

func TestResolve_StaleAttackerIsSilentNoOp(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)

	pl, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 2})
	_, enemy := f.spawnEnemy(game.TileCoord{X: 3, Y: 2}, testEnemyDef())

	f.engine.SubmitFireIntent(enemy, player, flatWeapon(game.WeaponHitscan))
	f.reg.MarkForRemoval(enemy)
	f.reg.Compact()

	noises := f.engine.Resolve(f.queue)

	testutil.AssertEqual(t, "events", len(f.queue.DrainCombat()), 0)
	testutil.AssertEqual(t, "noises", len(noises), 0)
	testutil.AssertEqual(t, "player untouched", pl.Health, 100)
}

func TestResolve_PlayerWithoutAmmoIsSilentNoOp(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)

	pl, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 2})
	pl.Facing = 2
	enemy, _ := f.spawnEnemy(game.TileCoord{X: 3, Y: 2}, testEnemyDef())

	w := flatWeapon(game.WeaponHitscan)
	w.UsesAmmo = true
	pl.Weapon = "pistol"
	pl.Ammo["pistol"] = 0

	f.engine.SubmitFireIntent(player, registry.Zero, w)
	f.engine.Resolve(f.queue)

	testutil.AssertEqual(t, "events", len(f.queue.DrainCombat()), 0)
	testutil.AssertEqual(t, "enemy untouched", enemy.Health, 25)
	testutil.AssertEqual(t, "ammo", pl.Ammo["pistol"], 0)
}

func TestResolve_PlayerRayAcquiresNearestTarget(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)

	pl, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 2})
	pl.Facing = 2 // east
	near, _ := f.spawnEnemy(game.TileCoord{X: 4, Y: 2}, testEnemyDef())
	far, _ := f.spawnEnemy(game.TileCoord{X: 7, Y: 2}, testEnemyDef())

	f.engine.SubmitFireIntent(player, registry.Zero, flatWeapon(game.WeaponHitscan))
	f.engine.Resolve(f.queue)

	testutil.AssertEqual(t, "near enemy hit", near.Health, 24)
	testutil.AssertEqual(t, "far enemy shielded", far.Health, 25)
}

func TestResolve_WallEatsShot(t *testing.T) {
	f := newFixture(t, []string{
		"#######",
		"#..#..#",
		"#######",
	}, game.SkillNormal, 1)

	pl, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 1})
	pl.Facing = 2
	enemy, target := f.spawnEnemy(game.TileCoord{X: 5, Y: 1}, testEnemyDef())

	// Both the facing ray and an explicit target are stopped by the wall.
	f.engine.SubmitFireIntent(player, registry.Zero, flatWeapon(game.WeaponHitscan))
	f.engine.SubmitFireIntent(player, target, flatWeapon(game.WeaponHitscan))
	f.engine.Resolve(f.queue)

	testutil.AssertEqual(t, "hits", countKind(f.queue.DrainCombat(), events.Hit), 0)
	testutil.AssertEqual(t, "enemy untouched", enemy.Health, 25)
}

func TestResolve_LethalHitProcessesDeathOnce(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)

	pl, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 2})
	pl.Facing = 2
	enemy, target := f.spawnEnemy(game.TileCoord{X: 3, Y: 2}, testEnemyDef())
	enemy.Health = 1

	// Two lethal shots land in the same tick; death is processed once.
	f.engine.SubmitFireIntent(player, target, flatWeapon(game.WeaponHitscan))
	f.engine.SubmitFireIntent(player, target, flatWeapon(game.WeaponHitscan))
	f.engine.Resolve(f.queue)

	evs := f.queue.DrainCombat()
	testutil.AssertEqual(t, "hits", countKind(evs, events.Hit), 1)
	testutil.AssertEqual(t, "deaths", countKind(evs, events.EntityDied), 1)
	testutil.AssertEqual(t, "score awards", countKind(evs, events.ScoreAwarded), 1)
	testutil.AssertEqual(t, "health floor", enemy.Health, 0)
	testutil.AssertEqual(t, "state", enemy.State, registry.StateDying)
	testutil.AssertEqual(t, "death ticks", enemy.DeathLeft, 3)
	testutil.AssertEqual(t, "score", pl.Score, 100)
}

func TestResolve_SkillScalesPlayerDamage(t *testing.T) {
	seed := uint64(42)

	lossAt := func(skill game.Skill) int {
		f := newFixture(t, openRoom, skill, seed)
		pl, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 2})
		_, enemy := f.spawnEnemy(game.TileCoord{X: 3, Y: 2}, testEnemyDef())

		w := flatWeapon(game.WeaponHitscan)
		w.DamageClose = 20
		w.DamageMid = 20
		w.DamageFar = 20

		f.engine.SubmitFireIntent(enemy, player, w)
		f.engine.Resolve(f.queue)
		return 100 - pl.Health
	}

	normal := lossAt(game.SkillNormal)
	baby := lossAt(game.SkillBaby)

	if normal < 1 || normal > 20 {
		t.Fatalf("unexpected normal loss %d", normal)
	}
	testutil.AssertEqual(t, "baby takes half", baby, (normal+1)/2)
}

func TestProjectile_FliesAndDetonates(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)

	_, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 2})
	enemy, target := f.spawnEnemy(game.TileCoord{X: 6, Y: 2}, testEnemyDef())

	w := flatWeapon(game.WeaponProjectile)
	w.ProjectileSpeed = 3

	f.engine.SubmitFireIntent(player, target, w)
	f.engine.Resolve(f.queue)

	var proj *registry.Actor
	f.reg.Live(func(a *registry.Actor) {
		if a.Class == registry.ClassProjectile {
			proj = a
		}
	})
	if proj == nil {
		t.Fatal("expected a projectile actor")
	}
	testutil.AssertEqual(t, "owner", proj.Owner, player)

	// Two ticks at 3 tiles/s cover the 4.5 tile gap to the target.
	f.engine.AdvanceProjectiles(1.0, f.queue)
	f.engine.AdvanceProjectiles(1.0, f.queue)

	evs := f.queue.DrainCombat()
	testutil.AssertEqual(t, "hits", countKind(evs, events.Hit), 1)
	testutil.AssertEqual(t, "enemy damaged", enemy.Health, 24)

	f.reg.Compact()
	alive := 0
	f.reg.Live(func(a *registry.Actor) {
		if a.Class == registry.ClassProjectile {
			alive++
		}
	})
	testutil.AssertEqual(t, "projectile removed", alive, 0)
}

func TestProjectile_PassesOverDecorations(t *testing.T) {
	f := newFixture(t, []string{
		"########",
		"#..*...#",
		"########",
	}, game.SkillNormal, 1)

	pl, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 1})
	pl.Facing = 2
	enemy, target := f.spawnEnemy(game.TileCoord{X: 5, Y: 1}, testEnemyDef())

	w := flatWeapon(game.WeaponProjectile)
	w.ProjectileSpeed = 4

	f.engine.SubmitFireIntent(player, target, w)
	f.engine.Resolve(f.queue)

	// The rocket crosses the decoration tile and detonates on the target,
	// not on the furniture in between.
	f.engine.AdvanceProjectiles(1.0, f.queue)

	evs := f.queue.DrainCombat()
	testutil.AssertEqual(t, "hits", countKind(evs, events.Hit), 1)
	testutil.AssertEqual(t, "enemy damaged", enemy.Health, 24)
}

func TestProjectile_StaleOwnerLosesCreditNotDamage(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)

	_, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 2})
	enemy, target := f.spawnEnemy(game.TileCoord{X: 6, Y: 2}, testEnemyDef())
	enemy.Health = 1

	w := flatWeapon(game.WeaponProjectile)
	w.ProjectileSpeed = 3

	f.engine.SubmitFireIntent(player, target, w)
	f.engine.Resolve(f.queue)

	// The shooter dies while the rocket is in flight.
	f.reg.MarkForRemoval(player)
	f.reg.Compact()

	f.engine.AdvanceProjectiles(1.0, f.queue)
	f.engine.AdvanceProjectiles(1.0, f.queue)

	evs := f.queue.DrainCombat()
	testutil.AssertEqual(t, "deaths", countKind(evs, events.EntityDied), 1)
	testutil.AssertEqual(t, "no kill credit", countKind(evs, events.ScoreAwarded), 0)
	testutil.AssertEqual(t, "enemy dying", enemy.State, registry.StateDying)
}

func TestDrops_SpawnAndCollect(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)
	f.weapons["pistol"] = flatWeapon(game.WeaponHitscan)

	pl, player := f.spawnPlayer(game.TileCoord{X: 1, Y: 2})
	def := testEnemyDef()
	def.Drops = []game.Drop{{Kind: game.DropAmmo, Chance: 1.0, Amount: 4, Weapon: "pistol"}}
	enemy, target := f.spawnEnemy(game.TileCoord{X: 3, Y: 2}, def)
	enemy.Health = 1

	f.engine.SubmitFireIntent(player, target, flatWeapon(game.WeaponHitscan))
	f.engine.Resolve(f.queue)

	evs := f.queue.DrainCombat()
	testutil.AssertEqual(t, "drop events", countKind(evs, events.ItemDropped), 1)

	// Walk onto the corpse tile and scoop the clip.
	pl.PlaceAt(enemy.Tile)
	f.engine.CollectPickups(player, f.queue)

	evs = f.queue.DrainCombat()
	testutil.AssertEqual(t, "pickup events", countKind(evs, events.ItemPickedUp), 1)
	testutil.AssertEqual(t, "ammo", pl.Ammo["pistol"], 4)

	// The pickup actor is gone after compaction.
	f.reg.Compact()
	pickups := 0
	f.reg.Live(func(a *registry.Actor) {
		if a.Class == registry.ClassPickup {
			pickups++
		}
	})
	testutil.AssertEqual(t, "pickups left", pickups, 0)
}

func TestPickup_OwnedWeaponConvertsToAmmo(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)

	mg := flatWeapon(game.WeaponHitscan)
	mg.UsesAmmo = true
	mg.AmmoPerPickup = 8
	f.weapons["machinegun"] = mg

	pl, player := f.spawnPlayer(game.TileCoord{X: 2, Y: 2})
	pl.OwnedWeapons["machinegun"] = true
	pl.Weapon = "knife"
	pl.Ammo["machinegun"] = 3

	p, _ := f.reg.Allocate(registry.ClassPickup)
	p.PlaceAt(pl.Tile)
	p.PickupKind = game.DropWeapon
	p.PickupWeapon = "machinegun"

	f.engine.CollectPickups(player, f.queue)

	testutil.AssertEqual(t, "ammo granted", pl.Ammo["machinegun"], 11)
	testutil.AssertEqual(t, "selection unchanged", pl.Weapon, "knife")
	testutil.AssertEqual(t, "still owned", pl.OwnedWeapons["machinegun"], true)
}

func TestPickup_NewWeaponIsOwnedAndSelected(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)

	mg := flatWeapon(game.WeaponHitscan)
	mg.UsesAmmo = true
	mg.AmmoPerPickup = 8
	f.weapons["machinegun"] = mg

	pl, player := f.spawnPlayer(game.TileCoord{X: 2, Y: 2})
	pl.Weapon = "knife"

	p, _ := f.reg.Allocate(registry.ClassPickup)
	p.PlaceAt(pl.Tile)
	p.PickupKind = game.DropWeapon
	p.PickupWeapon = "machinegun"

	f.engine.CollectPickups(player, f.queue)

	testutil.AssertEqual(t, "owned", pl.OwnedWeapons["machinegun"], true)
	testutil.AssertEqual(t, "selected", pl.Weapon, "machinegun")
	testutil.AssertEqual(t, "ammo granted", pl.Ammo["machinegun"], 8)
}

func TestPickup_HealthAtFullStaysOnFloor(t *testing.T) {
	f := newFixture(t, openRoom, game.SkillNormal, 1)

	pl, player := f.spawnPlayer(game.TileCoord{X: 2, Y: 2})

	p, h := f.reg.Allocate(registry.ClassPickup)
	p.PlaceAt(pl.Tile)
	p.PickupKind = game.DropHealth
	p.PickupAmount = 10

	f.engine.CollectPickups(player, f.queue)
	testutil.AssertEqual(t, "events", len(f.queue.DrainCombat()), 0)
	if !f.reg.Valid(h) {
		t.Fatal("untouched pickup must stay live")
	}

	// Hurt the player and the kit is consumed, clamped to max.
	pl.Health = 95
	f.engine.CollectPickups(player, f.queue)
	testutil.AssertEqual(t, "healed to cap", pl.Health, 100)
	f.reg.Compact()
	if f.reg.Valid(h) {
		t.Error("consumed pickup must be freed")
	}
}
