package registry

import "github.com/pixil98/go-bunker/internal/game"

// Class partitions actors by role.
type Class uint8

const (
	ClassPlayer Class = iota
	ClassEnemy
	ClassProjectile
	ClassPickup
)

// State is the behavior state of an enemy actor. The player holds StateAttack
// for its whole life; projectiles and pickups never leave StatePatrol.
type State uint8

const (
	StatePatrol State = iota
	StateSentry
	StateAlert
	StateAttack
	StateFlee
	StateDying
	StateDead
)

func (s State) String() string {
	switch s {
	case StatePatrol:
		return "patrol"
	case StateSentry:
		return "sentry"
	case StateAlert:
		return "alert"
	case StateAttack:
		return "attack"
	case StateFlee:
		return "flee"
	case StateDying:
		return "dying"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// Alive reports whether the actor can still act and be targeted.
func (s State) Alive() bool {
	return s != StateDying && s != StateDead
}

// Actor is one live entity owned by the Registry. Fields beyond the common
// block are meaningful only for the class noted on them; the registry keeps
// them in one struct so slots can be recycled wholesale.
type Actor struct {
	Handle Handle
	Class  Class

	Pos       game.Vec2
	Tile      game.TileCoord
	Facing    game.Dir8
	Health    int
	MaxHealth int
	State     State

	// Enemy fields
	Def        *game.Enemy
	KindId     string
	AlertTimer int
	LastKnown  game.TileCoord
	Episode    string // uuid of the current alert episode, empty when calm
	Shouted    bool   // alert sound emitted for this episode
	Cooldown   int    // ticks until the weapon may fire again
	DeathLeft  int    // dying animation ticks remaining
	LastStep   game.TileCoord
	MoveTarget game.TileCoord
	Moving     bool
	OnPatrol   bool // spawned walking a route rather than standing

	// Player fields
	Ammo         map[string]int
	OwnedWeapons map[string]bool
	Weapon       string // active weapon id
	Score        int

	// Projectile fields
	Vel       game.Vec2
	Owner     Handle // weak back-reference, re-validated before kill credit
	ProjDef   *game.Weapon
	ProjDist  float64
	ProjRange float64

	// Pickup fields
	PickupKind   string
	PickupWeapon string
	PickupAmount int
	InstanceId   string
}

// SetPos moves the actor and keeps the cached tile in sync.
func (a *Actor) SetPos(p game.Vec2) {
	a.Pos = p
	a.Tile = p.Tile()
}

// PlaceAt centers the actor on a tile.
func (a *Actor) PlaceAt(t game.TileCoord) {
	a.Tile = t
	a.Pos = t.Center()
}
