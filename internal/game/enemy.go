package game

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-bunker/internal/storage"
	"github.com/pixil98/go-errors"
)

// Enemy defines a type of enemy loaded from asset files. Multiple instances
// can be spawned from one definition; adding a new enemy is a data change,
// not a new code path.
type Enemy struct {
	// Aliases are keywords identifying this enemy in events and logs
	Aliases []string `json:"aliases"`

	// ShortDesc is used in event feed messages (e.g., "The guard fires at you.")
	ShortDesc string `json:"short_desc"`

	// MaxHP is the spawn health before skill scaling
	MaxHP int `json:"max_hp"`

	// Speed is chase movement in tiles per second; patrol moves at 65% of it
	Speed float64 `json:"speed"`

	// AttackRange is the maximum firing distance in tiles
	AttackRange int `json:"attack_range"`

	// Weapon the enemy attacks with; required when the capability set is
	// ranged or melee
	Weapon storage.SmartIdentifier[*Weapon] `json:"weapon"`

	// Capabilities gates optional behavior per kind
	Capabilities Capabilities `json:"capabilities"`

	// RetreatBelow is the health fraction under which a retreat-capable
	// enemy flees; ignored otherwise
	RetreatBelow float64 `json:"retreat_below,omitempty"`

	// DeathTicks is how many simulation ticks the dying animation holds
	// before the actor becomes a corpse
	DeathTicks int `json:"death_ticks"`

	// Score awarded when the player kills this enemy
	Score int `json:"score,omitempty"`

	// Drops is rolled once on death
	Drops []Drop `json:"drops,omitempty"`

	// AlertSound is played at most once per alert episode; empty for kinds
	// that attack silently
	AlertSound string `json:"alert_sound,omitempty"`

	// DeathSound accompanies the death transition
	DeathSound string `json:"death_sound,omitempty"`
}

// Capabilities is the per-kind capability set. Behavior code branches on
// these flags, never on the enemy id.
type Capabilities struct {
	Ranged     bool `json:"ranged"`
	Melee      bool `json:"melee"`
	CanRetreat bool `json:"can_retreat"`
	OpensDoors bool `json:"opens_doors"`
	// Sentry enemies hold position until alerted instead of walking a route
	Sentry bool `json:"sentry"`
}

// Drop kinds.
const (
	DropAmmo     = "ammo"
	DropWeapon   = "weapon"
	DropHealth   = "health"
	DropTreasure = "treasure"
)

// Drop is one entry of an enemy's death drop table.
type Drop struct {
	// Kind is ammo, weapon, health or treasure
	Kind string `json:"kind"`

	// Chance in [0,1] that this entry spawns
	Chance float64 `json:"chance"`

	// Amount is rounds for ammo, points for health and treasure
	Amount int `json:"amount"`

	// Weapon the ammo feeds; required for ammo drops
	Weapon string `json:"weapon,omitempty"`
}

func (d *Drop) Validate() error {
	el := errors.NewErrorList()

	switch d.Kind {
	case DropAmmo, DropWeapon:
		if d.Weapon == "" {
			el.Add(fmt.Errorf("%s drop requires a weapon", d.Kind))
		}
	case DropHealth, DropTreasure:
	default:
		el.Add(fmt.Errorf("unknown drop kind: %s", d.Kind))
	}

	if d.Chance < 0 || d.Chance > 1 {
		el.Add(fmt.Errorf("drop chance must be within [0,1]"))
	}
	if d.Kind != DropWeapon && d.Amount <= 0 {
		el.Add(fmt.Errorf("drop amount must be positive"))
	}

	return el.Err()
}

// MatchName returns true if name matches any of this enemy's aliases
// (case-insensitive).
func (e *Enemy) MatchName(name string) bool {
	nameLower := strings.ToLower(name)
	for _, alias := range e.Aliases {
		if strings.ToLower(alias) == nameLower {
			return true
		}
	}
	return false
}

// Resolve resolves foreign keys from the dictionary. A missing weapon for an
// armed enemy is a data-authoring error and fails the load.
func (e *Enemy) Resolve(dict *Dictionary) error {
	el := errors.NewErrorList()
	if e.Capabilities.Ranged || e.Capabilities.Melee {
		el.Add(e.Weapon.Resolve(dict.Weapons))
	}
	for _, d := range e.Drops {
		if (d.Kind == DropAmmo || d.Kind == DropWeapon) && dict.Weapons.Get(d.Weapon) == nil {
			el.Add(fmt.Errorf("drop weapon %q not found", d.Weapon))
		}
	}
	return el.Err()
}

// Validate satisfies storage.ValidatingSpec
func (e *Enemy) Validate() error {
	el := errors.NewErrorList()

	if len(e.Aliases) < 1 {
		el.Add(fmt.Errorf("enemy alias is required"))
	}
	if e.ShortDesc == "" {
		el.Add(fmt.Errorf("enemy short description is required"))
	}
	if e.MaxHP <= 0 {
		el.Add(fmt.Errorf("enemy max_hp must be positive"))
	}
	if e.Speed <= 0 {
		el.Add(fmt.Errorf("enemy speed must be positive"))
	}
	if (e.Capabilities.Ranged || e.Capabilities.Melee) && e.AttackRange <= 0 {
		el.Add(fmt.Errorf("armed enemy requires a positive attack_range"))
	}
	if e.Capabilities.Ranged || e.Capabilities.Melee {
		el.Add(e.Weapon.Validate())
	}
	if e.Capabilities.CanRetreat && (e.RetreatBelow <= 0 || e.RetreatBelow >= 1) {
		el.Add(fmt.Errorf("retreat_below must be within (0,1) for retreat-capable enemies"))
	}
	if e.DeathTicks <= 0 {
		el.Add(fmt.Errorf("enemy death_ticks must be positive"))
	}
	for i := range e.Drops {
		if err := e.Drops[i].Validate(); err != nil {
			el.Add(fmt.Errorf("drop %d: %w", i, err))
		}
	}

	return el.Err()
}
