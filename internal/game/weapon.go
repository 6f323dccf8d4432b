package game

import (
	"fmt"

	"github.com/pixil98/go-bunker/internal/storage"
	"github.com/pixil98/go-errors"
)

const (
	WeaponHitscan    = "hitscan"
	WeaponProjectile = "projectile"
	WeaponMelee      = "melee"
)

// Weapon defines a weapon loaded from asset files, used by both the player
// and enemies. Damage is rolled uniformly up to a distance-bucketed maximum.
type Weapon struct {
	Name string `json:"name"`

	// Slot orders player weapons for selection; 0 is the fallback melee slot
	Slot int `json:"slot"`

	// Kind is hitscan, projectile or melee
	Kind string `json:"kind"`

	// Damage maxima per distance bucket: close <=1 tile, mid <=3, far beyond
	DamageClose int `json:"damage_close"`
	DamageMid   int `json:"damage_mid"`
	DamageFar   int `json:"damage_far"`

	// MaxRange in tiles; shots beyond it always miss
	MaxRange int `json:"max_range"`

	// CooldownTicks between shots, counted in simulation ticks so damage
	// output is independent of frame rate
	CooldownTicks int `json:"cooldown_ticks"`

	// Volume classifies how far the firing noise carries
	Volume storage.SmartIdentifier[*SoundClass] `json:"volume"`

	// UsesAmmo is false for melee weapons
	UsesAmmo bool `json:"uses_ammo"`

	// AmmoPerPickup is the rounds granted by an ammo pickup for this weapon
	AmmoPerPickup int `json:"ammo_per_pickup,omitempty"`

	// ProjectileSpeed in tiles per second; projectile weapons only
	ProjectileSpeed float64 `json:"projectile_speed,omitempty"`

	// FireSound is the clip requested when the weapon fires
	FireSound string `json:"fire_sound,omitempty"`
}

// DamageMax returns the maximum damage roll for a shot distance in tiles.
func (w *Weapon) DamageMax(distTiles int) int {
	switch {
	case distTiles <= 1:
		return w.DamageClose
	case distTiles <= 3:
		return w.DamageMid
	default:
		return w.DamageFar
	}
}

// Resolve resolves the volume class from the dictionary.
func (w *Weapon) Resolve(dict *Dictionary) error {
	return w.Volume.Resolve(dict.Sounds)
}

// Validate satisfies storage.ValidatingSpec
func (w *Weapon) Validate() error {
	el := errors.NewErrorList()

	if w.Name == "" {
		el.Add(fmt.Errorf("weapon name is required"))
	}

	switch w.Kind {
	case WeaponHitscan, WeaponMelee:
	case WeaponProjectile:
		if w.ProjectileSpeed <= 0 {
			el.Add(fmt.Errorf("projectile weapon requires a positive projectile_speed"))
		}
	default:
		el.Add(fmt.Errorf("unknown weapon kind: %s", w.Kind))
	}

	if w.DamageClose <= 0 {
		el.Add(fmt.Errorf("weapon damage_close must be positive"))
	}
	if w.MaxRange <= 0 {
		el.Add(fmt.Errorf("weapon max_range must be positive"))
	}
	if w.CooldownTicks <= 0 {
		el.Add(fmt.Errorf("weapon cooldown_ticks must be positive"))
	}
	if w.UsesAmmo && w.AmmoPerPickup <= 0 {
		el.Add(fmt.Errorf("ammo-using weapon requires a positive ammo_per_pickup"))
	}

	el.Add(w.Volume.Validate())

	return el.Err()
}
