package command

import (
	"fmt"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/sim"
	"github.com/pixil98/go-errors"
)

type SimConfig struct {
	Level string `json:"level"`
	Skill string `json:"skill"`

	// AlertSeconds an enemy stays hunting without fresh contact
	AlertSeconds float64 `json:"alert_seconds"`

	// DoorOpenSeconds before an unoccupied door swings shut; 0 holds doors
	// open forever
	DoorOpenSeconds float64 `json:"door_open_seconds"`

	// DecorationsBlockSight defaults to true; set false to let sight lines
	// pass through decoration tiles
	DecorationsBlockSight *bool `json:"decorations_block_sight,omitempty"`

	StartWeapons []string `json:"start_weapons"`
	StartAmmo    int      `json:"start_ammo"`

	// Seed fixes the random stream; 0 is a valid seed
	Seed uint64 `json:"seed"`
}

func (c *SimConfig) Validate() error {
	el := errors.NewErrorList()

	if c.Level == "" {
		el.Add(fmt.Errorf("level is required"))
	}
	if _, err := game.ParseSkill(c.Skill); err != nil {
		el.Add(err)
	}
	if c.AlertSeconds < 0 {
		el.Add(fmt.Errorf("alert_seconds must not be negative"))
	}
	if c.DoorOpenSeconds < 0 {
		el.Add(fmt.Errorf("door_open_seconds must not be negative"))
	}
	if len(c.StartWeapons) == 0 {
		el.Add(fmt.Errorf("at least one start weapon is required"))
	}
	if c.StartAmmo < 0 {
		el.Add(fmt.Errorf("start_ammo must not be negative"))
	}

	return el.Err()
}

const defaultAlertSeconds = 6.0

func (c *SimConfig) BuildWorld(dict *game.Dictionary, tickSeconds float64, pub sim.Publisher) (*sim.World, error) {
	skill, err := game.ParseSkill(c.Skill)
	if err != nil {
		return nil, err
	}

	alert := c.AlertSeconds
	if alert == 0 {
		alert = defaultAlertSeconds
	}

	decorationsBlock := true
	if c.DecorationsBlockSight != nil {
		decorationsBlock = *c.DecorationsBlockSight
	}

	return sim.NewWorld(sim.Config{
		Dict:                  dict,
		LevelId:               c.Level,
		Skill:                 skill,
		TickSeconds:           tickSeconds,
		AlertSeconds:          alert,
		DoorOpenSeconds:       c.DoorOpenSeconds,
		DecorationsBlockSight: decorationsBlock,
		StartWeapons:          c.StartWeapons,
		StartAmmo:             c.StartAmmo,
		Seed:                  c.Seed,
		Publisher:             pub,
	})
}
