package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// SoundClass is one row of the hearing attenuation table. The audible radius
// shrinks by WallFactor for every wall or closed door between source and
// listener. The curve is tunable data, not a hard law.
type SoundClass struct {
	// Radius is the base audible distance in tiles with nothing in the way
	Radius float64 `json:"radius"`

	// WallFactor in (0,1] multiplies the radius once per wall crossing
	WallFactor float64 `json:"wall_factor"`
}

// AudibleRange returns the effective radius after the given number of wall
// crossings.
func (c *SoundClass) AudibleRange(crossings int) float64 {
	r := c.Radius
	for i := 0; i < crossings; i++ {
		r *= c.WallFactor
	}
	return r
}

// Validate satisfies storage.ValidatingSpec
func (c *SoundClass) Validate() error {
	el := errors.NewErrorList()

	if c.Radius <= 0 {
		el.Add(fmt.Errorf("sound class radius must be positive"))
	}
	if c.WallFactor <= 0 || c.WallFactor > 1 {
		el.Add(fmt.Errorf("sound class wall_factor must be within (0,1]"))
	}

	return el.Err()
}
