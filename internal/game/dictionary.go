package game

import (
	"fmt"

	"github.com/pixil98/go-bunker/internal/storage"
	"github.com/pixil98/go-errors"
)

// Dictionary bundles all loaded asset stores and resolves the references
// between them. Any dangling reference fails here, at load time.
type Dictionary struct {
	Enemies storage.Storer[*Enemy]
	Weapons storage.Storer[*Weapon]
	Sounds  storage.Storer[*SoundClass]
	Levels  storage.Storer[*Level]
}

// Resolve wires all foreign keys. Must be called once after every store is
// loaded and before any simulation starts.
func (d *Dictionary) Resolve() error {
	el := errors.NewErrorList()

	for id, w := range d.Weapons.GetAll() {
		if err := w.Resolve(d); err != nil {
			el.Add(fmt.Errorf("weapon %s: %w", id, err))
		}
	}
	for id, e := range d.Enemies.GetAll() {
		if err := e.Resolve(d); err != nil {
			el.Add(fmt.Errorf("enemy %s: %w", id, err))
		}
	}
	for id, l := range d.Levels.GetAll() {
		if err := l.Resolve(d); err != nil {
			el.Add(fmt.Errorf("level %s: %w", id, err))
		}
	}

	return el.Err()
}
