package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/storage"
	"github.com/pixil98/go-errors"
)

type StorageConfig struct {
	Enemies AssetConfig[*game.Enemy]      `json:"enemies"`
	Weapons AssetConfig[*game.Weapon]     `json:"weapons"`
	Sounds  AssetConfig[*game.SoundClass] `json:"sounds"`
	Levels  AssetConfig[*game.Level]      `json:"levels"`
}

func (c *StorageConfig) BuildDictionary() (*game.Dictionary, error) {
	enemies, err := c.Enemies.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating enemy store: %w", err)
	}
	weapons, err := c.Weapons.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating weapon store: %w", err)
	}
	sounds, err := c.Sounds.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating sound store: %w", err)
	}
	levels, err := c.Levels.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating level store: %w", err)
	}

	dict := &game.Dictionary{
		Enemies: enemies,
		Weapons: weapons,
		Sounds:  sounds,
		Levels:  levels,
	}

	if err := dict.Resolve(); err != nil {
		return nil, fmt.Errorf("resolving references: %w", err)
	}

	return dict, nil
}

func (c *StorageConfig) Validate() error {
	el := errors.NewErrorList()
	el.Add(c.Enemies.Validate("enemies"))
	el.Add(c.Weapons.Validate("weapons"))
	el.Add(c.Sounds.Validate("sounds"))
	el.Add(c.Levels.Validate("levels"))
	return el.Err()
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
