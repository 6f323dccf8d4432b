package game

import (
	"fmt"

	"github.com/pixil98/go-bunker/internal/storage"
	"github.com/pixil98/go-errors"
)

// Level rune legend for the rows encoding.
const (
	runeWall       = '#'
	runeFloor      = '.'
	runeDoorClosed = 'D'
	runeDoorOpen   = 'd'
	runeDecoration = '*'
)

// Level defines one playable map loaded from asset files: the solidity grid,
// decoration tiles, the player spawn and the enemy spawn list.
type Level struct {
	Name string `json:"name"`

	// Rows encode the grid top to bottom; see the rune legend above. All
	// rows must share one width.
	Rows []string `json:"rows"`

	PlayerSpawn SpawnPoint `json:"player_spawn"`

	Spawns []EnemySpawn `json:"spawns"`

	// PatrolRoutes place direction arrows on tiles; a patrolling enemy
	// entering an arrow tile turns to follow it.
	PatrolRoutes []PatrolArrow `json:"patrol_routes,omitempty"`
}

// SpawnPoint is a tile plus initial facing.
type SpawnPoint struct {
	Tile   TileCoord `json:"tile"`
	Facing Dir8      `json:"facing"`
}

// EnemySpawn places one enemy instance in the level.
type EnemySpawn struct {
	Enemy  storage.SmartIdentifier[*Enemy] `json:"enemy"`
	Tile   TileCoord                       `json:"tile"`
	Facing Dir8                            `json:"facing"`

	// Patrol starts the enemy walking its route instead of standing sentry
	Patrol bool `json:"patrol,omitempty"`
}

// PatrolArrow turns patrolling enemies that step onto its tile.
type PatrolArrow struct {
	Tile TileCoord `json:"tile"`
	Dir  Dir8      `json:"dir"`
}

// BuildGrid materializes the rows into a Grid plus the set of decoration
// tiles. Decorations always block movement; whether they block sight is the
// simulation's decision.
func (l *Level) BuildGrid() (*Grid, map[TileCoord]bool, error) {
	if len(l.Rows) == 0 {
		return nil, nil, fmt.Errorf("level %q has no rows", l.Name)
	}

	width := len(l.Rows[0])
	grid := NewGrid(width, len(l.Rows))
	decorations := map[TileCoord]bool{}

	for y, row := range l.Rows {
		if len(row) != width {
			return nil, nil, fmt.Errorf("level %q row %d width %d, want %d", l.Name, y, len(row), width)
		}
		for x, r := range row {
			t := TileCoord{X: x, Y: y}
			switch r {
			case runeWall:
				grid.SetTile(t, TileWall)
			case runeFloor:
				grid.SetTile(t, TileEmpty)
			case runeDoorClosed:
				grid.SetTile(t, TileDoorClosed)
			case runeDoorOpen:
				grid.SetTile(t, TileDoorOpen)
			case runeDecoration:
				grid.SetTile(t, TileEmpty)
				decorations[t] = true
			default:
				return nil, nil, fmt.Errorf("level %q row %d: unknown tile %q", l.Name, y, string(r))
			}
		}
	}

	return grid, decorations, nil
}

// ArrowAt returns the patrol direction on a tile, if any.
func (l *Level) ArrowAt(t TileCoord) (Dir8, bool) {
	for _, a := range l.PatrolRoutes {
		if a.Tile == t {
			return a.Dir, true
		}
	}
	return 0, false
}

// Resolve resolves enemy references from the dictionary.
func (l *Level) Resolve(dict *Dictionary) error {
	el := errors.NewErrorList()
	for i := range l.Spawns {
		if err := l.Spawns[i].Enemy.Resolve(dict.Enemies); err != nil {
			el.Add(fmt.Errorf("spawn %d: %w", i, err))
		}
	}
	return el.Err()
}

// Validate satisfies storage.ValidatingSpec
func (l *Level) Validate() error {
	el := errors.NewErrorList()

	if l.Name == "" {
		el.Add(fmt.Errorf("level name is required"))
	}

	grid, _, err := l.BuildGrid()
	if err != nil {
		el.Add(err)
		return el.Err()
	}

	if grid.Tile(l.PlayerSpawn.Tile).BlocksMove() {
		el.Add(fmt.Errorf("player spawn %v is not walkable", l.PlayerSpawn.Tile))
	}

	for i, s := range l.Spawns {
		if grid.Tile(s.Tile).BlocksMove() {
			el.Add(fmt.Errorf("spawn %d tile %v is not walkable", i, s.Tile))
		}
		el.Add(s.Enemy.Validate())
	}

	return el.Err()
}
