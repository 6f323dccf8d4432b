package game

// Tile is the static solidity class of one grid cell.
type Tile uint8

const (
	TileEmpty Tile = iota
	TileWall
	TileDoorClosed
	TileDoorOpen
)

// Grid is the level's wall/door solidity grid. Out-of-bounds queries read as
// wall so traversals terminate at the map edge.
type Grid struct {
	Width  int
	Height int

	tiles []Tile
}

func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		tiles:  make([]Tile, width*height),
	}
}

func (g *Grid) InBounds(t TileCoord) bool {
	return t.X >= 0 && t.Y >= 0 && t.X < g.Width && t.Y < g.Height
}

func (g *Grid) Tile(t TileCoord) Tile {
	if !g.InBounds(t) {
		return TileWall
	}
	return g.tiles[t.Y*g.Width+t.X]
}

func (g *Grid) SetTile(t TileCoord, tile Tile) {
	if !g.InBounds(t) {
		return
	}
	g.tiles[t.Y*g.Width+t.X] = tile
}

// BlocksSight reports whether the tile stops a sight line.
func (t Tile) BlocksSight() bool {
	return t == TileWall || t == TileDoorClosed
}

// BlocksMove reports whether the tile stops movement.
func (t Tile) BlocksMove() bool {
	return t == TileWall || t == TileDoorClosed
}
