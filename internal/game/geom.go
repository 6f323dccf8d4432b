package game

import "math"

// TileCoord addresses one cell of the level grid.
type TileCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (t TileCoord) Add(o TileCoord) TileCoord {
	return TileCoord{X: t.X + o.X, Y: t.Y + o.Y}
}

func (t TileCoord) Sub(o TileCoord) TileCoord {
	return TileCoord{X: t.X - o.X, Y: t.Y - o.Y}
}

func (t TileCoord) Neg() TileCoord {
	return TileCoord{X: -t.X, Y: -t.Y}
}

// ChebyshevDist is the tile distance used for range checks and shot-distance
// buckets: the larger of the axis deltas.
func (t TileCoord) ChebyshevDist(o TileCoord) int {
	dx := t.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dy := t.Y - o.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Center returns the continuous position at the middle of the tile.
func (t TileCoord) Center() Vec2 {
	return Vec2{X: float64(t.X), Y: float64(t.Y)}
}

// Vec2 is a continuous 2D position or direction in tile units. Tile centers
// sit on integer coordinates; tile boundaries are at n+0.5.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{X: v.X * s, Y: v.Y * s} }

func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vec2) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Norm returns the unit vector, or the zero vector for near-zero input.
func (v Vec2) Norm() Vec2 {
	l := v.Len()
	if l < 1e-9 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Tile returns the tile containing this position.
func (v Vec2) Tile() TileCoord {
	return TileCoord{
		X: int(math.Floor(v.X + 0.5)),
		Y: int(math.Floor(v.Y + 0.5)),
	}
}

// Dir8 is one of eight compass facings. 0 is +Y, 2 is +X, 4 is -Y, 6 is -X,
// odd values are the diagonals in between.
type Dir8 uint8

var dir8Steps = [8]TileCoord{
	{X: 0, Y: 1},
	{X: 1, Y: 1},
	{X: 1, Y: 0},
	{X: 1, Y: -1},
	{X: 0, Y: -1},
	{X: -1, Y: -1},
	{X: -1, Y: 0},
	{X: -1, Y: 1},
}

// Step returns the tile delta for one move in this direction.
func (d Dir8) Step() TileCoord {
	return dir8Steps[d&7]
}

// Reverse returns the opposite facing.
func (d Dir8) Reverse() Dir8 {
	return (d + 4) & 7
}

// Vec returns the unit direction vector for this facing.
func (d Dir8) Vec() Vec2 {
	s := d.Step()
	return Vec2{X: float64(s.X), Y: float64(s.Y)}.Norm()
}

// DirTowards returns the facing that best points from one tile at another.
func DirTowards(from, to TileCoord) Dir8 {
	d := to.Sub(from)
	if d.X == 0 && d.Y == 0 {
		return 0
	}

	ang := math.Atan2(float64(d.X), float64(d.Y))
	oct := int(math.Floor((ang + math.Pi/8) / (math.Pi / 4)))
	oct = ((oct % 8) + 8) % 8

	return Dir8(oct)
}

// DirFromStep maps a cardinal tile step to a facing.
func DirFromStep(step TileCoord) Dir8 {
	switch step {
	case TileCoord{X: 0, Y: 1}:
		return 0
	case TileCoord{X: 1, Y: 0}:
		return 2
	case TileCoord{X: 0, Y: -1}:
		return 4
	case TileCoord{X: -1, Y: 0}:
		return 6
	}
	return 0
}
