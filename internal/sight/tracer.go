package sight

import (
	"math"

	"github.com/pixil98/go-bunker/internal/game"
)

// Tracer answers line-of-sight and line-of-sound queries against the static
// level geometry. It holds no mutable state of its own beyond the grid it was
// built with; door state changes are visible because the grid is shared.
type Tracer struct {
	grid             *game.Grid
	decorations      map[game.TileCoord]bool
	decorationsBlock bool
}

// NewTracer builds a tracer over the level grid. decorationsBlock controls
// whether decoration tiles stop sight lines; they always block movement
// either way.
func NewTracer(grid *game.Grid, decorations map[game.TileCoord]bool, decorationsBlock bool) *Tracer {
	return &Tracer{
		grid:             grid,
		decorations:      decorations,
		decorationsBlock: decorationsBlock,
	}
}

// Passable reports whether the tile admits movement, decorations included.
func (t *Tracer) Passable(c game.TileCoord) bool {
	return !t.grid.Tile(c).BlocksMove() && !t.decorations[c]
}

// Solid reports whether the tile stops a shot or a projectile. Walls and
// closed doors are solid; decorations are not.
func (t *Tracer) Solid(c game.TileCoord) bool {
	return t.grid.Tile(c).BlocksSight()
}

func (t *Tracer) blocksSight(c game.TileCoord) bool {
	if t.grid.Tile(c).BlocksSight() {
		return true
	}
	return t.decorationsBlock && t.decorations[c]
}

func (t *Tracer) blocksSound(c game.TileCoord) bool {
	// Decorations never muffle sound, only walls and closed doors do.
	return t.grid.Tile(c).BlocksSight()
}

// segmentCells returns the grid cells a segment between two tile centers
// passes through, excluding the endpoints. On an exact corner crossing both
// adjacent cells are included, which prevents sight through diagonal gaps.
func (t *Tracer) segmentCells(a, b game.TileCoord) []game.TileCoord {
	if a == b {
		return nil
	}

	origin := a.Center()
	target := b.Center()

	d := target.Sub(origin)
	maxDist := d.Len()
	dir := d.Scale(1 / maxDist)

	const epsDir = 1e-8
	const epsT = 1e-6

	// Cell boundaries sit at n+0.5, matching the collision scheme.
	px := origin.X + 0.5
	py := origin.Y + 0.5

	ix := int(math.Floor(px))
	iy := int(math.Floor(py))

	stepX, stepY := 1, 1
	if dir.X < 0 {
		stepX = -1
	}
	if dir.Y < 0 {
		stepY = -1
	}

	tDeltaX := math.Inf(1)
	if math.Abs(dir.X) >= epsDir {
		tDeltaX = 1 / math.Abs(dir.X)
	}
	tDeltaY := math.Inf(1)
	if math.Abs(dir.Y) >= epsDir {
		tDeltaY = 1 / math.Abs(dir.Y)
	}

	tMaxX := math.Inf(1)
	if math.Abs(dir.X) >= epsDir {
		if dir.X > 0 {
			tMaxX = (float64(ix) + 1 - px) / dir.X
		} else {
			tMaxX = (px - float64(ix)) / -dir.X
		}
	}
	tMaxY := math.Inf(1)
	if math.Abs(dir.Y) >= epsDir {
		if dir.Y > 0 {
			tMaxY = (float64(iy) + 1 - py) / dir.Y
		} else {
			tMaxY = (py - float64(iy)) / -dir.Y
		}
	}

	var cells []game.TileCoord
	maxSteps := (t.grid.Width + t.grid.Height) * 2

	for range maxSteps {
		var dist float64

		switch {
		case tMaxX+epsT < tMaxY:
			ix += stepX
			dist = tMaxX
			tMaxX += tDeltaX
		case tMaxY+epsT < tMaxX:
			iy += stepY
			dist = tMaxY
			tMaxY += tDeltaY
		default:
			// Corner cross: both adjacent cells count.
			nextX := ix + stepX
			nextY := iy + stepY
			dist = tMaxX
			tMaxX += tDeltaX
			tMaxY += tDeltaY

			for _, c := range []game.TileCoord{{X: nextX, Y: iy}, {X: ix, Y: nextY}} {
				if c != b {
					cells = append(cells, c)
				}
			}

			ix = nextX
			iy = nextY
		}

		if dist > maxDist {
			return cells
		}

		cur := game.TileCoord{X: ix, Y: iy}
		if cur == b {
			return cells
		}
		if !t.grid.InBounds(cur) {
			return cells
		}
		cells = append(cells, cur)
	}

	return cells
}

// LineOfSight reports whether a straight line between two tile centers is
// unobstructed. Walls and closed doors always block; decorations block only
// when the tracer was built that way.
func (t *Tracer) LineOfSight(a, b game.TileCoord) bool {
	for _, c := range t.segmentCells(a, b) {
		if t.blocksSight(c) {
			return false
		}
	}
	return true
}

// WallCrossings counts the solid cells a sound has to pass between source
// and listener.
func (t *Tracer) WallCrossings(a, b game.TileCoord) int {
	n := 0
	for _, c := range t.segmentCells(a, b) {
		if t.blocksSound(c) {
			n++
		}
	}
	return n
}

// CanHear reports whether a noise of the given class carries from source to
// listener, and with what confidence (remaining fraction of the audible
// radius). Each wall crossing shrinks the radius per the class table.
func (t *Tracer) CanHear(src game.TileCoord, class *game.SoundClass, listener game.TileCoord) (bool, float64) {
	dist := src.Center().Sub(listener.Center()).Len()
	radius := class.AudibleRange(t.WallCrossings(src, listener))
	if dist > radius {
		return false, 0
	}
	return true, 1 - dist/radius
}

// WallDistance traces a ray from a continuous origin and returns the distance
// to the first wall or closed door, clamped to max. Decorations never stop
// shots even though they block movement.
func (t *Tracer) WallDistance(origin, dir game.Vec2, max float64) float64 {
	dir = dir.Norm()
	if dir == (game.Vec2{}) {
		return 0
	}

	const epsDir = 1e-8
	const epsT = 1e-6

	px := origin.X + 0.5
	py := origin.Y + 0.5

	ix := int(math.Floor(px))
	iy := int(math.Floor(py))

	stepX, stepY := 1, 1
	if dir.X < 0 {
		stepX = -1
	}
	if dir.Y < 0 {
		stepY = -1
	}

	tDeltaX := math.Inf(1)
	if math.Abs(dir.X) >= epsDir {
		tDeltaX = 1 / math.Abs(dir.X)
	}
	tDeltaY := math.Inf(1)
	if math.Abs(dir.Y) >= epsDir {
		tDeltaY = 1 / math.Abs(dir.Y)
	}

	tMaxX := math.Inf(1)
	if math.Abs(dir.X) >= epsDir {
		if dir.X > 0 {
			tMaxX = (float64(ix) + 1 - px) / dir.X
		} else {
			tMaxX = (px - float64(ix)) / -dir.X
		}
	}
	tMaxY := math.Inf(1)
	if math.Abs(dir.Y) >= epsDir {
		if dir.Y > 0 {
			tMaxY = (float64(iy) + 1 - py) / dir.Y
		} else {
			tMaxY = (py - float64(iy)) / -dir.Y
		}
	}

	maxSteps := (t.grid.Width + t.grid.Height) * 2

	for range maxSteps {
		var dist float64

		if tMaxX+epsT < tMaxY {
			ix += stepX
			dist = tMaxX
			tMaxX += tDeltaX
		} else if tMaxY+epsT < tMaxX {
			iy += stepY
			dist = tMaxY
			tMaxY += tDeltaY
		} else {
			nextX := ix + stepX
			nextY := iy + stepY
			dist = tMaxX
			tMaxX += tDeltaX
			tMaxY += tDeltaY

			for _, c := range []game.TileCoord{{X: nextX, Y: iy}, {X: ix, Y: nextY}} {
				if t.grid.Tile(c).BlocksSight() {
					return math.Min(dist, max)
				}
			}

			ix = nextX
			iy = nextY
		}

		if dist > max {
			return max
		}

		cur := game.TileCoord{X: ix, Y: iy}
		if !t.grid.InBounds(cur) {
			return math.Min(dist, max)
		}
		if t.grid.Tile(cur).BlocksSight() {
			return dist
		}
	}

	return max
}
