package star

import (
	"math"
	"slices"
)

// Index answers proximity queries over a fixed set of stars. Results hold
// every star at distance (0, rangeLimit] from pos, ordered by the star's
// position in the field, so implementations are interchangeable without
// changing simulation outcomes.
type Index interface {
	Within(pos Vec3, rangeLimit float64) []*Star
}

// LinearIndex scans every star.
type LinearIndex struct {
	stars []*Star
}

func NewLinearIndex(stars []*Star) *LinearIndex {
	return &LinearIndex{stars: stars}
}

func (l *LinearIndex) Within(pos Vec3, rangeLimit float64) []*Star {
	if !(rangeLimit > 0) {
		return nil
	}
	var nearby []*Star
	for _, s := range l.stars {
		if inRange(s.Position.DistanceTo(pos), rangeLimit) {
			nearby = append(nearby, s)
		}
	}
	return nearby
}

type cellKey struct {
	x, y, z int
}

// GridIndex buckets stars into uniform cubic cells.
type GridIndex struct {
	cellSize float64
	cells    map[cellKey][]*Star
}

func NewGridIndex(stars []*Star, cellSize float64) *GridIndex {
	g := &GridIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey][]*Star),
	}
	for _, s := range stars {
		key := g.keyFor(s.Position)
		g.cells[key] = append(g.cells[key], s)
	}
	return g
}

func (g *GridIndex) keyFor(p Vec3) cellKey {
	return cellKey{
		x: int(math.Floor(p.X / g.cellSize)),
		y: int(math.Floor(p.Y / g.cellSize)),
		z: int(math.Floor(p.Z / g.cellSize)),
	}
}

func (g *GridIndex) Within(pos Vec3, rangeLimit float64) []*Star {
	if !(rangeLimit > 0) {
		return nil
	}

	// Upper bound on the cells per axis of the query box, computed in
	// floating point so huge ranges never reach the int conversion.
	side := 2*rangeLimit/g.cellSize + 2
	span := side * side * side

	var nearby []*Star
	collect := func(bucket []*Star) {
		for _, s := range bucket {
			if inRange(s.Position.DistanceTo(pos), rangeLimit) {
				nearby = append(nearby, s)
			}
		}
	}

	if span > float64(len(g.cells)) {
		// Query box may cover more cells than are occupied.
		for _, bucket := range g.cells {
			collect(bucket)
		}
	} else {
		lo := g.keyFor(Vec3{X: pos.X - rangeLimit, Y: pos.Y - rangeLimit, Z: pos.Z - rangeLimit})
		hi := g.keyFor(Vec3{X: pos.X + rangeLimit, Y: pos.Y + rangeLimit, Z: pos.Z + rangeLimit})
		for x := lo.x; x <= hi.x; x++ {
			for y := lo.y; y <= hi.y; y++ {
				for z := lo.z; z <= hi.z; z++ {
					collect(g.cells[cellKey{x, y, z}])
				}
			}
		}
	}

	slices.SortFunc(nearby, func(a, b *Star) int { return a.seq - b.seq })
	return nearby
}

func inRange(distance, rangeLimit float64) bool {
	return distance > 0 && distance <= rangeLimit
}
