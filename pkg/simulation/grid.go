package simulation

import (
	"math"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/drone"
)

type gridKey struct {
	x, y int
}

// spatialGrid buckets airborne drones by cells of the collision distance, so
// every drone closer than that distance is found in the 3x3 block around a
// drone's own cell.
type spatialGrid struct {
	cellSize float64
	cells    map[gridKey][]*drone.Drone
}

func newSpatialGrid(cellSize float64) *spatialGrid {
	// Clamp to a minimum of 10 to avoid tiny grids or div by zero
	return &spatialGrid{
		cellSize: math.Max(cellSize, 10.0),
		cells:    make(map[gridKey][]*drone.Drone),
	}
}

func (g *spatialGrid) cellOf(x, y float64) gridKey {
	return gridKey{x: int(math.Floor(x / g.cellSize)), y: int(math.Floor(y / g.cellSize))}
}

// rebuild re-buckets the airborne drones, in fleet order.
func (g *spatialGrid) rebuild(drones []*drone.Drone) {
	// 1. Reset slices to length 0 but keep capacity, so steady state
	// rebuilds do not allocate.
	for k := range g.cells {
		g.cells[k] = g.cells[k][:0]
	}

	for _, d := range drones {
		if !d.Phase().Airborne() {
			continue
		}
		p := d.Position()
		key := g.cellOf(p.X, p.Y)
		g.cells[key] = append(g.cells[key], d)
	}
}

// nearby calls fn for every bucketed drone in and around the cell of (x, y) (3x3 Grid).
func (g *spatialGrid) nearby(x, y float64, fn func(*drone.Drone)) {
	c := g.cellOf(x, y)
	for i := c.x - 1; i <= c.x+1; i++ {
		for j := c.y - 1; j <= c.y+1; j++ {
			for _, d := range g.cells[gridKey{x: i, y: j}] {
				fn(d)
			}
		}
	}
}

// accumulateCollisions resets d's collision state and adds the repulsion of
// every other airborne drone closer than threshold. Only d is written.
func (g *spatialGrid) accumulateCollisions(d *drone.Drone, threshold float64) {
	d.InitCollision()
	if !d.Phase().Airborne() {
		return
	}
	p := d.Position()
	g.nearby(p.X, p.Y, func(other *drone.Drone) {
		if other == d {
			return
		}
		d.AddCollision(other.Position(), threshold)
	})
}
