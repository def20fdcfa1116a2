package region

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/geometry"
)

// cellPadding keeps servers sitting on the world edge strictly inside the clip box.
const cellPadding = 1.0

// BuildCells fills the Region of every server with its Voronoi cell,
// computed by intersecting the half-planes "closer to me than to j" over the
// clip bound. The bound is extended so that every server lies inside it.
// Servers sharing a position get the same cell.
func (s *Set) BuildCells(bound orb.Bound) {
	for _, srv := range s.Servers() {
		bound = bound.Extend(srv.Position.Orb())
	}
	bound = bound.Pad(cellPadding)

	for i := range s.servers {
		me := s.servers[i].Position
		ring := bound.ToRing()
		for j := range s.servers {
			if i == j {
				continue
			}
			ring = geometry.ClipHalfPlane(ring, me, s.servers[j].Position)
			if ring == nil {
				break
			}
		}
		if ring == nil {
			s.servers[i].Region = nil
			continue
		}
		s.servers[i].Region = orb.Polygon{ring}
	}
}

// Classify returns the server whose region holds p: the first server (load
// order) whose cell contains p, else the nearest server.
func (s *Set) Classify(p geometry.Point2D) (*Server, error) {
	if s.Len() == 0 {
		return nil, ErrNoServers
	}
	op := p.Orb()
	for i := range s.servers {
		poly := s.servers[i].Region
		if len(poly) == 0 {
			continue
		}
		if poly.Bound().Contains(op) && planar.PolygonContains(poly, op) {
			return &s.servers[i], nil
		}
	}
	srv, _, err := s.Nearest(p)
	return srv, err
}

// Grid is a sampled partition map: Cells[row*Cols+col] is the index (load
// order) of the nearest server to the sample point of that cell.
type Grid struct {
	Origin     geometry.Point2D
	Resolution float64
	Cols, Rows int
	Cells      []int
}

// At returns the server index sampled for column col and row row.
func (g *Grid) At(col, row int) int {
	return g.Cells[row*g.Cols+col]
}

// Partition samples the nearest-server map over bound every resolution units.
// Each cell is sampled at its top-left corner.
func (s *Set) Partition(bound orb.Bound, resolution float64) (*Grid, error) {
	if s.Len() == 0 {
		return nil, ErrNoServers
	}
	if bound.Max.X() < bound.Min.X() || bound.Max.Y() < bound.Min.Y() {
		return nil, fmt.Errorf("%w: min %v max %v", ErrInvalidBound, bound.Min, bound.Max)
	}
	if resolution <= 0 {
		resolution = 1
	}
	cols := int((bound.Max.X()-bound.Min.X())/resolution) + 1
	rows := int((bound.Max.Y()-bound.Min.Y())/resolution) + 1
	g := &Grid{
		Origin:     geometry.FromOrb(bound.Min),
		Resolution: resolution,
		Cols:       cols,
		Rows:       rows,
		Cells:      make([]int, cols*rows),
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			p := g.Origin.Add(geometry.Pt(float64(col)*resolution, float64(row)*resolution))
			g.Cells[row*cols+col], _ = s.nearestIndex(p)
		}
	}
	return g, nil
}
