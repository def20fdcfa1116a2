// Package region assigns points of the plane to their nearest server.
//
// Assignment is brute force: a linear scan over the servers in load order,
// the first server wins ties. Servers may additionally carry their Voronoi
// cell as an orb.Polygon; Classify uses those cells first and falls back to
// the nearest-server scan for points no cell contains.
package region

import (
	"errors"
	"image/color"
	"math"

	"github.com/paulmach/orb"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/geometry"
)

// ErrNoServers is returned by queries on an empty server set.
var ErrNoServers = errors.New("no servers")

// ErrInvalidBound is returned when a bound has Max below Min on either axis.
var ErrInvalidBound = errors.New("invalid bound")

// Server is a routing node of the plane.
type Server struct {
	Name     string
	Position geometry.Point2D
	Color    color.RGBA
	// Region is the Voronoi cell of the server, empty until BuildCells ran.
	Region orb.Polygon
}

// Set is the immutable, ordered collection of servers of a run.
// Iteration order is load order.
type Set struct {
	servers []Server
	index   map[string]int
}

// NewSet builds a Set. A later server with an already used name replaces the
// earlier one in place (last write wins, first position kept); the names that
// were replaced are returned.
func NewSet(servers []Server) (*Set, []string) {
	s := &Set{
		servers: make([]Server, 0, len(servers)),
		index:   make(map[string]int, len(servers)),
	}
	var replaced []string
	for _, srv := range servers {
		if i, ok := s.index[srv.Name]; ok {
			s.servers[i] = srv
			replaced = append(replaced, srv.Name)
			continue
		}
		s.index[srv.Name] = len(s.servers)
		s.servers = append(s.servers, srv)
	}
	return s, replaced
}

// Len returns the number of servers.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.servers)
}

// At returns the i-th server in load order.
func (s *Set) At(i int) *Server {
	return &s.servers[i]
}

// Get looks a server up by name.
func (s *Set) Get(name string) (*Server, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return &s.servers[i], true
}

// Servers returns the servers in load order. The slice must not be modified.
func (s *Set) Servers() []Server {
	if s == nil {
		return nil
	}
	return s.servers
}

// Names returns the server names in load order.
func (s *Set) Names() []string {
	names := make([]string, 0, s.Len())
	for _, srv := range s.Servers() {
		names = append(names, srv.Name)
	}
	return names
}

// Nearest returns the server closest to p and its distance.
// Ties resolve to the first server in load order.
func (s *Set) Nearest(p geometry.Point2D) (*Server, float64, error) {
	i, d := s.nearestIndex(p)
	if i < 0 {
		return nil, 0, ErrNoServers
	}
	return &s.servers[i], d, nil
}

func (s *Set) nearestIndex(p geometry.Point2D) (int, float64) {
	best := -1
	minDistSq := math.MaxFloat64
	for i := range s.Servers() {
		// strict < keeps the first server on ties
		if d := p.DistanceSquaredTo(s.servers[i].Position); d < minDistSq {
			minDistSq = d
			best = i
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, math.Sqrt(minDistSq)
}
