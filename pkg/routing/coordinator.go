// Package routing steers drones hop by hop along the connectivity graph.
package routing

import (
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/connectivity"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/drone"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/region"
)

// Target is the part of a drone the coordinator reads and steers.
type Target interface {
	Position() geometry.Point2D
	Destination() string
	SetWaypoint(server string, position geometry.Point2D)
}

var _ Target = (*drone.Drone)(nil)

// Coordinator picks, for each drone, the next server on the shortest hop path
// from the server owning the drone's current region to its destination.
type Coordinator struct {
	servers *region.Set
	graph   *connectivity.Graph
}

func NewCoordinator(servers *region.Set, graph *connectivity.Graph) *Coordinator {
	return &Coordinator{servers: servers, graph: graph}
}

// Route returns the next server to fly to: the next hop of the shortest path,
// or the destination itself once the drone is inside its region. ok is false
// when the drone has no destination, the destination is unknown, or no path
// exists.
func (c *Coordinator) Route(t Target) (next *region.Server, ok bool) {
	if c == nil || c.graph == nil || t.Destination() == "" {
		return nil, false
	}
	current, err := c.servers.Classify(t.Position())
	if err != nil || !c.graph.Has(t.Destination()) {
		return nil, false
	}
	if current.Name == t.Destination() {
		return c.servers.Get(current.Name)
	}
	hop := c.graph.NextHop(current.Name, t.Destination())
	if hop == "" {
		return nil, false
	}
	return c.servers.Get(hop)
}

// NextWaypoint points the drone at the server returned by Route and returns
// it. A drone that cannot be routed keeps its previous goal.
func (c *Coordinator) NextWaypoint(t Target) (*region.Server, bool) {
	next, ok := c.Route(t)
	if !ok {
		return nil, false
	}
	t.SetWaypoint(next.Name, next.Position)
	return next, true
}
