package drone

import "github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/geometry"

// View is a read-only copy of a drone state, safe to hand to a renderer.
type View struct {
	Name        string           `json:"name"`
	Phase       string           `json:"phase"`
	Position    geometry.Point2D `json:"position"`
	Goal        geometry.Point2D `json:"goal"`
	Height      float64          `json:"height"`
	Speed       float64          `json:"speed"`
	Heading     float64          `json:"heading"`
	Power       float64          `json:"power"`
	Destination string           `json:"destination,omitempty"`
	Waypoint    string           `json:"waypoint,omitempty"`
	Collision   bool             `json:"collision"`
}

// View projects the drone state.
func (d *Drone) View() View {
	return View{
		Name:        d.name,
		Phase:       d.phase.String(),
		Position:    d.position,
		Goal:        d.goal,
		Height:      d.height,
		Speed:       d.speed,
		Heading:     d.heading,
		Power:       d.power,
		Destination: d.destination,
		Waypoint:    d.waypoint,
		Collision:   d.collision,
	}
}

// Fleet is the set of drones of a session, kept in load order and indexed by
// name.
type Fleet struct {
	drones []*Drone
	index  map[string]int
}

func NewFleet() *Fleet {
	return &Fleet{index: make(map[string]int)}
}

// Insert adds d, replacing a drone with the same name in place. It reports
// whether an existing drone was replaced.
func (f *Fleet) Insert(d *Drone) bool {
	if i, ok := f.index[d.name]; ok {
		f.drones[i] = d
		return true
	}
	f.index[d.name] = len(f.drones)
	f.drones = append(f.drones, d)
	return false
}

func (f *Fleet) Get(name string) (*Drone, bool) {
	if f == nil {
		return nil, false
	}
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.drones[i], true
}

func (f *Fleet) Len() int {
	if f == nil {
		return 0
	}
	return len(f.drones)
}

// At returns the i-th drone in load order.
func (f *Fleet) At(i int) *Drone {
	return f.drones[i]
}

// All returns the drones in load order. The slice is shared; do not modify it.
func (f *Fleet) All() []*Drone {
	if f == nil {
		return nil
	}
	return f.drones
}

func (f *Fleet) Clear() {
	f.drones = nil
	f.index = make(map[string]int)
}

// Views returns the projection of every drone in load order.
func (f *Fleet) Views() []View {
	out := make([]View, 0, f.Len())
	for _, d := range f.All() {
		out = append(out, d.View())
	}
	return out
}
