// Package drone holds the kinematic and power model of a single drone.
//
// A drone cycles through charging, ascending, cruising and descending. Only
// the start command leaves the charging phase; every other transition is
// driven by Update.
package drone

import (
	"errors"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/geometry"
)

var (
	ErrNotCharging   = errors.New("drone is not charging")
	ErrNoDestination = errors.New("drone has no destination")
)

// Phase is a state of the drone state machine.
type Phase int

const (
	Charging Phase = iota
	Ascending
	Cruising
	Descending
)

func (p Phase) String() string {
	switch p {
	case Charging:
		return "charging"
	case Ascending:
		return "ascending"
	case Cruising:
		return "cruising"
	case Descending:
		return "descending"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Airborne reports whether the drone is off the ground.
func (p Phase) Airborne() bool {
	return p != Charging
}

// SpotAllocator hands out landing positions near a server.
type SpotAllocator interface {
	Allocate(center geometry.Point2D, radius float64) geometry.Point2D
}

// Drone is the simulation state of one drone. It is owned by the session;
// routing and rendering get references, rendering only reads through View.
type Drone struct {
	name   string
	params *Params

	phase    Phase
	position geometry.Point2D
	goal     geometry.Point2D
	hasGoal  bool
	height   float64
	speed    float64
	heading  float64
	power    float64

	destination string // final server
	waypoint    string // server currently flown to

	force     geometry.Point2D
	collision bool

	spot    geometry.Point2D
	hasSpot bool
}

// New creates a charging drone at position.
func New(name string, position geometry.Point2D, params *Params) *Drone {
	return &Drone{
		name:     name,
		params:   params,
		phase:    Charging,
		position: position,
		power:    math.Min(params.InitialPower, params.MaxPower),
		heading:  geometry.DefaultHeading,
	}
}

func (d *Drone) Name() string { return d.name }
func (d *Drone) Phase() Phase { return d.phase }
func (d *Drone) Position() geometry.Point2D { return d.position }
func (d *Drone) Goal() geometry.Point2D { return d.goal }
func (d *Drone) HasGoal() bool { return d.hasGoal }
func (d *Drone) Height() float64 { return d.height }
func (d *Drone) Speed() float64 { return d.speed }
func (d *Drone) Heading() float64 { return d.heading }
func (d *Drone) Power() float64 { return d.power }
func (d *Drone) Destination() string { return d.destination }
func (d *Drone) Waypoint() string { return d.waypoint }
func (d *Drone) Collision() bool { return d.collision }
func (d *Drone) Force() geometry.Point2D { return d.force }
func (d *Drone) Params() *Params { return d.params }
func (d *Drone) LandingSpot() (geometry.Point2D, bool) { return d.spot, d.hasSpot }

// SetPower overrides the power level, clamped to [0, MaxPower].
func (d *Drone) SetPower(p float64) {
	d.power = clamp(p, 0, d.params.MaxPower)
}

// SetDestination sets the final server of the drone and flies straight to it
// until routing supplies an intermediate waypoint.
func (d *Drone) SetDestination(server string, position geometry.Point2D) {
	d.destination = server
	d.waypoint = server
	d.goal = position
	d.hasGoal = true
}

// SetWaypoint points the drone at the next hop of its route.
func (d *Drone) SetWaypoint(server string, position geometry.Point2D) {
	d.waypoint = server
	d.goal = position
	d.hasGoal = true
}

// Start makes a charging drone take off toward its goal.
func (d *Drone) Start() error {
	if d.phase != Charging {
		return fmt.Errorf("%s: %w (%s)", d.name, ErrNotCharging, d.phase)
	}
	if !d.hasGoal {
		return fmt.Errorf("%s: %w", d.name, ErrNoDestination)
	}
	d.phase = Ascending
	return nil
}

// TakeSpot hands the held landing spot back to the caller and forgets it.
func (d *Drone) TakeSpot() (geometry.Point2D, bool) {
	spot, ok := d.spot, d.hasSpot
	d.spot, d.hasSpot = geometry.Point2D{}, false
	return spot, ok
}

// ---------------------------------------------------------------------
// Collision
// ---------------------------------------------------------------------

// InitCollision clears the force accumulated during the previous step.
func (d *Drone) InitCollision() {
	d.force = geometry.Point2D{}
	d.collision = false
}

// AddCollision accumulates the repulsion from another drone at other when it
// is closer than threshold.
func (d *Drone) AddCollision(other geometry.Point2D, threshold float64) {
	ab := other.Sub(d.position)
	if ab.Len() >= threshold {
		return
	}
	d.force = d.force.Add(ab.Scale(-d.params.CollisionCoefficient / threshold))
	d.collision = true
}

// ---------------------------------------------------------------------
// Integration
// ---------------------------------------------------------------------

// Update advances the drone by dt seconds. Non-positive dt is ignored.
func (d *Drone) Update(dt float64, spots SpotAllocator) {
	if dt <= 0 {
		return
	}
	switch d.phase {
	case Charging:
		d.power = math.Min(d.power+dt*d.params.ChargingSpeed, d.params.MaxPower)

	case Ascending:
		d.height += dt * d.params.TakeoffSpeed
		if d.height >= d.params.HoveringHeight {
			d.height = d.params.HoveringHeight
			d.phase = Cruising
		}
		d.consume(dt)

	case Descending:
		d.height -= dt * d.params.TakeoffSpeed
		if d.height <= 0 {
			d.height = 0
			d.phase = Charging
			d.collision = false
		}
		d.consume(dt)

	case Cruising:
		d.cruise(dt, spots)
		d.consume(dt)
	}
}

func (d *Drone) cruise(dt float64, spots SpotAllocator) {
	toGoal := d.goal.Sub(d.position)
	distance := toGoal.Len()

	if distance <= d.params.LandingRadius {
		if spots != nil {
			d.spot = spots.Allocate(d.goal, d.params.LandingRadius)
			d.hasSpot = true
			d.position = d.spot
		}
		d.speed = 0
		d.phase = Descending
		return
	}

	step := math.Min(dt*d.params.MaxSpeed, distance)
	move := toGoal.Normalize().Scale(step)
	if d.params.ApplyCollisionForce {
		move = move.Add(d.force.Scale(dt))
	}
	d.position = d.position.Add(move)
	d.speed = move.Len() / dt
	d.heading = move.Heading()
}

// consume drains power for dt seconds of flight and enforces the safety margin.
func (d *Drone) consume(dt float64) {
	d.power = math.Max(d.power-dt*d.params.PowerConsumption, 0)
	if d.power < d.params.SafetyMargin() && (d.phase == Ascending || d.phase == Cruising) {
		d.phase = Descending
		d.speed = 0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
