package simulation

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	golog "github.com/tochemey/goakt/v3/log"
	"golang.org/x/sync/errgroup"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/connectivity"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/drone"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/landing"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/region"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/routing"
)

// Session owns the servers, the connectivity graph, the fleet and the landing
// history of one run. It is not safe for concurrent use: the WorldActor is its
// single owner, Tick parallelises internally.
type Session struct {
	id     uuid.UUID
	cfg    *Config
	logger golog.Logger
	params drone.Params

	servers *region.Set
	graph   *connectivity.Graph
	router  *routing.Coordinator
	fleet   *drone.Fleet
	spots   *landing.Registry
	grid    *spatialGrid
	stepper *Stepper

	ticks   uint64
	elapsed float64 // simulated seconds
}

func NewSession(cfg *Config, logger golog.Logger) *Session {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = golog.DiscardLogger
	}
	servers, _ := region.NewSet(nil)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	return &Session{
		id:      uuid.New(),
		cfg:     cfg,
		logger:  logger,
		params:  cfg.DroneParams(),
		servers: servers,
		fleet:   drone.NewFleet(),
		spots:   landing.NewRegistry(rng, cfg.LandingParams()),
		grid:    newSpatialGrid(cfg.CollisionDistance),
		stepper: NewStepper(cfg.MaxSubSteps, cfg.StepBudget()),
	}
}

func (s *Session) ID() uuid.UUID { return s.id }
func (s *Session) Config() *Config { return s.cfg }
func (s *Session) Servers() *region.Set { return s.servers }
func (s *Session) Graph() *connectivity.Graph { return s.graph }
func (s *Session) Fleet() *drone.Fleet { return s.fleet }
func (s *Session) LandingSpots() []geometry.Point2D { return s.spots.Spots() }
func (s *Session) Steps() int { return s.stepper.Steps() }

// Bound is the world rectangle.
func (s *Session) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{s.cfg.WorldWidth, s.cfg.WorldHeight}}
}

// ---------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------

// LoadFile loads a scenario file. See Load.
func (s *Session) LoadFile(path string) (LoadReport, error) {
	sc, err := ReadScenario(path)
	if err != nil {
		s.logger.Errorf("session %s: load %s failed: %v", s.id, path, err)
		return LoadReport{}, err
	}
	return s.Apply(sc), nil
}

// Load parses a scenario document and applies it. On error nothing changes.
func (s *Session) Load(data []byte) (LoadReport, error) {
	sc, err := ParseScenario(data)
	if err != nil {
		s.logger.Errorf("session %s: load failed: %v", s.id, err)
		return LoadReport{}, err
	}
	return s.Apply(sc), nil
}

// Apply installs the collections present in sc and rebuilds connectivity.
// An absent collection keeps the current one.
func (s *Session) Apply(sc *Scenario) LoadReport {
	report := LoadReport{Diagnostics: append([]Diagnostic(nil), sc.Report.Diagnostics...)}
	if sc.Servers != nil {
		report.merge(s.LoadServers(sc.Servers))
	}
	if sc.Drones != nil {
		report.merge(s.LoadAgents(sc.Drones))
	}
	s.BuildConnectivity()
	report.Servers = s.servers.Len()
	report.Drones = s.fleet.Len()

	for _, d := range report.Diagnostics {
		s.logger.Warnf("session %s: %s", s.id, d)
	}
	s.logger.Infof("session %s: %d servers, %d drones, %d edges, %d diagnostics",
		s.id, s.servers.Len(), s.fleet.Len(), len(s.graph.Edges()), len(report.Diagnostics))
	return report
}

// LoadServers replaces the server set and computes the server regions.
// Drones already loaded are re-pointed at their destination, by name.
// The connectivity graph is dropped until BuildConnectivity runs.
func (s *Session) LoadServers(servers []region.Server) LoadReport {
	var report LoadReport
	set, replaced := region.NewSet(servers)
	for _, name := range replaced {
		report.warn(KindInput, "server "+name, "duplicate name, later record replaces the earlier one")
	}
	set.BuildCells(s.Bound())
	s.servers = set
	s.graph = nil
	s.router = nil
	report.Servers = set.Len()

	for _, d := range s.fleet.All() {
		if d.Destination() != "" {
			s.resolveDestination(d, d.Destination(), &report)
		}
	}
	return report
}

// LoadAgents replaces the fleet and clears the landing history.
// A drone naming an unknown server is kept without a route.
func (s *Session) LoadAgents(specs []DroneSpec) LoadReport {
	var report LoadReport
	s.fleet.Clear()
	s.spots.Reset()
	for _, spec := range specs {
		d := drone.New(spec.Name, spec.Position, &s.params)
		s.resolveDestination(d, spec.Destination, &report)
		if s.fleet.Insert(d) {
			report.warn(KindInput, "drone "+spec.Name, "duplicate name, later record replaces the earlier one")
		}
	}
	report.Drones = s.fleet.Len()
	return report
}

func (s *Session) resolveDestination(d *drone.Drone, name string, report *LoadReport) {
	if name == "" {
		report.warn(KindReferential, "drone "+d.Name(), "no destination server")
		return
	}
	srv, ok := s.servers.Get(name)
	if !ok {
		report.warn(KindReferential, "drone "+d.Name(), "server %s not found, drone left idle", name)
		return
	}
	d.SetDestination(srv.Name, srv.Position)
}

// BuildConnectivity rebuilds the graph and the routing coordinator from the
// current servers.
func (s *Session) BuildConnectivity() {
	s.graph = connectivity.Build(s.servers, s.cfg.ConnectivityThreshold)
	s.router = routing.NewCoordinator(s.servers, s.graph)
}

// ---------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------

func (s *Session) NearestServer(p geometry.Point2D) (*region.Server, error) {
	srv, _, err := s.servers.Nearest(p)
	return srv, err
}

// ShortestPath returns the minimum-hop server path, nil when there is none or
// connectivity was not built.
func (s *Session) ShortestPath(from, to string) []string {
	if s.graph == nil {
		return nil
	}
	return s.graph.ShortestPath(from, to)
}

// Partition samples the world into a grid of nearest-server indices.
func (s *Session) Partition(resolution float64) (*region.Grid, error) {
	if resolution <= 0 {
		resolution = s.cfg.PartitionResolution
	}
	return s.servers.Partition(s.Bound(), resolution)
}

// ---------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------

// Start makes a charging drone take off.
func (s *Session) Start(name string) error {
	d, ok := s.fleet.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDrone, name)
	}
	if err := d.Start(); err != nil {
		return err
	}
	if s.cfg.ReleaseLandingSpots {
		if spot, ok := d.TakeSpot(); ok {
			s.spots.Release(spot)
		}
	}
	s.logger.Debugf("session %s: %s takes off to %s", s.id, name, d.Destination())
	return nil
}

// StartAll starts every charging drone that has a destination and returns how
// many took off.
func (s *Session) StartAll() int {
	started := 0
	for _, d := range s.fleet.All() {
		if d.Phase() != drone.Charging || d.Destination() == "" {
			continue
		}
		if err := s.Start(d.Name()); err == nil {
			started++
		}
	}
	return started
}

// SetDestination retargets a drone to a server.
func (s *Session) SetDestination(droneName, serverName string) error {
	d, ok := s.fleet.Get(droneName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDrone, droneName)
	}
	srv, ok := s.servers.Get(serverName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownServer, serverName)
	}
	d.SetDestination(srv.Name, srv.Position)
	return nil
}

// ---------------------------------------------------------------------
// Stepping
// ---------------------------------------------------------------------

// Tick advances every drone by dt seconds: routing, then collision forces for
// all drones, then integration. Non-positive dt is ignored.
func (s *Session) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	drones := s.fleet.All()
	s.grid.rebuild(drones)

	// 1. Read phase: positions are only read, each drone writes its own goal and force
	s.forEach(drones, func(d *drone.Drone) {
		if d.Destination() != "" {
			s.router.NextWaypoint(d)
		}
		s.grid.accumulateCollisions(d, s.cfg.CollisionDistance)
	})

	// 2. Write phase, starts once every force is known
	s.forEach(drones, func(d *drone.Drone) {
		d.Update(dt, s.spots)
	})

	s.ticks++
	s.elapsed += dt
}

// Advance runs one driver tick covering elapsed wall time, split into the
// current number of sub-steps, and adapts that number to the time it took.
// It returns the number of sub-steps run.
func (s *Session) Advance(elapsed time.Duration) int {
	steps := s.stepper.Steps()
	dt := elapsed.Seconds() / float64(steps)

	start := time.Now()
	for i := 0; i < steps; i++ {
		s.Tick(dt)
	}
	s.stepper.Observe(time.Since(start))
	return steps
}

// forEach runs fn over drones on up to cfg.Workers goroutines and returns when
// all calls are done.
func (s *Session) forEach(drones []*drone.Drone, fn func(*drone.Drone)) {
	workers := s.cfg.Workers
	if workers <= 1 || len(drones) < 2 {
		for _, d := range drones {
			fn(d)
		}
		return
	}

	chunk := (len(drones) + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < len(drones); lo += chunk {
		part := drones[lo:min(lo+chunk, len(drones))]
		g.Go(func() error {
			for _, d := range part {
				fn(d)
			}
			return nil
		})
	}
	_ = g.Wait()
}
