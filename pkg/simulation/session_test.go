package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/drone"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/geometry"
)

// testScenario chains S1 - S2 - S3 - S4 at 400 units apart, so a drone from
// S1 to S4 has to hop through S2 and S3.
const testScenario = `{
  "servers": [
    {"name": "S1", "position": "100,100", "color": "red"},
    {"name": "S2", "position": "500,100", "color": "#0000ff"},
    {"name": "S3", "position": "900,100", "color": "notacolour"},
    {"name": "S4", "position": "900,500"},
    {"name": "broken", "position": "1,2,3"},
    {"position": "10,10"}
  ],
  "drones": [
    {"name": "d1", "position": "100,150", "server": "S4"},
    {"name": "d2", "position": "120,100", "server": "S2"},
    {"name": "d3", "position": "bad", "server": "S1"},
    {"name": "d4", "position": "300,300", "server": "nowhere"}
  ]
}`

func newTestSession(t testing.TB, cfg *Config) *Session {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := NewSession(cfg, golog.DiscardLogger)
	_, err := s.Load([]byte(testScenario))
	require.NoError(t, err)
	return s
}

// runUntilLanded ticks until every started drone is charging again.
func runUntilLanded(t *testing.T, s *Session, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		s.Tick(0.1)
		airborne := false
		for _, d := range s.Fleet().All() {
			if d.Phase().Airborne() {
				airborne = true
				break
			}
		}
		if !airborne {
			return
		}
	}
	t.Fatalf("drones still airborne after %d ticks", maxTicks)
}

func TestSession_Load(t *testing.T) {
	s := NewSession(DefaultConfig(), golog.DiscardLogger)
	report, err := s.Load([]byte(testScenario))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Servers)
	assert.Equal(t, 3, report.Drones)
	assert.Equal(t, 3, report.Count(KindInput), report.Diagnostics)
	assert.Equal(t, 1, report.Count(KindValidation), report.Diagnostics)
	assert.Equal(t, 1, report.Count(KindReferential), report.Diagnostics)

	assert.Equal(t, []string{"S1", "S2", "S3", "S4"}, s.Servers().Names())
	srv, ok := s.Servers().Get("S3")
	require.True(t, ok)
	assert.Equal(t, DefaultServerColor, srv.Color)
	assert.NotEmpty(t, srv.Region, "regions are built on load")

	d4, ok := s.Fleet().Get("d4")
	require.True(t, ok)
	assert.Empty(t, d4.Destination())
	assert.False(t, d4.HasGoal())

	d1, _ := s.Fleet().Get("d1")
	assert.Equal(t, "S4", d1.Destination())
	assert.Equal(t, geometry.Pt(900, 500), d1.Goal())
}

// nonFiniteScenario carries positions that parse as floats but are not finite.
const nonFiniteScenario = `{
  "servers": [
    {"name": "S1", "position": "0,0"},
    {"name": "S2", "position": "NaN,0"}
  ],
  "drones": [
    {"name": "d1", "position": "Inf,-Inf", "server": "S1"}
  ]
}`

func TestSession_LoadSkipsNonFinitePositions(t *testing.T) {
	s := NewSession(DefaultConfig(), golog.DiscardLogger)
	report, err := s.Load([]byte(nonFiniteScenario))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Servers)
	assert.Equal(t, 0, report.Drones)
	assert.Equal(t, []string{"S1"}, s.Servers().Names())
	srv, ok := s.Servers().Get("S1")
	require.True(t, ok)
	assert.NotEmpty(t, srv.Region, "a lone finite server still owns a region")
	assert.Equal(t, 0, s.Fleet().Len())
}

func TestSession_LoadFailureKeepsState(t *testing.T) {
	s := newTestSession(t, nil)

	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"empty", "", ErrNoDocument},
		{"blank", "  \n ", ErrNoDocument},
		{"unparseable", "{bad", ErrInvalidDocument},
		{"not an object", "[]", ErrInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Load([]byte(tt.doc))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 4, s.Servers().Len())
			assert.Equal(t, 3, s.Fleet().Len())
			assert.Len(t, s.Graph().Edges(), 3)
		})
	}

	_, err := s.LoadFile(t.TempDir() + "/missing.json")
	require.ErrorIs(t, err, ErrNoDocument)
	assert.Equal(t, 3, s.Fleet().Len())
}

func TestSession_MissingCollectionKeepsCurrent(t *testing.T) {
	s := newTestSession(t, nil)

	report, err := s.Load([]byte(`{"servers": [{"name": "S1", "position": "0,0"}, {"name": "S1", "position": "5,5"}]}`))
	require.NoError(t, err)

	assert.Equal(t, 1, s.Servers().Len())
	srv, _ := s.Servers().Get("S1")
	assert.Equal(t, geometry.Pt(5, 5), srv.Position, "last record wins")
	assert.Equal(t, 3, s.Fleet().Len(), "drones are kept")
	assert.Equal(t, 2, report.Count(KindInput), "duplicate server and missing drones array")
	// d1 and d2 lost their destination server.
	assert.Equal(t, 2, report.Count(KindReferential), report.Diagnostics)
}

func TestSession_Queries(t *testing.T) {
	s := newTestSession(t, nil)

	srv, err := s.NearestServer(geometry.Pt(480, 90))
	require.NoError(t, err)
	assert.Equal(t, "S2", srv.Name)

	assert.Equal(t, []string{"S1", "S2", "S3", "S4"}, s.ShortestPath("S1", "S4"))
	assert.Nil(t, s.ShortestPath("S1", "nowhere"))

	grid, err := s.Partition(100)
	require.NoError(t, err)
	assert.Equal(t, 11, grid.Cols)
	assert.Equal(t, 9, grid.Rows)
	assert.Equal(t, 0, grid.At(0, 0))
	assert.Equal(t, 3, grid.At(10, 8))

	empty := NewSession(nil, nil)
	_, err = empty.NearestServer(geometry.Pt(0, 0))
	assert.Error(t, err)
	assert.Nil(t, empty.ShortestPath("a", "b"))
}

func TestSession_Commands(t *testing.T) {
	s := newTestSession(t, nil)

	require.ErrorIs(t, s.Start("zz"), ErrUnknownDrone)
	require.ErrorIs(t, s.Start("d4"), drone.ErrNoDestination)
	require.ErrorIs(t, s.SetDestination("zz", "S1"), ErrUnknownDrone)
	require.ErrorIs(t, s.SetDestination("d4", "zz"), ErrUnknownServer)

	require.NoError(t, s.SetDestination("d4", "S1"))
	require.NoError(t, s.Start("d4"))
	require.ErrorIs(t, s.Start("d4"), drone.ErrNotCharging)

	assert.Equal(t, 2, s.StartAll())
	assert.Equal(t, 0, s.StartAll())
}

func TestSession_TickIgnoresNonPositiveStep(t *testing.T) {
	s := newTestSession(t, nil)
	s.StartAll()
	before := s.Snapshot()
	s.Tick(0)
	s.Tick(-1)
	assert.Equal(t, before, s.Snapshot())
}

func TestSession_CollisionFlags(t *testing.T) {
	s := newTestSession(t, nil)
	s.Tick(0.1)
	assert.Equal(t, 0, s.Snapshot().Collisions, "grounded drones never collide")

	s.StartAll()
	s.Tick(0.1)
	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Collisions)
	assert.Equal(t, 2, snap.Phases["ascending"])
	assert.Equal(t, 1, snap.Phases["charging"])
}

func TestSession_FlightAcrossHops(t *testing.T) {
	s := newTestSession(t, nil)
	require.Equal(t, 2, s.StartAll())

	waypoints := map[string]bool{}
	for i := 0; i < 3000; i++ {
		s.Tick(0.1)
		d1, _ := s.Fleet().Get("d1")
		waypoints[d1.Waypoint()] = true
		if d1.Phase() == drone.Charging && i > 0 {
			break
		}
	}
	runUntilLanded(t, s, 3000)

	assert.True(t, waypoints["S2"])
	assert.True(t, waypoints["S3"])
	assert.True(t, waypoints["S4"])

	d1, _ := s.Fleet().Get("d1")
	assert.Equal(t, "S4", d1.Waypoint())
	dist := d1.Position().DistanceTo(geometry.Pt(900, 500))
	assert.GreaterOrEqual(t, dist, 50.0-geometry.Epsilon)
	assert.LessOrEqual(t, dist, 90.0+geometry.Epsilon)

	d2, _ := s.Fleet().Get("d2")
	assert.Equal(t, drone.Charging, d2.Phase())
	assert.LessOrEqual(t, d2.Position().DistanceTo(geometry.Pt(500, 100)), 90.0+geometry.Epsilon)

	assert.Len(t, s.LandingSpots(), 2)
	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Phases["charging"])
	assert.Greater(t, snap.Time, 0.0)
}

func TestSession_ReleaseLandingSpots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReleaseLandingSpots = true
	s := newTestSession(t, cfg)
	require.NoError(t, s.Start("d2"))
	runUntilLanded(t, s, 3000)
	require.Len(t, s.LandingSpots(), 1)

	require.NoError(t, s.SetDestination("d2", "S1"))
	require.NoError(t, s.Start("d2"))
	assert.Empty(t, s.LandingSpots())
}

func TestSession_ParallelWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 4
	s := newTestSession(t, cfg)
	require.Equal(t, 2, s.StartAll())
	runUntilLanded(t, s, 3000)

	d1, _ := s.Fleet().Get("d1")
	assert.LessOrEqual(t, d1.Position().DistanceTo(geometry.Pt(900, 500)), 90.0+geometry.Epsilon)
}

func TestSession_Advance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepBudgetMs = 1000
	s := newTestSession(t, cfg)
	s.StartAll()

	steps := s.Advance(cfg.TickInterval())
	assert.Equal(t, 10, steps)
	snap := s.Snapshot()
	assert.Equal(t, uint64(10), snap.Tick)
	assert.InDelta(t, 0.1, snap.Time, geometry.Epsilon)
}

func BenchmarkSession_Tick(b *testing.B) {
	s := newTestSession(b, nil)
	specs := make([]DroneSpec, 0, 500)
	for i := 0; i < 500; i++ {
		specs = append(specs, DroneSpec{
			Name:        "bench-" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Position:    geometry.Pt(float64(i%25)*40, float64(i/25)*40),
			Destination: "S4",
		})
	}
	s.LoadAgents(specs)
	s.StartAll()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Tick(0.01)
	}
}
