package simulation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/drone"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/geometry"
)

// flyingDrone returns an ascending drone at (x, y).
func flyingDrone(name string, x, y float64, params *drone.Params) *drone.Drone {
	d := drone.New(name, geometry.Pt(x, y), params)
	d.SetDestination("far", geometry.Pt(10000, 10000))
	_ = d.Start()
	return d
}

func TestSpatialGrid_rebuild(t *testing.T) {
	// 1. Setup: cell size 100
	params := drone.DefaultParams()
	g := newSpatialGrid(100)

	a1 := flyingDrone("a1", 50, 50, &params)   // Grid 0,0
	a2 := flyingDrone("a2", 150, 50, &params)  // Grid 1,0
	a3 := flyingDrone("a3", 50, 150, &params)  // Grid 0,1
	a4 := flyingDrone("a4", 250, 250, &params) // Grid 2,2
	a5 := flyingDrone("a5", -50, 50, &params)  // Grid -1,0
	grounded := drone.New("grounded", geometry.Pt(50, 50), &params)

	// 2. Execute
	g.rebuild([]*drone.Drone{a1, a2, a3, a4, a5, grounded})

	// 3. Verify
	tests := []struct {
		key  gridKey
		want []*drone.Drone
	}{
		{gridKey{x: 0, y: 0}, []*drone.Drone{a1}},
		{gridKey{x: 1, y: 0}, []*drone.Drone{a2}},
		{gridKey{x: 0, y: 1}, []*drone.Drone{a3}},
		{gridKey{x: 2, y: 2}, []*drone.Drone{a4}},
		{gridKey{x: -1, y: 0}, []*drone.Drone{a5}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d,%d", tt.key.x, tt.key.y), func(t *testing.T) {
			assert.Equal(t, tt.want, g.cells[tt.key])
		})
	}

	// Rebuilding reuses the buckets and drops drones that moved away
	g.rebuild([]*drone.Drone{a2})
	assert.Empty(t, g.cells[gridKey{x: 0, y: 0}])
	assert.Equal(t, []*drone.Drone{a2}, g.cells[gridKey{x: 1, y: 0}])
}

// nearbyDrones collects what the grid visits around (x, y).
func nearbyDrones(g *spatialGrid, x, y float64) []*drone.Drone {
	var neighbors []*drone.Drone
	g.nearby(x, y, func(d *drone.Drone) {
		neighbors = append(neighbors, d)
	})
	return neighbors
}

func TestSpatialGrid_nearby(t *testing.T) {
	params := drone.DefaultParams()
	g := newSpatialGrid(100)

	center := flyingDrone("center", 150, 150, &params)  // 1,1
	neighbor := flyingDrone("neighbor", 50, 50, &params) // 0,0
	farAway := flyingDrone("far", 350, 350, &params)    // 3,3
	g.rebuild([]*drone.Drone{center, neighbor, farAway})

	result := nearbyDrones(g, 150, 150)
	assert.Contains(t, result, center)
	assert.Contains(t, result, neighbor)
	assert.NotContains(t, result, farAway)
}

func TestSpatialGrid_accumulateCollisions(t *testing.T) {
	params := drone.DefaultParams()
	g := newSpatialGrid(96)

	a := flyingDrone("a", 0, 0, &params)
	b := flyingDrone("b", 48, 0, &params)
	c := flyingDrone("c", 500, 0, &params)
	grounded := drone.New("grounded", geometry.Pt(0, 10), &params)
	all := []*drone.Drone{a, b, c, grounded}
	g.rebuild(all)
	for _, d := range all {
		g.accumulateCollisions(d, 96)
	}

	assert.True(t, a.Collision())
	assert.True(t, b.Collision())
	assert.False(t, c.Collision())
	assert.False(t, grounded.Collision())
	assert.InDelta(t, -50.0, a.Force().X, geometry.Epsilon)
	assert.InDelta(t, 50.0, b.Force().X, geometry.Epsilon)
}

func TestWorldActor(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t, nil)

	system, err := actor.NewActorSystem("DroneWorldTest", actor.WithLogger(golog.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, system.Start(ctx))
	t.Cleanup(func() { _ = system.Stop(ctx) })

	snapshotCh := make(chan *Snapshot, 10)
	pid, err := system.Spawn(ctx, "world", NewWorldActor(session, snapshotCh))
	require.NoError(t, err)

	require.NoError(t, actor.Tell(ctx, pid, wrapperspb.String(StartAll)))
	require.NoError(t, actor.Tell(ctx, pid, durationpb.New(100*time.Millisecond)))

	select {
	case snap := <-snapshotCh:
		assert.Equal(t, session.ID().String(), snap.SessionID)
		assert.Equal(t, 2, snap.Phases["ascending"])
		assert.Positive(t, snap.Tick)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot pushed after tick")
	}

	resp, err := actor.Ask(ctx, pid, &emptypb.Empty{}, 5*time.Second)
	require.NoError(t, err)
	st, ok := resp.(*structpb.Struct)
	require.True(t, ok, "unexpected response %T", resp)

	snap := FromProto(st)
	assert.Equal(t, session.ID().String(), snap.SessionID)
	require.Len(t, snap.Drones, 3)
	assert.Equal(t, "d1", snap.Drones[0].Name)
	assert.Equal(t, "ascending", snap.Drones[0].Phase)
	assert.Equal(t, "S4", snap.Drones[0].Destination)
	assert.Equal(t, 1, snap.Phases["charging"])
}

func TestSnapshotProtoRoundTrip(t *testing.T) {
	session := newTestSession(t, nil)
	session.StartAll()
	session.Tick(0.5)

	want := session.Snapshot()
	st, err := want.ToProto()
	require.NoError(t, err)
	got := FromProto(st)

	assert.Equal(t, want.SessionID, got.SessionID)
	assert.Equal(t, want.Tick, got.Tick)
	assert.Equal(t, want.Phases, got.Phases)
	require.Len(t, got.Drones, len(want.Drones))
	for i := range want.Drones {
		w, g := want.Drones[i], got.Drones[i]
		assert.Equal(t, w.Name, g.Name)
		assert.Equal(t, w.Position, g.Position)
		assert.Equal(t, w.Power, g.Power)
		assert.Equal(t, w.Collision, g.Collision)
	}
}

func BenchmarkSpatialGrid_rebuild(b *testing.B) {
	// Setup: 1000 drones
	params := drone.DefaultParams()
	g := newSpatialGrid(96)
	drones := make([]*drone.Drone, 0, 1000)
	for i := 0; i < 1000; i++ {
		drones = append(drones, flyingDrone(fmt.Sprintf("d%04d", i), float64(i), float64(i), &params))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.rebuild(drones)
	}
}

func BenchmarkSpatialGrid_nearby(b *testing.B) {
	params := drone.DefaultParams()
	g := newSpatialGrid(96)
	drones := make([]*drone.Drone, 0, 1000)
	for i := 0; i < 1000; i++ {
		drones = append(drones, flyingDrone(fmt.Sprintf("d%04d", i), float64(i%1000), float64(i%1000), &params))
	}
	g.rebuild(drones)

	count := 0
	visit := func(*drone.Drone) { count++ }
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Query middle of the map
		g.nearby(500, 500, visit)
	}
	b.ReportMetric(float64(count)/float64(b.N), "drones/op")
}
