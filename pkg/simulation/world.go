package simulation

import (
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// StartAll is the drone name that starts every charging drone with a destination.
const StartAll = "*"

// WorldActor owns the Session and serialises every access to it.
//
// Messages:
//   - *durationpb.Duration: one driver tick covering that much wall time
//   - *wrapperspb.StringValue: start the named drone (or StartAll)
//   - *emptypb.Empty: replies with the current snapshot as *structpb.Struct
type WorldActor struct {
	session *Session
	// Communication with the renderer
	snapshotCh chan<- *Snapshot
	// --- Benchmark Stats ---
	ticksCount  int
	stepsCount  int
	tickTime    time.Duration
	lastLogTime time.Time
}

// NewWorldActor creates the world logic unit around a loaded session.
// snapshotCh may be nil.
func NewWorldActor(session *Session, snapshotCh chan<- *Snapshot) *WorldActor {
	return &WorldActor{
		session:     session,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World %s starting with %d drones", w.session.ID(), w.session.Fleet().Len())
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Infof("World %s started", w.session.ID())

	// 1. The main simulation step, driven by the ticker
	case *durationpb.Duration:
		start := time.Now()
		w.stepsCount += w.session.Advance(msg.AsDuration())
		w.ticksCount++
		w.tickTime += time.Since(start)

		// 2. Telemetry
		w.logBenchmarks(ctx)

		// 3. Renderer update
		w.pushSnapshot()

	// Start command
	case *wrapperspb.StringValue:
		if msg.GetValue() == StartAll {
			n := w.session.StartAll()
			ctx.Logger().Infof("World %s: %d drones took off", w.session.ID(), n)
			return
		}
		if err := w.session.Start(msg.GetValue()); err != nil {
			ctx.Logger().Warnf("World %s: start %s: %v", w.session.ID(), msg.GetValue(), err)
		}

	// Snapshot query
	case *emptypb.Empty:
		snap, err := w.session.Snapshot().ToProto()
		if err != nil {
			ctx.Logger().Errorf("World %s: snapshot: %v", w.session.ID(), err)
			ctx.Unhandled()
			return
		}
		ctx.Response(snap)

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(w.lastLogTime) >= time.Second {
		avg := time.Duration(0)
		if w.ticksCount > 0 {
			avg = w.tickTime / time.Duration(w.ticksCount)
		}
		snap := w.session.Snapshot()
		ctx.Logger().Infof("📊 TICK RATE: %d/sec (sub-steps: %d, avg tick: %s) | Drones: %d | Collisions: %d",
			w.ticksCount, w.stepsCount, avg, len(snap.Drones), snap.Collisions)
		w.ticksCount = 0
		w.stepsCount = 0
		w.tickTime = 0
		w.lastLogTime = time.Now()
	}
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.session.Snapshot():
	default:
		// Renderer busy, skip frame
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World %s is shutdown...", w.session.ID())
	return nil
}
