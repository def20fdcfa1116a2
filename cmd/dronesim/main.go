package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/drone"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/simulation"
)

func getEnvDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func main() {
	configFile := flag.String("config", getEnvDefault("DRONESIM_CONFIG", ""), "JSON configuration file (defaults when empty)")
	scenarioFile := flag.String("scenario", getEnvDefault("DRONESIM_SCENARIO", "scenarios/example.json"), "JSON scenario with servers and drones")
	maxDuration := flag.Duration("duration", 5*time.Minute, "stop after this much wall time")
	debug := flag.Bool("debug", false, "log every snapshot")
	flag.Parse()

	level := golog.InfoLevel
	if *debug {
		level = golog.DebugLevel
	}
	logger := golog.New(level, os.Stdout)

	// 1. Configuration
	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile); err != nil {
			logger.Errorf("config: %v", err)
			os.Exit(1)
		}
	}

	// 2. Session
	session := simulation.NewSession(cfg, logger)
	report, err := session.LoadFile(*scenarioFile)
	if err != nil {
		logger.Errorf("scenario: %v", err)
		os.Exit(1)
	}
	for _, e := range session.Graph().Edges() {
		logger.Debugf("link %s <-> %s", e.A, e.B)
	}
	logger.Infof("loaded %d servers and %d drones from %s", report.Servers, report.Drones, *scenarioFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *maxDuration)
	defer cancel()

	// 3. Actor system and world
	system, err := actor.NewActorSystem("DroneWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		logger.Errorf("actor system: %v", err)
		os.Exit(1)
	}
	if err := system.Start(ctx); err != nil {
		logger.Errorf("actor system start: %v", err)
		os.Exit(1)
	}
	defer func() { _ = system.Stop(context.Background()) }()

	snapshotCh := make(chan *simulation.Snapshot, 10) // Buffer to avoid blocking
	worldPID, err := system.Spawn(ctx, "world", simulation.NewWorldActor(session, snapshotCh))
	if err != nil {
		logger.Errorf("spawn world: %v", err)
		return
	}
	if err := actor.Tell(ctx, worldPID, wrapperspb.String(simulation.StartAll)); err != nil {
		logger.Errorf("start drones: %v", err)
		return
	}

	// 4. Driver loop
	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("simulation stopped")
			return

		case now := <-ticker.C:
			if err := actor.Tell(ctx, worldPID, durationpb.New(now.Sub(last))); err != nil {
				logger.Warnf("tick: %v", err)
			}
			last = now

		case snap := <-snapshotCh:
			for _, v := range snap.Drones {
				logger.Debugf("t=%.1fs %s %s at %s heading %.0f power %.1f -> %s",
					snap.Time, v.Name, v.Phase, v.Position, v.Heading, v.Power, v.Waypoint)
			}
			if snap.Tick > 1 && snap.Phases[drone.Charging.String()] == len(snap.Drones) {
				logger.Infof("all drones landed after %.1fs simulated", snap.Time)
				return
			}
		}
	}
}
