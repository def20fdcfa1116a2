package simulation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/connectivity"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/drone"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/landing"
)

//go:embed config.schema.json
var configSchema string

type Config struct {
	// World Dimensions, used as the clipping bound of the server regions
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`

	// Two servers are linked when strictly closer than this
	ConnectivityThreshold float64 `json:"connectivityThreshold"`

	// Landing
	LandingRadius       float64 `json:"landingRadius"`      // arrival distance and outer radius of the landing ring
	LandingInnerRadius  float64 `json:"landingInnerRadius"` // keeps drones off the server itself
	LandingSpacing      float64 `json:"landingSpacing"`     // min distance between two spots
	LandingAttempts     int     `json:"landingAttempts"`
	ReleaseLandingSpots bool    `json:"releaseLandingSpots"`

	// Collision
	CollisionDistance    float64 `json:"collisionDistance"`
	CollisionCoefficient float64 `json:"collisionCoefficient"`
	ApplyCollisionForce  bool    `json:"applyCollisionForce"`

	// Driver
	TickIntervalMs int `json:"tickIntervalMs"`
	MaxSubSteps    int `json:"maxSubSteps"`
	StepBudgetMs   int `json:"stepBudgetMs"`
	Workers        int `json:"workers"`

	// Seeds the landing spot generator
	Seed uint64 `json:"seed"`

	PartitionResolution float64 `json:"partitionResolution"`

	Drone drone.Params `json:"drone"`
}

func DefaultConfig() *Config {
	return &Config{
		WorldWidth:            1000,
		WorldHeight:           800,
		ConnectivityThreshold: connectivity.DefaultThreshold,
		LandingRadius:         90,
		LandingInnerRadius:    landing.DefaultInnerRadius,
		LandingSpacing:        landing.DefaultSpacing,
		LandingAttempts:       landing.DefaultAttempts,
		CollisionDistance:     96, // drone icon size 64 x 1.5
		CollisionCoefficient:  100,
		TickIntervalMs:        100,
		MaxSubSteps:           10,
		StepBudgetMs:          90,
		Workers:               1,
		Seed:                  1,
		PartitionResolution:   10,
		Drone:                 drone.DefaultParams(),
	}
}

// DroneParams merges the session level landing and collision settings into
// the drone block.
func (c *Config) DroneParams() drone.Params {
	p := c.Drone
	p.LandingRadius = c.LandingRadius
	p.CollisionCoefficient = c.CollisionCoefficient
	p.ApplyCollisionForce = c.ApplyCollisionForce
	return p
}

func (c *Config) LandingParams() landing.Params {
	return landing.Params{
		InnerRadius: c.LandingInnerRadius,
		Spacing:     c.LandingSpacing,
		Attempts:    c.LandingAttempts,
	}
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

func (c *Config) StepBudget() time.Duration {
	return time.Duration(c.StepBudgetMs) * time.Millisecond
}

// ParseConfig validates a JSON configuration against the embedded schema and
// overlays it on the defaults.
func ParseConfig(data []byte) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.CompileString("config.schema.json", configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Validate
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 3. Unmarshal into the defaults so omitted fields keep their value
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return ParseConfig(b)
}
