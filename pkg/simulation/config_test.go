package simulation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 500.0, cfg.ConnectivityThreshold)
	assert.Equal(t, 96.0, cfg.CollisionDistance)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 90*time.Millisecond, cfg.StepBudget())

	p := cfg.DroneParams()
	assert.Equal(t, 90.0, p.LandingRadius)
	assert.Equal(t, 100.0, p.CollisionCoefficient)
	assert.False(t, p.ApplyCollisionForce)
	assert.Equal(t, 50.0, p.InitialPower)

	lp := cfg.LandingParams()
	assert.Equal(t, 50.0, lp.InnerRadius)
	assert.Equal(t, 40.0, lp.Spacing)
	assert.Equal(t, 10, lp.Attempts)
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty object keeps defaults",
			doc:  `{}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
		{
			name: "overlay",
			doc:  `{"workers": 4, "applyCollisionForce": true, "drone": {"maxSpeed": 80}}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 4, cfg.Workers)
				assert.Equal(t, 80.0, cfg.Drone.MaxSpeed)
				assert.Equal(t, 100.0, cfg.Drone.MaxPower, "unset nested field keeps its default")
				assert.True(t, cfg.DroneParams().ApplyCollisionForce)
			},
		},
		{name: "zero workers", doc: `{"workers": 0}`, wantErr: true},
		{name: "unknown field", doc: `{"speed": 3}`, wantErr: true},
		{name: "unknown drone field", doc: `{"drone": {"landingRadius": 3}}`, wantErr: true},
		{name: "wrong type", doc: `{"worldWidth": "wide"}`, wantErr: true},
		{name: "not json", doc: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"seed": 42, "landingRadius": 120}`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 120.0, cfg.DroneParams().LandingRadius)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
