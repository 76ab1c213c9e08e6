package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/vanir/pkg/geometry"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, [geometry.Dims]float64(geometry.DefaultAnchor), cfg.Engine.Anchor)
	assert.Equal(t, [geometry.Dims]float64(geometry.DefaultEquilibrium), cfg.Engine.Equilibrium)
	assert.Equal(t, 1e-5, cfg.Engine.Epsilon)
	assert.Equal(t, 7, cfg.Engine.NeighborhoodK)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vanir.yaml")
	yaml := `
engine:
  epsilon: 1e-4
  neighborhood_k: 5
topology:
  grid_resolution: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1e-4, cfg.Engine.Epsilon)
	assert.Equal(t, 5, cfg.Engine.NeighborhoodK)
	assert.Equal(t, 5, cfg.Topology.GridResolution)

	// Untouched fields keep defaults.
	assert.Equal(t, 0.3, cfg.Topology.VoidDistance)
	assert.Equal(t, 5, cfg.Clustering.Restarts)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VANIR_EPSILON", "1e-3")
	t.Setenv("VANIR_NEIGHBORHOOD_K", "9")
	t.Setenv("VANIR_BRIDGE_GAP", "0.5")
	t.Setenv("VANIR_GRID_RESOLUTION", "not-a-number") // ignored

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, 1e-3, cfg.Engine.Epsilon)
	assert.Equal(t, 9, cfg.Engine.NeighborhoodK)
	assert.Equal(t, 0.5, cfg.Topology.BridgeGap)
	assert.Equal(t, 4, cfg.Topology.GridResolution)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero epsilon", func(c *Config) { c.Engine.Epsilon = 0 }},
		{"negative epsilon", func(c *Config) { c.Engine.Epsilon = -1e-5 }},
		{"zero k", func(c *Config) { c.Engine.NeighborhoodK = 0 }},
		{"zero restarts", func(c *Config) { c.Clustering.Restarts = 0 }},
		{"zero density radius", func(c *Config) { c.Clustering.DensityRadius = 0 }},
		{"grid resolution too small", func(c *Config) { c.Topology.GridResolution = 1 }},
		{"zero void distance", func(c *Config) { c.Topology.VoidDistance = 0 }},
		{"negative bridge gap", func(c *Config) { c.Topology.BridgeGap = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestKernel(t *testing.T) {
	cfg := Default()
	k := cfg.Kernel()
	assert.Equal(t, geometry.DefaultAnchor, k.Anchor())
	assert.Equal(t, geometry.DefaultEquilibrium, k.Equilibrium())
}
