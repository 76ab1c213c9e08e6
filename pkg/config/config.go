// Package config handles Vanir configuration via YAML files and environment
// variables.
//
// Configuration Precedence (highest to lowest):
//  1. Environment variables (VANIR_*)
//  2. Config file (vanir.yaml)
//  3. Built-in defaults
//
// Example Usage:
//
//	cfg, err := config.LoadFromFile("vanir.yaml")
//	if err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//	cfg.ApplyEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// Environment Variables (all use VANIR_ prefix):
//
// Engine:
//   - VANIR_EPSILON=1e-5
//   - VANIR_NEIGHBORHOOD_K=7
//
// Clustering:
//   - VANIR_CLUSTER_RESTARTS=5
//   - VANIR_CLUSTER_MAX_ITERATIONS=100
//   - VANIR_DENSITY_RADIUS=0.25
//   - VANIR_DENSITY_MIN_NEIGHBORS=3
//
// Topology:
//   - VANIR_GRID_RESOLUTION=4
//   - VANIR_VOID_DISTANCE=0.3
//   - VANIR_BOUNDARY_VARIANCE=0.035
//   - VANIR_BOUNDARY_NEIGHBOR_DISTANCE=0.35
//   - VANIR_BRIDGE_GAP=0.3
//
// The anchor and equilibrium reference points are configurable only via file
// or code, not environment variables: they define the coordinate system, and
// varying them per invocation makes runs silently incomparable.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/vanir/pkg/geometry"
)

// Config holds all Vanir configuration.
//
// Configuration is organized into logical sections:
//   - Engine: reference points, finite-difference step, neighborhood size
//   - Clustering: territory mapper strategy defaults
//   - Topology: void/boundary/bridge detection thresholds
//
// Use Default() for built-in defaults, LoadFromFile() for YAML, ApplyEnv()
// for environment overrides.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Topology   TopologyConfig   `yaml:"topology"`
}

// EngineConfig holds the process-wide analysis constants.
type EngineConfig struct {
	// Anchor is the point of maximal value on all dimensions. Defines the
	// harmony scalar field.
	Anchor [geometry.Dims]float64 `yaml:"anchor"`

	// Equilibrium is the fixed interior reference point for reflection,
	// resonance and entailment. Treated as an opaque constant.
	Equilibrium [geometry.Dims]float64 `yaml:"equilibrium"`

	// Epsilon is the central-difference step for differential operators.
	Epsilon float64 `yaml:"epsilon"`

	// NeighborhoodK is the default k-nearest-neighbor count for metadata
	// estimation. Capped at store size − 1 at use time.
	NeighborhoodK int `yaml:"neighborhood_k"`
}

// ClusteringConfig holds territory-mapper strategy defaults. Every field can
// be overridden per clustering run.
type ClusteringConfig struct {
	// Restarts is the number of independent centroid initializations for
	// the centroid strategy; the lowest-inertia result is kept.
	Restarts int `yaml:"restarts"`

	// MaxIterations bounds Lloyd iteration per restart.
	MaxIterations int `yaml:"max_iterations"`

	// DensityRadius is the ε neighborhood radius for the density strategy.
	DensityRadius float64 `yaml:"density_radius"`

	// DensityMinNeighbors is the minimum neighbor count for a dense point.
	DensityMinNeighbors int `yaml:"density_min_neighbors"`
}

// TopologyConfig holds the feature-scan thresholds.
//
// These are heuristic diagnostics tuned for unit-hypercube point sets; the
// values have no principled derivation and should not be assumed to
// generalize to other scales.
type TopologyConfig struct {
	// GridResolution is the number of samples per axis for void scanning
	// (GridResolution^4 grid points total).
	GridResolution int `yaml:"grid_resolution"`

	// VoidDistance flags a grid point as a void center when its distance to
	// the nearest real point exceeds this.
	VoidDistance float64 `yaml:"void_distance"`

	// BoundaryVariance is the minimum k-NN coordinate variance for a
	// boundary point.
	BoundaryVariance float64 `yaml:"boundary_variance"`

	// BoundaryNeighborDistance is the minimum 5th-nearest-neighbor distance
	// for a boundary point.
	BoundaryNeighborDistance float64 `yaml:"boundary_neighbor_distance"`

	// BridgeGap is the minimum consecutive-distance gap that marks a point
	// as bridging a near group and a far group.
	BridgeGap float64 `yaml:"bridge_gap"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Anchor:        geometry.DefaultAnchor,
			Equilibrium:   geometry.DefaultEquilibrium,
			Epsilon:       1e-5,
			NeighborhoodK: 7,
		},
		Clustering: ClusteringConfig{
			Restarts:            5,
			MaxIterations:       100,
			DensityRadius:       0.25,
			DensityMinNeighbors: 3,
		},
		Topology: TopologyConfig{
			GridResolution:           4,
			VoidDistance:             0.3,
			BoundaryVariance:         0.035,
			BoundaryNeighborDistance: 0.35,
			BridgeGap:                0.3,
		},
	}
}

// LoadFromFile loads configuration from a YAML file, starting from defaults.
// Missing fields keep their default values.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from VANIR_* environment variables.
// Unset or malformed variables are ignored (defaults win over garbage).
func (c *Config) ApplyEnv() {
	c.Engine.Epsilon = envFloat("VANIR_EPSILON", c.Engine.Epsilon)
	c.Engine.NeighborhoodK = envInt("VANIR_NEIGHBORHOOD_K", c.Engine.NeighborhoodK)

	c.Clustering.Restarts = envInt("VANIR_CLUSTER_RESTARTS", c.Clustering.Restarts)
	c.Clustering.MaxIterations = envInt("VANIR_CLUSTER_MAX_ITERATIONS", c.Clustering.MaxIterations)
	c.Clustering.DensityRadius = envFloat("VANIR_DENSITY_RADIUS", c.Clustering.DensityRadius)
	c.Clustering.DensityMinNeighbors = envInt("VANIR_DENSITY_MIN_NEIGHBORS", c.Clustering.DensityMinNeighbors)

	c.Topology.GridResolution = envInt("VANIR_GRID_RESOLUTION", c.Topology.GridResolution)
	c.Topology.VoidDistance = envFloat("VANIR_VOID_DISTANCE", c.Topology.VoidDistance)
	c.Topology.BoundaryVariance = envFloat("VANIR_BOUNDARY_VARIANCE", c.Topology.BoundaryVariance)
	c.Topology.BoundaryNeighborDistance = envFloat("VANIR_BOUNDARY_NEIGHBOR_DISTANCE", c.Topology.BoundaryNeighborDistance)
	c.Topology.BridgeGap = envFloat("VANIR_BRIDGE_GAP", c.Topology.BridgeGap)
}

// Validate checks parameter sanity. Call after loading and applying
// overrides, before handing the config to the engine.
func (c *Config) Validate() error {
	if c.Engine.Epsilon <= 0 {
		return fmt.Errorf("config: epsilon must be positive, got %g", c.Engine.Epsilon)
	}
	if c.Engine.NeighborhoodK < 1 {
		return fmt.Errorf("config: neighborhood_k must be >= 1, got %d", c.Engine.NeighborhoodK)
	}
	if c.Clustering.Restarts < 1 {
		return fmt.Errorf("config: restarts must be >= 1, got %d", c.Clustering.Restarts)
	}
	if c.Clustering.MaxIterations < 1 {
		return fmt.Errorf("config: max_iterations must be >= 1, got %d", c.Clustering.MaxIterations)
	}
	if c.Clustering.DensityRadius <= 0 {
		return fmt.Errorf("config: density_radius must be positive, got %g", c.Clustering.DensityRadius)
	}
	if c.Clustering.DensityMinNeighbors < 1 {
		return fmt.Errorf("config: density_min_neighbors must be >= 1, got %d", c.Clustering.DensityMinNeighbors)
	}
	if c.Topology.GridResolution < 2 {
		return fmt.Errorf("config: grid_resolution must be >= 2, got %d", c.Topology.GridResolution)
	}
	for name, v := range map[string]float64{
		"void_distance":              c.Topology.VoidDistance,
		"boundary_variance":          c.Topology.BoundaryVariance,
		"boundary_neighbor_distance": c.Topology.BoundaryNeighborDistance,
		"bridge_gap":                 c.Topology.BridgeGap,
	} {
		if v <= 0 {
			return fmt.Errorf("config: %s must be positive, got %g", name, v)
		}
	}
	return nil
}

// Kernel builds the metric kernel for the configured reference points.
func (c *Config) Kernel() *geometry.Kernel {
	return geometry.NewKernel(c.Engine.Anchor, c.Engine.Equilibrium)
}

func envFloat(key string, defaultVal float64) float64 {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return defaultVal
}
