// Package main provides the Vanir CLI entry point.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orneryd/vanir/pkg/config"
	"github.com/orneryd/vanir/pkg/geometry"
	"github.com/orneryd/vanir/pkg/query"
	"github.com/orneryd/vanir/pkg/space"
	"github.com/orneryd/vanir/pkg/territory"
	"github.com/orneryd/vanir/pkg/vanir"
)

var (
	version   = "0.1.0"
	commit    = "dev"
	buildTime = "unknown" // Set via ldflags: -X main.buildTime=$(date +%Y%m%d-%H%M%S)
)

var (
	flagDataDir string
	flagConfig  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vanir",
		Short: "Vanir - Geometric analysis engine for 4D semantic spaces",
		Long: `Vanir analyzes labeled points in a 4-dimensional semantic space.

Every concept is a point whose coordinates encode four bounded attributes,
and all analysis is geometry over those points:
  • Predicate queries (near, far, between, orthogonal, parallel, region)
  • Differential operators (gradient, divergence, curl, Laplacian)
  • Per-point metadata (complexity, stability, dimensionality, ...)
  • Resonance scores (harmonics, entailments, antonyms)
  • Territory mapping and topological feature scanning

All output is JSON on stdout.`,
	}
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir",
		getEnvStr("VANIR_DATA_DIR", "./data"), "Point catalog directory")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config",
		getEnvStr("VANIR_CONFIG", ""), "YAML config file (defaults + env otherwise)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Vanir v%s (%s) built %s\n", version, commit, buildTime)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "import <catalog.json>",
		Short: "Import a domain-catalog JSON file into the point catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all stored points",
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			return eng.Store().Points(), nil
		}),
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "describe <label>",
		Short: "Compute the five metadata descriptors for a point",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			return eng.Describe(args[0])
		}),
	})

	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(resonanceCmd())
	rootCmd.AddCommand(territoriesCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "topology",
		Short: "Scan for voids, boundary points and bridges",
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			return eng.Topology(), nil
		}),
	})
	rootCmd.AddCommand(fieldCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run predicate queries over the point catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "near <label> <max-distance>",
		Short: "Points within a distance of the labeled point",
		Args:  cobra.ExactArgs(2),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			d, err := parseFloat(args[1], "max-distance")
			if err != nil {
				return nil, err
			}
			return eng.Near(args[0], d)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "far <label> <min-distance>",
		Short: "Points at least a distance from the labeled point",
		Args:  cobra.ExactArgs(2),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			d, err := parseFloat(args[1], "min-distance")
			if err != nil {
				return nil, err
			}
			return eng.Far(args[0], d)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "between <a> <b> <tolerance>",
		Short: "Points on the segment between two labeled points",
		Args:  cobra.ExactArgs(3),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			tol, err := parseFloat(args[2], "tolerance")
			if err != nil {
				return nil, err
			}
			return eng.Between(args[0], args[1], tol)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "orthogonal <a> <b> <tolerance>",
		Short: "Points orthogonal to the a→b direction",
		Args:  cobra.ExactArgs(3),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			tol, err := parseFloat(args[2], "tolerance")
			if err != nil {
				return nil, err
			}
			return eng.Orthogonal(args[0], args[1], tol)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "parallel <a> <b> <tolerance>",
		Short: "Point pairs parallel to the a→b direction",
		Args:  cobra.ExactArgs(3),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			tol, err := parseFloat(args[2], "tolerance")
			if err != nil {
				return nil, err
			}
			return eng.Parallel(args[0], args[1], tol)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "region <min,max> <min,max> <min,max> <min,max>",
		Short: "Labels inside an axis-aligned region (one min,max pair per axis)",
		Args:  cobra.ExactArgs(geometry.Dims),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			var region query.Region
			for i, arg := range args {
				parts := strings.SplitN(arg, ",", 2)
				if len(parts) != 2 {
					return nil, fmt.Errorf("axis %d: want min,max, got %q", i, arg)
				}
				lo, err := parseFloat(parts[0], "min")
				if err != nil {
					return nil, err
				}
				hi, err := parseFloat(parts[1], "max")
				if err != nil {
					return nil, err
				}
				region[i] = [2]float64{lo, hi}
			}
			return eng.InRegion(region)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "nearest",
		Short: "Each point's nearest neighbor",
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			return eng.JoinNearest(), nil
		}),
	})
	return cmd
}

func resonanceCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "resonance",
		Short: "Equilibrium-relative resonance scores",
	}
	cmd.PersistentFlags().IntVar(&topK, "top", 10, "Result count for ranking commands (0 = all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "score <a> <b>",
		Short: "Harmonic resonance, entailment and antonymy for one pair",
		Args:  cobra.ExactArgs(2),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			res, err := eng.HarmonicResonance(args[0], args[1])
			if err != nil {
				return nil, err
			}
			ent, err := eng.EntailmentStrength(args[0], args[1])
			if err != nil {
				return nil, err
			}
			ant, err := eng.AntonymyScore(args[0], args[1])
			if err != nil {
				return nil, err
			}
			return map[string]float64{
				"harmonic_resonance":  res,
				"entailment_strength": ent,
				"antonymy_score":      ant,
			}, nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "harmonics <label>",
		Short: "Rank points by harmonic resonance with a point",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			return eng.FindHarmonics(args[0], topK)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "entailments <label>",
		Short: "Rank points by entailment strength from a point",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			return eng.FindEntailments(args[0], topK)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "antonyms <label>",
		Short: "Rank points by antonymy score with a point",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			return eng.FindAntonyms(args[0], topK)
		}),
	})
	return cmd
}

func territoriesCmd() *cobra.Command {
	var (
		strategy string
		clusters int
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "territories",
		Short: "Cluster the space into characterized territories",
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			cfg := eng.Config().Clustering
			s := territory.Strategy{
				Clusters:      clusters,
				Radius:        cfg.DensityRadius,
				MinNeighbors:  cfg.DensityMinNeighbors,
				Restarts:      cfg.Restarts,
				MaxIterations: cfg.MaxIterations,
				Seed:          seed,
			}
			switch strategy {
			case "hierarchical":
				s.Kind = territory.KindHierarchical
			case "density":
				s.Kind = territory.KindDensity
			case "centroid":
				s.Kind = territory.KindCentroid
			default:
				return nil, fmt.Errorf("unknown strategy %q (hierarchical, density, centroid)", strategy)
			}
			return eng.Territories(s)
		}),
	}
	cmd.Flags().StringVar(&strategy, "strategy", "centroid", "Clustering strategy: hierarchical, density, centroid")
	cmd.Flags().IntVar(&clusters, "clusters", 3, "Target cluster count (hierarchical, centroid)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (centroid)")
	return cmd
}

func fieldCmd() *cobra.Command {
	var (
		at    string
		label string
	)

	resolve := func(eng *vanir.Engine) (geometry.Vec4, error) {
		if label != "" {
			return eng.ResolveLocation(label)
		}
		return parseVec4(at)
	}

	cmd := &cobra.Command{
		Use:   "field",
		Short: "Evaluate differential operators over built-in fields",
		Long: `Evaluate differential operators over the built-in fields.

Scalar fields (gradient, laplacian): harmony, anchor-distance
Vector fields (divergence, curl):    flow

The location is either --at d0,d1,d2,d3 or --label <stored point>.`,
	}
	cmd.PersistentFlags().StringVar(&at, "at", "0.5,0.5,0.5,0.5", "Evaluation location as d0,d1,d2,d3")
	cmd.PersistentFlags().StringVar(&label, "label", "", "Evaluate at a stored point instead of --at")

	cmd.AddCommand(&cobra.Command{
		Use:   "gradient <field>",
		Short: "Gradient of a scalar field",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			loc, err := resolve(eng)
			if err != nil {
				return nil, err
			}
			return eng.Gradient(args[0], loc)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "laplacian <field>",
		Short: "Laplacian of a scalar field",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			loc, err := resolve(eng)
			if err != nil {
				return nil, err
			}
			return eng.Laplacian(args[0], loc)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "divergence <field>",
		Short: "Divergence of a vector field",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			loc, err := resolve(eng)
			if err != nil {
				return nil, err
			}
			return eng.Divergence(args[0], loc)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "curl <field>",
		Short: "Six bivector curl components of a vector field",
		Args:  cobra.ExactArgs(1),
		RunE: withEngine(func(eng *vanir.Engine, args []string) (any, error) {
			loc, err := resolve(eng)
			if err != nil {
				return nil, err
			}
			return eng.Curl(args[0], loc)
		}),
	})
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	store, err := space.LoadDomainJSON(data)
	if err != nil {
		return err
	}

	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	n, err := eng.ImportStore(store)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"imported": n, "total": eng.Store().Len()})
}

// withEngine opens the catalog-backed engine, runs fn and prints its result
// as JSON.
func withEngine(fn func(eng *vanir.Engine, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		result, err := fn(eng, args)
		if err != nil {
			return err
		}
		return printJSON(result)
	}
}

func openEngine() (*vanir.Engine, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.LoadFromFile(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return vanir.Open(flagDataDir, cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseFloat(s, name string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

func parseVec4(s string) (geometry.Vec4, error) {
	parts := strings.Split(s, ",")
	if len(parts) != geometry.Dims {
		return geometry.Vec4{}, fmt.Errorf("want %d comma-separated coordinates, got %q", geometry.Dims, s)
	}
	var v geometry.Vec4
	for i, part := range parts {
		f, err := parseFloat(strings.TrimSpace(part), "coordinate")
		if err != nil {
			return geometry.Vec4{}, err
		}
		v[i] = f
	}
	return v, nil
}

func getEnvStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
