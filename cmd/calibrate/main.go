// Package main suggests a neighbor radius for which the initial lattice sits
// at rest density.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pthm-cable/phasefluid/components"
	"github.com/pthm-cable/phasefluid/config"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	material := flag.String("material", "water", "Material to calibrate: air or water")
	spacing := flag.Float64("spacing", 0, "Lattice spacing (0 = derive from bounds and particle_count)")
	write := flag.String("write", "", "Write the config with the suggested neighbor_radius to this path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var m components.Material
	switch *material {
	case "air":
		m = components.Material{Phase: components.PhaseAir, Mass: cfg.Materials.Air.Mass, RestDensity: cfg.Materials.Air.RestDensity}
	case "water":
		m = components.Material{Phase: components.PhaseWater, Mass: cfg.Materials.Water.Mass, RestDensity: cfg.Materials.Water.RestDensity}
	default:
		log.Fatalf("unknown material %q", *material)
	}

	s := *spacing
	if s <= 0 {
		s = LayoutSpacing(cfg.Simulation.Bounds, cfg.Simulation.ParticleCount)
	}

	res, err := Calibrate(m, s)
	if err != nil {
		log.Fatalf("calibration failed: %v", err)
	}

	fmt.Printf("material:         %s (mass %.6g, rest density %.6g)\n", m.Phase, m.Mass, m.RestDensity)
	fmt.Printf("spacing:          %.6g\n", s)
	fmt.Printf("neighbor_radius:  %.6g (%.3f spacings)\n", res.Radius, res.Radius/s)
	fmt.Printf("lattice density:  %.6g (error %+.3e)\n", res.Density, res.Error)
	fmt.Printf("evaluations:      %d\n", res.Evaluations)
	fmt.Printf("current radius:   %.6g (density %.6g)\n",
		cfg.Simulation.NeighborRadius, LatticeDensity(cfg.Simulation.NeighborRadius, s, m.Mass))

	if *write != "" {
		cfg.Simulation.NeighborRadius = res.Radius
		if err := cfg.WriteYAML(*write); err != nil {
			log.Fatalf("failed to write config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "config saved to: %s\n", *write)
	}
}
