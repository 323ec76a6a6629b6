package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"civsim-server/internal/shared/logger"
	"civsim-server/internal/simulation"

	"github.com/spf13/cobra"
)

type runOptions struct {
	stars    int
	civs     int
	steps    int
	size     float64
	seed     int64
	scenario string
	gridCell float64
	asJSON   bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and print its summary",
		Long: `Runs one simulation in memory. Flags left unset fall back to the
SIM_* environment defaults. A seed of 0 picks a time-derived seed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.stars, "stars", 0, "number of stars")
	flags.IntVar(&opts.civs, "civs", 0, "number of random civilizations")
	flags.IntVar(&opts.steps, "steps", 0, "number of ticks to run")
	flags.Float64Var(&opts.size, "size", 0, "universe edge length")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed")
	flags.StringVar(&opts.scenario, "scenario", string(simulation.ScenarioRandom), "scenario: random or classic")
	flags.Float64Var(&opts.gridCell, "grid-cell", 0, "spatial grid cell size, 0 for a linear scan")
	flags.BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")

	return cmd
}

func runSimulation(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, cfg.Logging)
	svc := simulation.NewService(cfg.Simulation, nil, nil, log)

	run, err := svc.Run(cmd.Context(), simulation.RunConfig{
		StarCount:         opts.stars,
		CivilizationCount: opts.civs,
		Steps:             opts.steps,
		UniverseSize:      opts.size,
		Seed:              opts.seed,
		Scenario:          simulation.Scenario(opts.scenario),
		GridCellSize:      opts.gridCell,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(run.Summary)
	}
	return printSummary(out, run.Summary)
}

func printSummary(out io.Writer, s simulation.Summary) error {
	fmt.Fprintf(out, "Simulation %s\n", s.ID)
	fmt.Fprintf(out, "Seed %d, scenario %s\n", s.Config.Seed, s.Config.Scenario)
	fmt.Fprintf(out, "Final date: %d\n", s.FinalDate)
	fmt.Fprintf(out, "Inhabited stars: %d of %d (%.2f%%)\n", s.InhabitedStars, s.StarCount, s.InhabitedPercent)
	fmt.Fprintf(out, "Active civilizations: %d\n\n", s.ActiveCivilizations)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMOTIVATION\tTYPE\tSTARS\tCOLONIES\tPOPULATION\tLARGEST\tTECH\tSTATUS")
	for _, c := range s.Civilizations {
		status := "active"
		if c.Extinct {
			status = "extinct"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s/%s\t%d\t%d\t%.3g\t%.3g\t%.2f\t%s\n",
			c.ID,
			c.Name,
			c.Motivation,
			c.BiologicalType,
			c.OrganizationType,
			c.StarsVisited,
			c.ActiveColonies,
			c.Population,
			c.LargestColony,
			c.TechLevel,
			status,
		)
	}
	return tw.Flush()
}
