// Command seqplan plans a robot fleet with clingo, one robot at a time.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"seqplan/internal/config"
	"seqplan/internal/logging"
	"seqplan/internal/solver"
	"seqplan/internal/solver/clingo"
)

// app carries what the commands share: the loaded configuration, where plan
// output goes, and how solver sessions are opened.
type app struct {
	cfg        *config.Config
	configPath string
	stdout     io.Writer
	newFactory func(cfg *config.Config) solver.Factory

	// flags
	debug       bool
	parallel    bool
	fileOutput  bool
	benchmark   bool
	verifyPlan  bool
	assignments string
}

func clingoFactory(cfg *config.Config) solver.Factory {
	return clingo.NewFactory(clingo.Options{
		Binary:    cfg.Solver.Binary,
		Args:      cfg.Solver.Args,
		Constants: cfg.Solver.Constants,
	})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seqplan [flags] instance",
		Short: "Sequential multi-robot planning with clingo",
		Long: `seqplan plans every robot of an instance in turn. Each robot is solved with
the sequential encoding, seeing its assigned orders and the actions of the
robots planned before it. With --parallel the whole fleet is solved at once
with the parallel encoding instead.

The plan is printed to stdout, or written next to the instance with
--file-output (instance.lp -> instance_plan.lp, instance_plan_p.lp).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.applyFlags(cfg)
			if err := logging.Initialize(cfg.LoggerConfig()); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			logging.BootDebug("config %q, solver %s, mode %s", a.configPath, cfg.Solver.Binary, cfg.Mode())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Instance = args[0]
			_, err := a.plan(cmd.Context())
			return err
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.BoolVarP(&a.debug, "debug", "d", false, "Additional debugging output")
	flags.BoolVarP(&a.parallel, "parallel", "p", false, "Plan all robots at once (for comparison with sequential mode)")
	flags.BoolVarP(&a.fileOutput, "file-output", "f", false, "Write the plan to instance_plan.lp (instance_plan_p.lp in parallel mode)")
	flags.BoolVarP(&a.benchmark, "benchmark", "b", false, "Append elapsed seconds to time.txt and the plan length to length.txt")
	flags.StringVarP(&a.assignments, "order-assignment", "o", "", "Order assignment file (default: instance.lp -> instanceo.lp)")
	flags.BoolVar(&a.verifyPlan, "verify", false, "Check the assembled plan for robot collisions")

	rootCmd.AddCommand(newVerifyCmd(a), newWatchCmd(a))
	return rootCmd
}

// applyFlags overlays command-line flags on the file configuration.
func (a *app) applyFlags(cfg *config.Config) {
	cfg.Debug = cfg.Debug || a.debug
	cfg.Parallel = cfg.Parallel || a.parallel
	cfg.FileOutput = cfg.FileOutput || a.fileOutput
	cfg.Benchmark = cfg.Benchmark || a.benchmark
	cfg.Verify = cfg.Verify || a.verifyPlan
	if a.assignments != "" {
		cfg.AssignmentFile = a.assignments
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, newFactory: clingoFactory}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
