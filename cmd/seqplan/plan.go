package main

import (
	"context"
	"time"

	"seqplan/internal/assignment"
	"seqplan/internal/bench"
	"seqplan/internal/config"
	"seqplan/internal/coordinator"
	"seqplan/internal/emit"
	"seqplan/internal/logging"
	"seqplan/internal/verify"
)

// plan runs one planning pass over a.cfg.Instance: validate the inputs, plan,
// record the benchmark, emit the plan and, when asked, verify it.
func (a *app) plan(ctx context.Context) (coordinator.Result, error) {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return coordinator.Result{}, err
	}
	start := time.Now()

	mode := coordinator.Sequential
	table, err := assignment.Load(cfg.AssignmentPath())
	switch {
	case err == nil:
		logging.Boot("%s: %d robots from %s", cfg.Instance, table.NumberRobots(), cfg.AssignmentPath())
	case cfg.Parallel:
		// Parallel runs only use the assignment for the robot count.
		logging.BootDebug("no robot count for %s: %v", cfg.Instance, err)
	default:
		return coordinator.Result{}, err
	}
	if cfg.Parallel {
		mode = coordinator.Parallel
	}

	c := coordinator.New(a.newFactory(cfg), cfg.Encoding(), cfg.Instance)
	res, err := c.Plan(ctx, mode, table)
	if err != nil {
		return coordinator.Result{}, err
	}

	if cfg.Benchmark {
		if err := record(cfg, res, time.Since(start)); err != nil {
			return res, err
		}
	}

	if cfg.FileOutput {
		if err := emit.WriteFile(cfg.OutputPath(), res.Plan); err != nil {
			return res, err
		}
	} else if err := emit.Write(a.stdout, res.Plan); err != nil {
		return res, err
	}

	if cfg.Verify {
		report, err := verify.Check(res.Plan)
		if err != nil {
			return res, err
		}
		if err := report.Err(); err != nil {
			return res, err
		}
		logging.Verify("plan verified: %d positions, no conflicts", report.Positions)
	}
	return res, nil
}

func record(cfg *config.Config, res coordinator.Result, elapsed time.Duration) error {
	r := &bench.Recorder{TimeFile: cfg.Bench.TimeFile, LengthFile: cfg.Bench.LengthFile}
	if cfg.Bench.HistoryDB != "" {
		h, err := bench.OpenHistory(cfg.Bench.HistoryDB)
		if err != nil {
			return err
		}
		defer h.Close()
		r.History = h
	}
	return r.Record(bench.Sample{
		Instance:   cfg.Instance,
		Mode:       string(res.Mode),
		Robots:     res.Robots,
		Elapsed:    elapsed,
		PlanLength: res.Horizon,
	})
}
