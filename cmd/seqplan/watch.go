package main

import (
	"context"

	"github.com/spf13/cobra"

	"seqplan/internal/logging"
	"seqplan/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch instance",
		Short: "Replan whenever the instance or its order assignment changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Instance = args[0]
			paths := []string{a.cfg.Instance}
			if !a.cfg.Parallel {
				paths = append(paths, a.cfg.AssignmentPath())
			}

			replan := func(ctx context.Context, _ []string) {
				if _, err := a.plan(ctx); err != nil {
					logging.Get(logging.CategoryWatch).Error("replanning %s failed: %v", a.cfg.Instance, err)
				}
			}
			w, err := watch.New(paths, a.cfg.WatchDebounce(), replan)
			if err != nil {
				return err
			}
			replan(cmd.Context(), nil)
			return w.Run(cmd.Context())
		},
	}
}
