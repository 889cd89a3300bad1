package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"seqplan/internal/emit"
	"seqplan/internal/verify"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify plan.lp",
		Short: "Check a plan file for robot collisions",
		Long: `Reads a plan written by seqplan and reports vertex conflicts (two robots on
one cell at one time), swap conflicts (two robots trading cells between
consecutive steps) and repeated init facts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			facts, err := emit.ReadFile(args[0])
			if err != nil {
				return err
			}
			report, err := verify.Check(facts)
			if err != nil {
				return err
			}
			if err := report.Err(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s: %d facts, %d positions, no conflicts\n", args[0], len(facts), report.Positions)
			return nil
		},
	}
}
