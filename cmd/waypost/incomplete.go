package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kode4food/waypost/pkg/api"
)

var blockingOnly bool

var incompleteCmd = &cobra.Command{
	Use:   "incomplete",
	Short: "List the session's unfinished flows",
	Long: `List the flows that have not reached completion. With
--blocking-only the listing is limited to flows whose definitions hold
the session open, and the exit status is 1 when any remain, so scripts
can gate session teardown on it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tr := newTracker(newStore())
		ctx := cmd.Context()

		var insts []*api.FlowInstance
		if blockingOnly {
			insts = tr.BlockingIncomplete(ctx, "")
		} else {
			insts = tr.IncompleteFlows(ctx, "")
		}

		if jsonOutput {
			outputJSON(insts)
		} else if len(insts) == 0 {
			fmt.Println("No incomplete flows")
		} else {
			for _, inst := range insts {
				printInstance(inst)
			}
		}

		if blockingOnly && len(insts) > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	incompleteCmd.Flags().BoolVar(&blockingOnly, "blocking-only", false,
		"Only flows that block session end; exit 1 when any remain")
	rootCmd.AddCommand(incompleteCmd)
}
