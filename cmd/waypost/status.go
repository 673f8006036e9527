package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kode4food/waypost/pkg/api"
)

var statusInstance string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the session's flows from a fresh replay",
	RunE: func(cmd *cobra.Command, args []string) error {
		tr := newTracker(newStore())
		ctx := cmd.Context()

		if statusInstance != "" {
			inst, ok := tr.FlowStatus(
				ctx, api.InstanceID(statusInstance), "",
			)
			if !ok {
				return fmt.Errorf("unknown instance: %s", statusInstance)
			}
			if jsonOutput {
				outputJSON(inst)
				return nil
			}
			printInstance(inst)
			return nil
		}

		insts := tr.SessionFlows(ctx, "")
		if jsonOutput {
			outputJSON(insts)
			return nil
		}
		if len(insts) == 0 {
			fmt.Printf("No flows recorded for session %s\n", cfg.Session)
			return nil
		}

		fmt.Printf("Session %s\n\n", cfg.Session)
		for _, inst := range insts {
			printInstance(inst)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusInstance, "instance", "",
		"Report a single flow instance")
	rootCmd.AddCommand(statusCmd)
}

func printInstance(inst *api.FlowInstance) {
	state := "incomplete"
	if inst.Complete {
		state = "complete"
	}
	fmt.Printf("%-12s %-44s %d/%d steps  %s\n",
		inst.FlowID, inst.InstanceID,
		len(inst.CompletedSteps), len(inst.ExpectedSteps), state)
	if len(inst.PendingSteps) > 0 {
		fmt.Printf("%-12s pending: %s\n", "",
			joinSteps(inst.PendingSteps))
	}
}

func joinSteps(steps []api.StepID) string {
	names := make([]string, 0, len(steps))
	for _, id := range steps {
		names = append(names, string(id))
	}
	return strings.Join(names, ", ")
}
