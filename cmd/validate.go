package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run whole-graph diagnostics over the vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		unhealthy := false
		for _, field := range a.cfg.Fields() {
			e := a.engines[field]
			d := e.ValidateGraph()
			if !d.Healthy() {
				unhealthy = true
			}

			if jsonOut {
				printJSON(diagnosticsMap(field, d))
				continue
			}

			fmt.Printf("field %q: %d notes, %d edges, %d roots, %d leaves, avg fan-out %.2f, max depth %d\n",
				field, d.Stats.Notes, d.Stats.Edges, d.Stats.Roots, d.Stats.Leaves, d.Stats.AvgFanOut, d.Stats.MaxDepth)
			for _, c := range d.Cycles {
				fmt.Printf("  error: cycle %s\n", cycleString(c))
			}
			for _, u := range d.Unresolved {
				fmt.Printf("  error: unresolved reference %q in %s\n", u.Ref, u.Note.Path)
			}
			for _, b := range d.Broken {
				fmt.Printf("  error: broken %s reference between %s and %s\n", b.Direction, b.Parent.Path, b.Child.Path)
			}
			for _, o := range d.Orphans {
				fmt.Printf("  warning: orphaned note %s\n", o.Path)
			}
			if d.Healthy() {
				fmt.Println("  healthy")
			}
		}

		if unhealthy {
			return fmt.Errorf("graph has errors")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
