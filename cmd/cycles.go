package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List every distinct cycle in the graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		for _, field := range a.cfg.Fields() {
			cycles := a.engines[field].AllCycles()
			if jsonOut {
				out := make([]any, 0, len(cycles))
				for _, c := range cycles {
					out = append(out, cycleMap(c))
				}
				printJSON(map[string]any{"field": field, "cycles": out})
				continue
			}
			if len(cycles) == 0 {
				fmt.Printf("field %q: no cycles\n", field)
				continue
			}
			fmt.Printf("field %q:\n", field)
			for _, c := range cycles {
				fmt.Printf("  %s\n", cycleString(c))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cyclesCmd)
}
