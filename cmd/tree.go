package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	treeDirection string
	treeDepth     int
)

var treeCmd = &cobra.Command{
	Use:   "tree <note>",
	Short: "Materialize the ancestor or descendant tree of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		path, err := a.resolveArg(args[0])
		if err != nil {
			return err
		}

		var build = a.primary.AncestorTree
		switch treeDirection {
		case "ancestors", "up":
		case "descendants", "down":
			build = a.primary.DescendantTree
		default:
			return fmt.Errorf("unknown direction %q (want ancestors or descendants)", treeDirection)
		}

		tree := build(path, treeDepth, nil, nil)
		if jsonOut {
			printJSON(treeMap(tree))
			return nil
		}
		printTree(tree)
		return nil
	},
}

func init() {
	treeCmd.Flags().StringVarP(&treeDirection, "direction", "d", "ancestors", "ancestors or descendants")
	treeCmd.Flags().IntVar(&treeDepth, "depth", 0, "Maximum depth (0 uses the configured default)")
	rootCmd.AddCommand(treeCmd)
}
