package cmd

import (
	"github.com/spf13/cobra"
)

var includeSelf bool

var siblingsCmd = &cobra.Command{
	Use:   "siblings <note>",
	Short: "List notes sharing at least one parent with a note",
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

		siblings := a.primary.Siblings(path, includeSelf)
		if jsonOut {
			printJSON(notesMaps(siblings))
			return nil
		}
		printNotes(siblings)
		return nil
	},
}

var cousinDegree int

var cousinsCmd = &cobra.Command{
	Use:   "cousins <note>",
	Short: "List cousins of a note at a given degree",
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

		cousins := a.primary.Cousins(path, cousinDegree)
		if jsonOut {
			printJSON(notesMaps(cousins))
			return nil
		}
		printNotes(cousins)
		return nil
	},
}

func init() {
	siblingsCmd.Flags().BoolVar(&includeSelf, "include-self", false, "Include the note itself in the result")
	cousinsCmd.Flags().IntVar(&cousinDegree, "degree", 1, "Cousin degree (1 = first cousins)")
	rootCmd.AddCommand(siblingsCmd)
	rootCmd.AddCommand(cousinsCmd)
}
