package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var schemesCmd = &cobra.Command{
	Use:     "schemes",
	Aliases: []string{"plans", "ls"},
	Short:   "List the power schemes the platform exposes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\tNAME\tID")
		for _, e := range s.Catalog.Entries() {
			mark := ""
			if e.Active {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, e.Name, e.ID)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(schemesCmd)
}
