package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var activateCmd = &cobra.Command{
	Use:   "activate <name|id>",
	Short: "Activate a power scheme by name or id",
	Long: `Activate a power scheme by its friendly name (case-insensitive) or its id.

A running daemon switches back to the plan it wants on its next cycle.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		got, err := s.Activate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "active: %s (%s)\n", got.Name, got.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(activateCmd)
}
