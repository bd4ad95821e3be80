package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active plan and the plan the daemon would pick now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		d, err := s.Decide(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "active:  %s\n", d.Active)
		fmt.Fprintf(out, "desired: %s\n", d.Desired)
		if d.Watched {
			fmt.Fprintf(out, "reason:  %s is running\n", d.Process)
		} else {
			fmt.Fprintln(out, "reason:  no watched application is running")
		}
		if d.Switch() {
			fmt.Fprintln(out, "the next cycle would switch plans")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
