package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set with -ldflags "-X powerman/internal/cli.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "powerman %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
