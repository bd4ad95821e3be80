package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"powerman/internal/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent plan switches from the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rows, err := s.History(cmd.Context(), historyLimit)
		if errors.Is(err, storage.ErrDisabled) {
			return errors.New("the journal is disabled; set storage.driver in the settings file")
		}
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tFROM\tTO\tREASON\tPROCESS")
		for _, t := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				t.At.Local().Format(time.DateTime), orID(t.FromName, t.From), orID(t.ToName, t.To), t.Reason, t.Process)
		}
		return tw.Flush()
	},
}

func orID(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries")
	rootCmd.AddCommand(historyCmd)
}
