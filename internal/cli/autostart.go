package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"powerman/internal/autostart"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Start the daemon at login",
}

func openAutostart(cmd *cobra.Command) (autostart.Manager, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	path, err := settingsPath()
	if err != nil {
		return nil, err
	}
	m, err := autostart.Open(cmd.Context(), autostart.Options{Executable: exe, ConfigPath: path})
	if errors.Is(err, autostart.ErrUnsupported) {
		return nil, errors.New("autostart is not supported on this platform")
	}
	return m, err
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Register and enable the login item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := openAutostart(cmd)
		if err != nil {
			return err
		}
		defer m.Close()
		if err := m.Enable(cmd.Context()); err != nil {
			return err
		}
		return printAutostart(cmd, m)
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the login item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := openAutostart(cmd)
		if err != nil {
			return err
		}
		defer m.Close()
		if err := m.Disable(cmd.Context()); err != nil {
			return err
		}
		return printAutostart(cmd, m)
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the login item is registered",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := openAutostart(cmd)
		if err != nil {
			return err
		}
		defer m.Close()
		return printAutostart(cmd, m)
	},
}

func printAutostart(cmd *cobra.Command, m autostart.Manager) error {
	st, err := m.Status(cmd.Context())
	if err != nil {
		return err
	}
	state := "disabled"
	if st.Enabled {
		state = "enabled"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "autostart: %s\nlocation:  %s\n", state, st.Location)
	if st.Command != "" {
		fmt.Fprintf(out, "command:   %s\n", st.Command)
	}
	return nil
}

func init() {
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd, autostartStatusCmd)
	rootCmd.AddCommand(autostartCmd)
}
