package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"powerman/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the settings file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the settings file and resolve both plans",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := config.Validate(s.Config); err != nil {
			return err
		}
		t, err := s.Targets()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "performance: %s\n", t.Performance)
		fmt.Fprintf(out, "idle:        %s\n", t.Idle)
		fmt.Fprintf(out, "watch:       %s\n", strings.Join(s.Config.WatchList(), ", "))
		fmt.Fprintf(out, "interval:    %s\n", s.Config.UpdateInterval())
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the settings file in an editor",
	Long: `Open the settings file with $VISUAL or $EDITOR, falling back to the
platform's default handler. A running daemon picks up saved changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		if _, err := config.NewConfigManager(path).Setup(); err != nil {
			return err
		}
		name, args := editorCommand(path)
		if name == "" {
			return errors.New("no editor found; set $EDITOR")
		}
		c := exec.CommandContext(cmd.Context(), name, args...)
		c.Stdin, c.Stdout, c.Stderr = os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr()
		return c.Run()
	},
}

// editorCommand picks $VISUAL, $EDITOR, then the desktop opener.
func editorCommand(path string) (string, []string) {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if f := strings.Fields(os.Getenv(env)); len(f) > 0 {
			return f[0], append(f[1:], path)
		}
	}
	switch runtime.GOOS {
	case "windows":
		return "notepad", []string{path}
	case "darwin":
		return "open", []string{"-t", path}
	default:
		if p, err := exec.LookPath("xdg-open"); err == nil {
			return p, []string{path}
		}
		return "", nil
	}
}

func init() {
	configCmd.AddCommand(configPathCmd, configCheckCmd, configEditCmd)
	rootCmd.AddCommand(configCmd)
}
