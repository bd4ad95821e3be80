// Package cli is the powerman command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"powerman/internal/app"
	"powerman/internal/config"
	logx "powerman/pkg/logx"
)

var (
	cfgPath  string
	logLevel string

	// appOptions are passed to every app and session constructor.
	appOptions []app.Option
)

var rootCmd = &cobra.Command{
	Use:   "powerman",
	Short: "Switch the power plan while selected applications run",
	Long: `powerman watches the process list and keeps the performance power plan
active while any of the configured applications is running, and the idle plan
otherwise.

Without a subcommand it runs the daemon, same as "powerman run".`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDaemon,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "settings file (default: $"+config.EnvPath+" or the user config dir)")
	pf.StringVar(&logLevel, "log-level", "warn", "log level for one-shot commands")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "powerman:", err)
		os.Exit(1)
	}
}

// settingsPath resolves --config, the environment and the default location.
// The result is absolute so it survives a working directory change.
func settingsPath() (string, error) {
	p := strings.TrimSpace(cfgPath)
	if p == "" {
		var err error
		if p, err = config.DefaultPath(); err != nil {
			return "", err
		}
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return abs, nil
}

func cliLogger() logx.Logger {
	return logx.NewConsole(logLevel).With(logx.String("comp", "cli"))
}

// openSession writes the template when needed and loads the catalog.
func openSession(cmd *cobra.Command) (*app.Session, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, err
	}
	if created, err := config.NewConfigManager(path).Setup(); err != nil {
		return nil, err
	} else if created {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote settings template to %s\n", path)
	}
	return app.OpenSession(cmd.Context(), path, cliLogger(), appOptions...)
}
