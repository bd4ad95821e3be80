// Package autostart registers the daemon to start at login: a systemd user
// unit on Linux, the per-user Run registry key on Windows.
package autostart

import (
	"context"
	"errors"
	"strings"
)

var ErrUnsupported = errors.New("autostart: unsupported platform")

// Name is the registration name: the unit base name and the Run value.
const Name = "powerman"

// Status describes the current registration.
type Status struct {
	Enabled  bool   `json:"enabled"`
	Location string `json:"location"`
	Command  string `json:"command,omitempty"`
}

type Manager interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
	Close() error
}

// Options is what the registration starts.
type Options struct {
	Executable string
	ConfigPath string
}

func (o Options) validate() error {
	if strings.TrimSpace(o.Executable) == "" {
		return errors.New("autostart: executable path is required")
	}
	return nil
}

// args returns the daemon command line after the executable.
func (o Options) args() []string {
	args := []string{"run"}
	if p := strings.TrimSpace(o.ConfigPath); p != "" {
		args = append(args, "--config", p)
	}
	return args
}

// CommandLine renders the executable and args, wrapping elements that
// contain blanks in double quotes. Backslashes are kept as-is.
func (o Options) CommandLine() string {
	parts := append([]string{o.Executable}, o.args()...)
	for i, p := range parts {
		if strings.ContainsAny(p, " \t") {
			parts[i] = `"` + p + `"`
		}
	}
	return strings.Join(parts, " ")
}

// Open returns the platform manager.
func Open(ctx context.Context, opts Options) (Manager, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return openManager(ctx, opts)
}
