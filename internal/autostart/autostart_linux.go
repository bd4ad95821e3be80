//go:build linux

package autostart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/coreos/go-systemd/v22/dbus"
)

const unitName = Name + ".service"

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=Power plan switcher
After=graphical-session.target

[Service]
Type=notify
NotifyAccess=main
ExecStart={{.ExecStart}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

// RenderUnit returns the systemd user unit for opts.
func RenderUnit(opts Options) (string, error) {
	var b bytes.Buffer
	err := unitTemplate.Execute(&b, struct{ ExecStart string }{ExecStart: opts.CommandLine()})
	return b.String(), err
}

// unitDir is $XDG_CONFIG_HOME/systemd/user.
func unitDir() (string, error) {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "systemd", "user"), nil
}

type systemdManager struct {
	opts Options
	path string
	conn *dbus.Conn
}

func openManager(ctx context.Context, opts Options) (Manager, error) {
	dir, err := unitDir()
	if err != nil {
		return nil, err
	}
	conn, err := dbus.NewUserConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to systemd user manager: %w", err)
	}
	return &systemdManager{opts: opts, path: filepath.Join(dir, unitName), conn: conn}, nil
}

func (m *systemdManager) Close() error {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	return nil
}

// Enable writes the unit file, then enables it and reloads the manager.
func (m *systemdManager) Enable(ctx context.Context) error {
	unit, err := RenderUnit(m.opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(m.path, []byte(unit), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", m.path, err)
	}
	if err := m.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("reload systemd user manager: %w", err)
	}
	if _, _, err := m.conn.EnableUnitFilesContext(ctx, []string{unitName}, false, true); err != nil {
		return fmt.Errorf("enable %s: %w", unitName, err)
	}
	return nil
}

// Disable disables the unit and removes the unit file.
func (m *systemdManager) Disable(ctx context.Context) error {
	if _, err := m.conn.DisableUnitFilesContext(ctx, []string{unitName}, false); err != nil && !isNoSuchUnit(err) {
		return fmt.Errorf("disable %s: %w", unitName, err)
	}
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := m.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("disabled %s but failed to reload systemd user manager: %w", unitName, err)
	}
	return nil
}

func (m *systemdManager) Status(ctx context.Context) (Status, error) {
	st := Status{Location: m.path}
	if b, err := os.ReadFile(m.path); err == nil {
		for _, line := range strings.Split(string(b), "\n") {
			if v, ok := strings.CutPrefix(line, "ExecStart="); ok {
				st.Command = v
			}
		}
	}
	states, err := m.conn.ListUnitFilesByPatternsContext(ctx, nil, []string{unitName})
	if err != nil {
		return st, fmt.Errorf("list unit files: %w", err)
	}
	for _, s := range states {
		if s.Path == unitName || strings.HasSuffix(s.Path, "/"+unitName) {
			st.Enabled = s.Type == "enabled"
			break
		}
	}
	return st, nil
}

func isNoSuchUnit(err error) bool {
	es := err.Error()
	return strings.Contains(es, "NoSuchUnit") || strings.Contains(es, "not-found") || strings.Contains(es, "No such file")
}
