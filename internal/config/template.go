package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	logx "powerman/pkg/logx"
)

// EnvPath overrides the default settings location.
const EnvPath = "POWERMAN_CONFIG"

// DefaultPath returns $POWERMAN_CONFIG, or settings.json under the user's
// config directory.
func DefaultPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, "powerman", "settings.json"), nil
}

// Template is written on first run.
func Template() *Config {
	return &Config{
		Applications:     []string{"csgo"},
		PerformancePlan:  SchemeSpec{Name: "High performance"},
		IdlePlan:         SchemeSpec{Name: "Balanced"},
		UpdateIntervalMS: 2000,
		Logging:          LoggingConfig{Level: "info", Console: true},
	}
}

// Setup makes sure a settings file exists, writing Template when it does
// not. It reports whether the file was created.
func (m *ConfigManager) Setup() (bool, error) {
	if _, err := os.Stat(m.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	b, err := encodeFor(m.path, Template())
	if err != nil {
		return false, fmt.Errorf("render template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return false, err
	}
	// O_EXCL so a file created concurrently is never clobbered.
	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, err
	}
	if !m.log.IsZero() {
		m.log.Info("settings template written", logx.String("path", m.path))
	}
	return true, nil
}
