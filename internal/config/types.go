package config

import (
	"strings"
	"time"
)

// Config is the settings file.
//
// Example (JSON):
//
//	{
//	  "applications": ["csgo", "blender"],
//	  "performance_plan": "High performance",
//	  "idle_plan": {"name": "Balanced", "guid": "381b4222-f694-41f0-9685-ff5bb260df2e"},
//	  "update_interval_ms": 2000
//	}
type Config struct {
	// Applications are process names; a trailing ".exe" and case are ignored.
	Applications    []string   `json:"applications"`
	PerformancePlan SchemeSpec `json:"performance_plan"`
	IdlePlan        SchemeSpec `json:"idle_plan"`

	// UpdateIntervalMS is the cycle period in milliseconds. 0 means 2000.
	UpdateIntervalMS int `json:"update_interval_ms,omitempty"`

	Logging LoggingConfig  `json:"logging"`
	Storage *StorageConfig `json:"storage,omitempty"`
	Pprof   PprofConfig    `json:"pprof,omitempty"`
	Systemd SystemdConfig  `json:"systemd,omitempty"`
}

const (
	DefaultUpdateInterval = 2000 * time.Millisecond
	MinUpdateIntervalMS   = 100
)

// UpdateInterval returns the configured interval or the default.
func (c *Config) UpdateInterval() time.Duration {
	if c == nil || c.UpdateIntervalMS <= 0 {
		return DefaultUpdateInterval
	}
	return time.Duration(c.UpdateIntervalMS) * time.Millisecond
}

// WatchList returns Applications with blank entries removed.
func (c *Config) WatchList() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Applications))
	for _, a := range c.Applications {
		if s := strings.TrimSpace(a); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the transition journal.
//
//	"storage": { "driver": "sqlite", "path": "./powerman.db", "busy_timeout": "5s" }
//
// Driver is one of "none" (default), "file" or "sqlite".
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// PprofConfig controls the optional debug HTTP server (pprof plus /status).
//
// Prefer a loopback address. A non-loopback bind needs a token or an explicit
// allow_insecure.
type PprofConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`   // default: "127.0.0.1:6060"
	Prefix        string `json:"prefix,omitempty"` // default: "/debug/pprof/"
	Token         string `json:"token,omitempty"`
	AllowInsecure bool   `json:"allow_insecure,omitempty"`

	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

// SystemdConfig toggles sd_notify readiness and watchdog pings. It only has
// an effect when the process runs under systemd.
type SystemdConfig struct {
	Notify bool `json:"notify"`
}
