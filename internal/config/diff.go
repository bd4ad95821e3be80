package config

import (
	"reflect"
	"strings"

	"powerman/internal/watch"
	logx "powerman/pkg/logx"
)

// Sections reported by SummarizeConfigChange.
const (
	SectionApplications = "applications"
	SectionPlans        = "plans"
	SectionInterval     = "update_interval"
	SectionLogging      = "logging"
	SectionStorage      = "storage"
	SectionPprof        = "pprof"
	SectionSystemd      = "systemd"
)

// SummarizeConfigChange lists the changed sections and log fields describing
// the new values. Tokens are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	if !watch.NewSet(oldCfg.Applications...).Equal(watch.NewSet(newCfg.Applications...)) {
		changed = append(changed, SectionApplications)
		attrs = append(attrs, logx.Strings("applications", newCfg.WatchList()))
	}

	if oldCfg.PerformancePlan.Spec() != newCfg.PerformancePlan.Spec() ||
		oldCfg.IdlePlan.Spec() != newCfg.IdlePlan.Spec() {
		changed = append(changed, SectionPlans)
		attrs = append(attrs,
			logx.String("performance_plan", newCfg.PerformancePlan.String()),
			logx.String("idle_plan", newCfg.IdlePlan.String()),
		)
	}

	if oldCfg.UpdateInterval() != newCfg.UpdateInterval() {
		changed = append(changed, SectionInterval)
		attrs = append(attrs, logx.Duration("update_interval", newCfg.UpdateInterval()))
	}

	if !strings.EqualFold(strings.TrimSpace(oldCfg.Logging.Level), strings.TrimSpace(newCfg.Logging.Level)) ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) {
		changed = append(changed, SectionLogging)
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, SectionStorage)
		driver := "none"
		if newCfg.Storage != nil && strings.TrimSpace(newCfg.Storage.Driver) != "" {
			driver = strings.TrimSpace(newCfg.Storage.Driver)
		}
		attrs = append(attrs, logx.String("storage.driver", driver))
	}

	if oldCfg.Pprof != newCfg.Pprof {
		changed = append(changed, SectionPprof)
		attrs = append(attrs,
			logx.Bool("pprof.enabled", newCfg.Pprof.Enabled),
			logx.String("pprof.addr", strings.TrimSpace(newCfg.Pprof.Addr)),
			logx.Bool("pprof.token_set", strings.TrimSpace(newCfg.Pprof.Token) != ""),
		)
	}

	if oldCfg.Systemd != newCfg.Systemd {
		changed = append(changed, SectionSystemd)
		attrs = append(attrs, logx.Bool("systemd.notify", newCfg.Systemd.Notify))
	}

	return changed, attrs
}
