package app

import (
	"fmt"
	"strings"
	"time"

	"powerman/internal/config"
	"powerman/internal/observability/pprof"
	"powerman/internal/plan"
	"powerman/internal/scheme"
	"powerman/internal/storage"
	"powerman/internal/updater"
	"powerman/internal/watch"
	logx "powerman/pkg/logx"
)

func mapLogConfig(cfg *Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapStorageConfig(cfg *Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		if path == "" {
			path = "./powerman-journal.jsonl"
		}
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapPprofConfig(cfg *Config) (pprof.Config, error) {
	pc := cfg.Pprof
	read, err := config.ParseDurationField("pprof.read_timeout", pc.ReadTimeout)
	if err != nil {
		return pprof.Config{}, err
	}
	write, err := config.ParseDurationField("pprof.write_timeout", pc.WriteTimeout)
	if err != nil {
		return pprof.Config{}, err
	}
	idle, err := config.ParseDurationField("pprof.idle_timeout", pc.IdleTimeout)
	if err != nil {
		return pprof.Config{}, err
	}
	return pprof.Config{
		Enabled:       pc.Enabled,
		Addr:          strings.TrimSpace(pc.Addr),
		Prefix:        strings.TrimSpace(pc.Prefix),
		Token:         pc.Token,
		AllowInsecure: pc.AllowInsecure,
		ReadTimeout:   read,
		WriteTimeout:  write,
		IdleTimeout:   idle,
	}, nil
}

func mapUpdaterConfig(cfg *Config) updater.Config {
	return updater.Config{Interval: cfg.UpdateInterval()}
}

// resolveTargets maps both configured plans onto the catalog. Either failing
// is an error naming the role and the available schemes.
func resolveTargets(cat *scheme.Catalog, cfg *Config) (plan.Targets, error) {
	perf, err := cat.ResolveRequired("performance", cfg.PerformancePlan.Spec())
	if err != nil {
		return plan.Targets{}, err
	}
	idle, err := cat.ResolveRequired("idle", cfg.IdlePlan.Spec())
	if err != nil {
		return plan.Targets{}, err
	}
	return plan.Targets{Performance: perf, Idle: idle}, nil
}

func policyFor(cat *scheme.Catalog, cfg *Config) (updater.Policy, error) {
	t, err := resolveTargets(cat, cfg)
	if err != nil {
		return updater.Policy{}, err
	}
	return updater.Policy{Targets: t, Watch: watch.NewSet(cfg.WatchList()...)}, nil
}

// transitionFrom converts an applied cycle into a journal row.
func transitionFrom(res updater.Result, cat *scheme.Catalog) storage.Transition {
	reason := storage.ReasonIdle
	if res.Watched {
		reason = storage.ReasonWatched
	}
	t := storage.Transition{
		At:      res.Started,
		From:    string(res.From),
		To:      string(res.To),
		ToName:  res.ToName,
		Reason:  reason,
		Process: res.Process,
		TookMS:  res.Duration.Milliseconds(),
	}
	if cat != nil {
		if s, ok := cat.Directory().Lookup(res.From); ok {
			t.FromName = s.Name
		}
	}
	return t
}
