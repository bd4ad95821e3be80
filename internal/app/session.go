package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"powerman/internal/plan"
	"powerman/internal/power"
	"powerman/internal/process"
	"powerman/internal/scheme"
	"powerman/internal/storage"
	"powerman/internal/watch"
	logx "powerman/pkg/logx"
)

// Session is the settings file plus an open scheme catalog, for one-shot
// commands that do not run the switching loop.
type Session struct {
	Config  *Config
	Catalog *scheme.Catalog
	Log     logx.Logger

	prov    power.Provider
	sampler process.Sampler
	store   storage.Store
}

// OpenSession loads the settings file and the scheme catalog. It does not
// resolve the plans, so commands like listing schemes work with a broken
// settings file's plan section.
func OpenSession(ctx context.Context, cfgPath string, log logx.Logger, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	if log.IsZero() {
		log = logx.Nop()
	}

	cfgm := NewConfigManager(cfgPath)
	cfg, err := cfgm.Parse()
	if err != nil {
		return nil, err
	}

	prov, err := openProvider(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("open power provider: %w", err)
	}
	catalog, err := scheme.Load(ctx, prov, log)
	if err != nil {
		_ = prov.Close()
		return nil, err
	}
	return &Session{Config: cfg, Catalog: catalog, Log: log, prov: prov, sampler: o.sampler}, nil
}

// Targets resolves the configured performance and idle plans.
func (s *Session) Targets() (plan.Targets, error) {
	return resolveTargets(s.Catalog, s.Config)
}

// Decision is what one switching cycle would do right now.
type Decision struct {
	Watched bool
	Process string
	Active  scheme.PowerScheme
	Desired scheme.PowerScheme
}

func (d Decision) Switch() bool { return !d.Active.Equal(d.Desired) }

// Decide samples the process list and reports the desired plan next to the
// active one without switching.
func (s *Session) Decide(ctx context.Context) (Decision, error) {
	t, err := s.Targets()
	if err != nil {
		return Decision{}, err
	}
	names, err := s.sampler.Names(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("sample processes: %w", err)
	}
	proc, watched := watch.NewSet(s.Config.WatchList()...).Match(names)

	if err := s.Catalog.Refresh(ctx); err != nil {
		return Decision{}, err
	}
	active, err := s.Catalog.Active()
	if err != nil {
		return Decision{}, err
	}
	return Decision{Watched: watched, Process: proc, Active: active, Desired: t.Pick(watched)}, nil
}

// Activate switches to the scheme named or identified by arg and records a
// manual transition when a journal is configured.
func (s *Session) Activate(ctx context.Context, arg string) (scheme.PowerScheme, error) {
	target, ok := s.Catalog.Lookup(arg)
	if !ok {
		return scheme.PowerScheme{}, fmt.Errorf("scheme %q: %w", arg, scheme.ErrNotFound)
	}
	from := s.Catalog.ActiveID()
	fromName := ""
	if prev, err := s.Catalog.Active(); err == nil {
		fromName = prev.Name
	}

	start := time.Now()
	if err := s.Catalog.Activate(ctx, target); err != nil {
		return scheme.PowerScheme{}, err
	}
	if err := s.Catalog.Refresh(ctx); err != nil {
		return scheme.PowerScheme{}, err
	}
	if got := s.Catalog.ActiveID(); got != target.ID {
		return scheme.PowerScheme{}, fmt.Errorf("activate %s: platform reports %s active", target, got)
	}
	if from == target.ID {
		return target, nil
	}

	st, err := s.openStore()
	if err != nil || st == nil {
		return target, err
	}
	err = st.AppendTransition(ctx, storage.Transition{
		At:       start,
		From:     string(from),
		FromName: fromName,
		To:       string(target.ID),
		ToName:   target.Name,
		Reason:   storage.ReasonManual,
		TookMS:   time.Since(start).Milliseconds(),
	})
	return target, err
}

// History returns up to limit journal entries, newest first.
func (s *Session) History(ctx context.Context, limit int) ([]storage.Transition, error) {
	st, err := s.openStore()
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, storage.ErrDisabled
	}
	return st.RecentTransitions(ctx, limit)
}

func (s *Session) openStore() (storage.Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	sc, enabled, err := mapStorageConfig(s.Config)
	if err != nil || !enabled {
		return nil, err
	}
	st, err := storage.Open(sc, s.Log)
	if err != nil {
		return nil, err
	}
	s.store = st
	return st, nil
}

func (s *Session) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	errs = append(errs, s.prov.Close())
	return errors.Join(errs...)
}
