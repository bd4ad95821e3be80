package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"powerman/internal/config"
	"powerman/internal/eventbus"
	"powerman/internal/observability/pprof"
	"powerman/internal/power"
	"powerman/internal/process"
	"powerman/internal/runtime/supervisor"
	"powerman/internal/scheme"
	"powerman/internal/sdnotify"
	"powerman/internal/storage"
	"powerman/internal/updater"
	logx "powerman/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *ConfigManager
	sup  *Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	prov    power.Provider
	catalog *scheme.Catalog
	upd     *updater.Updater
	pprof   *pprof.Service
	notify  *sdnotify.Notifier
}

// Option overrides a platform dependency. Used by tests.
type Option func(*options)

type options struct {
	provider power.Provider
	sampler  process.Sampler
}

func WithProvider(p power.Provider) Option { return func(o *options) { o.provider = p } }

func WithSampler(s process.Sampler) Option { return func(o *options) { o.sampler = s } }

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if o.sampler == nil {
		o.sampler = process.NewSystemSampler()
	}
	return o
}

func openProvider(ctx context.Context, o options) (power.Provider, error) {
	if o.provider != nil {
		return o.provider, nil
	}
	return power.Open(ctx)
}

// NewApp loads the settings file (writing the template first when it does
// not exist), opens the power provider and resolves both plans. Any failure
// here is a startup error.
func NewApp(ctx context.Context, cfgPath string, opts ...Option) (*App, error) {
	o := buildOptions(opts)

	cfgm := NewConfigManager(cfgPath)
	created, err := cfgm.Setup()
	if err != nil {
		return nil, err
	}
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))
	if created {
		log.Info("settings template written", logx.String("path", cfgm.Path()))
	}

	// Validate everything that can fail before touching the platform.
	sc, storageOn, err := mapStorageConfig(cfg)
	if err != nil {
		logSvc.Close()
		return nil, err
	}
	pprofCfg, err := mapPprofConfig(cfg)
	if err != nil {
		logSvc.Close()
		return nil, err
	}

	prov, err := openProvider(ctx, o)
	if err != nil {
		logSvc.Close()
		return nil, fmt.Errorf("open power provider: %w", err)
	}
	fail := func(err error) (*App, error) {
		_ = prov.Close()
		logSvc.Close()
		return nil, err
	}

	catalog, err := scheme.Load(ctx, prov, log.With(logx.String("comp", "scheme")))
	if err != nil {
		return fail(err)
	}
	pol, err := policyFor(catalog, cfg)
	if err != nil {
		return fail(err)
	}
	if pol.Targets.Same() {
		log.Warn("performance and idle plans are the same scheme; switching has no effect",
			logx.String("scheme", pol.Targets.Idle.String()))
	}
	if pol.Watch.Len() == 0 {
		log.Warn("no applications configured; the idle plan will always be used")
	}

	var store storage.Store
	if storageOn {
		st, err := storage.Open(sc, log)
		if err != nil {
			return fail(err)
		}
		store = st
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	bus := eventbus.New()
	upd := updater.New(mapUpdaterConfig(cfg), catalog, o.sampler, pol, bus, log.With(logx.String("comp", "updater")))

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		prov:    prov,
		catalog: catalog,
		upd:     upd,
		notify:  sdnotify.New(cfg.Systemd.Notify, log.With(logx.String("comp", "sdnotify"))),
	}
	a.pprof = pprof.New(pprofCfg, a.Status, log.With(logx.String("comp", "pprof")))

	log.Info("plans resolved",
		logx.String("performance", pol.Targets.Performance.String()),
		logx.String("idle", pol.Targets.Idle.String()),
		logx.Strings("watch", pol.Watch.Names()),
		logx.Duration("interval", upd.Interval()),
	)
	return a, nil
}

// StatusDocument is served at /status by the debug server.
type StatusDocument struct {
	Time          time.Time           `json:"time"`
	Config        string              `json:"config"`
	Schemes       []scheme.Entry      `json:"schemes"`
	Updater       updater.Snapshot    `json:"updater"`
	Goroutines    supervisor.Snapshot `json:"goroutines"`
	EventsDropped uint64              `json:"events_dropped"`
}

func (a *App) Status() any {
	doc := StatusDocument{
		Time:          time.Now(),
		Config:        a.cfgm.Path(),
		Schemes:       a.catalog.Entries(),
		Updater:       a.upd.Snapshot(),
		EventsDropped: a.bus.Dropped(),
	}
	if a.sup != nil {
		doc.Goroutines = a.sup.Snapshot()
	}
	return doc
}

func (a *App) Updater() *updater.Updater { return a.upd }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = NewSupervisor(ctx, WithLogger(a.log), WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *Config) error {
		if _, err := policyFor(a.catalog, cfg); err != nil {
			return err
		}
		if _, err := mapPprofConfig(cfg); err != nil {
			return err
		}
		if _, _, err := mapStorageConfig(cfg); err != nil {
			return err
		}
		return nil
	})

	// The updater owns the switching loop; an inconsistent directory ends
	// the app with an error.
	a.sup.Go("updater", a.upd.Run)

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Trace("event", logx.String("type", e.Type), logx.Time("time", e.Time))
				if e.Type != updater.EventApplied {
					continue
				}
				res, ok := e.Data.(updater.Result)
				if !ok {
					continue
				}
				a.notify.Status("active: " + res.ToName)
				a.journal(c, res)
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.sup.Go0("sdnotify.watchdog", func(c context.Context) {
		a.notify.Watchdog(c, func() bool { return a.upd.Snapshot().Running })
	})

	if a.pprof.Enabled() {
		a.pprof.Start(a.sup.Context())
	}

	a.notify.Ready(a.statusLine())
	a.log.Info("app started", logx.String("config", a.cfgPath))
	return nil
}

// applyConfig applies a validated config change. The storage section is the
// only one that needs a restart.
func (a *App) applyConfig(ctx context.Context, oldCfg, newCfg *Config) {
	a.notify.Reloading()
	defer a.notify.Ready(a.statusLine())

	sections, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	for _, s := range sections {
		if s == config.SectionStorage {
			a.log.Warn("storage config changed; restart required for changes to take effect")
			break
		}
	}

	a.logs.Apply(mapLogConfig(newCfg))

	// Validated already; a failure here means the scheme list changed under us.
	if pol, err := policyFor(a.catalog, newCfg); err != nil {
		a.log.Warn("invalid plan config; keeping previous", logx.Err(err))
	} else {
		a.upd.SetPolicy(pol)
	}
	a.upd.Reconfigure(mapUpdaterConfig(newCfg))

	if ppc, err := mapPprofConfig(newCfg); err != nil {
		a.log.Warn("invalid pprof config; keeping previous", logx.Err(err))
	} else {
		a.pprof.Reconfigure(ctx, ppc)
	}

	a.notify.SetStatusUpdates(newCfg.Systemd.Notify)

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) journal(ctx context.Context, res updater.Result) {
	if a.store == nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.store.AppendTransition(wctx, transitionFrom(res, a.catalog)); err != nil {
		a.log.Warn("journal append failed", logx.Err(err))
	}
}

func (a *App) statusLine() string {
	s, err := a.catalog.Active()
	if err != nil {
		return "watching"
	}
	return "active: " + s.Name
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		err := a.close()
		a.logs.Close()
		return err
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.notify.Stopping()

	// Helper: run a shutdown step with an upper bound so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", max))

		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				rem := time.Until(dl)
				if rem <= 0 {
					max = 0
				} else if rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			took := time.Since(start)
			if took >= 500*time.Millisecond {
				a.log.Info("stop step end", logx.String("name", name), logx.Duration("took", took))
			} else {
				a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", took))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Err(stepCtx.Err()),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	// The updater goes first, while the app context is still live, so an
	// in-flight cycle can finish and the platform is never left mid-switch.
	step("updater", 5*time.Second, func(c context.Context) error { a.upd.Stop(c); return nil })
	step("pprof", 1*time.Second, func(c context.Context) error { a.pprof.Stop(c); return nil })
	step("supervisor", 2*time.Second, func(c context.Context) error {
		err := a.sup.Stop(c)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err := a.close()
	a.log.Info("stopped")
	a.logs.Close()
	return err
}

func (a *App) close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.prov != nil {
		errs = append(errs, a.prov.Close())
	}
	return errors.Join(errs...)
}
