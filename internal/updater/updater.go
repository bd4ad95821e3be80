// Package updater runs the periodic switch cycle: sample processes, decide
// the wanted plan and activate it when it differs from the active one.
//
// At most one cycle body runs at a time. The trigger may fire while a cycle
// is still in flight; such ticks are dropped, never queued.
package updater

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"powerman/internal/eventbus"
	"powerman/internal/process"
	"powerman/internal/scheme"
	logx "powerman/pkg/logx"
)

// Updater owns the update lock, the catalog handle, the two targets and the
// watch set. The trigger calls Cycle and nothing else.
type Updater struct {
	cycleMu  sync.Mutex
	inFlight atomic.Bool

	catalog *scheme.Catalog
	sampler process.Sampler
	policy  atomic.Pointer[Policy]
	log     logx.Logger
	bus     eventbus.Bus

	// triggerMu serialises Start, Stop and Reconfigure; it may be held while
	// waiting for a cycle. mu guards the fields below and is never held
	// across a wait.
	triggerMu sync.Mutex
	mu        sync.Mutex
	cfg       Config
	c         *cron.Cron
	entry     cron.EntryID
	runCtx    context.Context
	cancelRun context.CancelFunc
	fatal     chan error
	fatalOnce sync.Once

	applied atomic.Uint64
	noop    atomic.Uint64
	skipped atomic.Uint64
	failed  atomic.Uint64

	hmu     sync.Mutex
	history []Result
	histCap int
	last    *Result

	wmu   sync.Mutex
	warns map[Stage]*rate.Limiter
}

// New builds an updater. bus may be nil.
func New(cfg Config, catalog *scheme.Catalog, sampler process.Sampler, pol Policy, bus eventbus.Bus, log logx.Logger) *Updater {
	if log.IsZero() {
		log = logx.Nop()
	}
	u := &Updater{
		catalog: catalog,
		sampler: sampler,
		log:     log,
		bus:     bus,
		cfg:     cfg.withDefaults(),
		fatal:   make(chan error, 1),
		warns:   map[Stage]*rate.Limiter{},
	}
	u.histCap = u.cfg.HistorySize
	u.policy.Store(&pol)
	return u
}

// Policy returns the policy the next cycle will use.
func (u *Updater) Policy() Policy { return *u.policy.Load() }

// SetPolicy replaces the targets and watch set for subsequent cycles. A cycle
// already in flight finishes with the policy it started with.
func (u *Updater) SetPolicy(p Policy) {
	u.policy.Store(&p)
}

// Cycle runs one update. It returns ErrCycleBusy without touching the
// sampler or the catalog when another cycle holds the lock.
func (u *Updater) Cycle(ctx context.Context) (out Result, err error) {
	started := time.Now()
	if !u.cycleMu.TryLock() {
		res := Result{Outcome: OutcomeSkipped, Stage: StageLock, Started: started}
		u.finish(res, ErrCycleBusy)
		return res, ErrCycleBusy
	}
	u.inFlight.Store(true)
	defer u.cycleMu.Unlock()
	defer u.inFlight.Store(false)

	// run fills res as it goes, so a panic still reports where it happened.
	res := &Result{Started: started, Stage: StageSample}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
			markFailed(res, err)
			u.finish(*res, err)
			out = *res
		}
	}()

	err = u.run(ctx, res)
	u.finish(*res, err)
	return *res, err
}

// markFailed marks res as a failure at its current stage.
func markFailed(res *Result, err error) {
	res.Outcome = OutcomeFailed
	res.Duration = time.Since(res.Started)
	res.Error = err.Error()
}

func (u *Updater) run(ctx context.Context, res *Result) error {
	pol := u.policy.Load()
	fail := func(err error) error {
		markFailed(res, err)
		return err
	}

	names, err := u.sampler.Names(ctx)
	if err != nil {
		return fail(fmt.Errorf("sample processes: %w", err))
	}
	res.Process, res.Watched = pol.Watch.Match(names)

	res.Stage = StageRefresh
	if err := u.catalog.Refresh(ctx); err != nil {
		return fail(err)
	}
	res.From = u.catalog.ActiveID()

	desired := pol.Targets.Pick(res.Watched)
	res.To, res.ToName = desired.ID, desired.Name
	if desired.ID == res.From {
		res.Outcome = OutcomeNoop
		res.Stage = StageDone
		res.Duration = time.Since(res.Started)
		return nil
	}

	res.Stage = StageActivate
	if err := u.catalog.Activate(ctx, desired); err != nil {
		return fail(err)
	}
	res.Stage = StageVerify
	if err := u.catalog.Refresh(ctx); err != nil {
		return fail(err)
	}
	if got := u.catalog.ActiveID(); got != desired.ID {
		u.log.Warn("platform did not report the activated plan",
			logx.String("want", string(desired.ID)), logx.String("got", string(got)))
	}

	res.Outcome = OutcomeApplied
	res.Stage = StageDone
	res.Duration = time.Since(res.Started)
	return nil
}

// finish records res, publishes it and escalates fatal errors.
func (u *Updater) finish(res Result, err error) {
	switch res.Outcome {
	case OutcomeApplied:
		u.applied.Add(1)
		u.log.Info("power plan switched",
			logx.String("from", string(res.From)),
			logx.String("to", res.ToName),
			logx.Bool("watched", res.Watched),
			logx.String("process", res.Process),
			logx.Duration("took", res.Duration),
		)
	case OutcomeNoop:
		u.noop.Add(1)
		if u.log.Enabled(logx.LevelTrace) {
			u.log.Trace("plan already active", logx.String("plan", res.ToName), logx.Bool("watched", res.Watched))
		}
	case OutcomeSkipped:
		u.skipped.Add(1)
		u.log.Debug("cycle skipped; previous cycle still running")
	case OutcomeFailed:
		u.failed.Add(1)
		u.reportFailure(res.Stage, err)
	}

	if res.Outcome != OutcomeSkipped {
		u.remember(res)
	}
	if u.bus != nil {
		u.bus.Publish(eventbus.Event{Type: eventType(res.Outcome), Time: res.Started, Data: res})
	}
	if err != nil && errors.Is(err, scheme.ErrInconsistent) {
		u.escalate(err)
	}
}

func eventType(o Outcome) string {
	switch o {
	case OutcomeApplied:
		return EventApplied
	case OutcomeNoop:
		return EventNoop
	case OutcomeSkipped:
		return EventSkipped
	default:
		return EventFailed
	}
}

func (u *Updater) remember(res Result) {
	u.hmu.Lock()
	defer u.hmu.Unlock()
	r := res
	u.last = &r
	u.history = append(u.history, res)
	if len(u.history) > u.histCap {
		u.history = u.history[len(u.history)-u.histCap:]
	}
}

// reportFailure logs a failed cycle. Identical-stage warnings are limited to
// one per 5s; the rest go to debug.
func (u *Updater) reportFailure(stage Stage, err error) {
	if errors.Is(err, scheme.ErrInconsistent) {
		u.log.Error("scheme directory inconsistent", logx.String("stage", string(stage)), logx.Err(err))
		return
	}
	u.wmu.Lock()
	lim, ok := u.warns[stage]
	if !ok {
		lim = rate.NewLimiter(rate.Every(5*time.Second), 1)
		u.warns[stage] = lim
	}
	u.wmu.Unlock()

	if lim.Allow() {
		u.log.Warn("update cycle failed", logx.String("stage", string(stage)), logx.Err(err))
		return
	}
	u.log.Debug("update cycle failed", logx.String("stage", string(stage)), logx.Err(err))
}

func (u *Updater) escalate(err error) {
	u.fatalOnce.Do(func() {
		u.fatal <- err
	})
}

func (u *Updater) Counters() Counters {
	return Counters{
		Applied: u.applied.Load(),
		Noop:    u.noop.Load(),
		Skipped: u.skipped.Load(),
		Failed:  u.failed.Load(),
	}
}

func (u *Updater) Snapshot() Snapshot {
	pol := u.policy.Load()
	active := u.catalog.ActiveID()

	u.mu.Lock()
	running := u.c != nil
	interval := u.cfg.Interval
	var next time.Time
	if u.c != nil {
		next = u.c.Entry(u.entry).Next
	}
	u.mu.Unlock()

	u.hmu.Lock()
	hist := append([]Result(nil), u.history...)
	var last *Result
	if u.last != nil {
		l := *u.last
		last = &l
	}
	u.hmu.Unlock()

	return Snapshot{
		Running:  running,
		InFlight: u.inFlight.Load(),
		Interval: interval,
		NextRun:  next,
		Performance: scheme.Entry{
			ID: pol.Targets.Performance.ID, Name: pol.Targets.Performance.Name,
			Active: pol.Targets.Performance.ID == active,
		},
		Idle: scheme.Entry{
			ID: pol.Targets.Idle.ID, Name: pol.Targets.Idle.Name,
			Active: pol.Targets.Idle.ID == active,
		},
		Watch:    pol.Watch.Names(),
		Counters: u.Counters(),
		Last:     last,
		History:  hist,
	}
}
