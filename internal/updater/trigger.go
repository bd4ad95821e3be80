package updater

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	logx "powerman/pkg/logx"
)

// intervalSchedule fires every d. cron.Every rounds to whole seconds, which
// is too coarse for sub-second intervals. The first call to Next after
// construction returns its argument so the first cycle runs at start.
type intervalSchedule struct {
	every     time.Duration
	immediate atomic.Bool
}

func newIntervalSchedule(every time.Duration, immediate bool) *intervalSchedule {
	s := &intervalSchedule{every: every}
	s.immediate.Store(immediate)
	return s
}

func (s *intervalSchedule) Next(t time.Time) time.Time {
	if s.immediate.CompareAndSwap(true, false) {
		return t
	}
	return t.Add(s.every)
}

// cronLogger bridges cron's logr-style logger into logx.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	if !l.log.Enabled(logx.LevelTrace) {
		return
	}
	l.log.Trace("cron: "+msg, kvFields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error("cron: "+msg, append(kvFields(kv), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}

// Start begins periodic triggering. The first cycle runs immediately. ctx
// bounds every cycle started by the trigger.
func (u *Updater) Start(ctx context.Context) {
	u.triggerMu.Lock()
	defer u.triggerMu.Unlock()

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.c != nil {
		return
	}
	// Cycles outlive ctx: Stop lets an in-flight cycle finish before it
	// cancels runCtx.
	u.runCtx, u.cancelRun = context.WithCancel(context.WithoutCancel(ctx))
	u.startLocked(true)
	u.log.Info("updater started", logx.Duration("interval", u.cfg.Interval))
}

// startLocked builds and starts a new cron. Call with mu held.
func (u *Updater) startLocked(immediate bool) {
	cl := cronLogger{log: u.log}
	u.c = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))
	u.entry = u.c.Schedule(newIntervalSchedule(u.cfg.Interval, immediate), cron.FuncJob(u.tick))
	u.c.Start()
}

// tick is the cron job. Each tick runs on its own goroutine.
func (u *Updater) tick() {
	u.mu.Lock()
	parent := u.runCtx
	timeout := u.cfg.CycleTimeout
	u.mu.Unlock()
	if parent == nil || parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	_, _ = u.Cycle(ctx)
}

// Stop stops triggering and waits for an in-flight cycle. When ctx expires
// first the in-flight cycle's context is cancelled.
func (u *Updater) Stop(ctx context.Context) {
	u.triggerMu.Lock()
	defer u.triggerMu.Unlock()

	start := time.Now()
	u.mu.Lock()
	c := u.c
	cancel := u.cancelRun
	u.c = nil
	u.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		u.log.Warn("in-flight cycle did not finish before shutdown deadline")
	}
	if cancel != nil {
		cancel()
	}
	u.log.Info("updater stopped", logx.Duration("took", time.Since(start)))
}

// Run starts the trigger and blocks until ctx is done or a cycle reports a
// fatal error. It returns nil on a clean shutdown.
func (u *Updater) Run(ctx context.Context) error {
	u.Start(ctx)

	var err error
	select {
	case <-ctx.Done():
	case err = <-u.fatal:
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	u.Stop(stopCtx)

	if err != nil {
		return fmt.Errorf("updater: %w", err)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	return nil
}

// Reconfigure applies a new trigger configuration. A running trigger is
// restarted only when the interval changes.
func (u *Updater) Reconfigure(cfg Config) {
	cfg = cfg.withDefaults()
	u.triggerMu.Lock()
	defer u.triggerMu.Unlock()

	u.mu.Lock()
	old := u.cfg
	u.cfg = cfg
	c := u.c
	u.mu.Unlock()

	u.hmu.Lock()
	u.histCap = cfg.HistorySize
	u.hmu.Unlock()

	if c == nil || old.Interval == cfg.Interval {
		return
	}
	<-c.Stop().Done()

	u.mu.Lock()
	u.startLocked(false)
	u.mu.Unlock()
	u.log.Info("updater interval changed", logx.Duration("from", old.Interval), logx.Duration("to", cfg.Interval))
}

func (u *Updater) Interval() time.Duration {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cfg.Interval
}
