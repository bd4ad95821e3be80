package updater

import (
	"errors"
	"time"

	"powerman/internal/plan"
	"powerman/internal/scheme"
	"powerman/internal/watch"
)

// Event types published on the bus, one per finished (or skipped) cycle.
const (
	EventApplied = "cycle.applied"
	EventNoop    = "cycle.noop"
	EventSkipped = "cycle.skipped"
	EventFailed  = "cycle.failed"
)

var (
	// ErrCycleBusy is returned by Cycle when another cycle holds the lock.
	// It marks a skipped tick, not a failure.
	ErrCycleBusy = errors.New("update cycle already running")
	ErrStopped   = errors.New("updater stopped")
)

const (
	DefaultInterval = 2000 * time.Millisecond
	MinInterval     = 100 * time.Millisecond
)

type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeNoop    Outcome = "noop"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Stage names the step a cycle was in when it ended.
type Stage string

const (
	StageLock     Stage = "lock"
	StageSample   Stage = "sample"
	StageRefresh  Stage = "refresh"
	StageActivate Stage = "activate"
	StageVerify   Stage = "verify"
	StageDone     Stage = "done"
)

// Policy is what a cycle decides with. It is swapped atomically on reload.
type Policy struct {
	Targets plan.Targets
	Watch   watch.Set
}

// Config controls the periodic trigger.
type Config struct {
	Interval time.Duration
	// CycleTimeout bounds the platform calls of one cycle. 0 picks a default
	// derived from Interval.
	CycleTimeout time.Duration
	HistorySize  int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Interval < MinInterval {
		c.Interval = MinInterval
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = 10 * c.Interval
		if c.CycleTimeout < 10*time.Second {
			c.CycleTimeout = 10 * time.Second
		}
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 64
	}
	return c
}

// Result describes one cycle. It is also the Data of every bus event.
type Result struct {
	Outcome  Outcome       `json:"outcome"`
	Stage    Stage         `json:"stage"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Watched  bool          `json:"watched"`
	Process  string        `json:"process,omitempty"`
	From     scheme.ID     `json:"from,omitempty"`
	To       scheme.ID     `json:"to,omitempty"`
	ToName   string        `json:"to_name,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Counters are cumulative cycle counts since New.
type Counters struct {
	Applied uint64 `json:"applied"`
	Noop    uint64 `json:"noop"`
	Skipped uint64 `json:"skipped"`
	Failed  uint64 `json:"failed"`
}

// Snapshot is a point-in-time view for status reporting.
type Snapshot struct {
	Running     bool          `json:"running"`
	InFlight    bool          `json:"in_flight"`
	Interval    time.Duration `json:"interval"`
	NextRun     time.Time     `json:"next_run,omitempty"`
	Performance scheme.Entry  `json:"performance"`
	Idle        scheme.Entry  `json:"idle"`
	Watch       []string      `json:"watch"`
	Counters    Counters      `json:"counters"`
	Last        *Result       `json:"last,omitempty"`
	History     []Result      `json:"history,omitempty"`
}
