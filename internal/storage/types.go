package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

const DefaultMaxEntries = 10000

type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	// MaxEntries bounds the journal; 0 means DefaultMaxEntries.
	MaxEntries int
}

func (c Config) maxEntries() int {
	if c.MaxEntries <= 0 {
		return DefaultMaxEntries
	}
	return c.MaxEntries
}

// Reasons recorded with a transition.
const (
	ReasonWatched = "watched" // a watched process is running
	ReasonIdle    = "idle"    // no watched process
	ReasonManual  = "manual"  // activated from the command line
)

// Transition is one applied plan change.
type Transition struct {
	At       time.Time `json:"at"`
	From     string    `json:"from"`
	FromName string    `json:"from_name,omitempty"`
	To       string    `json:"to"`
	ToName   string    `json:"to_name,omitempty"`
	Reason   string    `json:"reason"`
	Process  string    `json:"process,omitempty"`
	TookMS   int64     `json:"took_ms"`
}
