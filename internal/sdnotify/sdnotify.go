// Package sdnotify reports readiness, status and watchdog liveness to
// systemd. Every call is a no-op when the process is not started by systemd.
package sdnotify

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "powerman/pkg/logx"
)

type Notifier struct {
	log logx.Logger
	// statusUpdates enables STATUS= messages beyond readiness.
	statusUpdates atomic.Bool
	send          func(state string) (bool, error)
}

func New(statusUpdates bool, log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	n := &Notifier{
		log:  log,
		send: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}
	n.statusUpdates.Store(statusUpdates)
	return n
}

func (n *Notifier) notify(state string) {
	sent, err := n.send(state)
	if err != nil {
		n.log.Debug("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		n.log.Trace("sd_notify sent", logx.String("state", state))
	}
}

func (n *Notifier) Ready(status string) {
	if n.statusUpdates.Load() && status != "" {
		n.notify(daemon.SdNotifyReady + "\nSTATUS=" + status)
		return
	}
	n.notify(daemon.SdNotifyReady)
}

func (n *Notifier) Stopping() { n.notify(daemon.SdNotifyStopping) }

func (n *Notifier) Reloading() { n.notify(daemon.SdNotifyReloading) }

func (n *Notifier) Status(status string) {
	if !n.statusUpdates.Load() || status == "" {
		return
	}
	n.notify("STATUS=" + status)
}

// SetStatusUpdates toggles STATUS= messages (config reload).
func (n *Notifier) SetStatusUpdates(enabled bool) { n.statusUpdates.Store(enabled) }

// Watchdog pings systemd at half the configured WatchdogSec until ctx is
// done, as long as alive reports true. It returns immediately when no
// watchdog is configured.
func (n *Notifier) Watchdog(ctx context.Context, alive func() bool) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	n.log.Debug("systemd watchdog enabled", logx.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if alive == nil || alive() {
				n.notify(daemon.SdNotifyWatchdog)
			}
		}
	}
}
