package sdnotify

import (
	"context"
	"reflect"
	"testing"
	"time"

	logx "powerman/pkg/logx"
)

func recorder(n *Notifier) *[]string {
	var got []string
	n.send = func(state string) (bool, error) {
		got = append(got, state)
		return true, nil
	}
	return &got
}

func TestStatusUpdatesToggle(t *testing.T) {
	t.Parallel()
	n := New(false, logx.Nop())
	got := recorder(n)

	n.Ready("balanced")
	n.Status("performance")
	n.SetStatusUpdates(true)
	n.Status("performance")
	n.Stopping()

	want := []string{"READY=1", "STATUS=performance", "STOPPING=1"}
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("sent = %q, want %q", *got, want)
	}
}

func TestReadyCarriesStatus(t *testing.T) {
	t.Parallel()
	n := New(true, logx.Nop())
	got := recorder(n)
	n.Ready("active: Balanced")
	if len(*got) != 1 || (*got)[0] != "READY=1\nSTATUS=active: Balanced" {
		t.Fatalf("sent = %q", *got)
	}
}

func TestWatchdogWithoutSystemdReturns(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	t.Setenv("WATCHDOG_PID", "")
	n := New(false, logx.Nop())
	done := make(chan struct{})
	go func() {
		n.Watchdog(context.Background(), nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watchdog blocked without WATCHDOG_USEC")
	}
}
