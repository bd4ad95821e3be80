package eventbus

import (
	"testing"
	"time"
)

func TestPublishFanout(t *testing.T) {
	t.Parallel()
	b := New()
	all, unsubAll := b.Subscribe(4)
	defer unsubAll()
	only, unsubOnly := b.Subscribe(4, "cycle.applied")
	defer unsubOnly()

	b.Publish(Event{Type: "cycle.noop"})
	b.Publish(Event{Type: "cycle.applied", Data: 1})

	if got := (<-all).Type; got != "cycle.noop" {
		t.Fatalf("first event = %s", got)
	}
	if got := (<-all).Type; got != "cycle.applied" {
		t.Fatalf("second event = %s", got)
	}
	e := <-only
	if e.Type != "cycle.applied" || e.Time.IsZero() {
		t.Fatalf("filtered event = %+v", e)
	}
	select {
	case extra := <-only:
		t.Fatalf("unexpected event %+v", extra)
	default:
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	t.Parallel()
	b := New()
	_, unsub := b.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(Event{Type: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	if b.Dropped() != 9 {
		t.Fatalf("Dropped = %d, want 9", b.Dropped())
	}
}

func TestUnsubscribeClosesAndIsIdempotent(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after unsubscribe")
	}
	b.Publish(Event{Type: "after"})
}
