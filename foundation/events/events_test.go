package events_test

import (
	"testing"

	"github.com/ardanlabs/powledger/foundation/events"
)

func TestEvents(t *testing.T) {
	evts := events.New("state:", "worker:")

	id, ch := evts.Acquire()
	if evts.Count() != 1 {
		t.Fatalf("Should have one subscriber, got %d.", evts.Count())
	}

	evts.Send("pow: Solve: MINING: started")
	evts.Send("state: seal: blk[2]")

	select {
	case msg := <-ch:
		if msg != "state: seal: blk[2]" {
			t.Fatalf("Should only receive matching events, got %q.", msg)
		}
	default:
		t.Fatalf("Should receive the matching event.")
	}

	if err := evts.Release(id); err != nil {
		t.Fatalf("Should be able to release the subscriber: %s", err)
	}
	if _, open := <-ch; open {
		t.Fatalf("Should close the channel on release.")
	}
	if err := evts.Release(id); err == nil {
		t.Fatalf("Should not release an unknown subscriber.")
	}

	_, ch = evts.Acquire()
	evts.Shutdown()
	if _, open := <-ch; open {
		t.Fatalf("Should close every channel on shutdown.")
	}
}

func TestEventsBuffer(t *testing.T) {
	evts := events.New()
	_, ch := evts.Acquire()

	for range 1000 {
		evts.Send("worker: tick")
	}

	if len(ch) != cap(ch) {
		t.Fatalf("Should drop events when the subscriber falls behind, got %d buffered.", len(ch))
	}
}
