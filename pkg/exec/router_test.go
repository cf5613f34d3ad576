package exec

import (
	"errors"
	"testing"
)

func TestRouterClassifiesDataFrames(t *testing.T) {
	sink := &recordSink{}
	r := NewRouter(sink, nil)

	r.Route(stdoutEvent("out"))
	r.Route(stderrEvent("err"))
	r.Route(ChannelEvent{Kind: ChannelClosed})

	if len(sink.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(sink.events))
	}
	if sink.events[0].Kind != EventStdout || string(sink.events[0].Data) != "out" {
		t.Errorf("unexpected first event: %+v", sink.events[0])
	}
	if sink.events[1].Kind != EventStderr || string(sink.events[1].Data) != "err" {
		t.Errorf("unexpected second event: %+v", sink.events[1])
	}
	if sink.events[2].Kind != EventEnd || sink.events[2].Err != nil {
		t.Errorf("expected clean end, got %+v", sink.events[2])
	}
}

func TestRouterRequestFailure(t *testing.T) {
	sink := &recordSink{}
	r := NewRouter(sink, nil)

	r.Route(ChannelEvent{Kind: ChannelRequestFailure})

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	if !errors.Is(sink.events[0].Err, ErrChannelRequestFailed) {
		t.Errorf("expected ErrChannelRequestFailed, got %v", sink.events[0].Err)
	}
}

func TestRouterTransportErrorPassesThroughUnchanged(t *testing.T) {
	cause := errors.New("connection reset")
	sink := &recordSink{}
	r := NewRouter(sink, nil)

	r.Route(ChannelEvent{Kind: ChannelError, Err: cause})

	if len(sink.events) != 1 || !errors.Is(sink.events[0].Err, cause) {
		t.Fatalf("expected wrapped cause, got %+v", sink.events)
	}
}

func TestRouterInvalidChannelData(t *testing.T) {
	sink := &recordSink{}
	r := NewRouter(sink, nil)

	r.Route(ChannelEvent{Kind: ChannelControl})

	if len(sink.events) != 1 || !errors.Is(sink.events[0].Err, ErrInvalidChannelData) {
		t.Fatalf("expected ErrInvalidChannelData, got %+v", sink.events)
	}
}

func TestRouterExactlyOnceEnd(t *testing.T) {
	sink := &recordSink{}
	r := NewRouter(sink, nil)

	// Duplicate teardown notifications and trailing data must all be
	// no-ops after the first end.
	r.Route(ChannelEvent{Kind: ChannelClosed})
	r.Route(ChannelEvent{Kind: ChannelClosed})
	r.Route(ChannelEvent{Kind: ChannelError, Err: errors.New("late")})
	r.Route(stdoutEvent("late data"))

	ends := 0
	for _, ev := range sink.events {
		if ev.Kind == EventEnd {
			ends++
		}
	}
	if ends != 1 {
		t.Errorf("expected exactly one end event, got %d", ends)
	}
	if len(sink.events) != 1 {
		t.Errorf("expected no events after end, got %d total", len(sink.events))
	}
}

func TestRouterRunEndsOnSourceClose(t *testing.T) {
	// A source that closes without any teardown notification still
	// produces a clean end.
	events := make(chan ChannelEvent, 2)
	events <- stdoutEvent("x")
	close(events)

	sink := &recordSink{}
	NewRouter(sink, nil).Run(events)

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(sink.events))
	}
	last := sink.events[len(sink.events)-1]
	if last.Kind != EventEnd || last.Err != nil {
		t.Errorf("expected clean end, got %+v", last)
	}
}

func TestRouterAckHook(t *testing.T) {
	calls := 0
	sink := &recordSink{}
	r := NewRouter(sink, func() { calls++ })

	r.Route(ChannelEvent{Kind: ChannelRequestSuccess})
	r.Route(ChannelEvent{Kind: ChannelRequestSuccess})

	if calls != 2 {
		t.Errorf("expected hook on every acknowledgment, got %d calls", calls)
	}
	for i, ev := range sink.events {
		if ev.Kind != EventAcknowledged {
			t.Errorf("event %d: expected acknowledgment, got %v", i, ev.Kind)
		}
	}
}
