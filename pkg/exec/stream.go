package exec

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// defaultStreamBuffer is the channel capacity of a Stream. A full buffer
// applies backpressure to the one channel feeding it without affecting
// other executions.
const defaultStreamBuffer = 16

// Stream is a live, ordered, single-consumer sequence of output events for
// one execution. Events are delivered in arrival order; acknowledgment
// events are consumed internally and never appear on the sequence.
//
// Consume it by ranging over Events and checking Err once the channel is
// closed:
//
//	for ev := range stream.Events() {
//	    // ev.Kind is EventStdout or EventStderr
//	}
//	if err := stream.Err(); err != nil {
//	    return err
//	}
type Stream struct {
	events chan Event
	err    error

	finishOnce sync.Once

	// abandoned is closed by Close; deliveries are discarded from then on
	// so the router never blocks on a consumer that went away.
	abandoned chan struct{}
	closeOnce sync.Once

	// closer tears down the remote channel. Set by the coordinator before
	// the stream is handed to the caller.
	closer func() error
}

func newStream() *Stream {
	return &Stream{
		events:    make(chan Event, defaultStreamBuffer),
		abandoned: make(chan struct{}),
	}
}

// Events returns the event sequence. It is closed after the terminal event
// of the execution; the sequence is single-pass and single-consumer.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Err reports how the stream terminated. It must only be called after
// Events has been closed; it returns nil on normal completion.
func (s *Stream) Err() error {
	return s.err
}

// Close abandons the stream. The remote channel is closed as well: an
// abandoned consumer must not leave the remote command running, so teardown
// is explicit rather than deferred to the transport's own idle handling.
// Close is idempotent and safe after normal termination.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.abandoned)
	})
	return s.closeChannel()
}

// Deliver implements Sink. It is called by the channel router, never by
// consumers.
func (s *Stream) Deliver(ev Event) {
	switch ev.Kind {
	case EventAcknowledged:
		// Consumed internally; stream consumers only see output chunks.
	case EventEnd:
		s.finishOnce.Do(func() {
			s.err = ev.Err
			close(s.events)
		})
		if err := s.closeChannel(); err != nil {
			logrus.Debugf("stream: closing channel after end: %v", err)
		}
	default:
		select {
		case s.events <- ev:
		case <-s.abandoned:
		}
	}
}

func (s *Stream) closeChannel() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
