package exec

import (
	"github.com/sirupsen/logrus"
)

// Router classifies the raw notifications of one channel into Events and
// forwards them to the single sink bound to that channel. It holds no
// buffers of its own.
//
// A Router is driven by one goroutine (Run) and therefore needs no
// locking; events for one channel are strictly sequential.
type Router struct {
	sink  Sink
	onAck func()
	ended bool
}

// NewRouter binds a sink to a channel's event flow. onAck, if non-nil, is
// invoked on every request-success notification before the acknowledgment
// event is forwarded; the lifecycle coordinator uses it for shell command
// injection.
func NewRouter(sink Sink, onAck func()) *Router {
	return &Router{sink: sink, onAck: onAck}
}

// Route classifies a single channel event. Once an end event has been
// emitted every further call is a no-op, which defends against duplicate
// teardown notifications from the transport.
func (r *Router) Route(ev ChannelEvent) {
	if r.ended {
		logrus.Debugf("router: dropping %d event after end", ev.Kind)
		return
	}

	switch ev.Kind {
	case ChannelData:
		r.sink.Deliver(Event{Kind: EventStdout, Data: ev.Data})
	case ChannelExtendedData:
		r.sink.Deliver(Event{Kind: EventStderr, Data: ev.Data})
	case ChannelRequestSuccess:
		if r.onAck != nil {
			r.onAck()
		}
		r.sink.Deliver(Event{Kind: EventAcknowledged})
	case ChannelRequestFailure:
		r.end(ErrChannelRequestFailed)
	case ChannelError:
		// Transport errors pass through unchanged so callers can match
		// them with errors.Is/errors.As.
		r.end(ev.Err)
	case ChannelClosed:
		r.end(nil)
	default:
		r.end(ErrInvalidChannelData)
	}
}

// Run consumes the event source until it is exhausted. If the source closes
// without a teardown notification the channel is treated as normally
// closed.
func (r *Router) Run(events <-chan ChannelEvent) {
	for ev := range events {
		r.Route(ev)
	}
	r.end(nil)
}

// end emits the terminal event exactly once per channel lifetime.
func (r *Router) end(err error) {
	if r.ended {
		return
	}
	r.ended = true
	r.sink.Deliver(Event{Kind: EventEnd, Err: err})
}
