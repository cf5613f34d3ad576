package exec

// EventKind identifies the type of output event produced for a channel.
type EventKind int

const (
	// EventStdout carries bytes from the remote command's standard output.
	EventStdout EventKind = iota
	// EventStderr carries bytes from the remote command's standard error.
	EventStderr
	// EventAcknowledged signals that the remote side accepted the exec or
	// shell request. It is consumed internally and never reaches stream
	// consumers.
	EventAcknowledged
	// EventEnd terminates the event flow for a channel. Err is nil on
	// normal completion. At most one EventEnd is produced per channel and
	// it is always the last event delivered.
	EventEnd
)

// String returns a short name for the event kind, used in log lines.
func (k EventKind) String() string {
	switch k {
	case EventStdout:
		return "stdout"
	case EventStderr:
		return "stderr"
	case EventAcknowledged:
		return "acknowledged"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is a classified output event for one command execution.
// Data is set for EventStdout and EventStderr; Err is only meaningful for
// EventEnd.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error
}

// Sink consumes the events produced for one channel. Exactly one sink is
// bound per channel, before the exec or shell request is sent. Deliver is
// called sequentially, in arrival order; implementations never see another
// event after EventEnd.
type Sink interface {
	Deliver(Event)
}
