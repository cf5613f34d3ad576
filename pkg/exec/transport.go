package exec

import "context"

// RequestMode selects how a command is started on a channel.
type RequestMode int

const (
	// ModeExec names the command in the request itself; the remote side
	// runs it directly.
	ModeExec RequestMode = iota
	// ModeShell requests an interactive shell and relies on the caller
	// injecting the command once the shell acknowledges readiness.
	ModeShell
)

// Request describes one exec or shell request. Immutable once issued.
type Request struct {
	Command   string
	Mode      RequestMode
	WantReply bool
}

// ChannelEventKind identifies a transport-level channel notification.
type ChannelEventKind int

const (
	// ChannelData is a data frame on the primary stream.
	ChannelData ChannelEventKind = iota
	// ChannelExtendedData is a data frame on the extended (stderr) stream.
	ChannelExtendedData
	// ChannelRequestSuccess reports that the channel accepted the pending
	// exec or shell request.
	ChannelRequestSuccess
	// ChannelRequestFailure reports that the channel refused the pending
	// exec or shell request.
	ChannelRequestFailure
	// ChannelError is a transport-level error signal; Err carries the
	// underlying error.
	ChannelError
	// ChannelClosed is the normal teardown notification.
	ChannelClosed
	// ChannelControl is a non-data frame arriving where output was
	// expected.
	ChannelControl
)

// ChannelEvent is one raw notification from a channel's event source.
type ChannelEvent struct {
	Kind ChannelEventKind
	Data []byte
	Err  error
}

// Channel is one logical, flow-controlled sub-connection over a shared
// transport connection, used for a single command execution.
//
// Events delivers the channel's notifications in arrival order; the source
// is closed once the channel is torn down. Close is idempotent.
type Channel interface {
	// SendRequest dispatches an exec or shell request. The acknowledgment
	// arrives later as a ChannelRequestSuccess or ChannelRequestFailure
	// event; an error return means the request could not be sent at all.
	SendRequest(ctx context.Context, req Request) error

	// Write sends bytes to the remote process's standard input.
	Write(p []byte) (int, error)

	// CloseWrite signals end of input to the remote process.
	CloseWrite() error

	Events() <-chan ChannelEvent
	Close() error
}

// Transport opens channels on an already-authenticated connection.
type Transport interface {
	OpenChannel(ctx context.Context) (Channel, error)
}
