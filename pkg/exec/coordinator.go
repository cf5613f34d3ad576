package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultChannelTimeout bounds how long an execution waits for the
// transport to open a channel.
const DefaultChannelTimeout = 15 * time.Second

// Executor drives command executions over a transport: it opens a channel
// per execution, dispatches the exec or shell request, and routes the
// resulting output into the sink chosen by the entry point.
//
// An Executor is stateless and safe for concurrent use; concurrent
// executions share nothing but the transport.
type Executor struct {
	transport Transport
}

// NewExecutor creates an executor on the given transport.
func NewExecutor(transport Transport) *Executor {
	return &Executor{transport: transport}
}

// RunOption configures a single execution.
type RunOption func(*runOptions)

type runOptions struct {
	maxResponseSize int
	mergeStreams    bool
	channelTimeout  time.Duration
	stdin           io.Reader
	shell           bool
}

func applyRunOptions(opts []RunOption) *runOptions {
	o := &runOptions{
		channelTimeout: DefaultChannelTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMaxResponseSize bounds the bytes buffered per stream by Run. When the
// limit would be exceeded the execution fails with ErrOutputTooLarge. The
// default is unbounded.
func WithMaxResponseSize(n int) RunOption {
	return func(o *runOptions) { o.maxResponseSize = n }
}

// WithMergeStreams folds stderr bytes into the stdout result of Run, in
// arrival order.
func WithMergeStreams() RunOption {
	return func(o *runOptions) { o.mergeStreams = true }
}

// WithChannelTimeout overrides DefaultChannelTimeout for this execution.
func WithChannelTimeout(d time.Duration) RunOption {
	return func(o *runOptions) { o.channelTimeout = d }
}

// WithStdin feeds r to the remote command's standard input once the
// request has been acknowledged. Only honored in exec mode.
func WithStdin(r io.Reader) RunOption {
	return func(o *runOptions) { o.stdin = r }
}

// WithShell makes Split use shell-wrapped execution instead of a plain
// exec request.
func WithShell() RunOption {
	return func(o *runOptions) { o.shell = true }
}

// Run executes command and buffers its complete output. It returns once
// the remote command has terminated, the configured size limit was
// exceeded, or ctx is canceled.
func (e *Executor) Run(ctx context.Context, command string, opts ...RunOption) (*BufferedResult, error) {
	o := applyRunOptions(opts)
	collector := NewBufferedCollector(o.maxResponseSize, o.mergeStreams)

	ch, err := e.start(ctx, command, ModeExec, collector, o, nil)
	if err != nil {
		return nil, err
	}
	defer ch.Close()

	return collector.Wait(ctx)
}

// Stream executes command with a plain exec request and returns its output
// as a live event stream.
func (e *Executor) Stream(ctx context.Context, command string, opts ...RunOption) (*Stream, error) {
	return e.stream(ctx, command, ModeExec, applyRunOptions(opts))
}

// StreamShell executes command by requesting a shell and injecting the
// command once the shell acknowledges readiness, returning the output as a
// live event stream. The injected text is the command followed by ";exit"
// so the shell terminates when the command does.
func (e *Executor) StreamShell(ctx context.Context, command string, opts ...RunOption) (*Stream, error) {
	return e.stream(ctx, command, ModeShell, applyRunOptions(opts))
}

// Split executes command and returns two independent live sequences, one
// for stdout and one for stderr. With WithShell the command runs
// shell-wrapped, otherwise as a plain exec request.
func (e *Executor) Split(ctx context.Context, command string, opts ...RunOption) (*StreamPair, error) {
	o := applyRunOptions(opts)
	mode := ModeExec
	if o.shell {
		mode = ModeShell
	}
	s, err := e.stream(ctx, command, mode, o)
	if err != nil {
		return nil, err
	}
	return NewStreamPair(s), nil
}

func (e *Executor) stream(ctx context.Context, command string, mode RequestMode, o *runOptions) (*Stream, error) {
	s := newStream()
	// The closer must be in place before the router can deliver the
	// terminal event, or a fast-failing channel would never be torn down.
	_, err := e.start(ctx, command, mode, s, o, func(ch Channel) {
		s.closer = ch.Close
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// start opens a channel bounded by the channel timeout, binds a router
// with the given sink to it, and dispatches the request. The sink is
// installed before the request goes out so no data frame can arrive
// without a sink to receive it. onOpen, if non-nil, runs after the channel
// opened but before any event can reach the sink.
func (e *Executor) start(ctx context.Context, command string, mode RequestMode, sink Sink, o *runOptions, onOpen func(Channel)) (Channel, error) {
	id := uuid.NewString()[:8]

	openCtx, cancel := context.WithTimeout(ctx, o.channelTimeout)
	defer cancel()

	ch, err := e.transport.OpenChannel(openCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", ErrChannelCreationTimeout, o.channelTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrChannelCreationFailed, err)
	}
	logrus.Debugf("exec %s: channel open, mode=%d command=%q", id, mode, command)

	if onOpen != nil {
		onOpen(ch)
	}

	router := NewRouter(sink, e.ackHandler(id, ch, command, mode, o))
	go router.Run(ch.Events())

	req := Request{Command: command, Mode: mode, WantReply: true}
	if err := ch.SendRequest(ctx, req); err != nil {
		ch.Close()
		return nil, err
	}
	logrus.Debugf("exec %s: request sent", id)
	return ch, nil
}

// ackHandler returns the hook run on request acknowledgment: shell command
// injection and optional stdin feeding. Both run exactly once even if the
// transport redelivers an acknowledgment.
func (e *Executor) ackHandler(id string, ch Channel, command string, mode RequestMode, o *runOptions) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			switch mode {
			case ModeShell:
				go injectShellCommand(id, ch, command)
			case ModeExec:
				if o.stdin != nil {
					go feedStdin(id, ch, o.stdin)
				}
			}
		})
	}
}

func injectShellCommand(id string, ch Channel, command string) {
	if _, err := ch.Write([]byte(command + ";exit\n")); err != nil {
		logrus.Debugf("exec %s: shell command injection failed: %v", id, err)
	}
}

func feedStdin(id string, ch Channel, r io.Reader) {
	if _, err := io.Copy(ch, r); err != nil {
		logrus.Debugf("exec %s: stdin copy failed: %v", id, err)
	}
	if err := ch.CloseWrite(); err != nil {
		logrus.Debugf("exec %s: closing stdin: %v", id, err)
	}
}
