package sshclient

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"github.com/janipasanen/Citadel/pkg/exec"
)

// readBufferSize is the chunk size for draining the channel's streams.
const readBufferSize = 32 * 1024

// channel adapts one raw ssh.Channel to the exec.Channel contract: its
// stdout/stderr reads and out-of-band requests are pumped into a single
// ordered event source.
type channel struct {
	ch     ssh.Channel
	events chan exec.ChannelEvent

	// exitErr records a nonzero exit-status or exit-signal request; it is
	// surfaced only after both output streams have drained so no trailing
	// output is lost.
	mu      sync.Mutex
	exitErr error

	// sendWG tracks in-flight SendRequest calls so the pump never closes
	// the event source underneath one.
	sendWG sync.WaitGroup

	closeOnce sync.Once
}

func newChannel(ch ssh.Channel, reqs <-chan *ssh.Request) *channel {
	c := &channel{
		ch:     ch,
		events: make(chan exec.ChannelEvent, 16),
	}
	go c.pump(reqs)
	return c
}

// pump drains the channel until teardown, then emits exactly one terminal
// notification and closes the event source.
func (c *channel) pump(reqs <-chan *ssh.Request) {
	var g errgroup.Group
	g.Go(func() error { return c.copyStream(c.ch, exec.ChannelData) })
	g.Go(func() error { return c.copyStream(c.ch.Stderr(), exec.ChannelExtendedData) })
	g.Go(func() error { c.handleRequests(reqs); return nil })

	err := g.Wait()
	c.sendWG.Wait()

	c.mu.Lock()
	exitErr := c.exitErr
	c.mu.Unlock()

	switch {
	case err != nil:
		c.events <- exec.ChannelEvent{Kind: exec.ChannelError, Err: err}
	case exitErr != nil:
		c.events <- exec.ChannelEvent{Kind: exec.ChannelError, Err: exitErr}
	default:
		c.events <- exec.ChannelEvent{Kind: exec.ChannelClosed}
	}
	close(c.events)
}

// copyStream reads one of the channel's streams to EOF, forwarding each
// chunk as an event of the given kind.
func (c *channel) copyStream(r io.Reader, kind exec.ChannelEventKind) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			c.events <- exec.ChannelEvent{Kind: kind, Data: data}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read channel stream: %w", err)
		}
	}
}

// handleRequests consumes the remote side's out-of-band requests for this
// channel. Exit status and exit signal are recorded for the terminal
// event; everything else is refused.
func (c *channel) handleRequests(reqs <-chan *ssh.Request) {
	for req := range reqs {
		switch req.Type {
		case "exit-status":
			var msg struct{ Status uint32 }
			if err := ssh.Unmarshal(req.Payload, &msg); err != nil {
				logrus.Debugf("malformed exit-status payload: %v", err)
				continue
			}
			if msg.Status != 0 {
				c.setExitErr(&exec.ExitError{Status: int(msg.Status)})
			}
		case "exit-signal":
			var msg struct {
				Signal     string
				CoreDumped bool
				Message    string
				Lang       string
			}
			if err := ssh.Unmarshal(req.Payload, &msg); err != nil {
				logrus.Debugf("malformed exit-signal payload: %v", err)
				continue
			}
			c.setExitErr(&exec.ExitError{Signal: msg.Signal})
		default:
			if req.WantReply {
				req.Reply(false, nil)
			}
		}
	}
}

func (c *channel) setExitErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exitErr == nil {
		c.exitErr = err
	}
}

// SendRequest dispatches the exec or shell request on the wire. The
// remote's accept/refuse answer is forwarded as a request-success or
// request-failure event rather than returned, so the caller observes it
// through the same event flow as everything else.
func (c *channel) SendRequest(ctx context.Context, req exec.Request) error {
	c.sendWG.Add(1)
	defer c.sendWG.Done()

	var name string
	var payload []byte
	switch req.Mode {
	case exec.ModeShell:
		name = "shell"
	default:
		name = "exec"
		payload = ssh.Marshal(struct{ Command string }{Command: req.Command})
	}

	type sendResult struct {
		ok  bool
		err error
	}
	resCh := make(chan sendResult, 1)
	go func() {
		ok, err := c.ch.SendRequest(name, req.WantReply, payload)
		resCh <- sendResult{ok: ok, err: err}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resCh:
		if res.err != nil {
			return fmt.Errorf("send %s request: %w", name, res.err)
		}
		if !req.WantReply {
			return nil
		}
		kind := exec.ChannelRequestSuccess
		if !res.ok {
			kind = exec.ChannelRequestFailure
		}
		// The reply event must not be pushed inline: the caller only
		// attaches a consumer after SendRequest returns, so blocking here
		// behind a full data pump would deadlock the execution. The pump
		// waits on sendWG before closing the event source.
		c.sendWG.Add(1)
		go func() {
			defer c.sendWG.Done()
			c.events <- exec.ChannelEvent{Kind: kind}
		}()
		return nil
	}
}

func (c *channel) Write(p []byte) (int, error) {
	return c.ch.Write(p)
}

func (c *channel) CloseWrite() error {
	return c.ch.CloseWrite()
}

func (c *channel) Events() <-chan exec.ChannelEvent {
	return c.events
}

// Close tears down the channel. It is idempotent and safe to call after
// the remote side already closed.
func (c *channel) Close() error {
	c.closeOnce.Do(func() {
		if err := c.ch.Close(); err != nil && err != io.EOF {
			logrus.Debugf("closing session channel: %v", err)
		}
	})
	return nil
}
