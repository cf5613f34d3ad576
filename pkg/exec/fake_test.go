package exec

import (
	"context"
	"sync"
)

// fakeChannel scripts one channel's behavior: the events in script are
// emitted when the request is sent, in order, followed by closing the
// event source.
type fakeChannel struct {
	script []ChannelEvent
	// sendErr makes SendRequest fail at the transport layer.
	sendErr error

	events  chan ChannelEvent
	writeCh chan string

	mu          sync.Mutex
	requests    []Request
	writes      []string
	closes      int
	closeWrites int

	closeEventsOnce sync.Once
}

func newFakeChannel(script ...ChannelEvent) *fakeChannel {
	return &fakeChannel{
		script:  script,
		events:  make(chan ChannelEvent, 64),
		writeCh: make(chan string, 8),
	}
}

func (c *fakeChannel) SendRequest(ctx context.Context, req Request) error {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.sendErr != nil {
		return c.sendErr
	}
	for _, ev := range c.script {
		c.events <- ev
	}
	c.finish()
	return nil
}

func (c *fakeChannel) finish() {
	c.closeEventsOnce.Do(func() { close(c.events) })
}

func (c *fakeChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	c.writes = append(c.writes, string(p))
	c.mu.Unlock()
	c.writeCh <- string(p)
	return len(p), nil
}

func (c *fakeChannel) CloseWrite() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeWrites++
	return nil
}

func (c *fakeChannel) Events() <-chan ChannelEvent {
	return c.events
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.finish()
	return nil
}

func (c *fakeChannel) sentRequests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Request(nil), c.requests...)
}

func (c *fakeChannel) writtenInput() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}

func (c *fakeChannel) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *fakeChannel) closeWriteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeWrites
}

// fakeTransport hands out a prepared channel, fails the open, or blocks
// until the caller's context expires.
type fakeTransport struct {
	ch      *fakeChannel
	openErr error
	block   bool

	mu    sync.Mutex
	opens int
}

func (t *fakeTransport) OpenChannel(ctx context.Context) (Channel, error) {
	t.mu.Lock()
	t.opens++
	t.mu.Unlock()

	if t.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if t.openErr != nil {
		return nil, t.openErr
	}
	return t.ch, nil
}

// recordSink collects every delivered event.
type recordSink struct {
	events []Event
}

func (s *recordSink) Deliver(ev Event) {
	s.events = append(s.events, ev)
}

func stdoutEvent(data string) ChannelEvent {
	return ChannelEvent{Kind: ChannelData, Data: []byte(data)}
}

func stderrEvent(data string) ChannelEvent {
	return ChannelEvent{Kind: ChannelExtendedData, Data: []byte(data)}
}
