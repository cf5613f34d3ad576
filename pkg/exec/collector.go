package exec

import (
	"bytes"
	"context"
)

// BufferedResult is the materialized output of one buffered execution.
// When streams are merged, Stderr is empty and stderr bytes appear in
// Stdout in arrival order.
type BufferedResult struct {
	Stdout []byte
	Stderr []byte
}

// BufferedCollector is a sink that accumulates one execution's output into
// growable buffers under an optional size ceiling, producing a single
// completed-or-failed result.
//
// Deliver is driven by the channel's router goroutine; Wait may be called
// from any other goroutine.
type BufferedCollector struct {
	limit int
	merge bool

	stdout bytes.Buffer
	stderr bytes.Buffer

	// suppressed is set once a size limit has been exceeded; while set,
	// further bytes for this execution are deliberately discarded.
	suppressed bool
	resolved   bool

	result BufferedResult
	err    error
	done   chan struct{}
}

// NewBufferedCollector returns a collector enforcing limit bytes per stream
// (0 or negative means unbounded). With merge set, stderr bytes are folded
// into the stdout accumulator in arrival order.
func NewBufferedCollector(limit int, merge bool) *BufferedCollector {
	return &BufferedCollector{
		limit: limit,
		merge: merge,
		done:  make(chan struct{}),
	}
}

// Deliver implements Sink.
func (c *BufferedCollector) Deliver(ev Event) {
	switch ev.Kind {
	case EventStdout:
		c.accumulate(&c.stdout, ev.Data)
	case EventStderr:
		if c.merge {
			c.accumulate(&c.stdout, ev.Data)
		} else {
			c.accumulate(&c.stderr, ev.Data)
		}
	case EventAcknowledged:
		// Buffered mode does not react to acknowledgment.
	case EventEnd:
		if ev.Err != nil {
			c.fail(ev.Err)
			return
		}
		if c.resolved {
			return
		}
		c.resolved = true
		c.result = BufferedResult{
			Stdout: c.stdout.Bytes(),
			Stderr: c.stderr.Bytes(),
		}
		close(c.done)
	}
}

// accumulate appends a chunk to buf, enforcing the per-stream size limit.
// The chunk that would push the stream over the limit is never partially
// buffered; the whole execution fails instead.
func (c *BufferedCollector) accumulate(buf *bytes.Buffer, p []byte) {
	if c.resolved || c.suppressed {
		return
	}
	if c.limit > 0 && buf.Len()+len(p) > c.limit {
		c.suppressed = true
		c.fail(ErrOutputTooLarge)
		return
	}
	buf.Write(p)
}

// fail fails the result exactly once; later events cannot re-fail or
// resolve it.
func (c *BufferedCollector) fail(err error) {
	if c.resolved {
		return
	}
	c.resolved = true
	c.err = err
	close(c.done)
}

// Wait blocks until the execution completed or failed, or until ctx is
// canceled.
func (c *BufferedCollector) Wait(ctx context.Context) (*BufferedResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		if c.err != nil {
			return nil, c.err
		}
		res := c.result
		return &res, nil
	}
}
