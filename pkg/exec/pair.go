package exec

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ByteStream is one half of a split stream pair: a live sequence of raw
// chunks from a single output stream. Within one ByteStream, chunks arrive
// in the order the remote side produced them.
type ByteStream struct {
	chunks chan []byte
	err    error

	finishOnce sync.Once
	abandoned  chan struct{}
	closeOnce  sync.Once
	onClose    func()
}

func newByteStream(onClose func()) *ByteStream {
	return &ByteStream{
		chunks:    make(chan []byte, defaultStreamBuffer),
		abandoned: make(chan struct{}),
		onClose:   onClose,
	}
}

// Chunks returns the chunk sequence. It is closed once the execution has
// terminated; the sequence is single-pass and single-consumer.
func (b *ByteStream) Chunks() <-chan []byte {
	return b.chunks
}

// Err reports how the stream terminated. It must only be called after
// Chunks has been closed.
func (b *ByteStream) Err() error {
	return b.err
}

// Close abandons this half of the pair. Once both halves are closed the
// underlying merged stream, and with it the remote channel, is closed.
func (b *ByteStream) Close() error {
	b.closeOnce.Do(func() {
		close(b.abandoned)
		b.onClose()
	})
	return nil
}

func (b *ByteStream) push(p []byte) {
	select {
	case b.chunks <- p:
	case <-b.abandoned:
	}
}

func (b *ByteStream) finish(err error) {
	b.finishOnce.Do(func() {
		b.err = err
		close(b.chunks)
	})
}

// StreamPair fans one merged output stream into two independently
// consumable sequences, one carrying only stdout chunks and one only
// stderr chunks. A termination error on the merged stream is propagated to
// both halves.
type StreamPair struct {
	stdout *ByteStream
	stderr *ByteStream
}

// NewStreamPair starts a background pump consuming src. The caller must not
// consume src directly afterwards.
func NewStreamPair(src *Stream) *StreamPair {
	p := &StreamPair{}

	// Closing both halves closes the merged stream and the remote channel
	// behind it.
	var open atomic.Int32
	open.Store(2)
	release := func() {
		if open.Add(-1) == 0 {
			if err := src.Close(); err != nil {
				logrus.Debugf("stream pair: closing source: %v", err)
			}
		}
	}

	p.stdout = newByteStream(release)
	p.stderr = newByteStream(release)

	go p.pump(src)
	return p
}

// Stdout returns the stdout-only sequence.
func (p *StreamPair) Stdout() *ByteStream { return p.stdout }

// Stderr returns the stderr-only sequence.
func (p *StreamPair) Stderr() *ByteStream { return p.stderr }

func (p *StreamPair) pump(src *Stream) {
	for ev := range src.Events() {
		switch ev.Kind {
		case EventStdout:
			p.stdout.push(ev.Data)
		case EventStderr:
			p.stderr.push(ev.Data)
		}
	}
	err := src.Err()
	p.stdout.finish(err)
	p.stderr.finish(err)
}
