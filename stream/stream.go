// Package stream provides the single-producer single-consumer queue
// that carries the agent workflow to a front end.
package stream

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/effective-security/academix/pkg/console"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/academix", "stream")

// DefaultCapacity is the buffer size of a stream.
const DefaultCapacity = 1024

// Stream is a line queue terminated by Close.
// Write blocks while the buffer is full, until the consumer reads or the stream is closed.
type Stream struct {
	ch   chan string
	done chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once

	verbose  io.Writer
	keywords []string
	discard  bool
}

// Option configures a Stream
type Option func(*Stream)

// WithCapacity sets the buffer size
func WithCapacity(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.ch = make(chan string, n)
		}
	}
}

// WithVerbose prints the written text to w, highlighting the keywords
func WithVerbose(w io.Writer, keywords ...string) Option {
	return func(s *Stream) {
		if w == nil {
			w = os.Stdout
		}
		s.verbose = w
		s.keywords = keywords
	}
}

// WithDiscard drops the written items after printing them.
// Use it for a producer that has no consumer.
func WithDiscard() Option {
	return func(s *Stream) {
		s.discard = true
	}
}

// New returns a new Stream
func New(opts ...Option) *Stream {
	s := &Stream{
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ch == nil {
		s.ch = make(chan string, DefaultCapacity)
	}
	return s
}

// SetKeywords replaces the highlighted keywords.
func (s *Stream) SetKeywords(keywords []string) {
	s.mu.Lock()
	s.keywords = keywords
	s.mu.Unlock()
}

// Write enqueues the text. Writes after Close are dropped.
func (s *Stream) Write(text string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logger.KV(xlog.DEBUG, "reason", "write_after_close")
		return
	}
	if s.verbose != nil {
		console.Highlight(s.verbose, text, s.keywords)
	}
	if s.discard {
		return
	}
	select {
	case s.ch <- text:
	case <-s.done:
	}
}

// Close ends the stream. It is safe to call more than once,
// by the producer or by a consumer that is no longer reading.
func (s *Stream) Close() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

// Closed returns true after Close
func (s *Stream) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Read returns the next item without blocking.
// It returns "" when the queue is empty, and ok=false when the stream is closed and drained.
func (s *Stream) Read() (text string, ok bool) {
	select {
	case text, ok = <-s.ch:
		return text, ok
	default:
		return "", true
	}
}

// Next blocks until an item is available.
// It returns io.EOF when the stream is closed and drained.
func (s *Stream) Next(ctx context.Context) (string, error) {
	select {
	case text, ok := <-s.ch:
		if !ok {
			return "", io.EOF
		}
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Lines returns the receive channel, closed at the end of the stream.
func (s *Stream) Lines() <-chan string {
	return s.ch
}

// Drain reads until the stream is closed, and returns the items.
func (s *Stream) Drain(ctx context.Context) ([]string, error) {
	var res []string
	for {
		text, err := s.Next(ctx)
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res = append(res, text)
	}
}
