package cursor

import (
	"sync"
	"sync/atomic"

	"github.com/ollie314/Akumuli/page"
)

// DefaultStreamBuffer bounds how far a producer can run ahead of its
// consumer.
const DefaultStreamBuffer = 64

// StreamCursor bridges a producer goroutine and a consumer through a
// bounded channel. Put parks the producer when the consumer lags; Read
// parks the consumer until its buffer is full or the producer completes.
// Close signals the producer, which terminates within one Put. This is
// the cooperative coroutine cursor: neither side busy-waits and the
// producer never outruns the buffer.
type StreamCursor struct {
	ch     chan page.EntryOffset
	closed chan struct{}

	completeOnce sync.Once
	closeOnce    sync.Once

	mu  sync.Mutex
	err error

	done atomic.Bool // set once a reader observes the channel close
}

// NewStreamCursor starts producer in its own goroutine, speaking to the
// returned cursor. Completion is guaranteed even if the producer forgets
// to call Complete. buffer <= 0 selects DefaultStreamBuffer.
func NewStreamCursor(buffer int, producer func(InternalCursor)) *StreamCursor {
	if buffer <= 0 {
		buffer = DefaultStreamBuffer
	}
	c := &StreamCursor{
		ch:     make(chan page.EntryOffset, buffer),
		closed: make(chan struct{}),
	}
	go func() {
		defer c.Complete()
		producer(c)
	}()
	return c
}

// Put hands one offset to the consumer, parking until there is room.
// It returns false once the consumer has closed the cursor.
func (c *StreamCursor) Put(off page.EntryOffset) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.ch <- off:
		return true
	case <-c.closed:
		return false
	}
}

func (c *StreamCursor) Complete() {
	c.completeOnce.Do(func() { close(c.ch) })
}

// SetError records err and completes the stream; the consumer sees the
// error after draining what was already buffered.
func (c *StreamCursor) SetError(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
	c.Complete()
}

// Read fills buf and returns how many offsets were written. A short read
// means the producer completed.
func (c *StreamCursor) Read(buf []page.EntryOffset) int {
	n := 0
	for n < len(buf) {
		off, ok := <-c.ch
		if !ok {
			c.done.Store(true)
			break
		}
		buf[n] = off
		n++
	}
	return n
}

func (c *StreamCursor) IsDone() bool { return c.done.Load() }

func (c *StreamCursor) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close releases the producer. Pending Puts return false; the stream
// completes without further results.
func (c *StreamCursor) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}
