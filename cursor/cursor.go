// Package cursor implements the cooperative producer/consumer protocol
// used to stream search results out of pages without materializing full
// result sets. Producers speak InternalCursor, consumers speak
// ExternalCursor; the stream cursor bridges the two across a bounded
// channel.
package cursor

import (
	"github.com/ollie314/Akumuli/page"
)

// InternalCursor is the producer-side interface. It is the same contract
// page.Search writes into.
type InternalCursor = page.InternalCursor

// ExternalCursor is the consumer-side interface over a result stream.
type ExternalCursor interface {
	// Read fills buf with the next offsets and returns how many were
	// written. A short read means the producer completed.
	Read(buf []page.EntryOffset) int
	// IsDone reports whether the stream is exhausted.
	IsDone() bool
	// Err returns the error delivered by the producer, if any.
	Err() error
	// Close tells the producer to stop at its next Put.
	Close()
}

// Cursor is both ends in one value.
type Cursor interface {
	InternalCursor
	ExternalCursor
}

// RecordingCursor keeps every offset in a growable slice.
type RecordingCursor struct {
	Results   []page.EntryOffset
	Completed bool
	err       error
}

func (c *RecordingCursor) Put(off page.EntryOffset) bool {
	c.Results = append(c.Results, off)
	return true
}

func (c *RecordingCursor) Complete() { c.Completed = true }

func (c *RecordingCursor) SetError(err error) { c.err = err }

func (c *RecordingCursor) Err() error { return c.err }

// BufferedCursor writes into a caller-owned fixed buffer. Offsets past
// the buffer capacity are dropped.
type BufferedCursor struct {
	buf       []page.EntryOffset
	Count     int
	Completed bool
	err       error
}

func NewBufferedCursor(buf []page.EntryOffset) *BufferedCursor {
	return &BufferedCursor{buf: buf}
}

func (c *BufferedCursor) Put(off page.EntryOffset) bool {
	if c.Count < len(c.buf) {
		c.buf[c.Count] = off
		c.Count++
	}
	return true
}

func (c *BufferedCursor) Complete() { c.Completed = true }

func (c *BufferedCursor) SetError(err error) { c.err = err }

func (c *BufferedCursor) Err() error { return c.err }

// PageSyncCursor publishes each offset straight into the page's sync
// index, one at a time. Used by maintenance passes that rebuild the
// published index in place.
type PageSyncCursor struct {
	page      *page.PageHeader
	one       [1]page.EntryOffset
	Completed bool
	err       error
}

func NewPageSyncCursor(p *page.PageHeader) *PageSyncCursor {
	return &PageSyncCursor{page: p}
}

func (c *PageSyncCursor) Put(off page.EntryOffset) bool {
	c.one[0] = off
	return c.page.SyncIndexes(c.one[:]) == 1
}

func (c *PageSyncCursor) Complete() { c.Completed = true }

func (c *PageSyncCursor) SetError(err error) { c.err = err }

func (c *PageSyncCursor) Err() error { return c.err }
