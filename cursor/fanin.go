package cursor

import (
	"container/heap"

	"github.com/ollie314/Akumuli/page"
)

// faninReadSize is the per-input read batch of the merge.
const faninReadSize = 32

// FanInInput pairs a result stream with the page its offsets point into,
// which is what lets the merge order offsets by timestamp.
type FanInInput struct {
	Cursor ExternalCursor
	Page   *page.PageHeader
}

// FanInCursor merges N individually ordered inputs into one globally
// ordered stream: smallest timestamp first going forward, largest first
// going backward, ties broken by input index. It completes when every
// input is done.
type FanInCursor struct {
	*StreamCursor
	inputs []FanInInput
}

// NewFanInCursor starts the merge over inputs in the given direction.
func NewFanInCursor(inputs []FanInInput, dir page.ScanDirection) *FanInCursor {
	c := &FanInCursor{inputs: inputs}
	c.StreamCursor = NewStreamCursor(DefaultStreamBuffer, func(out InternalCursor) {
		mergeInputs(inputs, dir, out)
	})
	return c
}

// Close stops the merge and cascades to every input.
func (c *FanInCursor) Close() {
	c.StreamCursor.Close()
	for _, in := range c.inputs {
		in.Cursor.Close()
	}
}

type faninHead struct {
	cur       ExternalCursor
	pg        *page.PageHeader
	index     int
	buf       [faninReadSize]page.EntryOffset
	n, next   int
	off       page.EntryOffset
	ts        page.TimeStamp
	exhausted bool
}

// advance loads the head's next offset, refilling from the input when
// the local batch runs dry.
func (h *faninHead) advance() {
	if h.next == h.n {
		h.n = h.cur.Read(h.buf[:])
		h.next = 0
		if h.n == 0 {
			h.exhausted = true
			return
		}
	}
	h.off = h.buf[h.next]
	h.next++
	h.ts = h.pg.ReadEntry(h.off).Time
}

type faninHeap struct {
	heads    []*faninHead
	backward bool
}

func (h *faninHeap) Len() int { return len(h.heads) }

func (h *faninHeap) Less(i, j int) bool {
	a, b := h.heads[i], h.heads[j]
	if a.ts != b.ts {
		if h.backward {
			return a.ts > b.ts
		}
		return a.ts < b.ts
	}
	return a.index < b.index
}

func (h *faninHeap) Swap(i, j int) { h.heads[i], h.heads[j] = h.heads[j], h.heads[i] }

func (h *faninHeap) Push(x interface{}) { h.heads = append(h.heads, x.(*faninHead)) }

func (h *faninHeap) Pop() interface{} {
	last := len(h.heads) - 1
	head := h.heads[last]
	h.heads = h.heads[:last]
	return head
}

func mergeInputs(inputs []FanInInput, dir page.ScanDirection, out InternalCursor) {
	hp := &faninHeap{backward: dir == page.Backward}
	for i, in := range inputs {
		head := &faninHead{cur: in.Cursor, pg: in.Page, index: i}
		head.advance()
		if !head.exhausted {
			hp.heads = append(hp.heads, head)
		}
	}
	heap.Init(hp)

	for hp.Len() > 0 {
		head := hp.heads[0]
		if !out.Put(head.off) {
			return
		}
		head.advance()
		if head.exhausted {
			heap.Pop(hp)
		} else {
			heap.Fix(hp, 0)
		}
	}

	for _, in := range inputs {
		if err := in.Cursor.Err(); err != nil {
			out.SetError(err)
			return
		}
	}
	out.Complete()
}
