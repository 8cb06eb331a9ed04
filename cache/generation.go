// Package cache absorbs writes that arrive slightly out of order and
// hands them back as ordered batches for index publication. It is a set
// of time-bucketed generations, each an ordered multimap from
// (timestamp, param) to entry offset.
package cache

import (
	"github.com/google/btree"

	"github.com/ollie314/Akumuli/page"
)

type genItem struct {
	ts    page.TimeStamp
	param page.ParamID
	seq   uint64
	off   page.EntryOffset
}

// lessGenItem orders by (timestamp, param, insertion sequence). The
// sequence keeps equal keys distinct inside the btree and preserves
// insertion order among them.
func lessGenItem(a, b genItem) bool {
	if a.ts != b.ts {
		return a.ts < b.ts
	}
	if a.param != b.param {
		return a.param < b.param
	}
	return a.seq < b.seq
}

const btreeDegree = 32

// Generation is an ordered multimap scoped by a fixed time window. It
// refuses writes that would stretch the represented window beyond its
// capacity.
type Generation struct {
	capacity page.TimeDuration
	tree     *btree.BTreeG[genItem]
	seq      uint64
	oldest   page.TimeStamp
	newest   page.TimeStamp
}

func NewGeneration(capacity page.TimeDuration) *Generation {
	return &Generation{
		capacity: capacity,
		tree:     btree.NewG(btreeDegree, lessGenItem),
	}
}

// Add records (ts, param) -> off. ErrLateWrite when ts predates the
// newest timestamp ever seen by more than the window; ErrOverflow when
// ts would extend the window past its capacity.
func (g *Generation) Add(ts page.TimeStamp, param page.ParamID, off page.EntryOffset) error {
	if g.tree.Len() > 0 {
		if ts < g.newest-page.TimeStamp(g.capacity) {
			return ErrLateWrite
		}
		if ts > g.oldest+page.TimeStamp(g.capacity) {
			return ErrOverflow
		}
	}
	g.tree.ReplaceOrInsert(genItem{ts: ts, param: param, seq: g.seq, off: off})
	g.seq++
	if g.tree.Len() == 1 {
		g.oldest, g.newest = ts, ts
		return nil
	}
	if ts < g.oldest {
		g.oldest = ts
	}
	if ts > g.newest {
		g.newest = ts
	}
	return nil
}

// Find writes up to len(out) offsets stored under (ts, param) into out,
// skipping the first skip matches. Matches come back in insertion order;
// hasMore reports whether matches remain past the ones returned.
func (g *Generation) Find(ts page.TimeStamp, param page.ParamID, out []page.EntryOffset, skip int) (n int, hasMore bool) {
	matched := 0
	g.tree.AscendGreaterOrEqual(genItem{ts: ts, param: param}, func(it genItem) bool {
		if it.ts != ts || it.param != param {
			return false
		}
		if matched < skip {
			matched++
			return true
		}
		if n == len(out) {
			hasMore = true
			return false
		}
		out[n] = it.off
		n++
		return true
	})
	return n, hasMore
}

// Size is the number of stored offsets.
func (g *Generation) Size() int { return g.tree.Len() }

// Oldest returns the smallest timestamp present, ok=false when empty.
func (g *Generation) Oldest() (page.TimeStamp, bool) {
	if g.tree.Len() == 0 {
		return 0, false
	}
	return g.oldest, true
}

// Newest returns the largest timestamp present, ok=false when empty.
func (g *Generation) Newest() (page.TimeStamp, bool) {
	if g.tree.Len() == 0 {
		return 0, false
	}
	return g.newest, true
}

// TakeData transfers the backing container to a new generation, leaving
// the receiver empty. Operations on the drained generation are defined
// only to observe its emptiness.
func (g *Generation) TakeData() *Generation {
	moved := &Generation{
		capacity: g.capacity,
		tree:     g.tree,
		seq:      g.seq,
		oldest:   g.oldest,
		newest:   g.newest,
	}
	g.tree = btree.NewG(btreeDegree, lessGenItem)
	g.seq = 0
	return moved
}

// each visits every offset in key order.
func (g *Generation) each(fn func(off page.EntryOffset) bool) {
	g.tree.Ascend(func(it genItem) bool {
		return fn(it.off)
	})
}
