package cache

import (
	"sort"
	"sync"

	"github.com/ollie314/Akumuli/page"
)

// Cache routes writes into per-bucket generations (bucket =
// floor(time/ttl)) and bounds the total number of live entries. When the
// bound is hit the oldest bucket is frozen: moved out of the live map
// into an ordered pool awaiting drain by the background worker. Frozen
// generations are immutable.
type Cache struct {
	ttl     page.TimeDuration
	maxSize int

	mu      sync.Mutex
	live    map[int64]*Generation
	buckets []int64 // live bucket keys, ascending
	size    int
	pool    []*Generation // frozen, oldest first
}

func New(ttl page.TimeDuration, maxSize int) *Cache {
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		live:    make(map[int64]*Generation),
	}
}

// Add delegates the write to its bucket's generation, creating the
// generation on first touch. The returned swap count tells the caller
// how many drain events to queue for the worker.
func (c *Cache) Add(ts page.TimeStamp, param page.ParamID, off page.EntryOffset) (nswaps int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket := int64(ts) / int64(c.ttl)
	if len(c.buckets) > 0 && bucket < c.buckets[0] {
		// The bucket was already evicted; accepting the write would
		// break the contiguity of the live window.
		return 0, ErrLateWrite
	}
	gen, ok := c.live[bucket]
	if !ok {
		gen = NewGeneration(c.ttl)
		c.live[bucket] = gen
		i := sort.Search(len(c.buckets), func(i int) bool { return c.buckets[i] >= bucket })
		c.buckets = append(c.buckets, 0)
		copy(c.buckets[i+1:], c.buckets[i:])
		c.buckets[i] = bucket
	}
	if err := gen.Add(ts, param, off); err != nil {
		return 0, err
	}
	c.size++

	for c.size >= c.maxSize && len(c.buckets) > 0 {
		c.freezeOldest()
		nswaps++
	}
	return nswaps, nil
}

// freezeOldest moves the oldest live generation into the frozen pool.
// Caller holds c.mu.
func (c *Cache) freezeOldest() {
	bucket := c.buckets[0]
	gen := c.live[bucket]
	delete(c.live, bucket)
	c.buckets = c.buckets[1:]
	c.size -= gen.Size()
	c.pool = append(c.pool, gen.TakeData())
}

// PickLast consumes the oldest frozen generation and emits its offsets
// into out in (time, param, insertion) key order, truncating at cap.
func (c *Cache) PickLast(out []page.EntryOffset) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) == 0 {
		return 0, ErrNoData
	}
	gen := c.pool[0]
	c.pool = c.pool[1:]
	gen.each(func(off page.EntryOffset) bool {
		if n == len(out) {
			return false
		}
		out[n] = off
		n++
		return true
	})
	return n, nil
}

// RemoveOld drops live generations whose bucket window lies entirely
// below horizon.
func (c *Cache) RemoveOld(horizon page.TimeStamp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.buckets[:0]
	for _, bucket := range c.buckets {
		bucketEnd := page.TimeStamp((bucket + 1) * int64(c.ttl))
		if bucketEnd <= horizon {
			c.size -= c.live[bucket].Size()
			delete(c.live, bucket)
			continue
		}
		kept = append(kept, bucket)
	}
	c.buckets = kept
}

// Size is the number of live entries across generations.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// PendingGenerations is the depth of the frozen pool.
func (c *Cache) PendingGenerations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pool)
}
