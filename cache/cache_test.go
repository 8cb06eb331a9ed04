package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollie314/Akumuli/page"
)

func TestCacheFreezesOldestOnOverflow(t *testing.T) {
	t.Parallel()
	c := New(1000, 10)

	for i := 0; i < 9; i++ {
		nswaps, err := c.Add(page.TimeStamp(i), 1, page.EntryOffset(i*4))
		require.NoError(t, err)
		assert.Zero(t, nswaps)
	}
	assert.Equal(t, 9, c.Size())
	assert.Zero(t, c.PendingGenerations())

	// The write that reaches max_size freezes the oldest bucket and
	// asks for one drain event.
	nswaps, err := c.Add(9, 1, 36)
	require.NoError(t, err)
	assert.Equal(t, 1, nswaps)
	assert.Zero(t, c.Size())
	assert.Equal(t, 1, c.PendingGenerations())
}

func TestCachePickLastKeyOrder(t *testing.T) {
	t.Parallel()
	c := New(1000, 5)

	// Slightly out of order inside one bucket.
	for _, w := range []struct {
		ts  page.TimeStamp
		off page.EntryOffset
	}{{3, 12}, {1, 4}, {2, 8}, {5, 20}, {4, 16}} {
		_, err := c.Add(w.ts, 1, w.off)
		require.NoError(t, err)
	}
	require.Equal(t, 1, c.PendingGenerations())

	out := make([]page.EntryOffset, 16)
	n, err := c.PickLast(out)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	assert.Equal(t, []page.EntryOffset{4, 8, 12, 16, 20}, out[:n])

	_, err = c.PickLast(out)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCachePickLastTruncatesAtCap(t *testing.T) {
	t.Parallel()
	c := New(1000, 8)
	for i := 0; i < 8; i++ {
		_, err := c.Add(page.TimeStamp(i), 1, page.EntryOffset(i))
		require.NoError(t, err)
	}
	require.Equal(t, 1, c.PendingGenerations())

	out := make([]page.EntryOffset, 3)
	n, err := c.PickLast(out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []page.EntryOffset{0, 1, 2}, out)
}

func TestCacheLateWriteBelowLiveWindow(t *testing.T) {
	t.Parallel()
	c := New(10, 1000)

	_, err := c.Add(5000, 1, 0) // bucket 500
	require.NoError(t, err)

	_, err = c.Add(15, 1, 4) // bucket 1, below the live window
	assert.ErrorIs(t, err, ErrLateWrite)

	// Same bucket as the live one still works.
	_, err = c.Add(5001, 1, 8)
	assert.NoError(t, err)
}

func TestCacheSpansMultipleBuckets(t *testing.T) {
	t.Parallel()
	c := New(10, 1000)

	for i := 0; i < 50; i++ {
		_, err := c.Add(page.TimeStamp(i), 1, page.EntryOffset(i))
		require.NoError(t, err)
	}
	assert.Equal(t, 50, c.Size())

	// Freezing never happened, all five buckets are live.
	assert.Zero(t, c.PendingGenerations())
}

func TestCacheRemoveOld(t *testing.T) {
	t.Parallel()
	c := New(10, 1000)

	_, err := c.Add(5, 1, 0) // bucket 0
	require.NoError(t, err)
	_, err = c.Add(55, 1, 4) // bucket 5
	require.NoError(t, err)
	require.Equal(t, 2, c.Size())

	c.RemoveOld(10)
	assert.Equal(t, 1, c.Size())

	// The removed bucket's window is gone for good.
	_, err = c.Add(6, 1, 8)
	assert.ErrorIs(t, err, ErrLateWrite)
}
