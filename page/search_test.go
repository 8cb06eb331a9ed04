package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a minimal in-package InternalCursor for search tests.
type recorder struct {
	offsets   []EntryOffset
	completed bool
	err       error
}

func (r *recorder) Put(off EntryOffset) bool { r.offsets = append(r.offsets, off); return true }
func (r *recorder) Complete()                { r.completed = true }
func (r *recorder) SetError(err error)       { r.err = err }

func (r *recorder) times(p *PageHeader) []TimeStamp {
	out := make([]TimeStamp, len(r.offsets))
	for i, off := range r.offsets {
		out[i] = p.ReadEntry(off).Time
	}
	return out
}

// denseRangePage builds a page holding (param=1, t) for t in [0, n).
func denseRangePage(t *testing.T, n int) *PageHeader {
	t.Helper()
	p := InitPage(make([]byte, 64+n*20), Index, 0)
	for i := 0; i < n; i++ {
		_, err := p.AddEntry(NewEntry(1, TimeStamp(i), nil))
		require.NoError(t, err)
	}
	return p
}

func TestSearchForwardBounded(t *testing.T) {
	t.Parallel()
	p := denseRangePage(t, 1000)

	rec := &recorder{}
	p.Search(Query{Param: 1, LowerBound: 200, UpperBound: 300, Direction: Forward}, rec)

	require.True(t, rec.completed)
	require.NoError(t, rec.err)
	times := rec.times(p)
	require.Len(t, times, 101)
	for i, ts := range times {
		assert.Equal(t, TimeStamp(200+i), ts)
	}
}

func TestSearchBackwardBounded(t *testing.T) {
	t.Parallel()
	p := denseRangePage(t, 1000)

	rec := &recorder{}
	p.Search(Query{Param: 1, LowerBound: 200, UpperBound: 300, Direction: Backward}, rec)

	require.True(t, rec.completed)
	times := rec.times(p)
	require.Len(t, times, 101)
	for i, ts := range times {
		assert.Equal(t, TimeStamp(300-i), ts)
	}
}

func TestSearchCornerCases(t *testing.T) {
	t.Parallel()
	p := denseRangePage(t, 1000)

	// Key above the bounding box going backward starts at the top and
	// finds nothing in range.
	rec := &recorder{}
	p.Search(Query{Param: 1, LowerBound: 2000, UpperBound: 3000, Direction: Backward}, rec)
	require.True(t, rec.completed)
	assert.Empty(t, rec.offsets)

	// Key above the bounding box going forward completes empty.
	rec = &recorder{}
	p.Search(Query{Param: 1, LowerBound: MaxTimestamp, UpperBound: MaxTimestamp, Direction: Forward}, rec)
	require.True(t, rec.completed)
	assert.Empty(t, rec.offsets)

	// Key below the bounding box going backward completes empty.
	p2 := InitPage(make([]byte, 4096), Index, 0)
	for i := 100; i < 110; i++ {
		_, err := p2.AddEntry(NewEntry(1, TimeStamp(i), nil))
		require.NoError(t, err)
	}
	rec = &recorder{}
	p2.Search(Query{Param: 1, LowerBound: 0, UpperBound: 50, Direction: Backward}, rec)
	require.True(t, rec.completed)
	assert.Empty(t, rec.offsets)

	// Key below the bounding box going forward scans from the bottom.
	rec = &recorder{}
	p2.Search(Query{Param: 1, LowerBound: 50, UpperBound: 105, Direction: Forward}, rec)
	require.True(t, rec.completed)
	assert.Equal(t, []TimeStamp{100, 101, 102, 103, 104, 105}, rec.times(p2))
}

func TestSearchBadArg(t *testing.T) {
	t.Parallel()
	p := denseRangePage(t, 10)

	rec := &recorder{}
	p.Search(Query{Param: 1, LowerBound: 10, UpperBound: 5, Direction: Forward}, rec)
	assert.ErrorIs(t, rec.err, ErrBadArg)
	assert.True(t, rec.completed)
	assert.Empty(t, rec.offsets)

	rec = &recorder{}
	p.Search(Query{Param: 1, LowerBound: 0, UpperBound: 5}, rec)
	assert.ErrorIs(t, rec.err, ErrBadArg)
}

func TestSearchEmptyPage(t *testing.T) {
	t.Parallel()
	p := InitPage(make([]byte, 4096), Index, 0)
	rec := &recorder{}
	p.Search(Query{Param: 1, LowerBound: 0, UpperBound: 100, Direction: Forward}, rec)
	assert.True(t, rec.completed)
	assert.Empty(t, rec.offsets)
}

func TestSearchFiltersParam(t *testing.T) {
	t.Parallel()
	p := InitPage(make([]byte, 1<<14), Index, 0)
	for i := 0; i < 100; i++ {
		_, err := p.AddEntry(NewEntry(ParamID(1+i%2), TimeStamp(i), nil))
		require.NoError(t, err)
	}

	rec := &recorder{}
	p.Search(Query{Param: 2, LowerBound: 0, UpperBound: 99, Direction: Forward}, rec)
	require.True(t, rec.completed)
	require.Len(t, rec.offsets, 50)
	for _, off := range rec.offsets {
		e := p.ReadEntry(off)
		assert.Equal(t, ParamID(2), e.ParamID)
		assert.EqualValues(t, 1, e.Time%2)
	}
}

func TestSearchDuplicateTimestampsRoundTrip(t *testing.T) {
	t.Parallel()
	p := InitPage(make([]byte, 1<<15), Index, 0)
	// Several params share every timestamp; point queries must see all
	// of their own entries and nothing else.
	for ts := 0; ts < 100; ts++ {
		for param := 0; param < 5; param++ {
			_, err := p.AddEntry(NewEntry(ParamID(param), TimeStamp(ts), nil))
			require.NoError(t, err)
		}
	}
	p.Sort()

	for ts := 0; ts < 100; ts += 7 {
		for param := 0; param < 5; param++ {
			rec := &recorder{}
			p.Search(Query{
				Param:      ParamID(param),
				LowerBound: TimeStamp(ts),
				UpperBound: TimeStamp(ts),
				Direction:  Forward,
			}, rec)
			require.True(t, rec.completed)
			require.Len(t, rec.offsets, 1, "param %d ts %d", param, ts)
			e := p.ReadEntry(rec.offsets[0])
			assert.Equal(t, ParamID(param), e.ParamID)
			assert.Equal(t, TimeStamp(ts), e.Time)
		}
	}
}

func TestSearchStopsWhenCursorCloses(t *testing.T) {
	t.Parallel()
	p := denseRangePage(t, 100)

	stopAfter := 3
	rec := &stoppingRecorder{limit: stopAfter}
	p.Search(Query{Param: 1, LowerBound: 0, UpperBound: 99, Direction: Forward}, rec)
	assert.Len(t, rec.offsets, stopAfter)
	assert.False(t, rec.completed)
}

type stoppingRecorder struct {
	recorder
	limit int
}

func (r *stoppingRecorder) Put(off EntryOffset) bool {
	r.offsets = append(r.offsets, off)
	return len(r.offsets) < r.limit
}
