package page

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageTimes(p *PageHeader) []TimeStamp {
	out := make([]TimeStamp, p.Count())
	for i := range out {
		out[i], _ = p.timeParamAt(i)
	}
	return out
}

func pageOffsets(p *PageHeader) map[EntryOffset]int {
	out := make(map[EntryOffset]int)
	for i := 0; i < p.Count(); i++ {
		out[p.indexAt(i)]++
	}
	return out
}

func assertSortedByTimeParam(t *testing.T, p *PageHeader) {
	t.Helper()
	for i := 1; i < p.Count(); i++ {
		prevTS, prevParam := p.timeParamAt(i - 1)
		ts, param := p.timeParamAt(i)
		if prevTS != ts {
			require.Less(t, prevTS, ts)
			continue
		}
		require.LessOrEqual(t, prevParam, param)
	}
}

func TestSortMostlyOrderedInput(t *testing.T) {
	t.Parallel()
	p := InitPage(make([]byte, 1<<15), Index, 0)

	// Mostly ordered with a handful of local swaps, the shape the late
	// write guard produces.
	rng := rand.New(rand.NewSource(1))
	times := make([]TimeStamp, 500)
	for i := range times {
		times[i] = TimeStamp(i)
	}
	for i := 0; i < 20; i++ {
		j := rng.Intn(len(times) - 1)
		times[j], times[j+1] = times[j+1], times[j]
	}
	for _, ts := range times {
		_, err := p.AddEntry(NewEntry(1, ts, nil))
		require.NoError(t, err)
	}

	before := pageOffsets(p)
	p.Sort()
	assertSortedByTimeParam(t, p)
	assert.Equal(t, before, pageOffsets(p), "sort must be a permutation")

	snapshot := pageTimes(p)
	p.Sort()
	assert.Equal(t, snapshot, pageTimes(p), "sort must be idempotent")
}

func TestSortAdversarialInput(t *testing.T) {
	t.Parallel()
	p := InitPage(make([]byte, 1<<15), Index, 0)

	// Fully reversed input defeats insertion sort; the fallback has to
	// kick in and still produce the right order.
	for i := 499; i >= 0; i-- {
		_, err := p.AddEntry(NewEntry(ParamID(i%7), TimeStamp(i), nil))
		require.NoError(t, err)
	}
	before := pageOffsets(p)
	p.Sort()
	assertSortedByTimeParam(t, p)
	assert.Equal(t, before, pageOffsets(p))
}

func TestSortTiesOrderedByParam(t *testing.T) {
	t.Parallel()
	p := InitPage(make([]byte, 1<<14), Index, 0)
	for _, param := range []ParamID{5, 3, 9, 1} {
		_, err := p.AddEntry(NewEntry(param, 100, nil))
		require.NoError(t, err)
	}
	p.Sort()
	var params []ParamID
	for i := 0; i < p.Count(); i++ {
		_, param := p.timeParamAt(i)
		params = append(params, param)
	}
	assert.Equal(t, []ParamID{1, 3, 5, 9}, params)
}
