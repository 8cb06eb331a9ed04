package page

import "sort"

// When more than 1/disorderFallbackDenom of adjacent index pairs are out
// of order the input is no longer "mostly sorted" and insertion sort
// degenerates, so the stdlib sort takes over.
const disorderFallbackDenom = 8

func (p *PageHeader) lessByTimeParam(a, b EntryOffset) bool {
	pa, ta, _ := readEntryPrefix(p.data[a:])
	pb, tb, _ := readEntryPrefix(p.data[b:])
	if ta != tb {
		return ta < tb
	}
	return pa < pb
}

// Sort orders page_index[0..count) by (time, param_id). Writes arrive
// mostly ordered because the cache rejects anything older than the late
// write horizon, so insertion sort runs in linear time in the expected
// case; heavily disordered input falls back to an O(n log n) sort.
func (p *PageHeader) Sort() {
	count := p.Count()
	if count < 2 {
		return
	}
	idx := make([]EntryOffset, count)
	for i := range idx {
		idx[i] = p.indexAt(i)
	}

	disorder := 0
	for i := 1; i < count; i++ {
		if p.lessByTimeParam(idx[i], idx[i-1]) {
			disorder++
		}
	}
	if disorder > count/disorderFallbackDenom {
		sort.SliceStable(idx, func(i, j int) bool {
			return p.lessByTimeParam(idx[i], idx[j])
		})
	} else {
		insertionSort(idx, p.lessByTimeParam)
	}

	for i, off := range idx {
		p.setIndexAt(i, off)
	}
}

func insertionSort(idx []EntryOffset, less func(a, b EntryOffset) bool) {
	for i := 1; i < len(idx); i++ {
		cur := idx[i]
		j := i - 1
		for j >= 0 && less(cur, idx[j]) {
			idx[j+1] = idx[j]
			j--
		}
		idx[j+1] = cur
	}
}
