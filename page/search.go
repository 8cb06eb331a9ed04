package page

// ScanDirection orders search results by time.
type ScanDirection int

const (
	Forward ScanDirection = iota + 1
	Backward
)

// Query selects entries of one series inside a closed time range.
type Query struct {
	Param      ParamID
	LowerBound TimeStamp
	UpperBound TimeStamp
	Direction  ScanDirection
}

// InternalCursor is the producer side of the scan protocol. Search pushes
// matching offsets into it; Put returning false tells the producer to
// stop early.
type InternalCursor interface {
	Put(EntryOffset) bool
	Complete()
	SetError(err error)
}

const (
	// How many interpolation probes run before falling through to
	// binary search.
	interpolationSearchQuota = 5
	// Window width below which interpolation stops paying off.
	interpolationSearchCutoff = 16
)

// Search finds entries matching q and streams their offsets into cursor
// in scan order. The locate phase runs an interpolated search bounded by
// the probe quota, then a binary search over the remaining window; the
// scan phase walks the index from the located position.
func (p *PageHeader) Search(q Query, cursor InternalCursor) {
	if (q.Direction != Forward && q.Direction != Backward) || q.UpperBound < q.LowerBound {
		cursor.SetError(ErrBadArg)
		cursor.Complete()
		return
	}
	if p.Count() == 0 {
		cursor.Complete()
		return
	}
	probe, nonEmpty := p.locate(q)
	if !nonEmpty {
		cursor.Complete()
		return
	}
	p.scan(q, probe, cursor)
}

// locate picks the scan start index for q. nonEmpty=false short-circuits
// queries whose key falls on the wrong side of the bounding box.
func (p *PageHeader) locate(q Query) (probe int, nonEmpty bool) {
	count := p.Count()
	backward := q.Direction == Backward
	begin, end := 0, count-1
	key := q.LowerBound
	if backward {
		key = q.UpperBound
	}

	box := p.BBox()
	switch {
	case key > box.MaxTS:
		if backward {
			return end, true
		}
		return 0, false
	case key < box.MinTS:
		if !backward {
			return begin, true
		}
		return 0, false
	}

	lo, hi := box.MinTS, box.MaxTS
	for quota := interpolationSearchQuota; quota > 0; quota-- {
		if end-begin < interpolationSearchCutoff || hi <= lo {
			break
		}
		probe = int(float64(key-lo) / float64(hi-lo) * float64(end-begin))
		if probe <= begin || probe >= end {
			break
		}
		t, _ := p.timeParamAt(probe)
		if t < key {
			begin = probe + 1
			lo, _ = p.timeParamAt(begin)
		} else {
			end = probe - 1
			hi, _ = p.timeParamAt(end)
		}
	}

	probe = begin
	for end >= begin {
		probe = begin + (end-begin)/2
		t, _ := p.timeParamAt(probe)
		if t == key {
			break
		}
		if t < key {
			begin = probe + 1
			if begin == count {
				break
			}
		} else {
			end = probe - 1
			if end < 0 {
				break
			}
		}
	}

	// The index may hold runs of equal timestamps; move the probe to the
	// edge of the run so the scan misses nothing.
	if backward {
		for probe+1 < count {
			t, _ := p.timeParamAt(probe + 1)
			if t > key {
				break
			}
			probe++
		}
	} else {
		for probe > 0 {
			t, _ := p.timeParamAt(probe - 1)
			if t < key {
				break
			}
			probe--
		}
	}
	return probe, true
}

func (p *PageHeader) scan(q Query, probe int, cursor InternalCursor) {
	count := p.Count()
	if q.Direction == Backward {
		for i := probe; ; i-- {
			off := p.indexAt(i)
			param, t, _ := readEntryPrefix(p.data[off:])
			if param == q.Param && t >= q.LowerBound && t <= q.UpperBound {
				if !cursor.Put(off) {
					return
				}
			}
			if t < q.LowerBound || i == 0 {
				cursor.Complete()
				return
			}
		}
	}
	for i := probe; ; i++ {
		off := p.indexAt(i)
		param, t, _ := readEntryPrefix(p.data[off:])
		if param == q.Param && t >= q.LowerBound && t <= q.UpperBound {
			if !cursor.Put(off) {
				return
			}
		}
		if t > q.UpperBound || i == count-1 {
			cursor.Complete()
			return
		}
	}
}
