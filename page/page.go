// Package page implements the fixed-size binary page container. A page is
// one mmap'd file region that grows from both ends toward the middle: the
// offset index grows forward from the header, record bytes grow backward
// from the end. All header access goes through explicit little-endian
// pack/unpack at fixed offsets so the on-disk layout never depends on Go
// struct layout.
package page

import (
	"encoding/binary"
)

// PageType tags the content of a page file.
type PageType uint32

const (
	Index PageType = iota
	Metadata
)

// Header field offsets. Fields are packed little-endian in this order:
// type, count, last_offset, sync_index, length (u64), open_count,
// close_count, page_id, bbox{min_id, max_id, min_ts, max_ts}.
const (
	offType       = 0
	offCount      = 4
	offLastOffset = 8
	offSyncIndex  = 12
	offLength     = 16
	offOpenCount  = 24
	offCloseCount = 28
	offPageID     = 32
	offBBoxMinID  = 36
	offBBoxMaxID  = 40
	offBBoxMinTS  = 44
	offBBoxMaxTS  = 52

	// HeaderSize is where the offset index begins.
	HeaderSize = 60

	indexEntrySize = 4
)

// BoundingBox summarizes a page's contents for O(1) query rejection.
// It starts at the inverted extremes and widens monotonically.
type BoundingBox struct {
	MinID ParamID
	MaxID ParamID
	MinTS TimeStamp
	MaxTS TimeStamp
}

// PageHeader is a view over the first bytes of a page region plus the
// region itself. It does not own the backing memory.
type PageHeader struct {
	data []byte
}

// InitPage formats data as a fresh page: zero entries, last_offset at the
// final byte, reset bounding box. Equivalent to placement-constructing the
// header over the mapping.
func InitPage(data []byte, t PageType, pageID uint32) *PageHeader {
	p := &PageHeader{data: data}
	p.putU32(offType, uint32(t))
	p.putU32(offCount, 0)
	p.putU32(offLastOffset, uint32(len(data)-1))
	p.putU32(offSyncIndex, 0)
	binary.LittleEndian.PutUint64(data[offLength:], uint64(len(data)))
	p.putU32(offOpenCount, 0)
	p.putU32(offCloseCount, 0)
	p.putU32(offPageID, pageID)
	p.resetBBox()
	return p
}

// AttachPage interprets data as an already formatted page.
func AttachPage(data []byte) *PageHeader {
	return &PageHeader{data: data}
}

func (p *PageHeader) putU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(p.data[off:], v)
}

func (p *PageHeader) u32(off int) uint32 {
	return binary.LittleEndian.Uint32(p.data[off:])
}

func (p *PageHeader) putTS(off int, v TimeStamp) {
	binary.LittleEndian.PutUint64(p.data[off:], uint64(v))
}

func (p *PageHeader) ts(off int) TimeStamp {
	return TimeStamp(binary.LittleEndian.Uint64(p.data[off:]))
}

func (p *PageHeader) Type() PageType     { return PageType(p.u32(offType)) }
func (p *PageHeader) Count() int         { return int(p.u32(offCount)) }
func (p *PageHeader) LastOffset() uint32 { return p.u32(offLastOffset) }
func (p *PageHeader) SyncIndex() int     { return int(p.u32(offSyncIndex)) }
func (p *PageHeader) Length() uint64     { return binary.LittleEndian.Uint64(p.data[offLength:]) }
func (p *PageHeader) OpenCount() uint32  { return p.u32(offOpenCount) }
func (p *PageHeader) CloseCount() uint32 { return p.u32(offCloseCount) }
func (p *PageHeader) PageID() uint32     { return p.u32(offPageID) }

func (p *PageHeader) BBox() BoundingBox {
	return BoundingBox{
		MinID: ParamID(p.u32(offBBoxMinID)),
		MaxID: ParamID(p.u32(offBBoxMaxID)),
		MinTS: p.ts(offBBoxMinTS),
		MaxTS: p.ts(offBBoxMaxTS),
	}
}

func (p *PageHeader) resetBBox() {
	p.putU32(offBBoxMinID, ^uint32(0))
	p.putU32(offBBoxMaxID, 0)
	p.putTS(offBBoxMinTS, MaxTimestamp)
	p.putTS(offBBoxMaxTS, MinTimestamp)
}

func (p *PageHeader) updateBBox(param ParamID, ts TimeStamp) {
	box := p.BBox()
	if param > box.MaxID {
		p.putU32(offBBoxMaxID, uint32(param))
	}
	if param < box.MinID {
		p.putU32(offBBoxMinID, uint32(param))
	}
	if ts > box.MaxTS {
		p.putTS(offBBoxMaxTS, ts)
	}
	if ts < box.MinTS {
		p.putTS(offBBoxMinTS, ts)
	}
}

// InsideBBox reports whether (param, ts) falls inside the bounding box.
func (p *PageHeader) InsideBBox(param ParamID, ts TimeStamp) bool {
	box := p.BBox()
	return ts <= box.MaxTS && ts >= box.MinTS &&
		param <= box.MaxID && param >= box.MinID
}

// Reuse recycles the page for a new round of writes: entry count drops to
// zero, the allocator resets, the bounding box inverts, and open_count
// records one more activation. The caller is responsible for flushing.
func (p *PageHeader) Reuse() {
	p.putU32(offCount, 0)
	p.putU32(offSyncIndex, 0)
	p.putU32(offOpenCount, p.OpenCount()+1)
	p.putU32(offLastOffset, uint32(len(p.data)-1))
	p.resetBBox()
}

// Close marks the page idle. A page with open_count == close_count was
// cleanly closed.
func (p *PageHeader) Close() {
	p.putU32(offCloseCount, p.CloseCount()+1)
}

// RestoreCounters reinstates the lifecycle counters after a destructive
// remap, which zeroes them along with the rest of the header.
func (p *PageHeader) RestoreCounters(openCount, closeCount uint32) {
	p.putU32(offOpenCount, openCount)
	p.putU32(offCloseCount, closeCount)
}

// FreeSpace is the gap between the end of the offset index and the
// lowest record byte.
func (p *PageHeader) FreeSpace() int {
	return int(p.LastOffset()) - (HeaderSize + indexEntrySize*p.Count())
}

func (p *PageHeader) indexAt(i int) EntryOffset {
	return EntryOffset(binary.LittleEndian.Uint32(p.data[HeaderSize+indexEntrySize*i:]))
}

func (p *PageHeader) setIndexAt(i int, off EntryOffset) {
	binary.LittleEndian.PutUint32(p.data[HeaderSize+indexEntrySize*i:], uint32(off))
}

// AddEntry appends an owned record and returns its offset. The record
// bytes land just below last_offset; the offset lands at page_index[count].
func (p *PageHeader) AddEntry(e Entry) (EntryOffset, error) {
	if e.Length < EntryPrefixSize || int(e.Length) != EntryPrefixSize+len(e.Payload) {
		return 0, ErrBadData
	}
	if int(e.Length)+indexEntrySize > p.FreeSpace() {
		return 0, ErrOverflow
	}
	slot := p.LastOffset() - e.Length
	putEntryPrefix(p.data[slot:], e.ParamID, e.Time, e.Length)
	copy(p.data[slot+EntryPrefixSize:], e.Payload)
	return p.commitRecord(slot, e.ParamID, e.Time), nil
}

// AddRangeEntry appends a borrowed-payload record. The on-disk length
// field holds the payload length alone, but the prefix layout matches
// AddEntry so a forward read sees the same shape.
func (p *PageHeader) AddRangeEntry(e RangeEntry) (EntryOffset, error) {
	need := EntryPrefixSize + len(e.Payload)
	if need+indexEntrySize > p.FreeSpace() {
		return 0, ErrOverflow
	}
	slot := p.LastOffset() - uint32(need)
	putEntryPrefix(p.data[slot:], e.ParamID, e.Time, uint32(len(e.Payload)))
	copy(p.data[slot+EntryPrefixSize:], e.Payload)
	return p.commitRecord(slot, e.ParamID, e.Time), nil
}

func (p *PageHeader) commitRecord(slot uint32, param ParamID, ts TimeStamp) EntryOffset {
	p.putU32(offLastOffset, slot)
	count := p.Count()
	p.setIndexAt(count, EntryOffset(slot))
	p.putU32(offCount, uint32(count+1))
	p.updateBBox(param, ts)
	return EntryOffset(slot)
}

// ReadEntry returns a zero-copy view of the record at off. The payload
// slice aliases the page memory and follows the owned-record length
// convention; a borrowed-payload record must be sliced by the caller
// using the stored payload length instead.
func (p *PageHeader) ReadEntry(off EntryOffset) Entry {
	param, ts, length := readEntryPrefix(p.data[off:])
	e := Entry{ParamID: param, Time: ts, Length: length}
	if length > EntryPrefixSize {
		e.Payload = p.data[int(off)+EntryPrefixSize : int(off)+int(length)]
	}
	return e
}

// ReadEntryAt returns the i-th indexed record, ok=false out of range.
func (p *PageHeader) ReadEntryAt(i int) (Entry, bool) {
	if i < 0 || i >= p.Count() {
		return Entry{}, false
	}
	return p.ReadEntry(p.indexAt(i)), true
}

// CopyEntryAt copies the record at index i into dst. It returns the
// record length on success, the negated length if dst is too small, and
// zero if there is no such record.
func (p *PageHeader) CopyEntryAt(i int, dst []byte) int {
	if i < 0 || i >= p.Count() {
		return 0
	}
	off := p.indexAt(i)
	_, _, length := readEntryPrefix(p.data[off:])
	if int(length) > len(dst) {
		return -int(length)
	}
	copy(dst, p.data[off:int(off)+int(length)])
	return int(length)
}

func (p *PageHeader) timeParamAt(i int) (TimeStamp, ParamID) {
	off := p.indexAt(i)
	param, ts, _ := readEntryPrefix(p.data[off:])
	return ts, param
}

// SyncIndexes publishes a batch of externally ordered offsets at
// page_index[sync_index...], clamped to count. Returns how many offsets
// were actually published.
func (p *PageHeader) SyncIndexes(offsets []EntryOffset) int {
	sync := p.SyncIndex()
	n := len(offsets)
	if sync+n > p.Count() {
		n = p.Count() - sync
	}
	for i := 0; i < n; i++ {
		p.setIndexAt(sync+i, offsets[i])
	}
	p.putU32(offSyncIndex, uint32(sync+n))
	return n
}
