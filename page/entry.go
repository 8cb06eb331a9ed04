package page

import (
	"encoding/binary"
	"math"
)

// TimeStamp is a monotonic counter, microseconds since epoch.
type TimeStamp int64

// TimeDuration is a delta between two timestamps, same unit.
type TimeDuration int64

const (
	MinTimestamp TimeStamp = 0
	MaxTimestamp TimeStamp = math.MaxInt64
)

// ParamID identifies a logical series.
type ParamID uint32

// EntryOffset is a byte offset from the start of a page.
type EntryOffset uint32

// EntryPrefixSize is the fixed on-disk prefix of every record:
// param id (u32), timestamp (i64), length (u32).
const EntryPrefixSize = 16

// Entry is the owned record shape. Length counts the full on-disk
// footprint of the record, prefix included.
type Entry struct {
	ParamID ParamID
	Time    TimeStamp
	Length  uint32
	Payload []byte
}

// NewEntry builds an entry around payload with a consistent Length.
func NewEntry(param ParamID, ts TimeStamp, payload []byte) Entry {
	return Entry{
		ParamID: param,
		Time:    ts,
		Length:  uint32(EntryPrefixSize + len(payload)),
		Payload: payload,
	}
}

// RangeEntry is the borrowed record shape: the payload memory belongs to
// the caller and the on-disk length field holds the pure payload length.
// Written out, it reads forward exactly like an Entry prefix followed by
// the payload bytes.
type RangeEntry struct {
	ParamID ParamID
	Time    TimeStamp
	Payload []byte
}

func putEntryPrefix(dst []byte, param ParamID, ts TimeStamp, length uint32) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(param))
	binary.LittleEndian.PutUint64(dst[4:12], uint64(ts))
	binary.LittleEndian.PutUint32(dst[12:16], length)
}

func readEntryPrefix(src []byte) (param ParamID, ts TimeStamp, length uint32) {
	param = ParamID(binary.LittleEndian.Uint32(src[0:4]))
	ts = TimeStamp(binary.LittleEndian.Uint64(src[4:12]))
	length = binary.LittleEndian.Uint32(src[12:16])
	return param, ts, length
}
