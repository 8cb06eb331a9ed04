// Package storage ties the engine together: a round-robin set of
// mmap'd volumes, an atomic active-volume index with mutex-guarded
// rotation, and a background worker that drains cache batches into the
// active page's offset index.
package storage

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/channels"

	"github.com/ollie314/Akumuli/cache"
	"github.com/ollie314/Akumuli/cursor"
	"github.com/ollie314/Akumuli/page"
	"github.com/ollie314/Akumuli/utils/log"
)

// Storage is the public write/search surface over a volume set.
type Storage struct {
	volumes []*Volume
	ttl     page.TimeDuration

	// active only grows; the current volume is volumes[active % N].
	// Readers load it atomically, rotation is serialized under mu.
	active atomic.Uint64
	mu     sync.Mutex

	drainQ   *channels.InfiniteChannel
	workerWG sync.WaitGroup
	stopOnce sync.Once
}

// Open mounts the storage described by the metadata file. maxLateWrite
// is the cache generation window; maxCacheSize bounds live cache
// entries per volume.
func Open(metadataPath string, maxLateWrite page.TimeDuration, maxCacheSize int) (*Storage, error) {
	paths, err := readMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	s := &Storage{
		ttl:    maxLateWrite,
		drainQ: channels.NewInfiniteChannel(),
	}
	for _, path := range paths {
		vol, verr := OpenVolume(path, maxLateWrite, maxCacheSize)
		if verr != nil {
			for _, open := range s.volumes {
				open.Detach()
			}
			return nil, verr
		}
		s.volumes = append(s.volumes, vol)
	}

	if err := s.selectActivePage(); err != nil {
		for _, open := range s.volumes {
			open.Detach()
		}
		return nil, err
	}

	s.workerWG.Add(1)
	go s.runWorker()
	return s, nil
}

// selectActivePage elects the volume with the greatest open_count,
// breaking ties toward the greatest index. Equal open and close counts
// on the winner mean the previous shutdown was interrupted mid-rotation;
// the rotation is finished here.
func (s *Storage) selectActivePage() error {
	maxIndex := 0
	maxOpens := int64(-1)
	for i, vol := range s.volumes {
		if opens := int64(vol.page.OpenCount()); opens >= maxOpens {
			maxOpens = opens
			maxIndex = i
		}
	}
	s.active.Store(uint64(maxIndex))

	activePage := s.volumes[maxIndex].page
	if activePage.CloseCount() == activePage.OpenCount() {
		return s.advanceVolume(uint64(maxIndex))
	}
	return nil
}

// ActiveVolumeIndex is the index of the volume currently taking writes.
func (s *Storage) ActiveVolumeIndex() int {
	return int(s.active.Load() % uint64(len(s.volumes)))
}

// VolumeCount returns the number of volumes in rotation.
func (s *Storage) VolumeCount() int { return len(s.volumes) }

// volumeAt returns the volume a rotation revision maps to.
func (s *Storage) volumeAt(rev uint64) *Volume {
	return s.volumes[rev%uint64(len(s.volumes))]
}

// Write appends an owned entry to the active page and records its
// offset in the volume cache. Page overflow rotates to the next volume
// and retries; the cache is only told about successfully appended
// entries.
func (s *Storage) Write(e page.Entry) error {
	return s.write(func(p *page.PageHeader) (page.EntryOffset, error) {
		return p.AddEntry(e)
	}, e.Time, e.ParamID)
}

// WriteRange appends a borrowed-payload entry, same protocol as Write.
func (s *Storage) WriteRange(e page.RangeEntry) error {
	return s.write(func(p *page.PageHeader) (page.EntryOffset, error) {
		return p.AddRangeEntry(e)
	}, e.Time, e.ParamID)
}

func (s *Storage) write(add func(*page.PageHeader) (page.EntryOffset, error), ts page.TimeStamp, param page.ParamID) error {
	for {
		rev := s.active.Load()
		vol := s.volumeAt(rev)
		vol.writeMu.Lock()
		if rev != s.active.Load() {
			// Lost a race with rotation; route to the new volume.
			vol.writeMu.Unlock()
			continue
		}
		off, err := add(vol.page)
		if err == page.ErrOverflow {
			vol.writeMu.Unlock()
			if aerr := s.advanceVolume(rev); aerr != nil {
				return aerr
			}
			continue
		}
		if err != nil {
			vol.writeMu.Unlock()
			return err
		}
		nswaps, cerr := vol.cache.Add(ts, param, off)
		vol.writeMu.Unlock()
		if nswaps > 0 {
			s.notifyWorker(nswaps, vol)
		}
		return cerr
	}
}

// advanceVolume rotates to the next volume in round-robin order. Only
// the first caller whose observed revision still matches performs the
// rotation; late callers are no-ops and retry their write.
func (s *Storage) advanceVolume(rev uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev != s.active.Load() {
		return nil
	}
	cur := s.volumeAt(rev)
	cur.writeMu.Lock()
	var err error
	if cur.page.OpenCount() > cur.page.CloseCount() {
		err = cur.Close()
	}
	cur.writeMu.Unlock()
	if err != nil {
		return err
	}

	next := rev + 1
	nv := s.volumeAt(next)
	if err := nv.ReallocateDiskSpace(); err != nil {
		return err
	}
	if err := nv.Open(); err != nil {
		return err
	}
	// Publish last so writers never observe a half-rotated volume.
	s.active.Store(next)
	return nil
}

// notifyWorker queues n drain events for vol. The queue is unbounded so
// the write path never blocks here.
func (s *Storage) notifyWorker(n int, vol *Volume) {
	for i := 0; i < n; i++ {
		s.drainQ.In() <- vol
	}
}

// runWorker consumes drain events: each event moves one frozen
// generation out of a volume cache and publishes its offsets into the
// page's sync index. Errors drop the single event and the worker keeps
// going.
func (s *Storage) runWorker() {
	defer s.workerWG.Done()
	for item := range s.drainQ.Out() {
		vol, ok := item.(*Volume)
		if !ok {
			continue
		}
		buf := make([]page.EntryOffset, vol.maxCacheSize)
		n, err := vol.cache.PickLast(buf)
		if err == cache.ErrNoData {
			continue
		}
		if err != nil {
			log.Error("drain failed on page %d: %v", vol.page.PageID(), err)
			continue
		}
		vol.writeMu.Lock()
		vol.page.SyncIndexes(buf[:n])
		vol.writeMu.Unlock()
	}
}

// Search streams offsets of entries matching the query, merged across
// all volumes in time order. The caller owns the returned cursor and
// must Close it if it abandons the scan early.
func (s *Storage) Search(param page.ParamID, lowerBound, upperBound page.TimeStamp, dir page.ScanDirection) cursor.ExternalCursor {
	q := page.Query{
		Param:      param,
		LowerBound: lowerBound,
		UpperBound: upperBound,
		Direction:  dir,
	}
	inputs := make([]cursor.FanInInput, 0, len(s.volumes))
	for _, vol := range s.volumes {
		p := vol.page
		c := cursor.NewStreamCursor(0, func(ic cursor.InternalCursor) {
			p.Search(q, ic)
		})
		inputs = append(inputs, cursor.FanInInput{Cursor: c, Page: p})
	}
	return cursor.NewFanInCursor(inputs, dir)
}

// Stop shuts the storage down: the drain queue closes, the worker
// drains every queued event before exiting, and volumes are flushed and
// unmapped. The active page deliberately stays open on disk; only
// rotation closes pages, so a clean shutdown and a crash look the same
// to selectActivePage.
func (s *Storage) Stop() {
	s.stopOnce.Do(func() {
		s.drainQ.Close()
		s.workerWG.Wait()
		for _, vol := range s.volumes {
			if err := vol.Detach(); err != nil {
				log.Error("detach of page %d failed: %v", vol.page.PageID(), err)
			}
		}
	})
}
