package storage

import (
	"sync"

	"github.com/ollie314/Akumuli/cache"
	"github.com/ollie314/Akumuli/page"
	"github.com/ollie314/Akumuli/utils/mmap"
)

// Volume is one page file in the rotation together with its
// write-through cache. It exclusively owns the mapping and the cache;
// the page header aliases the first bytes of the mapping.
type Volume struct {
	region       *mmap.Region
	page         *page.PageHeader
	cache        *cache.Cache
	ttl          page.TimeDuration
	maxCacheSize int

	// writeMu confines page allocator mutations (count, last_offset,
	// record bytes) to one writer at a time.
	writeMu sync.Mutex
}

// OpenVolume maps an existing page file and attaches a fresh cache.
func OpenVolume(path string, ttl page.TimeDuration, maxCacheSize int) (*Volume, error) {
	region, err := mmap.Map(path)
	if err != nil {
		return nil, err
	}
	p := page.AttachPage(region.Data)
	if p.Type() != page.Index {
		region.Unmap()
		return nil, InvalidStorageError("page type mismatch in " + path)
	}
	if p.OpenCount() < p.CloseCount() {
		region.Unmap()
		return nil, InvalidStorageError("corrupt lifecycle counters in " + path)
	}
	return &Volume{
		region:       region,
		page:         p,
		cache:        cache.New(ttl, maxCacheSize),
		ttl:          ttl,
		maxCacheSize: maxCacheSize,
	}, nil
}

// Page returns the non-owning header view over the mapping.
func (v *Volume) Page() *page.PageHeader { return v.page }

// Cache returns the volume's write-through cache.
func (v *Volume) Cache() *cache.Cache { return v.cache }

// ReallocateDiskSpace drops the volume's contents through a destructive
// remap and formats a fresh header, preserving the page id and the
// lifecycle counters.
func (v *Volume) ReallocateDiskSpace() error {
	pageID := v.page.PageID()
	openCount := v.page.OpenCount()
	closeCount := v.page.CloseCount()
	pageType := v.page.Type()

	if err := v.region.RemapDestructive(); err != nil {
		return err
	}
	p := page.InitPage(v.region.Data, pageType, pageID)
	p.RestoreCounters(openCount, closeCount)
	v.page = p
	v.cache = cache.New(v.ttl, v.maxCacheSize)
	return nil
}

// Open activates the page for writing and flushes the new lifecycle
// state to disk.
func (v *Volume) Open() error {
	v.page.Reuse()
	return v.region.Flush()
}

// Close marks the page idle and flushes.
func (v *Volume) Close() error {
	v.page.Close()
	return v.region.Flush()
}

// Detach flushes and releases the mapping. The volume is unusable
// afterwards.
func (v *Volume) Detach() error {
	if err := v.region.Flush(); err != nil {
		v.region.Unmap()
		return err
	}
	return v.region.Unmap()
}
