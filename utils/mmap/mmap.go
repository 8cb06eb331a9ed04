// Package mmap wraps a writable shared memory mapping of a whole file.
// Volumes are fixed-size page files, so the mapping never needs to grow;
// the only resize operation is the destructive remap used when a volume
// is recycled.
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Region is a read-write mapping of an entire file.
type Region struct {
	Data []byte
	file *os.File
	size int64
}

// Map opens path and maps the whole file read-write, shared.
func Map(path string) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("mmap: open %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: stat %s: %w", path, err)
	}
	if fi.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("mmap: %s is empty", path)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: map %s: %w", path, err)
	}
	return &Region{Data: data, file: f, size: fi.Size()}, nil
}

// Flush forces dirty pages of the mapping out to the file.
func (r *Region) Flush() error {
	if r.Data == nil {
		return nil
	}
	if err := unix.Msync(r.Data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("mmap: msync %s: %w", r.file.Name(), err)
	}
	return nil
}

// RemapDestructive throws away the file contents and maps a zeroed file of
// the same size in its place. The previous Data slice must not be used
// afterwards.
func (r *Region) RemapDestructive() error {
	if err := unix.Munmap(r.Data); err != nil {
		return fmt.Errorf("mmap: munmap %s: %w", r.file.Name(), err)
	}
	r.Data = nil
	if err := r.file.Truncate(0); err != nil {
		return fmt.Errorf("mmap: truncate %s: %w", r.file.Name(), err)
	}
	if err := r.file.Truncate(r.size); err != nil {
		return fmt.Errorf("mmap: retruncate %s: %w", r.file.Name(), err)
	}
	data, err := unix.Mmap(int(r.file.Fd()), 0, int(r.size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap: remap %s: %w", r.file.Name(), err)
	}
	r.Data = data
	return nil
}

// Unmap releases the mapping and closes the file.
func (r *Region) Unmap() error {
	if r.Data != nil {
		if err := unix.Munmap(r.Data); err != nil {
			return fmt.Errorf("mmap: munmap %s: %w", r.file.Name(), err)
		}
		r.Data = nil
	}
	return r.file.Close()
}

// Name returns the path of the backing file.
func (r *Region) Name() string {
	return r.file.Name()
}
