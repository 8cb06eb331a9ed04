package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ollie314/Akumuli/page"
	"github.com/ollie314/Akumuli/utils/log"
	"github.com/ollie314/Akumuli/utils/mmap"
)

// DefaultPageSize is the conventional page file size (256 MiB, the same
// as the init command's default). CreateStorage does not apply it; it
// always uses the page size it is given.
const DefaultPageSize = 256 << 20

// CreateStorage lays down a new storage on disk: numVolumes page files
// of pageSize bytes under volumesDir, headers formatted with ascending
// page ids and the first page activated, plus the metadata file under
// metadataDir. A failure while creating a page file removes the page
// files created before it; a failure writing the metadata file leaves
// the page files in place. Returns the metadata file path.
func CreateStorage(name, metadataDir, volumesDir string, numVolumes int, pageSize uint64) (string, error) {
	if numVolumes <= 0 {
		return "", InvalidStorageError("cannot create storage with no volumes")
	}
	if pageSize < page.HeaderSize+1 {
		return "", InvalidStorageError(fmt.Sprintf("page size %d is too small", pageSize))
	}

	paths := make([]string, numVolumes)
	for i := range paths {
		paths[i] = filepath.Join(volumesDir, fmt.Sprintf("%s_%d.volume", name, i))
	}

	created := make([]string, 0, numVolumes)
	for i, path := range paths {
		if err := createPageFile(path, uint32(i), pageSize); err != nil {
			for _, p := range created {
				if rmErr := os.Remove(p); rmErr != nil {
					log.Error("cleanup of %s failed: %v", p, rmErr)
				}
			}
			return "", fmt.Errorf("storage: create page file %s: %w", path, err)
		}
		created = append(created, path)
	}

	metaPath := filepath.Join(metadataDir, name+".akumuli")
	if err := writeMetadata(metaPath, paths); err != nil {
		return "", err
	}
	return metaPath, nil
}

// createPageFile truncates a file to its full size and formats the page
// header in place. The first page gets activated so a freshly created
// storage has exactly one open volume.
func createPageFile(path string, pageID uint32, pageSize uint64) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := f.Truncate(int64(pageSize)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	region, err := mmap.Map(path)
	if err != nil {
		return err
	}
	p := page.InitPage(region.Data, page.Index, pageID)
	if pageID == 0 {
		p.Reuse()
	}
	if err := region.Flush(); err != nil {
		region.Unmap()
		return err
	}
	return region.Unmap()
}
