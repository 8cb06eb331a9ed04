package storage

import (
	"fmt"

	"github.com/ollie314/Akumuli/page"
	"github.com/ollie314/Akumuli/utils/mmap"
)

// CheckIntegrity maps every volume of a storage and verifies header
// sanity: page type, lifecycle counters, index bounds, and bounding box
// agreement with the entry count. Returns one report line per volume;
// structural problems surface as errors.
func CheckIntegrity(metadataPath string) ([]string, error) {
	paths, err := readMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	report := make([]string, 0, len(paths))
	for i, path := range paths {
		region, err := mmap.Map(path)
		if err != nil {
			return nil, err
		}
		line, err := checkVolume(i, path, region.Data)
		region.Unmap()
		if err != nil {
			return nil, err
		}
		report = append(report, line)
	}
	return report, nil
}

func checkVolume(index int, path string, data []byte) (string, error) {
	p := page.AttachPage(data)
	if p.Type() != page.Index {
		return "", InvalidStorageError(fmt.Sprintf("volume %d: page type mismatch", index))
	}
	if p.OpenCount() < p.CloseCount() {
		return "", InvalidStorageError(fmt.Sprintf("volume %d: close count exceeds open count", index))
	}
	if p.Length() != uint64(len(data)) {
		return "", InvalidStorageError(fmt.Sprintf("volume %d: header length %d does not match file size %d",
			index, p.Length(), len(data)))
	}
	if p.SyncIndex() > p.Count() {
		return "", InvalidStorageError(fmt.Sprintf("volume %d: sync index %d past count %d",
			index, p.SyncIndex(), p.Count()))
	}
	if p.FreeSpace() < 0 {
		return "", InvalidStorageError(fmt.Sprintf("volume %d: index overlaps records", index))
	}
	if p.Count() > 0 {
		box := p.BBox()
		if box.MinTS > box.MaxTS || box.MinID > box.MaxID {
			return "", InvalidStorageError(fmt.Sprintf("volume %d: bounding box is inverted with %d entries",
				index, p.Count()))
		}
	}
	status := "active"
	if p.OpenCount() == p.CloseCount() {
		status = "idle"
	}
	return fmt.Sprintf("volume %d %s: page_id=%d %s entries=%d synced=%d open=%d close=%d",
		index, path, p.PageID(), status, p.Count(), p.SyncIndex(), p.OpenCount(), p.CloseCount()), nil
}
