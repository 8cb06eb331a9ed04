package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/buger/jsonparser"
)

// The metadata file is the root of a storage: a small JSON catalog
// naming every volume in rotation order.
//
//	{ "creation_time": "<RFC822>",
//	  "num_volumes": N,
//	  "volumes": [ {"index": i, "path": "..."}, ... ] }

type volumeRef struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}

type metadata struct {
	CreationTime string      `json:"creation_time"`
	NumVolumes   int         `json:"num_volumes"`
	Volumes      []volumeRef `json:"volumes"`
}

// writeMetadata creates the metadata file for the given volume paths in
// index order.
func writeMetadata(path string, volumePaths []string) error {
	meta := metadata{
		CreationTime: time.Now().UTC().Format(time.RFC822),
		NumVolumes:   len(volumePaths),
	}
	for i, p := range volumePaths {
		meta.Volumes = append(meta.Volumes, volumeRef{Index: i, Path: p})
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("storage: write metadata %s: %w", path, err)
	}
	return nil
}

// readMetadata parses and validates the metadata file, returning volume
// paths in index order. Every index in [0, N) must appear exactly once
// with a non-empty path.
func readMetadata(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read metadata %s: %w", path, err)
	}
	numVolumes, err := jsonparser.GetInt(data, "num_volumes")
	if err != nil {
		return nil, InvalidStorageError("metadata has no num_volumes: " + err.Error())
	}
	if numVolumes <= 0 {
		return nil, InvalidStorageError("num_volumes must be positive")
	}

	paths := make([]string, numVolumes)
	var badLink error
	_, err = jsonparser.ArrayEach(data, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if badLink != nil {
			return
		}
		index, ierr := jsonparser.GetInt(value, "index")
		volPath, perr := jsonparser.GetString(value, "path")
		if ierr != nil || perr != nil {
			badLink = InvalidStorageError("bad volume link")
			return
		}
		if index < 0 || index >= numVolumes {
			badLink = InvalidStorageError(fmt.Sprintf("volume index %d out of range", index))
			return
		}
		if paths[index] != "" {
			badLink = InvalidStorageError(fmt.Sprintf("volume index %d appears twice", index))
			return
		}
		paths[index] = volPath
	}, "volumes")
	if err != nil {
		return nil, InvalidStorageError("metadata has no volumes list: " + err.Error())
	}
	if badLink != nil {
		return nil, badLink
	}
	for i, p := range paths {
		if p == "" {
			return nil, InvalidStorageError(fmt.Sprintf("volume %d is missing", i))
		}
	}
	return paths, nil
}
