package storage

import "fmt"

// InvalidStorageError covers structural problems found while opening a
// storage: bad metadata, missing volumes, malformed page headers. These
// are fatal at open time.
type InvalidStorageError string

func (e InvalidStorageError) Error() string {
	return fmt.Sprintf("storage: invalid storage: %s", string(e))
}
