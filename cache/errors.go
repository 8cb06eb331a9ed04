package cache

import "errors"

var (
	// ErrLateWrite rejects a write older than the accepted horizon.
	ErrLateWrite = errors.New("cache: write is older than the late write horizon")
	// ErrOverflow rejects a write that would stretch a generation's
	// time window past its capacity.
	ErrOverflow = errors.New("cache: write does not fit the generation window")
	// ErrNoData means the frozen pool has nothing to drain.
	ErrNoData = errors.New("cache: no frozen generation to pick")
)
