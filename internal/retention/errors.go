package retention

import "errors"

var (
	// ErrStorageRead marks persisted state that exists but could not be read.
	ErrStorageRead = errors.New("retention storage read failed")
	// ErrStorageParse marks persisted state that could not be decoded.
	ErrStorageParse = errors.New("retention storage parse failed")
	// ErrStorageWrite marks a save or delete that did not reach storage.
	ErrStorageWrite = errors.New("retention storage write failed")
)
