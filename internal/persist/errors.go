package persist

import "errors"

var (
	// ErrDigestMismatch means a stored payload no longer matches its digest.
	ErrDigestMismatch = errors.New("payload digest mismatch")
	// ErrQueueFull means the async writer already holds the maximum number of worlds.
	ErrQueueFull = errors.New("async write queue full")
	// ErrWriterClosed is returned for writes after Close.
	ErrWriterClosed = errors.New("async writer closed")
)
