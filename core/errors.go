package core

import "errors"

// Argument errors are raised before any I/O and are fixed by correcting input.
var ErrInvalidArgument = errors.New("invalid argument")

// State errors indicate a segment used outside its lifecycle.
var (
	ErrSegmentClosed = errors.New("segment is not open")
	ErrSegmentOpen   = errors.New("segment is already open")
	ErrWrongMode     = errors.New("segment opened in wrong mode")
)

// Format and bounds errors: a wrong offset/length from the caller, or a
// truncated/corrupted segment. Reads failing with these never return data.
var (
	ErrOutOfBounds   = errors.New("record exceeds segment size")
	ErrCorruptRecord = errors.New("corrupt record")
)
