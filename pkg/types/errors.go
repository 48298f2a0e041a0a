package types

import "github.com/pkg/errors"

// Error kinds. Callers match them with errors.Is; the returned errors carry
// the file, row or index involved as extra context.
var (
	// ErrConfig marks a missing or unreadable CSV file or image directory.
	ErrConfig = errors.New("configuration error")

	// ErrParse marks a malformed annotation row.
	ErrParse = errors.New("parse error")

	// ErrImage marks a missing or undecodable image file.
	ErrImage = errors.New("image error")

	// ErrIndexOutOfRange is returned for dataset or store indices outside [0, Len).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNoLandmarks is returned when no landmark survives the sentinel filter.
	ErrNoLandmarks = errors.New("no landmarks")
)
