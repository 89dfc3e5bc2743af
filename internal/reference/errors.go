package reference

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrParse        = errors.New("reference: malformed training data")
	ErrEmptyDataset = errors.New("reference: no usable entries")
	ErrNotLoaded    = errors.New("reference: store not loaded")
)

// ErrUnsupportedVersion is both a distinct kind and a parse failure:
// errors.Is matches it against ErrParse as well.
var ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrParse)

// ErrDimensionMismatch reports feature vectors of differing lengths. It also
// matches ErrParse when the mismatch comes from a training file.
var ErrDimensionMismatch = errors.New("reference: feature dimension mismatch")

// parseErrorf wraps a formatted message in ErrParse.
func parseErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// dimensionError builds an error matching both ErrParse and
// ErrDimensionMismatch.
func dimensionError(index, got, want int) error {
	return fmt.Errorf("%w: %w: entry %d has %d components, want %d",
		ErrParse, ErrDimensionMismatch, index, got, want)
}
