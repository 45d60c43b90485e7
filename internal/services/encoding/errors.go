package encoding

import (
	"errors"
	"fmt"
)

// ErrInvalidEncoding is matched by every InvalidEncodingError via errors.Is.
var ErrInvalidEncoding = errors.New("invalid encoding")

// InvalidEncodingError reports a vector that does not fit the layout. Index is -1 for
// length mismatches.
type InvalidEncodingError struct {
	Index  int
	Value  float64
	Reason string
}

func (e *InvalidEncodingError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid encoding: %s", e.Reason)
	}
	return fmt.Sprintf("invalid encoding: component %d (%v): %s", e.Index, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidEncoding) true.
func (e *InvalidEncodingError) Is(target error) bool {
	return target == ErrInvalidEncoding
}
