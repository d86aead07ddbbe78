package nn

import "errors"

// Common errors.
var (
	ErrPositionOutOfRange = errors.New("position out of range")
)
