package transformer

import (
	"errors"

	"github.com/born-ml/seq2seq/internal/nn"
)

// Common errors. Configuration errors are reported by New; the others by a
// forward pass, before any computation starts.
var (
	ErrConfig             = errors.New("invalid configuration")
	ErrPositionOutOfRange = nn.ErrPositionOutOfRange
	ErrDimensionMismatch  = errors.New("dimension mismatch")
	ErrTokenOutOfRange    = errors.New("token id out of range")
)
