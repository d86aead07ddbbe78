package transformer

import (
	"fmt"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// checkSequence validates an id/position pair before any computation:
// both [batch, length], length within the positional table, ids in
// [0, vocab) and positions in [0, nPosition).
func checkSequence[B tensor.Backend](role string, seq, pos *tensor.Tensor[int32, B], vocab, nPosition int) error {
	shape := seq.Shape()
	if len(shape) != 2 {
		return fmt.Errorf("%w: %s ids must be [batch, length], got %v", ErrDimensionMismatch, role, shape)
	}
	if !pos.Shape().Equal(shape) {
		return fmt.Errorf("%w: %s ids %v and positions %v differ", ErrDimensionMismatch, role, shape, pos.Shape())
	}
	if maxLen := nPosition - 1; shape[1] > maxLen {
		return fmt.Errorf("%w: %s length %d exceeds maximum sequence length %d",
			ErrPositionOutOfRange, role, shape[1], maxLen)
	}

	for _, id := range seq.Data() {
		if id < 0 || int(id) >= vocab {
			return fmt.Errorf("%w: %s id %d not in [0, %d)", ErrTokenOutOfRange, role, id, vocab)
		}
	}
	for _, p := range pos.Data() {
		if p < 0 || int(p) >= nPosition {
			return fmt.Errorf("%w: %s position %d not in [0, %d)", ErrPositionOutOfRange, role, p, nPosition)
		}
	}
	return nil
}
