package transformer

import (
	"fmt"

	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Batch is a padded source/target pair with 1-based positions, ready for Forward.
type Batch[B tensor.Backend] struct {
	Src    *tensor.Tensor[int32, B] // [batch, src_len]
	SrcPos *tensor.Tensor[int32, B] // [batch, src_len]
	Tgt    *tensor.Tensor[int32, B] // [batch, tgt_len]
	TgtPos *tensor.Tensor[int32, B] // [batch, tgt_len]
}

// BatchFromIDs pads ragged id sequences to the longest in each side and
// derives their positions. tgt may be nil for source-only batches.
func BatchFromIDs[B tensor.Backend](src, tgt [][]int32, backend B) (*Batch[B], error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrDimensionMismatch)
	}
	if tgt != nil && len(tgt) != len(src) {
		return nil, fmt.Errorf("%w: %d source sequences but %d target sequences",
			ErrDimensionMismatch, len(src), len(tgt))
	}

	if !hasTokens(src) || (tgt != nil && !hasTokens(tgt)) {
		return nil, fmt.Errorf("%w: every sequence is empty", ErrDimensionMismatch)
	}

	b := &Batch[B]{}
	b.Src, b.SrcPos = PadSequences(src, backend)
	if tgt != nil {
		b.Tgt, b.TgtPos = PadSequences(tgt, backend)
	}
	return b, nil
}

func hasTokens(seqs [][]int32) bool {
	for _, s := range seqs {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

// PadSequences packs seqs into a [len(seqs), max_len] id tensor padded with
// nn.PadIndex, along with the matching positions. At least one sequence must
// be non-empty.
func PadSequences[B tensor.Backend](seqs [][]int32, backend B) (ids, positions *tensor.Tensor[int32, B]) {
	length := 0
	for _, s := range seqs {
		length = max(length, len(s))
	}

	ids = tensor.Zeros[int32](tensor.Shape{len(seqs), length}, backend)
	data := ids.Data()
	for i, s := range seqs {
		copy(data[i*length:], s)
	}
	return ids, Positions(ids)
}

// Positions returns 1-based positions for seq, with 0 at padding slots.
func Positions[B tensor.Backend](seq *tensor.Tensor[int32, B]) *tensor.Tensor[int32, B] {
	shape := seq.Shape()
	pos := tensor.Zeros[int32](shape, seq.Backend())
	data := pos.Data()
	length := shape[len(shape)-1]
	for i, id := range seq.Data() {
		if id != nn.PadIndex {
			data[i] = int32(i%length) + 1
		}
	}
	return pos
}
