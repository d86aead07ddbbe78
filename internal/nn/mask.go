package nn

import (
	"fmt"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// PadIndex is the token id (and position id) reserved for padding.
const PadIndex = 0

// MaskBias is added to the attention logits of masked pairs.
const MaskBias float32 = -1e9

// NonPadMask returns a [batch, length, 1] float mask that is 1 at real tokens
// and 0 at padding. Sublayer outputs are multiplied by it.
func NonPadMask[B tensor.Backend](seq *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := mustSequence("NonPadMask", seq)
	mask := tensor.Zeros[float32](tensor.Shape{shape[0], shape[1], 1}, seq.Backend())
	data := mask.Data()
	for i, id := range seq.Data() {
		if id != PadIndex {
			data[i] = 1
		}
	}
	return mask
}

// KeyPadMask returns a [batch, len_q, len_k] mask that is true for every
// query position at each key position holding padding in seqK.
func KeyPadMask[B tensor.Backend](seqK, seqQ *tensor.Tensor[int32, B]) *tensor.Tensor[bool, B] {
	kShape := mustSequence("KeyPadMask", seqK)
	qShape := mustSequence("KeyPadMask", seqQ)
	if kShape[0] != qShape[0] {
		panic(fmt.Sprintf("KeyPadMask: batch mismatch between keys %v and queries %v", kShape, qShape))
	}

	batch, lenQ, lenK := kShape[0], qShape[1], kShape[1]
	mask := tensor.Zeros[bool](tensor.Shape{batch, lenQ, lenK}, seqK.Backend())
	data, ids := mask.Data(), seqK.Data()
	for b := 0; b < batch; b++ {
		keys := ids[b*lenK : (b+1)*lenK]
		for q := 0; q < lenQ; q++ {
			row := data[(b*lenQ+q)*lenK:]
			for k, id := range keys {
				row[k] = id == PadIndex
			}
		}
	}
	return mask
}

// SubsequentMask returns a [length, length] mask with mask[i][j] true iff
// j > i, hiding future positions from each query.
func SubsequentMask[B tensor.Backend](length int, backend B) *tensor.Tensor[bool, B] {
	mask := tensor.Zeros[bool](tensor.Shape{length, length}, backend)
	data := mask.Data()
	for i := 0; i < length; i++ {
		for j := i + 1; j < length; j++ {
			data[i*length+j] = true
		}
	}
	return mask
}

// OrMask combines two boolean masks with broadcasting: a pair is masked if
// either mask hides it.
//
// Example:
//
//	slf := nn.OrMask(nn.KeyPadMask(tgt, tgt), nn.SubsequentMask[B](length, backend))
func OrMask[B tensor.Backend](a, b *tensor.Tensor[bool, B]) *tensor.Tensor[bool, B] {
	return tensor.Or(a, b)
}

// AttentionBias converts a boolean mask ([len_q, len_k] or [batch, len_q, len_k])
// into an additive [batch, 1, len_q, len_k] bias holding MaskBias at masked
// pairs and 0 elsewhere. A nil mask yields a nil bias.
func AttentionBias[B tensor.Backend](mask *tensor.Tensor[bool, B]) *tensor.Tensor[float32, B] {
	if mask == nil {
		return nil
	}

	shape := mask.Shape()
	var biasShape tensor.Shape
	switch len(shape) {
	case 2:
		biasShape = tensor.Shape{1, 1, shape[0], shape[1]}
	case 3:
		biasShape = tensor.Shape{shape[0], 1, shape[1], shape[2]}
	default:
		panic(fmt.Sprintf("AttentionBias: expected 2D or 3D mask, got shape %v", shape))
	}

	bias := tensor.Zeros[float32](biasShape, mask.Backend())
	data := bias.Data()
	for i, masked := range mask.Data() {
		if masked {
			data[i] = MaskBias
		}
	}
	return bias
}

func mustSequence[B tensor.Backend](op string, seq *tensor.Tensor[int32, B]) tensor.Shape {
	shape := seq.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("%s: expected [batch, length] ids, got shape %v", op, shape))
	}
	return shape
}
