package nn

import (
	"math/rand/v2"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// PositionwiseFeedForward is the per-position two-layer network with its
// residual connection and post-normalization:
//
//	FFN(x) = LayerNorm(dropout(Linear2(ReLU(Linear1(x)))) + x)
//
// Positions never mix: the network acts like a 1x1 convolution over the sequence.
//
// Example:
//
//	ffn := nn.NewPositionwiseFeedForward(512, 2048, 0.1, rng, backend)
//	output := ffn.Forward(x) // [batch, seq, 512] -> [batch, seq, 512]
type PositionwiseFeedForward[B tensor.Backend] struct {
	Linear1 *Linear[B] // [d_model -> d_hidden]
	Linear2 *Linear[B] // [d_hidden -> d_model]
	Norm    *LayerNorm[B]
	Dropout *Dropout[B]
}

// NewPositionwiseFeedForward creates a new feed-forward sublayer.
func NewPositionwiseFeedForward[B tensor.Backend](dModel, dHidden int, dropout float32, rng *rand.Rand, backend B) *PositionwiseFeedForward[B] {
	return &PositionwiseFeedForward[B]{
		Linear1: NewLinear(dModel, dHidden, rng, backend),
		Linear2: NewLinear(dHidden, dModel, rng, backend),
		Norm:    NewLayerNorm(dModel, LayerNormEpsilon, backend),
		Dropout: NewDropout[B](dropout, rng),
	}
}

// Forward computes the feed-forward output. Input and output are [..., d_model].
func (f *PositionwiseFeedForward[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	h := f.Linear2.Forward(f.Linear1.Forward(x).ReLU())
	return f.Norm.Forward(f.Dropout.Forward(h).Add(x))
}

// SetTraining toggles dropout.
func (f *PositionwiseFeedForward[B]) SetTraining(training bool) {
	f.Dropout.SetTraining(training)
}

// Parameters returns all trainable parameters (Linear1, Linear2 and the norm).
func (f *PositionwiseFeedForward[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 6)
	params = append(params, f.Linear1.Parameters()...)
	params = append(params, f.Linear2.Parameters()...)
	params = append(params, f.Norm.Parameters()...)
	return params
}
