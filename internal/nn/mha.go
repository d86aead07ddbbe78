package nn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// LayerNormEpsilon is the epsilon used by the sublayer normalizations.
const LayerNormEpsilon = 1e-5

// MultiHeadAttention implements the multi-head attention sublayer with its
// residual connection and post-normalization.
//
// Architecture:
//
//	head_i = SDPA(Q*W_Q_i, K*W_K_i, V*W_V_i)
//	MHA(Q, K, V) = LayerNorm(dropout(Concat(head_1, ..., head_h) * FC) + Q)
//
// Example:
//
//	mha := nn.NewMultiHeadAttention(512, 8, 64, 64, 0.1, rng, backend)
//	out := mha.Forward(x, x, x, mask)            // Self-attention
//	out = mha.Forward(dec, enc, enc, srcPadMask) // Cross-attention
type MultiHeadAttention[B tensor.Backend] struct {
	WQ          *Linear[B] // [d_model -> heads*d_k]
	WK          *Linear[B] // [d_model -> heads*d_k]
	WV          *Linear[B] // [d_model -> heads*d_v]
	FC          *Linear[B] // [heads*d_v -> d_model]
	Norm        *LayerNorm[B]
	AttnDropout *Dropout[B] // on attention probabilities
	Dropout     *Dropout[B] // on the FC output
	NumHeads    int
	DK          int
	DV          int
	DModel      int
	temperature float32
}

// NewMultiHeadAttention creates a new multi-head attention module.
//
// W_Q and W_K are drawn from N(0, 2/(d_model+d_k)), W_V from
// N(0, 2/(d_model+d_v)), and FC is Xavier normal. Projection biases start at zero.
func NewMultiHeadAttention[B tensor.Backend](
	dModel, numHeads, dK, dV int,
	dropout float32,
	rng *rand.Rand,
	backend B,
) *MultiHeadAttention[B] {
	if dModel <= 0 || numHeads <= 0 || dK <= 0 || dV <= 0 {
		panic(fmt.Sprintf("MultiHeadAttention: invalid dimensions d_model=%d heads=%d d_k=%d d_v=%d",
			dModel, numHeads, dK, dV))
	}

	projection := func(out, headDim int) *Linear[B] {
		std := math.Sqrt(2.0 / float64(dModel+headDim))
		weight := Normal(0, std, tensor.Shape{out, dModel}, rng, backend)
		bias := Zeros(tensor.Shape{out}, backend)
		return NewLinearWithWeight(NewParameter("weight", weight), NewParameter("bias", bias))
	}

	fcWeight := XavierNormal(numHeads*dV, dModel, tensor.Shape{dModel, numHeads * dV}, rng, backend)
	fcBias := Zeros(tensor.Shape{dModel}, backend)

	return &MultiHeadAttention[B]{
		WQ:          projection(numHeads*dK, dK),
		WK:          projection(numHeads*dK, dK),
		WV:          projection(numHeads*dV, dV),
		FC:          NewLinearWithWeight(NewParameter("weight", fcWeight), NewParameter("bias", fcBias)),
		Norm:        NewLayerNorm(dModel, LayerNormEpsilon, backend),
		AttnDropout: NewDropout[B](dropout, rng),
		Dropout:     NewDropout[B](dropout, rng),
		NumHeads:    numHeads,
		DK:          dK,
		DV:          dV,
		DModel:      dModel,
		temperature: float32(math.Sqrt(float64(dK))),
	}
}

// Forward computes multi-head attention.
//
// Args:
//   - query: [batch, seq_q, d_model], also the residual input
//   - key: [batch, seq_k, d_model]
//   - value: [batch, seq_k, d_model]
//   - mask: [batch, seq_q, seq_k] or [seq_q, seq_k], true where attention is forbidden, or nil
//
// Returns:
//   - output: [batch, seq_q, d_model]
func (m *MultiHeadAttention[B]) Forward(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[bool, B],
) *tensor.Tensor[float32, B] {
	out, _ := m.attend(query, key, value, mask)
	return out
}

// ForwardWithWeights is Forward that also returns the attention probabilities
// as [batch*heads, seq_q, seq_k], indexed batch-major (b*heads + h).
func (m *MultiHeadAttention[B]) ForwardWithWeights(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[bool, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	out, weights := m.attend(query, key, value, mask)
	shape := weights.Shape()
	return out, weights.Reshape(shape[0]*shape[1], shape[2], shape[3])
}

func (m *MultiHeadAttention[B]) attend(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[bool, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	m.validate(query, key, value)
	batch, seqQ, seqK := query.Shape()[0], query.Shape()[1], key.Shape()[1]

	// [batch, seq, heads*d] -> [batch, heads, seq, d]
	q := m.WQ.Forward(query).Reshape(batch, seqQ, m.NumHeads, m.DK).Transpose(0, 2, 1, 3)
	k := m.WK.Forward(key).Reshape(batch, seqK, m.NumHeads, m.DK).Transpose(0, 2, 1, 3)
	v := m.WV.Forward(value).Reshape(batch, seqK, m.NumHeads, m.DV).Transpose(0, 2, 1, 3)

	attnOut, weights := ScaledDotProductAttention(q, k, v, AttentionBias(mask), m.temperature, m.AttnDropout)

	// [batch, heads, seq_q, d_v] -> [batch, seq_q, heads*d_v]
	concat := attnOut.Transpose(0, 2, 1, 3).Reshape(batch, seqQ, m.NumHeads*m.DV)

	output := m.Dropout.Forward(m.FC.Forward(concat))
	return m.Norm.Forward(output.Add(query)), weights
}

func (m *MultiHeadAttention[B]) validate(query, key, value *tensor.Tensor[float32, B]) {
	qs, ks, vs := query.Shape(), key.Shape(), value.Shape()
	if len(qs) != 3 || len(ks) != 3 || len(vs) != 3 {
		panic(fmt.Sprintf("MultiHeadAttention: expected 3D inputs, got %v, %v, %v", qs, ks, vs))
	}
	if qs[2] != m.DModel || ks[2] != m.DModel || vs[2] != m.DModel {
		panic(fmt.Sprintf("MultiHeadAttention: expected d_model=%d, got %v, %v, %v", m.DModel, qs, ks, vs))
	}
	if qs[0] != ks[0] || ks[0] != vs[0] || ks[1] != vs[1] {
		panic(fmt.Sprintf("MultiHeadAttention: incompatible inputs %v, %v, %v", qs, ks, vs))
	}
}

// SetTraining toggles both dropouts.
func (m *MultiHeadAttention[B]) SetTraining(training bool) {
	m.AttnDropout.SetTraining(training)
	m.Dropout.SetTraining(training)
}

// Parameters returns all trainable parameters (W_Q, W_K, W_V, FC and the norm).
func (m *MultiHeadAttention[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 10)
	params = append(params, m.WQ.Parameters()...)
	params = append(params, m.WK.Parameters()...)
	params = append(params, m.WV.Parameters()...)
	params = append(params, m.FC.Parameters()...)
	params = append(params, m.Norm.Parameters()...)
	return params
}
