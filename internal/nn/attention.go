package nn

import (
	"github.com/born-ml/seq2seq/internal/tensor"
)

// ScaledDotProductAttention computes attention with the scaled dot-product mechanism:
//
//	Attention(Q, K, V) = dropout(softmax(QK^T / temperature + bias)) * V
//
// Parameters:
//   - query: Query tensor [batch, heads, seq_q, d_k]
//   - key: Key tensor [batch, heads, seq_k, d_k]
//   - value: Value tensor [batch, heads, seq_k, d_v]
//   - bias: Additive bias broadcastable to [batch, heads, seq_q, seq_k] (see AttentionBias), or nil
//   - temperature: Divisor of the logits, typically sqrt(d_k)
//   - dropout: Applied to the attention probabilities, or nil
//
// Returns:
//   - output: Attended values [batch, heads, seq_q, d_v]
//   - weights: Attention probabilities before dropout [batch, heads, seq_q, seq_k]
//
// The softmax subtracts the per-row maximum, so a MaskBias entry receives
// zero probability whatever the raw score.
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	bias *tensor.Tensor[float32, B],
	temperature float32,
	dropout *Dropout[B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	validateAttentionInputs(query, key, value)

	// [b, h, seq_q, d_k] @ [b, h, d_k, seq_k] = [b, h, seq_q, seq_k]
	scores := query.BatchMatMul(key.Transpose(0, 1, 3, 2)).MulScalar(1 / temperature)
	if bias != nil {
		scores = scores.Add(bias)
	}

	weights := scores.Softmax(-1)
	probs := weights
	if dropout != nil {
		probs = dropout.Forward(weights)
	}

	return probs.BatchMatMul(value), weights
}

func validateAttentionInputs[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
) {
	if len(query.Shape()) != 4 {
		panic("ScaledDotProductAttention: query must be 4D [batch, heads, seq_q, d_k]")
	}
	if len(key.Shape()) != 4 {
		panic("ScaledDotProductAttention: key must be 4D [batch, heads, seq_k, d_k]")
	}
	if len(value.Shape()) != 4 {
		panic("ScaledDotProductAttention: value must be 4D [batch, heads, seq_k, d_v]")
	}
	if query.Shape()[3] != key.Shape()[3] {
		panic("ScaledDotProductAttention: query and key must have same d_k")
	}
	if key.Shape()[2] != value.Shape()[2] {
		panic("ScaledDotProductAttention: key and value must have same seq length")
	}
}
