package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/tensor"
)

func TestScaledDotProductAttention_MaskedPairsGetZeroWeight(t *testing.T) {
	backend := cpu.New()
	rng := newRNG()
	q := tensor.Randn(tensor.Shape{1, 2, 3, 4}, rng, backend)
	k := tensor.Randn(tensor.Shape{1, 2, 3, 4}, rng, backend)
	v := tensor.Randn(tensor.Shape{1, 2, 3, 4}, rng, backend)

	// Huge raw score on the masked key must not matter.
	k.Data()[2*4] = 1e4

	bias := AttentionBias(SubsequentMask(3, backend))
	out, weights := ScaledDotProductAttention(q, k, v, bias, 2, nil)
	assert.Equal(t, tensor.Shape{1, 2, 3, 4}, out.Shape())
	require.Equal(t, tensor.Shape{1, 2, 3, 3}, weights.Shape())

	for h := 0; h < 2; h++ {
		for i := 0; i < 3; i++ {
			var sum float32
			for j := 0; j < 3; j++ {
				w := weights.At(0, h, i, j)
				if j > i {
					assert.Equal(t, float32(0), w)
				}
				sum += w
			}
			assert.InDelta(t, 1, sum, 1e-5)
		}
	}

	// First query only sees the first key: output equals v[0].
	for h := 0; h < 2; h++ {
		for d := 0; d < 4; d++ {
			assert.InDelta(t, v.At(0, h, 0, d), out.At(0, h, 0, d), 1e-5)
		}
	}
}

func TestScaledDotProductAttention_InvalidInputs(t *testing.T) {
	backend := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{1, 2, 3}, backend)
	assert.Panics(t, func() { ScaledDotProductAttention(x, x, x, nil, 1, nil) })
}

func TestMultiHeadAttention_Shapes(t *testing.T) {
	backend := cpu.New()
	rng := newRNG()
	mha := NewMultiHeadAttention(16, 4, 8, 6, 0.1, rng, backend)
	mha.SetTraining(false)

	assert.Equal(t, tensor.Shape{32, 16}, mha.WQ.Weight().Shape())
	assert.Equal(t, tensor.Shape{24, 16}, mha.WV.Weight().Shape())
	assert.Equal(t, tensor.Shape{16, 24}, mha.FC.Weight().Shape())
	assert.Len(t, mha.Parameters(), 10)

	query := tensor.Randn(tensor.Shape{2, 3, 16}, rng, backend)
	memory := tensor.Randn(tensor.Shape{2, 5, 16}, rng, backend)

	out, weights := mha.ForwardWithWeights(query, memory, memory, nil)
	assert.Equal(t, tensor.Shape{2, 3, 16}, out.Shape())
	assert.Equal(t, tensor.Shape{8, 3, 5}, weights.Shape())

	assert.Equal(t, out.Data(), mha.Forward(query, memory, memory, nil).Data())
}

func TestMultiHeadAttention_WeightsAreBatchMajor(t *testing.T) {
	backend := cpu.New()
	mha := NewMultiHeadAttention(8, 2, 4, 4, 0, newRNG(), backend)

	seqK := ids(t, backend, []int32{2, 5, 0, 0}, []int32{2, 5, 6, 3})
	x := tensor.Randn(tensor.Shape{2, 4, 8}, newRNG(), backend)
	_, weights := mha.ForwardWithWeights(x, x, x, KeyPadMask(seqK, seqK))

	// Rows 0-1 belong to batch 0 (two padded keys), rows 2-3 to batch 1.
	for row := 0; row < 4; row++ {
		for q := 0; q < 4; q++ {
			padded := weights.At(row, q, 2) + weights.At(row, q, 3)
			if row < 2 {
				assert.Equal(t, float32(0), padded)
			} else {
				assert.Greater(t, padded, float32(0))
			}
		}
	}
}

func TestMultiHeadAttention_NormalizedOutput(t *testing.T) {
	backend := cpu.New()
	mha := NewMultiHeadAttention(8, 2, 4, 4, 0, newRNG(), backend)
	x := tensor.Randn(tensor.Shape{1, 3, 8}, newRNG(), backend)
	out := mha.Forward(x, x, x, nil).Data()

	// Post-norm output has zero mean and unit variance per position.
	for p := 0; p < 3; p++ {
		row := out[p*8 : (p+1)*8]
		var mean, sq float64
		for _, v := range row {
			mean += float64(v)
		}
		mean /= 8
		for _, v := range row {
			sq += (float64(v) - mean) * (float64(v) - mean)
		}
		assert.InDelta(t, 0, mean, 1e-5)
		assert.InDelta(t, 1, math.Sqrt(sq/8), 1e-3)
	}
}

func TestMultiHeadAttention_InvalidInputs(t *testing.T) {
	backend := cpu.New()
	mha := NewMultiHeadAttention(8, 2, 4, 4, 0, newRNG(), backend)
	good := tensor.Zeros[float32](tensor.Shape{1, 3, 8}, backend)
	bad := tensor.Zeros[float32](tensor.Shape{1, 3, 7}, backend)
	otherBatch := tensor.Zeros[float32](tensor.Shape{2, 3, 8}, backend)

	assert.Panics(t, func() { mha.Forward(bad, good, good, nil) })
	assert.Panics(t, func() { mha.Forward(good, otherBatch, otherBatch, nil) })
	assert.Panics(t, func() { NewMultiHeadAttention(8, 0, 4, 4, 0, nil, backend) })
}

func TestMultiHeadAttention_Dropout(t *testing.T) {
	backend := cpu.New()
	mha := NewMultiHeadAttention(8, 2, 4, 4, 0.5, newRNG(), backend)
	x := tensor.Randn(tensor.Shape{1, 4, 8}, newRNG(), backend)

	first := mha.Forward(x, x, x, nil).Data()
	second := mha.Forward(x, x, x, nil).Data()
	assert.NotEqual(t, first, second, "training mode draws fresh dropout masks")

	mha.SetTraining(false)
	assert.Equal(t, mha.Forward(x, x, x, nil).Data(), mha.Forward(x, x, x, nil).Data())
}

func TestPositionwiseFeedForward(t *testing.T) {
	backend := cpu.New()
	ffn := NewPositionwiseFeedForward(8, 32, 0.1, newRNG(), backend)
	ffn.SetTraining(false)
	assert.Len(t, ffn.Parameters(), 6)

	x := tensor.Randn(tensor.Shape{2, 3, 8}, newRNG(), backend)
	out := ffn.Forward(x)
	assert.Equal(t, tensor.Shape{2, 3, 8}, out.Shape())

	// No mixing across positions: changing one position leaves the others alone.
	y := x.Clone()
	for d := 0; d < 8; d++ {
		y.Set(100, 0, 1, d)
	}
	outY := ffn.Forward(y)
	assert.Equal(t, out.Data()[:8], outY.Data()[:8])
	assert.Equal(t, out.Data()[16:], outY.Data()[16:])
	assert.NotEqual(t, out.Data()[8:16], outY.Data()[8:16])
}
