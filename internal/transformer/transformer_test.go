package transformer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/tensor"
)

type cpuBackend = *cpu.CPUBackend

func smallHyperParam() HyperParam {
	hp := DefaultHyperParam()
	hp.ModelDimension = 16
	hp.WordEmbeddingDimension = 16
	hp.HiddenLayerDimension = 32
	hp.EncoderLayerCount = 2
	hp.DecoderLayerCount = 2
	hp.MaxSequenceLength = 10
	hp.AttentionHeadNumber = 2
	hp.AttentionKeyDimension = 8
	hp.AttentionValueDimension = 8
	return hp
}

func newModel(t *testing.T, srcVocab, tgtVocab int, opts ...Option) *Transformer[cpuBackend] {
	t.Helper()
	opts = append([]Option{WithSeed(7)}, opts...)
	m, err := New(srcVocab, tgtVocab, smallHyperParam(), cpu.New(), opts...)
	require.NoError(t, err)
	return m
}

func newBatch(t *testing.T, src, tgt [][]int32) *Batch[cpuBackend] {
	t.Helper()
	b, err := BatchFromIDs(src, tgt, cpu.New())
	require.NoError(t, err)
	return b
}

func forward(t *testing.T, m *Transformer[cpuBackend], b *Batch[cpuBackend]) []float32 {
	t.Helper()
	logits, err := m.Forward(b.Src, b.SrcPos, b.Tgt, b.TgtPos)
	require.NoError(t, err)
	return logits.Data()
}

func TestNew_ConfigErrors(t *testing.T) {
	backend := cpu.New()

	hp := smallHyperParam()
	hp.WordEmbeddingDimension = 8
	_, err := New(32, 32, hp, backend)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = New(32, 40, smallHyperParam(), backend, WithSourceTargetSharing(true))
	assert.ErrorIs(t, err, ErrConfig)

	_, err = New(0, 40, smallHyperParam(), backend)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNew_TargetProjectionSharing(t *testing.T) {
	m := newModel(t, 30, 32)

	assert.True(t, m.SharesProjection())
	assert.Same(t, m.Decoder.Embedding.Weight, m.Projection.Weight())
	assert.Nil(t, m.Projection.Bias())
	assert.InDelta(t, 0.25, m.LogitScale(), 1e-7) // 16^-0.5

	// Mutating one holder is observable through the other.
	m.Projection.Weight().Tensor().Set(3.5, 7, 2)
	assert.Equal(t, float32(3.5), m.Decoder.Embedding.Weight.Tensor().At(7, 2))

	assert.NotSame(t, m.Encoder.Embedding.Weight, m.Decoder.Embedding.Weight)
}

func TestNew_NoSharing(t *testing.T) {
	m := newModel(t, 30, 32, WithTargetProjectionSharing(false))

	assert.False(t, m.SharesProjection())
	assert.NotSame(t, m.Decoder.Embedding.Weight, m.Projection.Weight())
	assert.Equal(t, float32(1), m.LogitScale())
	assert.Equal(t, tensor.Shape{32, 16}, m.Projection.Weight().Shape())
}

func TestNew_SourceTargetSharing(t *testing.T) {
	m := newModel(t, 32, 32, WithSourceTargetSharing(true))

	assert.True(t, m.SharesEmbeddings())
	assert.Same(t, m.Encoder.Embedding.Weight, m.Decoder.Embedding.Weight)
	assert.Same(t, m.Encoder.Embedding.Weight, m.Projection.Weight())

	m.Encoder.Embedding.Weight.Tensor().Set(-1, 5, 0)
	assert.Equal(t, float32(-1), m.Decoder.Embedding.Weight.Tensor().At(5, 0))
}

func TestParameters_Deduplicated(t *testing.T) {
	// Per attention: 4 linears with bias + norm = 10; per FFN: 6.
	const encLayer, decLayer = 10 + 6, 10 + 10 + 6

	tied := newModel(t, 32, 32, WithSourceTargetSharing(true))
	assert.Len(t, tied.Parameters(), 1+2*encLayer+2*decLayer)

	untied := newModel(t, 30, 32, WithTargetProjectionSharing(false))
	assert.Len(t, untied.Parameters(), 3+2*encLayer+2*decLayer)

	seen := map[string]bool{}
	for _, np := range tied.NamedParameters() {
		assert.False(t, seen[np.Name], "duplicate name %s", np.Name)
		seen[np.Name] = true
	}
	assert.True(t, seen["encoder.embedding.weight"])
	assert.True(t, seen["decoder.layers.1.cross_attn.wq.weight"])
	assert.True(t, seen["encoder.layers.0.ffn.norm.gamma"])
	assert.False(t, seen["decoder.embedding.weight"])
	assert.False(t, seen["projection.weight"])

	dModel, vocab := 16, 32
	assert.Greater(t, tied.NumParameters(), vocab*dModel)
}

func TestForward_Shape(t *testing.T) {
	m := newModel(t, 30, 32)
	m.Eval()

	b := newBatch(t,
		[][]int32{{2, 5, 6, 3}, {2, 7, 3}},
		[][]int32{{2, 9, 10, 11, 3}, {2, 12, 3}},
	)
	logits, err := m.Forward(b.Src, b.SrcPos, b.Tgt, b.TgtPos)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2 * 4, 32}, logits.Shape())
}

func TestForward_EndToEnd(t *testing.T) {
	m := newModel(t, 32, 32)
	m.Eval()

	b := newBatch(t, [][]int32{{2, 17, 9, 3, 0, 0}}, [][]int32{{2, 4, 3, 0}})
	assert.Equal(t, []int32{1, 2, 3, 4, 0, 0}, b.SrcPos.Data())
	assert.Equal(t, []int32{1, 2, 3, 0}, b.TgtPos.Data())

	logits, err := m.Forward(b.Src, b.SrcPos, b.Tgt, b.TgtPos)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 32}, logits.Shape())
	for i, v := range logits.Data() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("logit %d is not finite: %v", i, v)
		}
	}
}

func TestForward_Deterministic(t *testing.T) {
	m := newModel(t, 32, 32)
	b := newBatch(t, [][]int32{{2, 17, 9, 3, 0, 0}}, [][]int32{{2, 4, 3, 0}})

	assert.True(t, m.Training())
	training := forward(t, m, b)
	assert.NotEqual(t, training, forward(t, m, b), "dropout is active in training mode")

	m.Eval()
	assert.False(t, m.Training())
	assert.Equal(t, forward(t, m, b), forward(t, m, b))

	// Same seed, same parameters.
	other := newModel(t, 32, 32)
	other.Eval()
	assert.Equal(t, forward(t, m, b), forward(t, other, b))
}

func TestForward_PaddingInvariance(t *testing.T) {
	m := newModel(t, 32, 32)
	m.Eval()

	short := newBatch(t, [][]int32{{2, 17, 9, 3}}, [][]int32{{2, 4, 3}})
	long := newBatch(t, [][]int32{{2, 17, 9, 3, 0, 0}}, [][]int32{{2, 4, 3}})

	encShort, err := m.Encoder.Forward(short.Src, short.SrcPos)
	require.NoError(t, err)
	encLong, err := m.Encoder.Forward(long.Src, long.SrcPos)
	require.NoError(t, err)

	assert.InDeltaSlice(t, encShort.Data(), encLong.Data()[:4*16], 1e-5)
	for i, v := range encLong.Data()[4*16:] {
		assert.Equal(t, float32(0), v, "padding output %d must be zero", i)
	}

	assert.InDeltaSlice(t, forward(t, m, short), forward(t, m, long), 1e-5)
}

func TestForward_Causal(t *testing.T) {
	m := newModel(t, 32, 32)
	m.Eval()

	a := newBatch(t, [][]int32{{2, 17, 3}}, [][]int32{{2, 4, 5, 6, 3}})
	b := newBatch(t, [][]int32{{2, 17, 3}}, [][]int32{{2, 4, 9, 6, 3}})

	la, lb := forward(t, m, a), forward(t, m, b)
	// Positions 0 and 1 never see the token at position 2.
	assert.InDeltaSlice(t, la[:2*32], lb[:2*32], 1e-6)
	assert.NotEqual(t, la[2*32:3*32], lb[2*32:3*32])
}

func TestDecoder_PaddingRowsAreZero(t *testing.T) {
	m := newModel(t, 32, 32)
	m.Eval()

	b := newBatch(t, [][]int32{{2, 17, 3}}, [][]int32{{2, 4, 0, 0}})
	memory, err := m.Encoder.Forward(b.Src, b.SrcPos)
	require.NoError(t, err)
	out, err := m.Decoder.Forward(b.Tgt, b.TgtPos, b.Src, memory)
	require.NoError(t, err)

	for i, v := range out.Data()[2*16:] {
		assert.Equal(t, float32(0), v, "padding output %d must be zero", i)
	}
}

func TestForward_InputErrors(t *testing.T) {
	m := newModel(t, 32, 32)
	backend := cpu.New()
	good := newBatch(t, [][]int32{{2, 17, 3}}, [][]int32{{2, 4, 3}})

	tooLong := newBatch(t, [][]int32{{2, 5, 5, 5, 5, 5, 5, 5, 5, 5, 3}}, [][]int32{{2, 4, 3}})
	_, err := m.Forward(tooLong.Src, tooLong.SrcPos, tooLong.Tgt, tooLong.TgtPos)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)

	badPos, err := tensor.FromSlice([]int32{1, 2, 11}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)
	_, err = m.Forward(good.Src, badPos, good.Tgt, good.TgtPos)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)

	_, err = m.Forward(good.Src, good.TgtPos.Narrow(1, 0, 2), good.Tgt, good.TgtPos)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	twoRows := newBatch(t, [][]int32{{2, 3}, {2, 3}}, [][]int32{{2, 3}, {2, 3}})
	_, err = m.Forward(good.Src, good.SrcPos, twoRows.Tgt, twoRows.TgtPos)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	oneTok := newBatch(t, [][]int32{{2, 3}}, [][]int32{{2}})
	_, err = m.Forward(oneTok.Src, oneTok.SrcPos, oneTok.Tgt, oneTok.TgtPos)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	unknown := newBatch(t, [][]int32{{2, 32, 3}}, [][]int32{{2, 4, 3}})
	_, err = m.Forward(unknown.Src, unknown.SrcPos, unknown.Tgt, unknown.TgtPos)
	assert.ErrorIs(t, err, ErrTokenOutOfRange)
}

func TestForwardWithAttention(t *testing.T) {
	m := newModel(t, 32, 32)
	m.Eval()
	b := newBatch(t,
		[][]int32{{2, 17, 9, 3, 0, 0}, {2, 5, 3, 0, 0, 0}},
		[][]int32{{2, 4, 3, 0}, {2, 6, 7, 3}},
	)

	logits, attn, err := m.ForwardWithAttention(b.Src, b.SrcPos, b.Tgt, b.TgtPos)
	require.NoError(t, err)
	assert.Equal(t, forward(t, m, b), logits.Data())

	require.Len(t, attn.EncoderSelf, 2)
	require.Len(t, attn.DecoderSelf, 2)
	require.Len(t, attn.DecoderCross, 2)

	heads := 2
	assert.Equal(t, tensor.Shape{2 * heads, 6, 6}, attn.EncoderSelf[0].Shape())
	assert.Equal(t, tensor.Shape{2 * heads, 3, 3}, attn.DecoderSelf[1].Shape())
	assert.Equal(t, tensor.Shape{2 * heads, 3, 6}, attn.DecoderCross[0].Shape())

	// Batch 1 (rows 2 and 3) has only three real source tokens.
	cross := attn.DecoderCross[0]
	for row := 2; row < 4; row++ {
		for q := 0; q < 3; q++ {
			for k := 3; k < 6; k++ {
				assert.Equal(t, float32(0), cross.At(row, q, k))
			}
		}
	}

	// Decoder self-attention never looks ahead.
	self := attn.DecoderSelf[0]
	for row := 0; row < 4; row++ {
		assert.Equal(t, float32(0), self.At(row, 0, 1))
		assert.Equal(t, float32(0), self.At(row, 1, 2))
	}
}
