package nn

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/tensor"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func ids(t *testing.T, backend *cpu.CPUBackend, rows ...[]int32) *tensor.Tensor[int32, *cpu.CPUBackend] {
	t.Helper()
	var flat []int32
	for _, r := range rows {
		require.Len(t, r, len(rows[0]))
		flat = append(flat, r...)
	}
	seq, err := tensor.FromSlice(flat, tensor.Shape{len(rows), len(rows[0])}, backend)
	require.NoError(t, err)
	return seq
}

func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()
	w, err := tensor.FromSlice([]float32{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{0, 0, 10}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	layer := NewLinearWithWeight(NewParameter("weight", w), NewParameter("bias", b))

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2}, backend)
	require.NoError(t, err)

	out := layer.Forward(x)
	assert.Equal(t, tensor.Shape{1, 2, 3}, out.Shape())
	assert.Equal(t, []float32{1, 2, 13, 3, 4, 17}, out.Data())
	assert.Len(t, layer.Parameters(), 2)
	assert.Equal(t, 2, layer.InFeatures())
	assert.Equal(t, 3, layer.OutFeatures())
}

func TestLinear_NoBias(t *testing.T) {
	backend := cpu.New()
	w := XavierNormal(4, 3, tensor.Shape{3, 4}, newRNG(), backend)
	layer := NewLinearWithWeight(NewParameter("weight", w), nil)

	assert.Nil(t, layer.Bias())
	assert.Len(t, layer.Parameters(), 1)
	out := layer.Forward(tensor.Ones[float32](tensor.Shape{5, 4}, backend))
	assert.Equal(t, tensor.Shape{5, 3}, out.Shape())
}

func TestLinear_WrongInput(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(4, 3, newRNG(), backend)
	assert.Panics(t, func() {
		layer.Forward(tensor.Zeros[float32](tensor.Shape{2, 5}, backend))
	})
}

func TestLinear_TieWeight(t *testing.T) {
	backend := cpu.New()
	embed := NewEmbedding(10, 4, PadIndex, newRNG(), backend)
	proj := NewLinearWithWeight(NewParameter("weight", Zeros(tensor.Shape{10, 4}, backend)), nil)

	require.NoError(t, proj.TieWeight(embed.Weight))
	assert.Same(t, embed.Weight, proj.Weight())

	// Mutation through one holder is visible through the other.
	embed.Weight.Tensor().Set(42, 3, 1)
	assert.Equal(t, float32(42), proj.Weight().Tensor().At(3, 1))

	wrong := NewParameter("weight", Zeros(tensor.Shape{11, 4}, backend))
	assert.Error(t, proj.TieWeight(wrong))
	assert.Same(t, embed.Weight, proj.Weight())
}

func TestEmbedding_PaddingRow(t *testing.T) {
	backend := cpu.New()
	embed := NewEmbedding(6, 3, PadIndex, newRNG(), backend)

	assert.Equal(t, []float32{0, 0, 0}, embed.Weight.Tensor().Data()[:3])

	// Even if the stored row drifts, padding still maps to zero.
	embed.Weight.Tensor().Set(5, 0, 0)
	out := embed.Forward(ids(t, backend, []int32{2, 0, 5}))
	require.Equal(t, tensor.Shape{1, 3, 3}, out.Shape())

	data := out.Data()
	assert.Equal(t, []float32{0, 0, 0}, data[3:6])
	w := embed.Weight.Tensor()
	assert.Equal(t, []float32{w.At(2, 0), w.At(2, 1), w.At(2, 2)}, data[0:3])
	assert.Equal(t, []float32{w.At(5, 0), w.At(5, 1), w.At(5, 2)}, data[6:9])
}

func TestEmbedding_TieWeight(t *testing.T) {
	backend := cpu.New()
	src := NewEmbedding(8, 4, PadIndex, newRNG(), backend)
	tgt := NewEmbedding(8, 4, PadIndex, newRNG(), backend)

	require.NoError(t, tgt.TieWeight(src.Weight))
	assert.Same(t, src.Weight, tgt.Weight)

	other := NewEmbedding(9, 4, PadIndex, newRNG(), backend)
	assert.Error(t, other.TieWeight(src.Weight))
}

func TestInit_Deterministic(t *testing.T) {
	backend := cpu.New()
	a := Normal(0, 0.5, tensor.Shape{4, 4}, newRNG(), backend)
	b := Normal(0, 0.5, tensor.Shape{4, 4}, newRNG(), backend)
	assert.Equal(t, a.Data(), b.Data())

	u := XavierUniform(10, 20, tensor.Shape{100}, newRNG(), backend)
	bound := float32(0.44722) // sqrt(6/30)
	for _, v := range u.Data() {
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
	}
}

func TestLayerNorm_Forward(t *testing.T) {
	backend := cpu.New()
	ln := NewLayerNorm(4, 1e-5, backend)

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 10, 10, 10, 10}, tensor.Shape{2, 4}, backend)
	require.NoError(t, err)
	out := ln.Forward(x).Data()

	// mean 2.5, var 1.25
	assert.InDelta(t, -1.3416, out[0], 1e-3)
	assert.InDelta(t, -0.4472, out[1], 1e-3)
	assert.InDelta(t, 0.4472, out[2], 1e-3)
	assert.InDelta(t, 1.3416, out[3], 1e-3)
	for _, v := range out[4:] {
		assert.InDelta(t, 0, v, 1e-6)
	}
	assert.Len(t, ln.Parameters(), 2)
}

func TestDropout(t *testing.T) {
	backend := cpu.New()
	x := tensor.Ones[float32](tensor.Shape{1000}, backend)

	d := NewDropout[*cpu.CPUBackend](0.5, newRNG())
	assert.True(t, d.Training())

	out := d.Forward(x).Data()
	zeros := 0
	for _, v := range out {
		if v == 0 {
			zeros++
			continue
		}
		assert.Equal(t, float32(2), v)
	}
	assert.InDelta(t, 500, zeros, 80)
	assert.Equal(t, float32(1), x.Data()[0], "input must not be modified")

	d.SetTraining(false)
	assert.Same(t, x, d.Forward(x))

	assert.Panics(t, func() { NewDropout[*cpu.CPUBackend](1, nil) })
}

func TestUniqueParameters(t *testing.T) {
	backend := cpu.New()
	a := NewParameter("a", Zeros(tensor.Shape{1}, backend))
	b := NewParameter("b", Zeros(tensor.Shape{1}, backend))

	got := UniqueParameters([]*Parameter[*cpu.CPUBackend]{a, b, a, b, a})
	require.Len(t, got, 2)
	assert.Same(t, a, got[0])
	assert.Same(t, b, got[1])
}

func TestParameter_Load(t *testing.T) {
	backend := cpu.New()
	p := NewParameter("w", Zeros(tensor.Shape{2}, backend))

	raw := tensor.MustNewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)
	copy(raw.AsFloat32(), []float32{3, 4})
	require.NoError(t, p.Load(raw))
	assert.Equal(t, []float32{3, 4}, p.Tensor().Data())

	assert.Error(t, p.Load(tensor.MustNewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)))
	assert.Error(t, p.Load(tensor.MustNewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)))

	p.SetGrad(Ones(tensor.Shape{2}, backend))
	assert.NotNil(t, p.Grad())
	p.ZeroGrad()
	assert.Nil(t, p.Grad())
}
