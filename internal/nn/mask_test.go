package nn

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/tensor"
)

func TestNonPadMask(t *testing.T) {
	backend := cpu.New()
	mask := NonPadMask(ids(t, backend, []int32{2, 17, 9, 3, 0, 0}, []int32{2, 5, 3, 0, 0, 0}))

	assert.Equal(t, tensor.Shape{2, 6, 1}, mask.Shape())
	want := []float32{1, 1, 1, 1, 0, 0, 1, 1, 1, 0, 0, 0}
	if diff := cmp.Diff(want, mask.Data()); diff != "" {
		t.Errorf("NonPadMask mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyPadMask(t *testing.T) {
	backend := cpu.New()
	k := ids(t, backend, []int32{2, 7, 0}, []int32{2, 0, 0})
	q := ids(t, backend, []int32{2, 4}, []int32{2, 9})

	mask := KeyPadMask(k, q)
	assert.Equal(t, tensor.Shape{2, 2, 3}, mask.Shape())
	want := []bool{
		false, false, true,
		false, false, true,
		false, true, true,
		false, true, true,
	}
	if diff := cmp.Diff(want, mask.Data()); diff != "" {
		t.Errorf("KeyPadMask mismatch (-want +got):\n%s", diff)
	}

	assert.Panics(t, func() { KeyPadMask(k, ids(t, backend, []int32{1})) })
}

func TestSubsequentMask(t *testing.T) {
	backend := cpu.New()
	for _, length := range []int{1, 2, 5} {
		mask := SubsequentMask(length, backend)
		assert.Equal(t, tensor.Shape{length, length}, mask.Shape())
		for i := 0; i < length; i++ {
			for j := 0; j < length; j++ {
				assert.Equal(t, j > i, mask.At(i, j), "length %d at (%d, %d)", length, i, j)
			}
		}
	}
}

func TestOrMask(t *testing.T) {
	backend := cpu.New()
	tgt := ids(t, backend, []int32{2, 4, 0})

	mask := OrMask(KeyPadMask(tgt, tgt), SubsequentMask(3, backend))
	assert.Equal(t, tensor.Shape{1, 3, 3}, mask.Shape())
	want := []bool{
		false, true, true,
		false, false, true,
		false, false, true,
	}
	if diff := cmp.Diff(want, mask.Data()); diff != "" {
		t.Errorf("OrMask mismatch (-want +got):\n%s", diff)
	}
}

func TestAttentionBias(t *testing.T) {
	backend := cpu.New()
	assert.Nil(t, AttentionBias[*cpu.CPUBackend](nil))

	bias := AttentionBias(SubsequentMask(2, backend))
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, bias.Shape())
	assert.Equal(t, []float32{0, MaskBias, 0, 0}, bias.Data())

	k := ids(t, backend, []int32{2, 0})
	bias = AttentionBias(KeyPadMask(k, k))
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, bias.Shape())
	assert.Equal(t, []float32{0, MaskBias, 0, MaskBias}, bias.Data())
}
