package transformer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/tensor"
)

func TestBatchFromIDs(t *testing.T) {
	b, err := BatchFromIDs(
		[][]int32{{2, 17, 9, 3}, {2, 5, 3}},
		[][]int32{{2, 4, 3}, {2, 8, 6, 7, 3}},
		cpu.New(),
	)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{2, 4}, b.Src.Shape())
	assert.Equal(t, []int32{2, 17, 9, 3, 2, 5, 3, 0}, b.Src.Data())
	assert.Equal(t, []int32{1, 2, 3, 4, 1, 2, 3, 0}, b.SrcPos.Data())

	assert.Equal(t, tensor.Shape{2, 5}, b.Tgt.Shape())
	assert.Equal(t, []int32{2, 4, 3, 0, 0, 2, 8, 6, 7, 3}, b.Tgt.Data())
	assert.Equal(t, []int32{1, 2, 3, 0, 0, 1, 2, 3, 4, 5}, b.TgtPos.Data())
}

func TestBatchFromIDs_SourceOnly(t *testing.T) {
	b, err := BatchFromIDs([][]int32{{2, 3}}, nil, cpu.New())
	require.NoError(t, err)
	assert.Nil(t, b.Tgt)
	assert.Nil(t, b.TgtPos)
	assert.Equal(t, []int32{1, 2}, b.SrcPos.Data())
}

func TestBatchFromIDs_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src, tgt [][]int32
	}{
		{"empty batch", nil, nil},
		{"count mismatch", [][]int32{{2, 3}}, [][]int32{{2, 3}, {2, 3}}},
		{"empty sources", [][]int32{{}, {}}, nil},
		{"empty targets", [][]int32{{2, 3}}, [][]int32{{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BatchFromIDs(tt.src, tt.tgt, cpu.New())
			assert.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}
}

func TestPositions(t *testing.T) {
	seq, err := tensor.FromSlice([]int32{5, 0, 7, 0, 0, 0}, tensor.Shape{2, 3}, cpu.New())
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 0, 3, 0, 0, 0}, Positions(seq).Data())
}
