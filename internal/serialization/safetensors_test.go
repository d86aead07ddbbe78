package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/tensor"
)

func testStateDict(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()
	weight, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	for i := range weight.AsFloat32() {
		weight.AsFloat32()[i] = float32(i + 1)
	}

	steps, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(steps.AsInt32(), []int32{7, -3})

	return map[string]*tensor.RawTensor{
		"encoder.embedding.weight": weight,
		"steps":                    steps,
	}
}

func TestSafeTensors_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	stateDict := testStateDict(t)

	require.NoError(t, WriteSafeTensors(path, stateDict, map[string]string{"format": "pt"}))

	loaded, meta, err := ReadSafeTensors(path)
	require.NoError(t, err)
	assert.Equal(t, "pt", meta["format"])
	assert.NotEmpty(t, meta[ChecksumKey])

	require.Len(t, loaded, 2)
	w := loaded["encoder.embedding.weight"]
	assert.Equal(t, tensor.Shape{2, 3}, w.Shape())
	assert.Equal(t, tensor.Float32, w.DType())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, w.AsFloat32())
	assert.Equal(t, []int32{7, -3}, loaded["steps"].AsInt32())
}

func TestSafeTensors_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, testStateDict(t), nil))

	headerSize := binary.LittleEndian.Uint64(buf.Bytes()[:8])
	// 24 bytes of float32 data plus 8 bytes of int32 data follow the header.
	assert.Equal(t, int(8+headerSize+32), buf.Len())
}

func TestSafeTensors_Corrupted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, testStateDict(t), nil))

	data := buf.Bytes()
	data[len(data)-1] ^= 0xff

	_, _, err := ReadFrom(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestSafeTensors_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, testStateDict(t), nil))

	_, _, err := ReadFrom(bytes.NewReader(buf.Bytes()[:4]))
	assert.Error(t, err)
}

func TestSafeTensors_InvalidName(t *testing.T) {
	var buf bytes.Buffer
	stateDict := map[string]*tensor.RawTensor{
		"../escape": tensor.MustNewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU),
	}
	err := WriteTo(&buf, stateDict, nil)
	assert.True(t, errors.Is(err, ErrInvalidTensorName))
}

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name    string
		tensors []TensorMeta
		want    error
	}{
		{"ok", []TensorMeta{{"a", 0, 8}, {"b", 8, 8}}, nil},
		{"overlap", []TensorMeta{{"a", 0, 8}, {"b", 4, 8}}, ErrOffsetOverlap},
		{"out of bounds", []TensorMeta{{"a", 0, 32}}, ErrOutOfBounds},
		{"negative", []TensorMeta{{"a", -1, 4}}, ErrNegativeOffset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, 16)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
