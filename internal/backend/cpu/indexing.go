package cpu

import (
	"fmt"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Embedding looks up rows of weight [num, dim] for every int32 index.
// The result has shape indices.Shape() + [dim]. Panics on an out-of-range index.
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	wShape := weight.Shape()
	if len(wShape) != 2 || weight.DType() != tensor.Float32 {
		panic(fmt.Sprintf("embedding: weight must be 2D float32, got %v %s", wShape, weight.DType()))
	}
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}

	num, dim := wShape[0], wShape[1]
	outShape := append(indices.Shape().Clone(), dim)
	result := tensor.MustNewRaw(outShape, tensor.Float32, cpu.device)

	w, dst := weight.AsFloat32(), result.AsFloat32()
	for i, idx := range indices.AsInt32() {
		if idx < 0 || int(idx) >= num {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", idx, num))
		}
		copy(dst[i*dim:(i+1)*dim], w[int(idx)*dim:(int(idx)+1)*dim])
	}

	return result
}
