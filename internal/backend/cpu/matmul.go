package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := tensor.MustNewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	gemm(result, a, b, 0, 0, 0, m, k, n)
	return result
}

// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
// Leading (batch) dimensions must match exactly.
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	rank := len(aShape)
	if rank < 3 || rank > 4 || len(bShape) != rank {
		panic(fmt.Sprintf("batchmatmul: expected matching 3D or 4D tensors, got %v and %v", aShape, bShape))
	}

	batch := 1
	for i := 0; i < rank-2; i++ {
		if aShape[i] != bShape[i] {
			panic(fmt.Sprintf("batchmatmul: batch dimensions differ: %v vs %v", aShape, bShape))
		}
		batch *= aShape[i]
	}

	m, k := aShape[rank-2], aShape[rank-1]
	kAlt, n := bShape[rank-2], bShape[rank-1]
	if k != kAlt {
		panic(fmt.Sprintf("batchmatmul: inner dimensions differ: %v @ %v", aShape, bShape))
	}

	outShape := aShape.Clone()
	outShape[rank-1] = n
	result := tensor.MustNewRaw(outShape, a.DType(), cpu.device)

	for i := 0; i < batch; i++ {
		gemm(result, a, b, i*m*n, i*m*k, i*k*n, m, k, n)
	}
	return result
}

// gemm computes C = A @ B for one row-major matrix triple located at the given element offsets.
func gemm(c, a, b *tensor.RawTensor, cOff, aOff, bOff, m, k, n int) {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	switch a.DType() {
	case tensor.Float32:
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas32.General{Rows: m, Cols: k, Stride: k, Data: a.AsFloat32()[aOff : aOff+m*k]},
			blas32.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat32()[bOff : bOff+k*n]},
			0,
			blas32.General{Rows: m, Cols: n, Stride: n, Data: c.AsFloat32()[cOff : cOff+m*n]})
	case tensor.Float64:
		blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas64.General{Rows: m, Cols: k, Stride: k, Data: a.AsFloat64()[aOff : aOff+m*k]},
			blas64.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat64()[bOff : bOff+k*n]},
			0,
			blas64.General{Rows: m, Cols: n, Stride: n, Data: c.AsFloat64()[cOff : cOff+m*n]})
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}
}
