// Package cpu implements the CPU backend with BLAS-backed matrix multiplication.
package cpu

import (
	"fmt"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// Element-wise operations support NumPy-style broadcasting; matrix products
// are delegated to gonum's pure Go BLAS implementation.
type CPUBackend struct {
	device tensor.Device
}

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", opAdd, a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", opSub, a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", opMul, a, b)
}

// Or performs element-wise logical OR of two bool tensors with broadcasting.
func (cpu *CPUBackend) Or(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Bool || b.DType() != tensor.Bool {
		panic(fmt.Sprintf("or: expected bool tensors, got %s and %s", a.DType(), b.DType()))
	}
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("or: %v", err))
	}

	result := tensor.MustNewRaw(outShape, tensor.Bool, cpu.device)
	broadcastApply(result.AsBool(), a.AsBool(), b.AsBool(), outShape, a.Shape(), b.Shape(),
		func(x, y bool) bool { return x || y })
	return result
}

type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
)

type number interface {
	~float32 | ~float64 | ~int32
}

func kernel[T number](op binaryOp) func(x, y T) T {
	switch op {
	case opAdd:
		return func(x, y T) T { return x + y }
	case opSub:
		return func(x, y T) T { return x - y }
	default:
		return func(x, y T) T { return x * y }
	}
}

func (cpu *CPUBackend) binary(name string, op binaryOp, a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := tensor.MustNewRaw(outShape, a.DType(), cpu.device)
	switch a.DType() {
	case tensor.Float32:
		broadcastApply(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(), kernel[float32](op))
	case tensor.Float64:
		broadcastApply(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape(), kernel[float64](op))
	case tensor.Int32:
		broadcastApply(result.AsInt32(), a.AsInt32(), b.AsInt32(), outShape, a.Shape(), b.Shape(), kernel[int32](op))
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
	return result
}

// broadcastApply writes fn(a, b) into out, reading a and b through broadcast strides.
func broadcastApply[T any](out, a, b []T, outShape, aShape, bShape tensor.Shape, fn func(x, y T) T) {
	if aShape.Equal(bShape) {
		for i := range out {
			out[i] = fn(a[i], b[i])
		}
		return
	}

	aStrides := aShape.BroadcastStrides(outShape)
	bStrides := bShape.BroadcastStrides(outShape)
	rank := len(outShape)
	idx := make([]int, rank)
	ai, bi := 0, 0

	for i := range out {
		out[i] = fn(a[ai], b[bi])
		for d := rank - 1; d >= 0; d-- {
			idx[d]++
			ai += aStrides[d]
			bi += bStrides[d]
			if idx[d] < outShape[d] {
				break
			}
			ai -= aStrides[d] * outShape[d]
			bi -= bStrides[d] * outShape[d]
			idx[d] = 0
		}
	}
}
