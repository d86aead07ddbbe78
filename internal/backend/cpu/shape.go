package cpu

import (
	"fmt"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Reshape returns a view of t with a new shape. One dimension may be -1 and is inferred.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	shape := newShape.Clone()
	infer, known := -1, 1
	for i, dim := range shape {
		if dim == -1 {
			if infer >= 0 {
				panic(fmt.Sprintf("reshape: more than one inferred dimension in %v", newShape))
			}
			infer = i
			continue
		}
		known *= dim
	}
	if infer >= 0 {
		if known == 0 || t.NumElements()%known != 0 {
			panic(fmt.Sprintf("reshape: cannot infer dimension for %v from %v", newShape, t.Shape()))
		}
		shape[infer] = t.NumElements() / known
	}
	return t.Reshaped(shape)
}

// Transpose permutes dimensions. With no axes it reverses them.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	inShape := t.Shape()
	rank := len(inShape)

	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", rank, len(axes)))
	}

	seen := make([]bool, rank)
	outShape := make(tensor.Shape, rank)
	inStrides := inShape.ComputeStrides()
	permStrides := make([]int, rank)
	for i, ax := range axes {
		if ax < 0 || ax >= rank || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid permutation %v for shape %v", axes, inShape))
		}
		seen[ax] = true
		outShape[i] = inShape[ax]
		permStrides[i] = inStrides[ax]
	}

	result := tensor.MustNewRaw(outShape, t.DType(), cpu.device)
	elem := t.DType().Size()
	src, dst := t.Data(), result.Data()

	idx := make([]int, rank)
	off := 0
	for o := 0; o < result.NumElements(); o++ {
		copy(dst[o*elem:(o+1)*elem], src[off*elem:(off+1)*elem])
		for d := rank - 1; d >= 0; d-- {
			idx[d]++
			off += permStrides[d]
			if idx[d] < outShape[d] {
				break
			}
			off -= permStrides[d] * outShape[d]
			idx[d] = 0
		}
	}

	return result
}

// Narrow copies the slice [start, start+length) along dim into a new tensor.
func (cpu *CPUBackend) Narrow(t *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := t.Shape()
	dim = shape.NormalizeDim(dim)
	if start < 0 || length <= 0 || start+length > shape[dim] {
		panic(fmt.Sprintf("narrow: range [%d, %d) out of bounds for dimension %d of %v",
			start, start+length, dim, shape))
	}

	outShape := shape.Clone()
	outShape[dim] = length
	result := tensor.MustNewRaw(outShape, t.DType(), cpu.device)

	outer := 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	inner := t.DType().Size()
	for _, d := range shape[dim+1:] {
		inner *= d
	}

	src, dst := t.Data(), result.Data()
	for o := 0; o < outer; o++ {
		from := (o*shape[dim] + start) * inner
		copy(dst[o*length*inner:(o+1)*length*inner], src[from:from+length*inner])
	}

	return result
}
