package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Softmax computes a numerically stable softmax along dim.
//
// The maximum of each slice is subtracted before exponentiation, so large
// negative mask biases produce exact zeros rather than overflow. A slice whose
// exponentials all underflow to zero yields a uniform distribution.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}

	shape := x.Shape()
	dim = shape.NormalizeDim(dim)
	outer, size, inner := splitAt(shape, dim)

	result := tensor.MustNewRaw(shape, x.DType(), cpu.device)
	src, dst := x.AsFloat32(), result.AsFloat32()
	exps := make([]float64, size)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*size*inner + in

			maxVal := math.Inf(-1)
			for j := 0; j < size; j++ {
				maxVal = math.Max(maxVal, float64(src[base+j*inner]))
			}

			sum := 0.0
			for j := 0; j < size; j++ {
				exps[j] = math.Exp(float64(src[base+j*inner]) - maxVal)
				sum += exps[j]
			}

			for j := 0; j < size; j++ {
				if sum == 0 || math.IsNaN(sum) {
					dst[base+j*inner] = float32(1 / float64(size))
					continue
				}
				dst[base+j*inner] = float32(exps[j] / sum)
			}
		}
	}

	return result
}

// MeanDim computes the mean along dim.
//
// Example:
//
//	y := backend.MeanDim(x, -1, true)  // [2, 3, 4] -> [2, 3, 1]
//	z := backend.MeanDim(x, -1, false) // [2, 3, 4] -> [2, 3]
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = shape.NormalizeDim(dim)
	outer, size, inner := splitAt(shape, dim)

	var outShape tensor.Shape
	if keepDim {
		outShape = shape.Clone()
		outShape[dim] = 1
	} else {
		outShape = make(tensor.Shape, 0, len(shape)-1)
		outShape = append(outShape, shape[:dim]...)
		outShape = append(outShape, shape[dim+1:]...)
	}

	result := tensor.MustNewRaw(outShape, x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for o := 0; o < outer; o++ {
			for in := 0; in < inner; in++ {
				sum := 0.0
				for j := 0; j < size; j++ {
					sum += float64(src[o*size*inner+j*inner+in])
				}
				dst[o*inner+in] = float32(sum / float64(size))
			}
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for o := 0; o < outer; o++ {
			for in := 0; in < inner; in++ {
				sum := 0.0
				for j := 0; j < size; j++ {
					sum += src[o*size*inner+j*inner+in]
				}
				dst[o*inner+in] = sum / float64(size)
			}
		}
	default:
		panic(fmt.Sprintf("meandim: unsupported dtype %s", x.DType()))
	}

	return result
}

// splitAt returns the products of dimensions before, at and after dim.
func splitAt(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, inner = 1, 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	return outer, shape[dim], inner
}
