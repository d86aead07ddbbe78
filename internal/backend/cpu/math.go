package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64("mulscalar", scalar)
	return cpu.unary("mulscalar", x, func(v float64) float64 { return v * s })
}

// AddScalar adds scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64("addscalar", scalar)
	return cpu.unary("addscalar", x, func(v float64) float64 { return v + s })
}

// Rsqrt computes 1/sqrt(x) element-wise.
func (cpu *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("rsqrt", x, func(v float64) float64 { return 1 / math.Sqrt(v) })
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float64) float64 { return math.Max(v, 0) })
}

// unary applies fn element-wise, computing in float64 and storing in x's dtype.
func (cpu *CPUBackend) unary(name string, x *tensor.RawTensor, fn func(float64) float64) *tensor.RawTensor {
	result := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(fn(float64(v)))
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i, v := range src {
			dst[i] = fn(v)
		}
	case tensor.Int32:
		src, dst := x.AsInt32(), result.AsInt32()
		for i, v := range src {
			dst[i] = int32(fn(float64(v)))
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}
	return result
}

func toFloat64(name string, scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int32:
		return float64(s)
	case int:
		return float64(s)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
	}
}
