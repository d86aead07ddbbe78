package tensor

import (
	"math/rand/v2"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
//
// Example:
//
//	t := tensor.Ones[float32](Shape{2, 3}, backend)
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var one T
	switch p := any(&one).(type) {
	case *float32:
		*p = 1
	case *float64:
		*p = 1
	case *int32:
		*p = 1
	case *bool:
		*p = true
	}
	return Full[T, B](shape, one, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float32 tensor with values drawn from N(0, 1).
//
// rng may be nil, in which case the global math/rand/v2 source is used.
//
// Example:
//
//	t := tensor.Randn(Shape{100, 100}, rand.New(rand.NewPCG(1, 2)), backend)
func Randn[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	for i := range data {
		if rng != nil {
			data[i] = float32(rng.NormFloat64())
		} else {
			data[i] = float32(rand.NormFloat64()) //nolint:gosec // G404: ML uses math/rand intentionally
		}
	}
	return t
}
