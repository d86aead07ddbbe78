package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// XavierUniform (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// rng may be nil, in which case the global math/rand/v2 source is used.
func XavierUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -bound, Max: bound, Src: source(rng)}
	return sample(dist, shape, backend)
}

// XavierNormal (Glorot) initialization for weights.
//
// Values are drawn from N(0, 2/(fan_in + fan_out)).
func XavierNormal[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return Normal(0, math.Sqrt(2.0/float64(fanIn+fanOut)), shape, rng, backend)
}

// Normal creates a tensor with values drawn from N(mean, std^2).
func Normal[B tensor.Backend](mean, std float64, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	dist := distuv.Normal{Mu: mean, Sigma: std, Src: source(rng)}
	return sample(dist, shape, backend)
}

// Zeros creates a tensor filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}

type sampler interface {
	Rand() float64
}

func sample[B tensor.Backend](dist sampler, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32(dist.Rand())
	}
	return t
}

// source adapts rng to a distuv source; nil keeps distuv's global default.
func source(rng *rand.Rand) rand.Source {
	if rng == nil {
		return nil
	}
	return rng
}
