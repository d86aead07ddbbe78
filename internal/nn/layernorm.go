package nn

import (
	"github.com/born-ml/seq2seq/internal/tensor"
)

// LayerNorm applies Layer Normalization over an input tensor along the last dimension.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Where:
//   - gamma is the learnable scale parameter [d_model]
//   - beta is the learnable shift parameter [d_model]
//   - mean and (biased) variance are computed along the last dimension
//
// Example:
//
//	layernorm := nn.NewLayerNorm(512, 1e-5, backend)
//	output := layernorm.Forward(hidden) // [..., 512] -> [..., 512]
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model]
	Beta    *Parameter[B] // learnable shift [d_model]
	Epsilon float32       // numerical stability constant
}

// NewLayerNorm creates a new LayerNorm layer.
//
// The gamma parameter is initialized to ones, beta to zeros.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return &LayerNorm[B]{
		Gamma:   NewParameter("gamma", Ones(tensor.Shape{normalizedShape}, backend)),
		Beta:    NewParameter("beta", Zeros(tensor.Shape{normalizedShape}, backend)),
		Epsilon: epsilon,
	}
}

// Forward applies LayerNorm to the input tensor.
//
// Algorithm:
//  1. mean = mean(x) along last dimension (keepdim=true)
//  2. variance = mean((x - mean)^2) along last dimension
//  3. x_norm = (x - mean) * rsqrt(variance + epsilon)
//  4. output = gamma * x_norm + beta
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	mean := x.MeanDim(-1, true)
	xCentered := x.Sub(mean)
	variance := xCentered.Mul(xCentered).MeanDim(-1, true)
	xNorm := xCentered.Mul(variance.AddScalar(l.Epsilon).Rsqrt())

	// [..., d_model] * [d_model] broadcasts from the right.
	return xNorm.Mul(l.Gamma.Tensor()).Add(l.Beta.Tensor())
}

// Parameters returns the learnable parameters (gamma and beta).
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}
