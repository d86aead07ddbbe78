package nn

import (
	"fmt"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// A Parameter is owned once and may be referenced by several modules: an
// embedding table and an output projection share their weight by holding the
// same *Parameter. Updating the tensor through one holder is observable
// through the other.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
//	grad := weight.Grad()
type Parameter[B tensor.Backend] struct {
	name   string                     // Parameter name (e.g., "weight", "bias")
	tensor *tensor.Tensor[float32, B] // The parameter tensor
	grad   *tensor.Tensor[float32, B] // Gradient tensor, owned by the training harness
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Shape returns the shape of the parameter tensor.
func (p *Parameter[B]) Shape() tensor.Shape {
	return p.tensor.Shape()
}

// Load copies raw into the parameter in place, keeping every alias valid.
func (p *Parameter[B]) Load(raw *tensor.RawTensor) error {
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("parameter %s: dtype mismatch: expected float32, got %v", p.name, raw.DType())
	}
	if !raw.Shape().Equal(p.Shape()) {
		return fmt.Errorf("parameter %s: shape mismatch: expected %v, got %v", p.name, p.Shape(), raw.Shape())
	}
	copy(p.tensor.Data(), raw.AsFloat32())
	return nil
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been set by the training harness.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// UniqueParameters returns params with duplicates (shared parameters) removed,
// preserving first-seen order.
func UniqueParameters[B tensor.Backend](params []*Parameter[B]) []*Parameter[B] {
	seen := make(map[*Parameter[B]]struct{}, len(params))
	out := make([]*Parameter[B], 0, len(params))
	for _, p := range params {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
