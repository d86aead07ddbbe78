package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [..., in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the optional bias vector with shape [out_features]
//   - y is the output tensor with shape [..., out_features]
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(512, 2048, rng, backend)
//	output := layer.Forward(input) // [batch, seq, 512] -> [batch, seq, 2048]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features], nil when the layer has no bias
}

// NewLinear creates a new Linear layer.
//
// Weights are initialized using Xavier/Glorot uniform distribution.
// Biases are initialized to zeros.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	weight := XavierUniform(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng, backend)
	bias := Zeros(tensor.Shape{outFeatures}, backend)
	return NewLinearWithWeight(NewParameter("weight", weight), NewParameter("bias", bias))
}

// NewLinearWithWeight creates a Linear layer around existing parameters.
//
// weight must be 2D [out_features, in_features]. bias may be nil.
func NewLinearWithWeight[B tensor.Backend](weight, bias *Parameter[B]) *Linear[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Linear: weight must be 2D, got shape %v", shape))
	}
	if bias != nil && !bias.Shape().Equal(tensor.Shape{shape[0]}) {
		panic(fmt.Sprintf("Linear: bias shape %v does not match %d output features", bias.Shape(), shape[0]))
	}

	return &Linear[B]{
		inFeatures:  shape[1],
		outFeatures: shape[0],
		weight:      weight,
		bias:        bias,
	}
}

// Forward computes the output of the linear layer.
//
// Input shape: [..., in_features]
// Output shape: [..., out_features]
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) == 0 || inputShape[len(inputShape)-1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input [..., %d], got shape %v", l.inFeatures, inputShape))
	}

	rows := input.NumElements() / l.inFeatures
	x := input.Reshape(rows, l.inFeatures)

	// [rows, in] @ [in, out] = [rows, out]
	output := x.MatMul(l.weight.Tensor().T())
	if l.bias != nil {
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	outShape := inputShape.Clone()
	outShape[len(outShape)-1] = l.outFeatures
	return output.Reshape(outShape...)
}

// TieWeight replaces the weight with p, which then becomes shared with its
// other holders. The shapes must match.
func (l *Linear[B]) TieWeight(p *Parameter[B]) error {
	if !p.Shape().Equal(l.weight.Shape()) {
		return fmt.Errorf("linear: cannot tie weight of shape %v to %v", p.Shape(), l.weight.Shape())
	}
	l.weight = p
	return nil
}

// Parameters returns the trainable parameters of this layer.
//
// Returns [weight, bias] if bias is present, otherwise [weight].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
