// Package nn implements the neural network building blocks of the seq2seq
// Transformer.
//
// This package provides:
//   - Module interface: Base interface for components mapping a float tensor to a float tensor
//   - Parameter: Trainable parameters, shared between modules by pointer
//   - Linear, Embedding, LayerNorm, Dropout
//   - SinusoidTable: Frozen positional encoding table
//   - Masks: Non-pad, key-pad and subsequent masks derived from id sequences
//   - MultiHeadAttention and PositionwiseFeedForward
//   - Sublayer variants composing encoder and decoder layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Module is the base interface for neural network components that map a
// float tensor to a float tensor.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// Returns an empty slice for modules without trainable parameters
	// (e.g., Dropout).
	Parameters() []*Parameter[B]
}

// Trainer is implemented by modules whose behaviour differs between training
// and evaluation (dropout).
type Trainer interface {
	SetTraining(training bool)
}
