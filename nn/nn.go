// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Trainer is implemented by modules whose behavior differs between training
// and evaluation.
type Trainer = nn.Trainer

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(512, 2048, rng, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, rng, backend)
}

// Embedding maps token ids to dense vectors.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NoPadding disables the padding row of an Embedding or SinusoidTable.
const NoPadding = nn.NoPadding

// NewEmbedding creates an embedding table whose paddingIdx row is always zero.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim, paddingIdx int, rng *rand.Rand, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, paddingIdx, rng, backend)
}

// LayerNorm normalizes over the last dimension.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a layer norm with unit gain and zero shift.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, epsilon, backend)
}

// Dropout zeroes activations with probability P during training.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer drawing from rng.
func NewDropout[B tensor.Backend](p float32, rng *rand.Rand) *Dropout[B] {
	return nn.NewDropout[B](p, rng)
}

// Attention

// MultiHeadAttention is post-norm multi-head attention with a residual connection.
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// NewMultiHeadAttention creates a multi-head attention module.
func NewMultiHeadAttention[B tensor.Backend](dModel, numHeads, dK, dV int, dropout float32, rng *rand.Rand, backend B) *MultiHeadAttention[B] {
	return nn.NewMultiHeadAttention(dModel, numHeads, dK, dV, dropout, rng, backend)
}

// PositionwiseFeedForward is the two-layer ReLU network applied at every position.
type PositionwiseFeedForward[B tensor.Backend] = nn.PositionwiseFeedForward[B]

// NewPositionwiseFeedForward creates a feed-forward module.
func NewPositionwiseFeedForward[B tensor.Backend](dModel, dHidden int, dropout float32, rng *rand.Rand, backend B) *PositionwiseFeedForward[B] {
	return nn.NewPositionwiseFeedForward(dModel, dHidden, dropout, rng, backend)
}

// ScaledDotProductAttention computes softmax(QK^T/temperature + bias)V.
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	bias *tensor.Tensor[float32, B],
	temperature float32,
	dropout *Dropout[B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	return nn.ScaledDotProductAttention(query, key, value, bias, temperature, dropout)
}

// Sublayers

// Sublayer is one residual stage of an encoder or decoder layer.
type Sublayer[B tensor.Backend] = nn.Sublayer[B]

// AttentionSublayer is a Sublayer that can also report its attention weights.
type AttentionSublayer[B tensor.Backend] = nn.AttentionSublayer[B]

// SelfAttention attends from the state to itself.
type SelfAttention[B tensor.Backend] = nn.SelfAttention[B]

// CrossAttention attends from the state to a bound memory.
type CrossAttention[B tensor.Backend] = nn.CrossAttention[B]

// FeedForward wraps a PositionwiseFeedForward as a Sublayer.
type FeedForward[B tensor.Backend] = nn.FeedForward[B]

// Positional encoding

// SinusoidTable is a frozen sinusoidal position table.
type SinusoidTable[B tensor.Backend] = nn.SinusoidTable[B]

// ErrPositionOutOfRange is returned by SinusoidTable.Lookup.
var ErrPositionOutOfRange = nn.ErrPositionOutOfRange

// NewSinusoidTable builds an nPosition x dHid table; row paddingIdx is zero.
func NewSinusoidTable[B tensor.Backend](nPosition, dHid, paddingIdx int, backend B) *SinusoidTable[B] {
	return nn.NewSinusoidTable(nPosition, dHid, paddingIdx, backend)
}

// Masks

// PadIndex is the id of the padding token.
const PadIndex = nn.PadIndex

// NonPadMask returns [batch, len, 1] with 1 at real tokens and 0 at padding.
func NonPadMask[B tensor.Backend](seq *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return nn.NonPadMask(seq)
}

// KeyPadMask returns [batch, len_q, len_k], true where the key is padding.
func KeyPadMask[B tensor.Backend](seqK, seqQ *tensor.Tensor[int32, B]) *tensor.Tensor[bool, B] {
	return nn.KeyPadMask(seqK, seqQ)
}

// SubsequentMask returns [length, length], true where j > i.
func SubsequentMask[B tensor.Backend](length int, backend B) *tensor.Tensor[bool, B] {
	return nn.SubsequentMask(length, backend)
}

// OrMask combines two masks with broadcasting.
func OrMask[B tensor.Backend](a, b *tensor.Tensor[bool, B]) *tensor.Tensor[bool, B] {
	return nn.OrMask(a, b)
}

// Initialization

// XavierUniform draws from U(-a, a) with a = sqrt(6/(fanIn+fanOut)).
func XavierUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.XavierUniform(fanIn, fanOut, shape, rng, backend)
}

// XavierNormal draws from N(0, 2/(fanIn+fanOut)).
func XavierNormal[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.XavierNormal(fanIn, fanOut, shape, rng, backend)
}

// Normal draws from N(mean, std^2).
func Normal[B tensor.Backend](mean, std float64, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.Normal(mean, std, shape, rng, backend)
}
