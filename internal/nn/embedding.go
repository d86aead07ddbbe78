package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// NoPadding disables the padding row of an Embedding.
const NoPadding = -1

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] learnable parameter
//   - Forward: indices [batch, seq] -> embeddings [batch, seq, EmbedDim]
//
// When PaddingIdx is set, that row is initialized to zero and every lookup
// of PaddingIdx yields a zero vector, whatever the stored row holds.
//
// Example:
//
//	embed := nn.NewEmbedding(10000, 512, nn.PadIndex, rng, backend)
//	embeddings := embed.Forward(ids) // [2, 5] -> [2, 5, 512]
type Embedding[B tensor.Backend] struct {
	Weight     *Parameter[B] // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed   int           // Number of embeddings (vocabulary size)
	EmbedDim   int           // Embedding dimension (vector size)
	PaddingIdx int           // Row mapped to a zero vector, or NoPadding
}

// NewEmbedding creates a new Embedding layer.
//
// The embedding weights are initialized from a standard normal distribution N(0, 1),
// with the padding row (if any) zeroed.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim, paddingIdx int, rng *rand.Rand, backend B) *Embedding[B] {
	if paddingIdx != NoPadding && (paddingIdx < 0 || paddingIdx >= numEmbeddings) {
		panic(fmt.Sprintf("Embedding: padding index %d out of range [0, %d)", paddingIdx, numEmbeddings))
	}

	weight := Normal(0, 1, tensor.Shape{numEmbeddings, embeddingDim}, rng, backend)
	if paddingIdx != NoPadding {
		clear(weight.Data()[paddingIdx*embeddingDim : (paddingIdx+1)*embeddingDim])
	}

	return &Embedding[B]{
		Weight:     NewParameter("weight", weight),
		NumEmbed:   numEmbeddings,
		EmbedDim:   embeddingDim,
		PaddingIdx: paddingIdx,
	}
}

// Forward performs embedding lookup.
//
// Parameters:
//   - indices: Tensor of indices [batch, seq] or any shape [...] of type int32
//
// Returns:
//   - embeddings: Tensor [..., EmbedDim] with embedding vectors
//
// Panics if any index is out of bounds [0, NumEmbed).
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	out := tensor.Embedding(e.Weight.Tensor(), indices)
	if e.PaddingIdx == NoPadding {
		return out
	}

	data := out.Data()
	for i, idx := range indices.Data() {
		if int(idx) == e.PaddingIdx {
			clear(data[i*e.EmbedDim : (i+1)*e.EmbedDim])
		}
	}
	return out
}

// TieWeight makes p the embedding table. The shapes must match.
func (e *Embedding[B]) TieWeight(p *Parameter[B]) error {
	if !p.Shape().Equal(e.Weight.Shape()) {
		return fmt.Errorf("embedding: cannot tie weight of shape %v to %v", p.Shape(), e.Weight.Shape())
	}
	e.Weight = p
	return nil
}

// Parameters returns the list of trainable parameters.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
