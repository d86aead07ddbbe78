package transformer

import (
	"math/rand/v2"

	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// EncoderLayer is self-attention followed by the feed-forward network, each
// output multiplied by the non-pad mask so padding positions stay zero.
type EncoderLayer[B tensor.Backend] struct {
	SelfAttn *nn.SelfAttention[B]
	FFN      *nn.FeedForward[B]
}

// NewEncoderLayer creates an encoder layer sized by hp.
func NewEncoderLayer[B tensor.Backend](hp HyperParam, rng *rand.Rand, backend B) *EncoderLayer[B] {
	return &EncoderLayer[B]{
		SelfAttn: &nn.SelfAttention[B]{Attn: newAttention(hp, rng, backend)},
		FFN: &nn.FeedForward[B]{
			FFN: nn.NewPositionwiseFeedForward(hp.ModelDimension, hp.HiddenLayerDimension, hp.Dropout, rng, backend),
		},
	}
}

// Forward maps x [batch, len, d_model] to a new state of the same shape.
func (l *EncoderLayer[B]) Forward(x *tensor.Tensor[float32, B], nonPad *tensor.Tensor[float32, B], slfMask *tensor.Tensor[bool, B]) *tensor.Tensor[float32, B] {
	x = l.SelfAttn.Apply(x, slfMask).Mul(nonPad)
	return l.FFN.Apply(x, nil).Mul(nonPad)
}

// ForwardWithAttention is Forward that also returns the self-attention
// weights [batch*heads, len, len].
func (l *EncoderLayer[B]) ForwardWithAttention(x *tensor.Tensor[float32, B], nonPad *tensor.Tensor[float32, B], slfMask *tensor.Tensor[bool, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	x, attn := l.SelfAttn.ApplyWithWeights(x, slfMask)
	x = x.Mul(nonPad)
	return l.FFN.Apply(x, nil).Mul(nonPad), attn
}

// Sublayers returns the layer's stages in application order.
func (l *EncoderLayer[B]) Sublayers() []nn.Sublayer[B] {
	return []nn.Sublayer[B]{l.SelfAttn, l.FFN}
}

// Encoder embeds source ids, adds positional encodings and runs the layer stack.
type Encoder[B tensor.Backend] struct {
	Embedding *nn.Embedding[B]
	Position  *nn.SinusoidTable[B]
	Layers    []*EncoderLayer[B]
}

// NewEncoder creates an encoder for a vocabulary of vocabSize ids.
func NewEncoder[B tensor.Backend](vocabSize int, hp HyperParam, rng *rand.Rand, backend B) *Encoder[B] {
	layers := make([]*EncoderLayer[B], hp.EncoderLayerCount)
	for i := range layers {
		layers[i] = NewEncoderLayer(hp, rng, backend)
	}
	return &Encoder[B]{
		Embedding: nn.NewEmbedding(vocabSize, hp.WordEmbeddingDimension, nn.PadIndex, rng, backend),
		Position:  nn.NewSinusoidTable(hp.MaxSequenceLength+1, hp.WordEmbeddingDimension, nn.PadIndex, backend),
		Layers:    layers,
	}
}

// Forward encodes src [batch, len] with positions srcPos into [batch, len, d_model].
func (e *Encoder[B]) Forward(src, srcPos *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], error) {
	x, err := e.embed(src, srcPos)
	if err != nil {
		return nil, err
	}

	nonPad, slfMask := nn.NonPadMask(src), nn.KeyPadMask(src, src)
	for _, layer := range e.Layers {
		x = layer.Forward(x, nonPad, slfMask)
	}
	return x, nil
}

// ForwardWithAttention is Forward that also returns each layer's
// self-attention weights.
func (e *Encoder[B]) ForwardWithAttention(src, srcPos *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], []*tensor.Tensor[float32, B], error) {
	x, err := e.embed(src, srcPos)
	if err != nil {
		return nil, nil, err
	}

	nonPad, slfMask := nn.NonPadMask(src), nn.KeyPadMask(src, src)
	attns := make([]*tensor.Tensor[float32, B], len(e.Layers))
	for i, layer := range e.Layers {
		x, attns[i] = layer.ForwardWithAttention(x, nonPad, slfMask)
	}
	return x, attns, nil
}

func (e *Encoder[B]) embed(src, srcPos *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], error) {
	if err := checkSequence("source", src, srcPos, e.Embedding.NumEmbed, e.Position.NPosition()); err != nil {
		return nil, err
	}
	pos, err := e.Position.Lookup(srcPos)
	if err != nil {
		return nil, err
	}
	return e.Embedding.Forward(src).Add(pos), nil
}

// SetTraining toggles dropout in every layer.
func (e *Encoder[B]) SetTraining(training bool) {
	for _, layer := range e.Layers {
		for _, s := range layer.Sublayers() {
			s.SetTraining(training)
		}
	}
}

func newAttention[B tensor.Backend](hp HyperParam, rng *rand.Rand, backend B) *nn.MultiHeadAttention[B] {
	return nn.NewMultiHeadAttention(
		hp.ModelDimension,
		hp.AttentionHeadNumber,
		hp.AttentionKeyDimension,
		hp.AttentionValueDimension,
		hp.Dropout,
		rng,
		backend,
	)
}
