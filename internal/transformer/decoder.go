package transformer

import (
	"math/rand/v2"

	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// DecoderLayer is masked self-attention, cross-attention over the encoder
// output and the feed-forward network, each output multiplied by the non-pad mask.
type DecoderLayer[B tensor.Backend] struct {
	SelfAttn  *nn.SelfAttention[B]
	CrossAttn *nn.CrossAttention[B]
	FFN       *nn.FeedForward[B]
}

// NewDecoderLayer creates a decoder layer sized by hp.
func NewDecoderLayer[B tensor.Backend](hp HyperParam, rng *rand.Rand, backend B) *DecoderLayer[B] {
	return &DecoderLayer[B]{
		SelfAttn:  &nn.SelfAttention[B]{Attn: newAttention(hp, rng, backend)},
		CrossAttn: &nn.CrossAttention[B]{Attn: newAttention(hp, rng, backend)},
		FFN: &nn.FeedForward[B]{
			FFN: nn.NewPositionwiseFeedForward(hp.ModelDimension, hp.HiddenLayerDimension, hp.Dropout, rng, backend),
		},
	}
}

// Forward maps the decoder state x [batch, tgt_len, d_model] given the
// encoder output memory [batch, src_len, d_model].
func (l *DecoderLayer[B]) Forward(
	x, memory *tensor.Tensor[float32, B],
	nonPad *tensor.Tensor[float32, B],
	slfMask, encDecMask *tensor.Tensor[bool, B],
) *tensor.Tensor[float32, B] {
	x = l.SelfAttn.Apply(x, slfMask).Mul(nonPad)
	x = l.CrossAttn.WithMemory(memory).Apply(x, encDecMask).Mul(nonPad)
	return l.FFN.Apply(x, nil).Mul(nonPad)
}

// ForwardWithAttention is Forward that also returns the self-attention
// weights [batch*heads, tgt_len, tgt_len] and the cross-attention weights
// [batch*heads, tgt_len, src_len].
func (l *DecoderLayer[B]) ForwardWithAttention(
	x, memory *tensor.Tensor[float32, B],
	nonPad *tensor.Tensor[float32, B],
	slfMask, encDecMask *tensor.Tensor[bool, B],
) (out, slfAttn, encAttn *tensor.Tensor[float32, B]) {
	x, slfAttn = l.SelfAttn.ApplyWithWeights(x, slfMask)
	x = x.Mul(nonPad)
	x, encAttn = l.CrossAttn.WithMemory(memory).ApplyWithWeights(x, encDecMask)
	x = x.Mul(nonPad)
	return l.FFN.Apply(x, nil).Mul(nonPad), slfAttn, encAttn
}

// Sublayers returns the layer's stages in application order. The
// cross-attention stage is unbound.
func (l *DecoderLayer[B]) Sublayers() []nn.Sublayer[B] {
	return []nn.Sublayer[B]{l.SelfAttn, l.CrossAttn, l.FFN}
}

// Decoder embeds target ids, adds positional encodings and runs the layer
// stack against the encoder output.
type Decoder[B tensor.Backend] struct {
	Embedding *nn.Embedding[B]
	Position  *nn.SinusoidTable[B]
	Layers    []*DecoderLayer[B]
}

// NewDecoder creates a decoder for a vocabulary of vocabSize ids.
func NewDecoder[B tensor.Backend](vocabSize int, hp HyperParam, rng *rand.Rand, backend B) *Decoder[B] {
	layers := make([]*DecoderLayer[B], hp.DecoderLayerCount)
	for i := range layers {
		layers[i] = NewDecoderLayer(hp, rng, backend)
	}
	return &Decoder[B]{
		Embedding: nn.NewEmbedding(vocabSize, hp.WordEmbeddingDimension, nn.PadIndex, rng, backend),
		Position:  nn.NewSinusoidTable(hp.MaxSequenceLength+1, hp.WordEmbeddingDimension, nn.PadIndex, backend),
		Layers:    layers,
	}
}

// Forward decodes tgt [batch, tgt_len] with positions tgtPos against the
// encoder output for src, returning [batch, tgt_len, d_model].
func (d *Decoder[B]) Forward(tgt, tgtPos, src *tensor.Tensor[int32, B], memory *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	x, err := d.embed(tgt, tgtPos)
	if err != nil {
		return nil, err
	}

	nonPad, slfMask, encDecMask := d.masks(tgt, src)
	for _, layer := range d.Layers {
		x = layer.Forward(x, memory, nonPad, slfMask, encDecMask)
	}
	return x, nil
}

// ForwardWithAttention is Forward that also returns each layer's
// self-attention and cross-attention weights.
func (d *Decoder[B]) ForwardWithAttention(
	tgt, tgtPos, src *tensor.Tensor[int32, B],
	memory *tensor.Tensor[float32, B],
) (out *tensor.Tensor[float32, B], slfAttns, encAttns []*tensor.Tensor[float32, B], err error) {
	x, err := d.embed(tgt, tgtPos)
	if err != nil {
		return nil, nil, nil, err
	}

	nonPad, slfMask, encDecMask := d.masks(tgt, src)
	slfAttns = make([]*tensor.Tensor[float32, B], len(d.Layers))
	encAttns = make([]*tensor.Tensor[float32, B], len(d.Layers))
	for i, layer := range d.Layers {
		x, slfAttns[i], encAttns[i] = layer.ForwardWithAttention(x, memory, nonPad, slfMask, encDecMask)
	}
	return x, slfAttns, encAttns, nil
}

// masks computes the per-pass masks shared by every layer.
func (d *Decoder[B]) masks(tgt, src *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[bool, B], *tensor.Tensor[bool, B]) {
	length := tgt.Shape()[1]
	slfMask := nn.OrMask(nn.KeyPadMask(tgt, tgt), nn.SubsequentMask(length, tgt.Backend()))
	return nn.NonPadMask(tgt), slfMask, nn.KeyPadMask(src, tgt)
}

func (d *Decoder[B]) embed(tgt, tgtPos *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], error) {
	if err := checkSequence("target", tgt, tgtPos, d.Embedding.NumEmbed, d.Position.NPosition()); err != nil {
		return nil, err
	}
	pos, err := d.Position.Lookup(tgtPos)
	if err != nil {
		return nil, err
	}
	return d.Embedding.Forward(tgt).Add(pos), nil
}

// SetTraining toggles dropout in every layer.
func (d *Decoder[B]) SetTraining(training bool) {
	for _, layer := range d.Layers {
		for _, s := range layer.Sublayers() {
			s.SetTraining(training)
		}
	}
}
