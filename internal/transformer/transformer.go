// Package transformer assembles the encoder-decoder Transformer: configuration,
// encoder and decoder stacks, weight sharing, the forward contract and state
// persistence.
package transformer

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Transformer maps source ids to per-position target vocabulary logits.
//
// Weight sharing is decided once in New and fixed afterwards:
//   - the output projection may hold the target embedding's Parameter (default),
//     in which case logits are scaled by d_model^-0.5;
//   - the source and target embeddings may hold the same Parameter, which
//     requires equal vocabulary sizes.
//
// A Transformer starts in training mode. Forward may be called concurrently
// only in evaluation mode, as dropout draws from a shared random source.
//
// Example:
//
//	model, err := transformer.New(srcVocab, tgtVocab, transformer.DefaultHyperParam(), cpu.New())
//	model.Eval()
//	logits, err := model.Forward(batch.Src, batch.SrcPos, batch.Tgt, batch.TgtPos)
type Transformer[B tensor.Backend] struct {
	Encoder    *Encoder[B]
	Decoder    *Decoder[B]
	Projection *nn.Linear[B] // [tgt_vocab, d_model], no bias

	hp              HyperParam
	srcVocab        int
	tgtVocab        int
	shareProjection bool
	shareEmbeddings bool
	logitScale      float32
	training        bool
}

// Attention holds per-layer attention weights, each [batch*heads, len_q, len_k].
type Attention[B tensor.Backend] struct {
	EncoderSelf  []*tensor.Tensor[float32, B]
	DecoderSelf  []*tensor.Tensor[float32, B]
	DecoderCross []*tensor.Tensor[float32, B]
}

type options struct {
	shareProjection bool
	shareEmbeddings bool
	seed            *uint64
}

// Option configures New.
type Option func(*options)

// WithTargetProjectionSharing ties the output projection to the target
// embedding (default true).
func WithTargetProjectionSharing(share bool) Option {
	return func(o *options) { o.shareProjection = share }
}

// WithSourceTargetSharing ties the source embedding to the target embedding
// (default false). The vocabulary sizes must be equal.
func WithSourceTargetSharing(share bool) Option {
	return func(o *options) { o.shareEmbeddings = share }
}

// WithSeed makes parameter initialization and dropout deterministic.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

// New builds a Transformer. Configuration problems are reported as ErrConfig.
func New[B tensor.Backend](srcVocab, tgtVocab int, hp HyperParam, backend B, opts ...Option) (*Transformer[B], error) {
	o := options{shareProjection: true}
	for _, opt := range opts {
		opt(&o)
	}

	if err := hp.Validate(); err != nil {
		return nil, err
	}
	if srcVocab <= nn.PadIndex || tgtVocab <= nn.PadIndex {
		return nil, fmt.Errorf("%w: vocabulary sizes must be positive, got %d and %d", ErrConfig, srcVocab, tgtVocab)
	}
	if o.shareEmbeddings && srcVocab != tgtVocab {
		return nil, fmt.Errorf("%w: sharing source and target embeddings needs equal vocabulary sizes, got %d and %d",
			ErrConfig, srcVocab, tgtVocab)
	}

	var rng *rand.Rand
	if o.seed != nil {
		rng = rand.New(rand.NewPCG(*o.seed, *o.seed))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // G404: ML uses math/rand intentionally
	}

	m := &Transformer[B]{
		Encoder:         NewEncoder(srcVocab, hp, rng, backend),
		Decoder:         NewDecoder(tgtVocab, hp, rng, backend),
		hp:              hp,
		srcVocab:        srcVocab,
		tgtVocab:        tgtVocab,
		shareProjection: o.shareProjection,
		shareEmbeddings: o.shareEmbeddings,
		logitScale:      1,
		training:        true,
	}

	weight := nn.XavierNormal(hp.ModelDimension, tgtVocab, tensor.Shape{tgtVocab, hp.ModelDimension}, rng, backend)
	m.Projection = nn.NewLinearWithWeight(nn.NewParameter("weight", weight), nil)

	if o.shareProjection {
		if err := m.Projection.TieWeight(m.Decoder.Embedding.Weight); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		m.logitScale = float32(math.Pow(float64(hp.ModelDimension), -0.5))
	}
	if o.shareEmbeddings {
		if err := m.Encoder.Embedding.TieWeight(m.Decoder.Embedding.Weight); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}

	return m, nil
}

// Forward runs teacher-forced next-token prediction. The last target column
// is dropped before decoding, so for src [B, Ls] and tgt [B, Lt] the result
// is logits [B*(Lt-1), tgt_vocab].
//
// Inputs are validated before any computation; on error no output is produced.
func (m *Transformer[B]) Forward(src, srcPos, tgt, tgtPos *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], error) {
	tgt, tgtPos, err := m.prepare(src, srcPos, tgt, tgtPos)
	if err != nil {
		return nil, err
	}

	memory, err := m.Encoder.Forward(src, srcPos)
	if err != nil {
		return nil, err
	}
	out, err := m.Decoder.Forward(tgt, tgtPos, src, memory)
	if err != nil {
		return nil, err
	}
	return m.project(out), nil
}

// ForwardWithAttention is Forward that also returns every layer's attention weights.
func (m *Transformer[B]) ForwardWithAttention(src, srcPos, tgt, tgtPos *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], *Attention[B], error) {
	tgt, tgtPos, err := m.prepare(src, srcPos, tgt, tgtPos)
	if err != nil {
		return nil, nil, err
	}

	attn := &Attention[B]{}
	memory, encSelf, err := m.Encoder.ForwardWithAttention(src, srcPos)
	if err != nil {
		return nil, nil, err
	}
	attn.EncoderSelf = encSelf

	out, decSelf, decCross, err := m.Decoder.ForwardWithAttention(tgt, tgtPos, src, memory)
	if err != nil {
		return nil, nil, err
	}
	attn.DecoderSelf, attn.DecoderCross = decSelf, decCross

	return m.project(out), attn, nil
}

// prepare validates all inputs and returns the shifted decoder input.
func (m *Transformer[B]) prepare(src, srcPos, tgt, tgtPos *tensor.Tensor[int32, B]) (*tensor.Tensor[int32, B], *tensor.Tensor[int32, B], error) {
	nPosition := m.hp.MaxSequenceLength + 1
	if err := checkSequence("source", src, srcPos, m.srcVocab, nPosition); err != nil {
		return nil, nil, err
	}
	if err := checkSequence("target", tgt, tgtPos, m.tgtVocab, nPosition); err != nil {
		return nil, nil, err
	}
	if src.Shape()[0] != tgt.Shape()[0] {
		return nil, nil, fmt.Errorf("%w: source batch %d, target batch %d",
			ErrDimensionMismatch, src.Shape()[0], tgt.Shape()[0])
	}
	length := tgt.Shape()[1]
	if length < 2 {
		return nil, nil, fmt.Errorf("%w: target length must be at least 2, got %d", ErrDimensionMismatch, length)
	}
	return tgt.Narrow(1, 0, length-1), tgtPos.Narrow(1, 0, length-1), nil
}

// project maps the decoder output [B, L, d_model] to logits [B*L, tgt_vocab].
func (m *Transformer[B]) project(out *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	logits := m.Projection.Forward(out)
	if m.logitScale != 1 {
		logits = logits.MulScalar(m.logitScale)
	}
	return logits.Reshape(-1, m.tgtVocab)
}

// Train enables dropout.
func (m *Transformer[B]) Train() { m.setTraining(true) }

// Eval disables dropout; forward passes become deterministic.
func (m *Transformer[B]) Eval() { m.setTraining(false) }

// Training reports whether the model is in training mode.
func (m *Transformer[B]) Training() bool { return m.training }

func (m *Transformer[B]) setTraining(training bool) {
	m.training = training
	m.Encoder.SetTraining(training)
	m.Decoder.SetTraining(training)
}

// HyperParam returns the configuration the model was built with.
func (m *Transformer[B]) HyperParam() HyperParam { return m.hp }

// VocabSizes returns the source and target vocabulary sizes.
func (m *Transformer[B]) VocabSizes() (src, tgt int) { return m.srcVocab, m.tgtVocab }

// SharesProjection reports whether the projection is tied to the target embedding.
func (m *Transformer[B]) SharesProjection() bool { return m.shareProjection }

// SharesEmbeddings reports whether the source and target embeddings are tied.
func (m *Transformer[B]) SharesEmbeddings() bool { return m.shareEmbeddings }

// LogitScale returns the factor applied to the projection output.
func (m *Transformer[B]) LogitScale() float32 { return m.logitScale }
