package nn

import (
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Sublayer is one stage of an encoder or decoder layer. The set of variants
// is closed: SelfAttention, CrossAttention and FeedForward.
type Sublayer[B tensor.Backend] interface {
	// Apply maps state [batch, seq, d_model] to a new state of the same shape.
	// mask is the attention mask for attention variants and ignored otherwise.
	Apply(state *tensor.Tensor[float32, B], mask *tensor.Tensor[bool, B]) *tensor.Tensor[float32, B]
	Parameters() []*Parameter[B]
	Trainer
}

// AttentionSublayer is a Sublayer that can also report its attention weights.
type AttentionSublayer[B tensor.Backend] interface {
	Sublayer[B]
	ApplyWithWeights(state *tensor.Tensor[float32, B], mask *tensor.Tensor[bool, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B])
}

// SelfAttention attends from the state to itself.
type SelfAttention[B tensor.Backend] struct {
	Attn *MultiHeadAttention[B]
}

// Apply implements Sublayer.
func (s *SelfAttention[B]) Apply(state *tensor.Tensor[float32, B], mask *tensor.Tensor[bool, B]) *tensor.Tensor[float32, B] {
	return s.Attn.Forward(state, state, state, mask)
}

// ApplyWithWeights implements AttentionSublayer.
func (s *SelfAttention[B]) ApplyWithWeights(state *tensor.Tensor[float32, B], mask *tensor.Tensor[bool, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	return s.Attn.ForwardWithWeights(state, state, state, mask)
}

// SetTraining implements Trainer.
func (s *SelfAttention[B]) SetTraining(training bool) { s.Attn.SetTraining(training) }

// Parameters implements Sublayer.
func (s *SelfAttention[B]) Parameters() []*Parameter[B] { return s.Attn.Parameters() }

// CrossAttention attends from the state to a memory (the encoder output).
//
// The memory is bound per forward pass with WithMemory, which returns a new
// value; the receiver is left untouched.
type CrossAttention[B tensor.Backend] struct {
	Attn   *MultiHeadAttention[B]
	Memory *tensor.Tensor[float32, B]
}

// WithMemory returns the sublayer bound to memory [batch, seq_k, d_model].
func (c *CrossAttention[B]) WithMemory(memory *tensor.Tensor[float32, B]) *CrossAttention[B] {
	return &CrossAttention[B]{Attn: c.Attn, Memory: memory}
}

// Apply implements Sublayer. Panics if no memory is bound.
func (c *CrossAttention[B]) Apply(state *tensor.Tensor[float32, B], mask *tensor.Tensor[bool, B]) *tensor.Tensor[float32, B] {
	c.mustBound()
	return c.Attn.Forward(state, c.Memory, c.Memory, mask)
}

// ApplyWithWeights implements AttentionSublayer.
func (c *CrossAttention[B]) ApplyWithWeights(state *tensor.Tensor[float32, B], mask *tensor.Tensor[bool, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	c.mustBound()
	return c.Attn.ForwardWithWeights(state, c.Memory, c.Memory, mask)
}

func (c *CrossAttention[B]) mustBound() {
	if c.Memory == nil {
		panic("CrossAttention: no memory bound, call WithMemory first")
	}
}

// SetTraining implements Trainer.
func (c *CrossAttention[B]) SetTraining(training bool) { c.Attn.SetTraining(training) }

// Parameters implements Sublayer.
func (c *CrossAttention[B]) Parameters() []*Parameter[B] { return c.Attn.Parameters() }

// FeedForward wraps a PositionwiseFeedForward as a Sublayer.
type FeedForward[B tensor.Backend] struct {
	FFN *PositionwiseFeedForward[B]
}

// Apply implements Sublayer; mask is ignored.
func (f *FeedForward[B]) Apply(state *tensor.Tensor[float32, B], _ *tensor.Tensor[bool, B]) *tensor.Tensor[float32, B] {
	return f.FFN.Forward(state)
}

// SetTraining implements Trainer.
func (f *FeedForward[B]) SetTraining(training bool) { f.FFN.SetTraining(training) }

// Parameters implements Sublayer.
func (f *FeedForward[B]) Parameters() []*Parameter[B] { return f.FFN.Parameters() }
