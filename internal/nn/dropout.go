package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Dropout randomly zeros elements with probability P while training and
// scales the survivors by 1/(1-P) (inverted dropout). In evaluation mode it
// is the identity.
//
// Modules start in training mode.
type Dropout[B tensor.Backend] struct {
	P        float32
	training bool
	rng      *rand.Rand
}

// NewDropout creates a Dropout layer drawing from rng. A nil rng uses the
// global math/rand/v2 source.
func NewDropout[B tensor.Backend](p float32, rng *rand.Rand) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{P: p, training: true, rng: rng}
}

// Forward applies dropout. In evaluation mode, or with P == 0, x is returned as is.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.P == 0 {
		return x
	}

	out := x.Clone()
	data := out.Data()
	scale := 1 / (1 - d.P)
	for i := range data {
		if d.draw() < d.P {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}
	return out
}

// SetTraining switches between training and evaluation behaviour.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether dropout is active.
func (d *Dropout[B]) Training() bool {
	return d.training
}

// Parameters returns an empty slice (dropout has no trainable parameters).
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

func (d *Dropout[B]) draw() float32 {
	if d.rng != nil {
		return d.rng.Float32()
	}
	return rand.Float32() //nolint:gosec // G404: ML uses math/rand intentionally
}
