package transformer

import "github.com/born-ml/seq2seq/internal/optim"

// NewAdam returns an Adam optimizer over m.Parameters() configured from
// HyperParam.Opt: betas, epsilon and the warm-up schedule for the model width.
// Gradients are supplied through nn.Parameter.SetGrad.
func (m *Transformer[B]) NewAdam(backend B) *optim.Adam[B] {
	opt := m.hp.Opt
	return optim.NewAdam(m.Parameters(), optim.AdamConfig{
		Betas:    [2]float32{float32(opt.AdamBeta[0]), float32(opt.AdamBeta[1])},
		Eps:      float32(opt.AdamEpsilon),
		Schedule: opt.Schedule(m.hp.ModelDimension),
		InitLR:   float32(opt.InitLearningRate),
	}, backend)
}

// ZeroGrad clears the gradient of every parameter.
func (m *Transformer[B]) ZeroGrad() {
	for _, p := range m.Parameters() {
		p.ZeroGrad()
	}
}
