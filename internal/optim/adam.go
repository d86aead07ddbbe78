package optim

import (
	"math"

	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Parameters are updated in place, so tied parameters listed once are
// updated once.
type Adam[B tensor.Backend] struct {
	params   []*nn.Parameter[B]
	schedule Schedule
	lr       float32
	beta1    float32
	beta2    float32
	eps      float32
	t        int                                             // Timestep for bias correction
	m        map[*nn.Parameter[B]]*tensor.Tensor[float32, B] // First moment estimates
	v        map[*nn.Parameter[B]]*tensor.Tensor[float32, B] // Second moment estimates
	backend  B
}

// Compile-time check that Adam implements Optimizer.
var _ Optimizer = (*Adam[tensor.Backend])(nil)

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	Betas    [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps      float32    // Term for numerical stability (default: 1e-8)
	Schedule Schedule   // Learning rate per step (default: ConstantLR(0.001))
	InitLR   float32    // Value reported by LR before the first Step
}

// NewAdam creates a new Adam optimizer. Duplicate parameters are dropped.
//
// Default hyperparameters:
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
//   - Schedule: ConstantLR(0.001)
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	if config.Schedule == nil {
		config.Schedule = ConstantLR(0.001)
	}

	return &Adam[B]{
		params:   nn.UniqueParameters(params),
		schedule: config.Schedule,
		lr:       config.InitLR,
		beta1:    config.Betas[0],
		beta2:    config.Betas[1],
		eps:      config.Eps,
		m:        make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		v:        make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:  backend,
	}
}

// Step performs a single optimization step. The learning rate is taken from
// the schedule at the new timestep. Parameters with no gradient are skipped.
func (a *Adam[B]) Step() {
	a.t++
	a.lr = float32(a.schedule.LearningRate(a.t))

	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		m, ok := a.m[param]
		if !ok {
			m = tensor.Zeros[float32](param.Shape(), a.backend)
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = tensor.Zeros[float32](param.Shape(), a.backend)
			a.v[param] = v
		}

		a.updateParameter(param, grad, m, v, biasCorrection1, biasCorrection2)
	}
}

// updateParameter performs Adam update for a single parameter.
func (a *Adam[B]) updateParameter(
	param *nn.Parameter[B],
	grad *tensor.Tensor[float32, B],
	m, v *tensor.Tensor[float32, B],
	biasCorrection1, biasCorrection2 float32,
) {
	gradData := grad.Data()
	mData := m.Data()
	vData := v.Data()
	paramData := param.Tensor().Data()

	for i := range paramData {
		g := gradData[i]
		mData[i] = a.beta1*mData[i] + (1.0-a.beta1)*g
		vData[i] = a.beta2*vData[i] + (1.0-a.beta2)*g*g

		mHat := mData[i] / biasCorrection1
		vHat := vData[i] / biasCorrection2
		paramData[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// LR returns the learning rate used by the last Step.
func (a *Adam[B]) LR() float32 {
	return a.lr
}

// Timestep returns the number of steps taken.
func (a *Adam[B]) Timestep() int {
	return a.t
}
