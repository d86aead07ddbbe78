// Package optim implements Adam with the warm-up learning-rate schedule used
// to train the Transformer.
//
// Gradients are supplied by the training harness through
// nn.Parameter.SetGrad; parameters without a gradient are skipped.
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    Betas:    [2]float32{0.9, 0.98},
//	    Eps:      1e-9,
//	    Schedule: optim.WarmupSchedule{DModel: 512, WarmUpSteps: 4000},
//	}, backend)
//
//	for step := range steps {
//	    computeGradients(model, batch) // calls p.SetGrad for every parameter
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"math"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one update to every parameter that has a gradient.
	Step()

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// LR returns the learning rate used by the last Step.
	LR() float32
}

// Schedule maps a 1-based step number to a learning rate.
type Schedule interface {
	LearningRate(step int) float64
}

// ConstantLR is a fixed learning rate.
type ConstantLR float64

// LearningRate implements Schedule.
func (c ConstantLR) LearningRate(int) float64 { return float64(c) }

// WarmupSchedule increases the rate linearly for WarmUpSteps steps and then
// decays it with the inverse square root of the step:
//
//	Scale * d_model^-0.5 * min(step^-0.5, step * warm_up^-1.5)
//
// A zero Scale means 1. Steps below 1 are treated as step 1.
type WarmupSchedule struct {
	DModel      int
	WarmUpSteps int
	Scale       float64
}

// LearningRate implements Schedule.
func (w WarmupSchedule) LearningRate(step int) float64 {
	scale := w.Scale
	if scale == 0 {
		scale = 1
	}
	s := float64(max(step, 1))
	warm := float64(max(w.WarmUpSteps, 1))
	return scale * math.Pow(float64(w.DModel), -0.5) * math.Min(math.Pow(s, -0.5), s*math.Pow(warm, -1.5))
}
