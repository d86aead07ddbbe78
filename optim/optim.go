// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides Adam and learning-rate schedules for training the
// Transformer. Gradients are supplied through Parameter.SetGrad.
package optim

import (
	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/optim"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Schedule maps a 1-based step number to a learning rate.
type Schedule = optim.Schedule

// ConstantLR is a fixed learning rate.
type ConstantLR = optim.ConstantLR

// WarmupSchedule is the linear warm-up, inverse square root decay schedule.
type WarmupSchedule = optim.WarmupSchedule

// Adam represents the Adam optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer.
//
// Example:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    Betas:    [2]float32{0.9, 0.98},
//	    Eps:      1e-9,
//	    Schedule: optim.WarmupSchedule{DModel: 512, WarmUpSteps: 4000},
//	}, backend)
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	return optim.NewAdam(params, config, backend)
}
