// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network layers of the seq2seq Transformer.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Embedding, LayerNorm, Dropout
//   - Attention: MultiHeadAttention, ScaledDotProductAttention and masks
//   - Sublayers: SelfAttention, CrossAttention, FeedForward
//   - Positional encoding: SinusoidTable
//   - Initialization: Xavier, Normal, Zeros, Ones
//
// # Basic Usage
//
//	backend := cpu.New()
//	rng := rand.New(rand.NewPCG(1, 2))
//
//	mha := nn.NewMultiHeadAttention(512, 8, 64, 64, 0.1, rng, backend)
//	mha.SetTraining(false)
//	out := mha.Forward(x, x, x, nn.KeyPadMask(ids, ids))
//
// Layers are not safe for concurrent Forward calls while dropout is active.
package nn
