// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// The backend implements:
//   - NumPy-compatible broadcasting for element-wise ops
//   - SGEMM-based MatMul and BatchMatMul (gonum BLAS)
//   - Numerically stable Softmax
//   - Float32, Float64, Int32 and Bool storage
//
// # Basic Usage
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
//
// # Thread Safety
//
// The CPU backend holds no mutable state and is safe for concurrent use.
// Each operation allocates its result.
package cpu
