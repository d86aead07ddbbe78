package tensor

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{3, 1}, backend)
//	b := tensor.Ones[float32](Shape{3, 5}, backend)
//	c := a.Add(b) // Shape: [3, 5] (broadcasted)
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) → (M, N).
//
// Example:
//
//	a := tensor.Randn(Shape{3, 4}, nil, backend)
//	b := tensor.Randn(Shape{4, 5}, nil, backend)
//	c := a.MatMul(b) // Shape: [3, 5]
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// BatchMatMul performs batched matrix multiplication over the leading dimensions.
//
//	[B, M, K] @ [B, K, N] → [B, M, N]
//	[B, H, M, K] @ [B, H, K, N] → [B, H, M, N]
func (t *Tensor[T, B]) BatchMatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.BatchMatMul(t.raw, other.raw), t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
//
// Example:
//
//	t := tensor.Zeros[float32](Shape{12}, backend)
//	reshaped := t.Reshape(3, 4) // Shape: [3, 4]
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose transposes the tensor by permuting its dimensions.
//
// If axes is empty, reverses all dimensions (for 2D, this is standard transpose).
// Otherwise, axes specifies the permutation.
//
// Example:
//
//	t := tensor.Zeros[float32](Shape{2, 3, 4}, backend)
//	transposed := t.Transpose(2, 0, 1) // Shape: [4, 2, 3]
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T is a shortcut for 2D transpose (swaps rows and columns).
// Panics if the tensor is not 2D.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic("T() only works for 2D tensors")
	}
	return t.Transpose(1, 0)
}

// Narrow returns the slice [start, start+length) along dim as a new tensor.
// Supports negative dim indexing.
//
// Example:
//
//	seq := tensor.Zeros[int32](Shape{2, 5}, backend)
//	head := seq.Narrow(1, 0, 4) // Shape: [2, 4], drops the last column
func (t *Tensor[T, B]) Narrow(dim, start, length int) *Tensor[T, B] {
	return New[T, B](t.backend.Narrow(t.raw, dim, start, length), t.backend)
}

// Unsqueeze adds a dimension of size 1 at the specified position.
// Supports negative dim indexing (-1 appends a trailing dimension).
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	shape := t.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		panic("unsqueeze: dimension out of range")
	}
	newShape := make([]int, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return t.Reshape(newShape...)
}

// MulScalar multiplies every element by scalar.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// AddScalar adds scalar to every element.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, scalar), t.backend)
}

// Rsqrt computes 1/sqrt(x) element-wise.
func (t *Tensor[T, B]) Rsqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Rsqrt(t.raw), t.backend)
}

// ReLU computes max(0, x) element-wise.
func (t *Tensor[T, B]) ReLU() *Tensor[T, B] {
	return New[T, B](t.backend.ReLU(t.raw), t.backend)
}

// Softmax computes the softmax function along the specified dimension.
//
// Softmax(x_i) = exp(x_i - max) / sum(exp(x_j - max)) for all j in dimension.
// Supports negative dimension indexing (-1 = last dimension).
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Softmax(t.raw, dim), t.backend)
}

// MeanDim computes the mean along dim, optionally keeping it as size 1.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MeanDim(t.raw, dim, keepDim), t.backend)
}

// Or computes the element-wise logical OR of two boolean tensors with broadcasting.
//
// Example:
//
//	padding := nn.KeyPadMask(seq, seq)     // [batch, len, len]
//	future := nn.SubsequentMask(len, b)    // [len, len]
//	combined := tensor.Or(padding, future) // [batch, len, len]
func Or[B Backend](a, b *Tensor[bool, B]) *Tensor[bool, B] {
	return New[bool, B](a.backend.Or(a.raw, b.raw), a.backend)
}

// Embedding gathers rows of weight [num, dim] by indices of any shape,
// producing a tensor of shape [..., dim].
func Embedding[B Backend](weight *Tensor[float32, B], indices *Tensor[int32, B]) *Tensor[float32, B] {
	return New[float32, B](weight.backend.Embedding(weight.raw, indices.raw), weight.backend)
}
