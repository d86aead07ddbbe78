package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Every operation returns a freshly allocated result (Reshape may return a
// view) and never mutates its inputs.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
	// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
	// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Narrow(t *RawTensor, dim, start, length int) *RawTensor // slice [start, start+length) along dim

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor

	// Math operations (element-wise)
	Rsqrt(x *RawTensor) *RawTensor // reciprocal square root (1/sqrt(x))

	// Activation functions
	ReLU(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor // numerically stable softmax along dimension

	// Reduction operations
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Boolean operations (element-wise on bool tensors, with broadcasting)
	Or(a, b *RawTensor) *RawTensor

	// Indexing operations
	Embedding(weight, indices *RawTensor) *RawTensor // lookup rows of weight by int32 indices

	// Metadata
	Name() string
	Device() Device
}
