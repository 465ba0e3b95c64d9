package tensor

// Backend defines the primitives a compute backend must implement for the
// decoder's layers. Every operation allocates its result; operands are never
// modified, so the same weights can serve concurrent forward passes.
//
// Shape problems are reported as *ShapeError and dtype problems wrap ErrDType.
//
// Implementations:
//   - CPU: pure Go, row-parallel (internal/backend/cpu)
type Backend interface {
	// MatMulT multiplies a by the transpose of b, batched over the leading
	// dimensions of a: [..., K] x [N, K] -> [..., N].
	MatMulT(a, b *RawTensor) (*RawTensor, error)

	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) (*RawTensor, error)
	Mul(a, b *RawTensor) (*RawTensor, error)

	// Activation functions (element-wise).
	SiLU(x *RawTensor) (*RawTensor, error)    // x * sigmoid(x)
	Sigmoid(x *RawTensor) (*RawTensor, error) // 1 / (1 + exp(-x))
	GELU(x *RawTensor) (*RawTensor, error)    // exact, erf-based

	// Chunk splits x into n equal contiguous parts along dim.
	Chunk(x *RawTensor, n, dim int) ([]*RawTensor, error)

	// Metadata
	Name() string
	Device() Device
}
