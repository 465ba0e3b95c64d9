package cpu

import (
	"errors"
	"fmt"

	"github.com/born-ml/decoder/internal/tensor"
)

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Mul performs element-wise multiplication with NumPy-style broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

func (cpu *CPUBackend) binary(
	op string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) (*tensor.RawTensor, error) {
	if err := sameComputable(op, a, b); err != nil {
		return nil, err
	}

	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		var se *tensor.ShapeError
		if errors.As(err, &se) {
			se.Op = op
		}
		return nil, err
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ai := broadcastIndex(a.Shape(), outShape)
	bi := broadcastIndex(b.Shape(), outShape)

	switch a.DType() {
	case tensor.Float32:
		applyBinary(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), ai, bi, f32)
	case tensor.Float64:
		applyBinary(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), ai, bi, f64)
	}

	return result, nil
}

func applyBinary[T tensor.Float](dst, a, b []T, ai, bi func(int) int, f func(x, y T) T) {
	for i := range dst {
		dst[i] = f(a[ai(i)], b[bi(i)])
	}
}

// broadcastIndex returns a function mapping a flat index in outShape to the
// flat index of the element of a tensor with shape src that broadcasts to it.
func broadcastIndex(src, outShape tensor.Shape) func(int) int {
	if src.Equal(outShape) {
		return func(i int) int { return i }
	}
	if src.NumElements() == 1 {
		return func(int) int { return 0 }
	}

	// Trailing-vector broadcast ([N] or [1, N] against [..., N]), the bias case.
	if src.NumElements() == src.Last() && src.Last() == outShape.Last() {
		n := src.Last()
		return func(i int) int { return i % n }
	}

	rank := len(outShape)
	srcStrides := make([]int, rank)
	ss := src.ComputeStrides()
	for d := 0; d < len(src); d++ {
		if src[d] != 1 {
			srcStrides[rank-len(src)+d] = ss[d]
		}
	}
	outStrides := outShape.ComputeStrides()

	return func(i int) int {
		idx := 0
		for d := 0; d < rank; d++ {
			coord := i / outStrides[d]
			i %= outStrides[d]
			idx += coord * srcStrides[d]
		}
		return idx
	}
}

// sameComputable checks that a and b share a dtype the CPU can compute in.
func sameComputable(op string, a, b *tensor.RawTensor) error {
	if a.DType() != b.DType() {
		return fmt.Errorf("%s: %w: %s vs %s", op, tensor.ErrDType, a.DType(), b.DType())
	}
	return computable(op, a)
}

func computable(op string, x *tensor.RawTensor) error {
	if !x.DType().Computable() {
		return fmt.Errorf("%s: %w: cannot compute in %s", op, tensor.ErrDType, x.DType())
	}
	return nil
}
