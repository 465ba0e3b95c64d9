package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/decoder/internal/parallel"
	"github.com/born-ml/decoder/internal/tensor"
)

// SiLU computes x * sigmoid(x) element-wise.
func (cpu *CPUBackend) SiLU(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.unary("silu", x, func(v float64) float64 {
		return v * sigmoid(v)
	})
}

// Sigmoid computes 1 / (1 + exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.unary("sigmoid", x, sigmoid)
}

// GELU computes the exact 0.5 * x * (1 + erf(x / sqrt(2))).
func (cpu *CPUBackend) GELU(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.unary("gelu", x, func(v float64) float64 {
		return 0.5 * v * (1 + math.Erf(v/math.Sqrt2))
	})
}

// sigmoid is written to avoid overflowing exp for large |v|.
func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

// unary applies f element-wise. Float32 inputs go through math's float64
// functions and are rounded back to float32 per element.
func (cpu *CPUBackend) unary(op string, x *tensor.RawTensor, f func(float64) float64) (*tensor.RawTensor, error) {
	if err := computable(op, x); err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		parallel.For(len(src), func(i int) {
			dst[i] = float32(f(float64(src[i])))
		}, cpu.cfg)
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		parallel.For(len(src), func(i int) {
			dst[i] = f(src[i])
		}, cpu.cfg)
	}

	return result, nil
}
