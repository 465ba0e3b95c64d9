// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn exposes the decoder's layers: Linear, the gated activations
// and the MLP block.
package nn

import (
	"github.com/born-ml/decoder/internal/nn"
	"github.com/born-ml/decoder/tensor"
	"github.com/born-ml/decoder/weights"
)

// Module is the interface shared by the decoder's layers.
type Module[T tensor.Float, B tensor.Backend] = nn.Module[T, B]

// Parameter is a named weight tensor.
type Parameter[T tensor.Float, B tensor.Backend] = nn.Parameter[T, B]

// Linear represents a fully connected (dense) layer.
type Linear[T tensor.Float, B tensor.Backend] = nn.Linear[T, B]

// MLP is the feed-forward block of a decoder layer.
type MLP[T tensor.Float, B tensor.Backend] = nn.MLP[T, B]

// Gate selects an MLP's gated activation.
type Gate = nn.Gate

// Supported gates.
const (
	GateSwiGLU = nn.GateSwiGLU
	GateGeGLU  = nn.GateGeGLU
)

// ParseGate parses a gate name ("swiglu", "geglu").
func ParseGate(name string) (Gate, error) {
	return nn.ParseGate(name)
}

// NewLinear creates a Linear layer from in-memory tensors. bias may be nil.
func NewLinear[T tensor.Float, B tensor.Backend](weight, bias *tensor.Tensor[T, B]) (*Linear[T, B], error) {
	return nn.NewLinear(weight, bias)
}

// LinearFromBuilder loads a Linear layer from b's "weight" and "bias".
func LinearFromBuilder[T tensor.Float, B tensor.Backend](hasBias bool, b weights.Builder, backend B) (*Linear[T, B], error) {
	return nn.LinearFromBuilder[T](hasBias, b, backend)
}

// MLPFromBuilder loads a SwiGLU MLP from b's gate_up_proj and down_proj.
//
// Example:
//
//	b := weights.NewBuilder(store).PP("layers").PP("0").PP("mlp")
//	mlp, err := nn.MLPFromBuilder[float32](b, cpu.New())
func MLPFromBuilder[T tensor.Float, B tensor.Backend](b weights.Builder, backend B) (*MLP[T, B], error) {
	return nn.FromBuilder[T](b, backend)
}

// SwiGLU splits the trailing dimension into gate and value halves and
// returns silu(gate) * value.
func SwiGLU[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return nn.SwiGLU(x)
}

// GeGLU is SwiGLU with a GELU gate.
func GeGLU[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return nn.GeGLU(x)
}
