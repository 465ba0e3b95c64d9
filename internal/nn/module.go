// Package nn implements the inference-time layers of the decoder.
//
// Layers are built from a weights.Builder scoped to the layer's own name
// prefix, hold only immutable tensors, and are safe for concurrent Forward
// calls:
//   - Linear: y = x Wᵀ + b
//   - SwiGLU, GeGLU: fused split-and-gate activations
//   - MLP: gate_up_proj, gate, down_proj
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/born-ml/decoder/internal/tensor"
)

// Module is the interface shared by the decoder's layers.
//
// Type parameter T is the compute precision, B the backend.
type Module[T tensor.Float, B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)

	// Parameters returns the module's weight tensors.
	Parameters() []*Parameter[T, B]
}

// CountParameters returns the total number of scalar weights in a module.
func CountParameters[T tensor.Float, B tensor.Backend](m Module[T, B]) int {
	n := 0
	for _, p := range m.Parameters() {
		n += p.Tensor().NumElements()
	}
	return n
}
