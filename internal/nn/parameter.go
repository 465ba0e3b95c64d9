package nn

import (
	"github.com/born-ml/decoder/internal/tensor"
)

// Parameter is a named weight tensor of a layer.
//
// The name is the fully-qualified path the tensor was loaded from (e.g.
// "layers.0.mlp.down_proj.weight"), or a short name for in-memory layers.
type Parameter[T tensor.Float, B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[T, B]
}

// NewParameter creates a parameter.
func NewParameter[T tensor.Float, B tensor.Backend](name string, t *tensor.Tensor[T, B]) *Parameter[T, B] {
	return &Parameter[T, B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[T, B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[T, B]) Tensor() *tensor.Tensor[T, B] {
	return p.tensor
}

// StateDict returns the parameters' raw tensors keyed by name.
func StateDict[T tensor.Float, B tensor.Backend](params []*Parameter[T, B]) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		out[p.name] = p.tensor.Raw()
	}
	return out
}
