package nn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/decoder/internal/backend/cpu"
	"github.com/born-ml/decoder/internal/tensor"
	"github.com/born-ml/decoder/internal/weights"
)

type tensor64 = tensor.Tensor[float64, *cpu.CPUBackend]

func raw64(t *testing.T, values []float64, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.RawFromSlice(values, tensor.Shape(shape))
	require.NoError(t, err)
	return r
}

func from64(t *testing.T, backend *cpu.CPUBackend, values []float64, shape ...int) *tensor64 {
	t.Helper()
	x, err := tensor.FromSlice(values, tensor.Shape(shape), backend)
	require.NoError(t, err)
	return x
}

// ramp returns n values i*scale + offset.
func ramp(n int, scale, offset float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)*scale + offset
	}
	return out
}

// mlpStore returns a store with a hidden->2*ffn->hidden MLP under prefix.
func mlpStore(t *testing.T, prefix string, hidden, ffn int) *weights.MapStore {
	t.Helper()
	return weights.NewMapStore(map[string]*tensor.RawTensor{
		prefix + ".gate_up_proj.weight": raw64(t, ramp(2*ffn*hidden, 0.01, -0.3), 2*ffn, hidden),
		prefix + ".gate_up_proj.bias":   raw64(t, ramp(2*ffn, 0.02, -0.1), 2*ffn),
		prefix + ".down_proj.weight":    raw64(t, ramp(hidden*ffn, -0.015, 0.2), hidden, ffn),
		prefix + ".down_proj.bias":      raw64(t, ramp(hidden, 0.05, 0), hidden),
	})
}
