// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/decoder/backend/cpu"
	"github.com/born-ml/decoder/model"
	"github.com/born-ml/decoder/nn"
	"github.com/born-ml/decoder/tensor"
	"github.com/born-ml/decoder/weights"
)

const configYAML = `
hidden_size: 2
num_heads: 1
num_kv_heads: 1
ffn_size: 2
norm_eps: 1e-05
num_layers: 1
vocab_size: 8
max_ctx_length: 16
has_qkv_proj_bias: false
`

func TestLoadFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0o600))

	raw := func(values []float32, shape ...int) *tensor.RawTensor {
		r, err := tensor.RawFromSlice(values, tensor.Shape(shape))
		require.NoError(t, err)
		return r
	}
	// gate = x, value = 2 for both lanes; down_proj sums the activations.
	gateUp, err := tensor.Narrow(raw([]float32{1, 0, 0, 1, 0, 0, 0, 0}, 4, 2), tensor.BFloat16)
	require.NoError(t, err)

	f, err := os.Create(filepath.Join(dir, "model.safetensors"))
	require.NoError(t, err)
	require.NoError(t, weights.WriteSafeTensors(f, map[string]*tensor.RawTensor{
		"model.layers.0.mlp.gate_up_proj.weight": gateUp,
		"model.layers.0.mlp.gate_up_proj.bias":   raw([]float32{0, 0, 2, 2}, 4),
		"model.layers.0.mlp.down_proj.weight":    raw([]float32{1, 1, 0, 0}, 2, 2),
		"model.layers.0.mlp.down_proj.bias":      raw([]float32{0, 1}, 2),
	}, nil))
	require.NoError(t, f.Close())

	cfg, err := model.LoadConfig(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	store, err := weights.Open(dir)
	require.NoError(t, err)
	defer store.Close()

	backend := cpu.NewSerial()
	m, err := model.Load[float32](context.Background(), cfg, weights.NewBuilder(store), backend, model.WithPrefix("model"))
	require.NoError(t, err)

	x, err := tensor.FromSlice([]float32{0, 0}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)
	y, err := m.Layers[0].Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, y.Data())

	_, err = model.Load[float32](context.Background(), cfg, weights.NewBuilder(store), backend)
	var werr *weights.WeightLoadError
	require.ErrorAs(t, err, &werr)
	assert.ErrorIs(t, err, weights.ErrNotFound)
}

func TestPublicSwiGLU(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float64{0, 0, 5, 7}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	y, err := nn.SwiGLU(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, y.Data())

	_, err = nn.SwiGLU(y.Clone())
	require.NoError(t, err)

	odd, err := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	_, err = nn.SwiGLU(odd)
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestPublicConfigErrors(t *testing.T) {
	_, err := model.DecodeConfig([]byte(`{"hidden_size": 2}`))
	assert.ErrorIs(t, err, model.ErrSchema)

	cfg, err := model.DecodeConfigYAML([]byte(configYAML))
	require.NoError(t, err)
	cfg.NumKVHeads = 2
	_, err = model.Load[float32](context.Background(), cfg, weights.NewBuilder(weights.NewMapStore(nil)), cpu.New())
	assert.ErrorIs(t, err, model.ErrValue)
}
