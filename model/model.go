// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model loads a decoder's configuration and per-layer blocks.
//
// Example:
//
//	cfg, err := model.LoadConfig("config.json")
//	if err != nil {
//	    return err
//	}
//	store, err := weights.Open("model.safetensors")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	m, err := model.Load[float32](ctx, cfg, weights.NewBuilder(store), cpu.New())
package model

import (
	"context"

	"github.com/born-ml/decoder/internal/model"
	"github.com/born-ml/decoder/nn"
	"github.com/born-ml/decoder/tensor"
	"github.com/born-ml/decoder/weights"
)

// Config describes one decoder architecture.
type Config = model.Config

// SchemaError reports a config document that does not match the schema.
type SchemaError = model.SchemaError

// ValueError reports a config field that violates a numeric invariant.
type ValueError = model.ValueError

// Errors matched with errors.Is.
var (
	ErrSchema = model.ErrSchema
	ErrValue  = model.ErrValue
)

// Model is a loaded decoder.
type Model[T tensor.Float, B tensor.Backend] = model.Model[T, B]

// Layer is one decoder layer.
type Layer[T tensor.Float, B tensor.Backend] = model.Layer[T, B]

// Option configures Load.
type Option = model.Option

// DecodeConfig decodes a JSON config document.
func DecodeConfig(data []byte) (*Config, error) {
	return model.DecodeConfig(data)
}

// DecodeConfigYAML decodes a YAML config document.
func DecodeConfigYAML(data []byte) (*Config, error) {
	return model.DecodeConfigYAML(data)
}

// LoadConfig reads a JSON or YAML config file.
func LoadConfig(path string) (*Config, error) {
	return model.LoadConfig(path)
}

// Load validates cfg and builds every layer's MLP from b.
func Load[T tensor.Float, B tensor.Backend](ctx context.Context, cfg *Config, b weights.Builder, backend B, opts ...Option) (*Model[T, B], error) {
	return model.Load[T](ctx, cfg, b, backend, opts...)
}

// WithGate selects the gated activation of every layer's MLP.
func WithGate(g nn.Gate) Option {
	return model.WithGate(g)
}

// WithPrefix roots the layers under the given path segments.
func WithPrefix(segments ...string) Option {
	return model.WithPrefix(segments...)
}

// WithWorkers bounds the number of layers loaded at once.
func WithWorkers(n int) Option {
	return model.WithWorkers(n)
}
