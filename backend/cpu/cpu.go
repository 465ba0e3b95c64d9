// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// Kernels split work across goroutines (bounded by DECODER_NUM_WORKERS)
// while keeping every reduction sequential, so results are bit-identical
// for any worker count.
package cpu

import (
	internalcpu "github.com/born-ml/decoder/internal/backend/cpu"
	"github.com/born-ml/decoder/internal/parallel"
	"github.com/born-ml/decoder/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
func New() *Backend {
	return internalcpu.New()
}

// NewSerial creates a CPU backend that runs every kernel on the calling
// goroutine.
func NewSerial() *Backend {
	return internalcpu.NewWithConfig(parallel.Config{Enabled: false})
}
