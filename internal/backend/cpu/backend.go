// Package cpu implements the pure-Go CPU backend.
package cpu

import (
	"github.com/born-ml/decoder/internal/parallel"
	"github.com/born-ml/decoder/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// Kernels split their output across goroutines, but every output element is
// produced by one goroutine with a fixed reduction order, so results are
// bit-identical regardless of the worker count.
type CPUBackend struct {
	device tensor.Device
	cfg    parallel.Config
}

// New creates a CPU backend using parallel.DefaultConfig.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		cfg:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

var _ tensor.Backend = (*CPUBackend)(nil)
