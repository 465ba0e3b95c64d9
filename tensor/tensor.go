// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor types of the decoder.
//
// The package defines core types for type-safe tensor operations:
//   - Tensor[T, B]: typed tensor whose operations return errors
//   - RawTensor: runtime-typed row-major buffer
//   - Backend: interface for device-specific compute implementations
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	backend := cpu.New()
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
//	if err != nil {
//	    return err
//	}
package tensor

import (
	"github.com/born-ml/decoder/internal/tensor"
)

// Float is the constraint for compute precisions: float32 or float64.
type Float = tensor.Float

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants. Float16 and BFloat16 are storage formats only.
const (
	Float32  DataType = tensor.Float32
	Float64  DataType = tensor.Float64
	Float16  DataType = tensor.Float16
	BFloat16 DataType = tensor.BFloat16
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the only supported device.
const CPU Device = tensor.CPU

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// RawTensor is the runtime-typed tensor representation.
type RawTensor = tensor.RawTensor

// Backend executes tensor operations.
type Backend = tensor.Backend

// Tensor is a typed tensor bound to a backend.
type Tensor[T Float, B Backend] = tensor.Tensor[T, B]

// ShapeError describes a dimension mismatch.
type ShapeError = tensor.ShapeError

// Errors matched with errors.Is.
var (
	ErrShape = tensor.ErrShape
	ErrDType = tensor.ErrDType
)

// FromSlice creates a tensor from a Go slice.
func FromSlice[T Float, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// FromRaw wraps raw after checking that its dtype matches T.
func FromRaw[T Float, B Backend](raw *RawTensor, b B) (*Tensor[T, B], error) {
	return tensor.FromRaw[T](raw, b)
}

// RawFromSlice copies values into a new RawTensor.
func RawFromSlice[T Float](values []T, shape Shape) (*RawTensor, error) {
	return tensor.RawFromSlice(values, shape)
}

// Narrow encodes a float32 tensor as Float16 or BFloat16.
func Narrow(r *RawTensor, dtype DataType) (*RawTensor, error) {
	return tensor.Narrow(r, dtype)
}

// Convert casts a tensor between Float32 and Float64.
func Convert(r *RawTensor, dtype DataType) (*RawTensor, error) {
	return tensor.Convert(r, dtype)
}

// Widen decodes a Float16 or BFloat16 tensor to float32.
func Widen(r *RawTensor) (*RawTensor, error) {
	return tensor.Widen(r)
}
