// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package weights exposes the weight store and the path-scoped Builder
// layers are constructed from.
//
// Example:
//
//	store, err := weights.Open("model.safetensors")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	b := weights.NewBuilder(store).PP("layers").PP("0").PP("mlp")
package weights

import (
	"io"

	"github.com/born-ml/decoder/internal/weights"
	"github.com/born-ml/decoder/tensor"
)

// Store is a read-only collection of named tensors.
type Store = weights.Store

// FileStore is a Store backed by checkpoint files.
type FileStore = weights.FileStore

// MapStore is an in-memory Store.
type MapStore = weights.MapStore

// Builder is an immutable handle to a Store scoped to a name prefix.
type Builder = weights.Builder

// WeightLoadError reports a tensor that could not be resolved.
type WeightLoadError = weights.WeightLoadError

// TensorInfo describes a tensor in a SafeTensors header.
type TensorInfo = weights.TensorInfo

// ErrNotFound is matched by lookups of absent tensor names.
var ErrNotFound = weights.ErrNotFound

// ErrClosed is returned by reads from a closed SafeTensors store.
var ErrClosed = weights.ErrClosed

// NewBuilder returns a Builder rooted at the given path segments.
func NewBuilder(store Store, prefix ...string) Builder {
	return weights.NewBuilder(store, prefix...)
}

// NewMapStore creates an in-memory store.
func NewMapStore(tensors map[string]*tensor.RawTensor) *MapStore {
	return weights.NewMapStore(tensors)
}

// Open opens a SafeTensors file or checkpoint directory.
func Open(path string) (FileStore, error) {
	return weights.Open(path)
}

// WriteSafeTensors writes tensors in SafeTensors format.
func WriteSafeTensors(w io.Writer, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	return weights.WriteSafeTensors(w, tensors, metadata)
}
