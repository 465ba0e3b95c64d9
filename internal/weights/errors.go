package weights

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotFound        = errors.New("tensor not found")
	ErrHeaderTooLarge  = errors.New("header exceeds maximum size")
	ErrOutOfBounds     = errors.New("tensor extends beyond data section")
	ErrUnsupportedType = errors.New("unsupported dtype")
	ErrClosed          = errors.New("safetensors store is closed")
)

// WeightLoadError reports a tensor that could not be resolved or read from
// the weight store.
type WeightLoadError struct {
	Path string // Fully-qualified tensor name, e.g. "layers.3.mlp.down_proj.weight".
	Err  error  // Underlying cause.
}

// Error implements the error interface.
func (e *WeightLoadError) Error() string {
	return fmt.Sprintf("load weight %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *WeightLoadError) Unwrap() error {
	return e.Err
}
