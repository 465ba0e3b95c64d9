package tensor

import "fmt"

// Tensor is a typed tensor with element type T and backend B.
//
// Type Parameters:
//   - T: compute precision (float32 or float64)
//   - B: computation backend
//
// Operations return errors instead of panicking: a bad activation shape is a
// caller problem the inference loop must be able to report.
//
// Example:
//
//	backend := cpu.New()
//	x, err := tensor.FromSlice([]float32{1, 0, 0, 0}, tensor.Shape{1, 4}, backend)
//	y, err := x.Add(x)
type Tensor[T Float, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps a RawTensor whose dtype is already known to match T.
func New[T Float, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromRaw wraps raw after checking that its dtype matches T.
func FromRaw[T Float, B Backend](raw *RawTensor, b B) (*Tensor[T, B], error) {
	if want := DataTypeOf[T](); raw.DType() != want {
		return nil, dtypeErrorf("tensor", "expected %s, got %s", want, raw.DType())
	}
	return New[T](raw, b), nil
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T Float, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	raw, err := RawFromSlice(data, shape)
	if err != nil {
		return nil, err
	}
	return New[T](raw, b), nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Data returns a typed slice view of the tensor's data (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor[T, B]) Data() []T {
	return Elements[T](t.raw)
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor[T, B]) At(indices ...int) T {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}

	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * strides[i]
	}
	return t.Data()[offset]
}

// Clone creates a deep copy of the tensor.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return New[T](t.raw.Clone(), t.backend)
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}

// Reshape returns a view with a new shape and the same number of elements.
func (t *Tensor[T, B]) Reshape(shape ...int) (*Tensor[T, B], error) {
	raw, err := t.raw.Reshape(Shape(shape))
	if err != nil {
		return nil, err
	}
	return New[T](raw, t.backend), nil
}

// MatMulT computes t @ otherᵀ for a 2-D other of shape [N, K].
func (t *Tensor[T, B]) MatMulT(other *Tensor[T, B]) (*Tensor[T, B], error) {
	return t.wrap(t.backend.MatMulT(t.raw, other.raw))
}

// Add performs element-wise addition with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) (*Tensor[T, B], error) {
	return t.wrap(t.backend.Add(t.raw, other.raw))
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) (*Tensor[T, B], error) {
	return t.wrap(t.backend.Mul(t.raw, other.raw))
}

// SiLU applies x * sigmoid(x) element-wise.
func (t *Tensor[T, B]) SiLU() (*Tensor[T, B], error) {
	return t.wrap(t.backend.SiLU(t.raw))
}

// Sigmoid applies 1 / (1 + exp(-x)) element-wise.
func (t *Tensor[T, B]) Sigmoid() (*Tensor[T, B], error) {
	return t.wrap(t.backend.Sigmoid(t.raw))
}

// GELU applies the exact (erf-based) GELU element-wise.
func (t *Tensor[T, B]) GELU() (*Tensor[T, B], error) {
	return t.wrap(t.backend.GELU(t.raw))
}

// Chunk splits the tensor into n equal parts along dim.
// A negative dim counts from the end.
func (t *Tensor[T, B]) Chunk(n, dim int) ([]*Tensor[T, B], error) {
	parts, err := t.backend.Chunk(t.raw, n, dim)
	if err != nil {
		return nil, err
	}

	out := make([]*Tensor[T, B], len(parts))
	for i, p := range parts {
		out[i] = New[T](p, t.backend)
	}
	return out, nil
}

func (t *Tensor[T, B]) wrap(raw *RawTensor, err error) (*Tensor[T, B], error) {
	if err != nil {
		return nil, err
	}
	return New[T](raw, t.backend), nil
}
