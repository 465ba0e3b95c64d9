// Package tensor provides the tensor types the decoder's layers compute with.
//
// A RawTensor is a runtime-typed, row-major byte buffer. Tensor[T, B] is the
// typed view layers work with: T fixes the compute precision, B the backend
// that executes every operation.
package tensor

import "fmt"

// Float is the constraint for compute precisions.
//
// Layers compute in exactly the precision the weights are stored in, so the
// same type parameter flows from the weight store through every operation.
type Float interface {
	float32 | float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types. Float16 and BFloat16 are storage formats only: the
// weight store decodes them to Float32 before they reach a backend.
const (
	Float32 DataType = iota
	Float64
	Float16
	BFloat16
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	case Float16, BFloat16:
		return 2
	default:
		panic(fmt.Sprintf("unknown data type %d", int(dt)))
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	default:
		return "unknown"
	}
}

// Computable reports whether backends can operate on dt directly.
func (dt DataType) Computable() bool {
	return dt == Float32 || dt == Float64
}

// DataTypeOf returns the DataType matching the type parameter T.
func DataTypeOf[T Float]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic(fmt.Sprintf("unsupported element type %T", dummy))
	}
}
