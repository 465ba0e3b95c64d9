package tensor

import (
	"errors"
	"fmt"
)

// ErrShape is matched by every *ShapeError through errors.Is.
var ErrShape = errors.New("shape mismatch")

// ErrDType reports an operation on tensors whose data types disagree or
// cannot be computed on.
var ErrDType = errors.New("dtype mismatch")

// ShapeError describes a dimension mismatch detected by a tensor primitive.
type ShapeError struct {
	Op       string // Operation that rejected its operands (e.g. "matmul").
	Expected Shape  // Expected shape, nil when only Details applies.
	Got      Shape  // Offending shape.
	Details  string // Additional details.
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	switch {
	case e.Expected != nil && e.Details != "":
		return fmt.Sprintf("%s: expected shape %v, got %v: %s", e.Op, e.Expected, e.Got, e.Details)
	case e.Expected != nil:
		return fmt.Sprintf("%s: expected shape %v, got %v", e.Op, e.Expected, e.Got)
	default:
		return fmt.Sprintf("%s: shape %v: %s", e.Op, e.Got, e.Details)
	}
}

// Is reports ErrShape so callers can test the class without errors.As.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

func shapeErrorf(op string, got Shape, format string, args ...any) *ShapeError {
	return &ShapeError{Op: op, Got: got.Clone(), Details: fmt.Sprintf(format, args...)}
}

func dtypeErrorf(op string, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrDType, fmt.Sprintf(format, args...))
}
