package cpu

import (
	"fmt"

	"github.com/born-ml/decoder/internal/tensor"
)

// Chunk splits x into n equal contiguous parts along dim.
// A negative dim counts from the end; dim -1 is the trailing dimension.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) ([]*tensor.RawTensor, error) {
	shape := x.Shape()
	rank := len(shape)

	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		return nil, &tensor.ShapeError{Op: "chunk", Got: shape.Clone(),
			Details: fmt.Sprintf("dimension %d out of range for rank %d", dim, rank)}
	}
	if n <= 0 || shape[dim]%n != 0 {
		return nil, &tensor.ShapeError{Op: "chunk", Got: shape.Clone(),
			Details: fmt.Sprintf("dimension %d of size %d cannot be split into %d equal parts", dim, shape[dim], n)}
	}

	size := shape[dim] / n
	outer := shape[:dim].NumElements()
	inner := shape[dim+1:].NumElements() * x.DType().Size()

	partShape := shape.Clone()
	partShape[dim] = size

	src := x.Data()
	block := size * inner
	parts := make([]*tensor.RawTensor, n)
	for p := range parts {
		part, err := tensor.NewRaw(partShape, x.DType(), cpu.device)
		if err != nil {
			return nil, fmt.Errorf("chunk: %w", err)
		}

		dst := part.Data()
		for o := 0; o < outer; o++ {
			from := (o*shape[dim] + p*size) * inner
			copy(dst[o*block:(o+1)*block], src[from:from+block])
		}
		parts[p] = part
	}

	return parts, nil
}
