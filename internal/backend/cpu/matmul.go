package cpu

import (
	"fmt"

	"github.com/born-ml/decoder/internal/parallel"
	"github.com/born-ml/decoder/internal/tensor"
)

// MatMulT multiplies a by the transpose of b: [..., K] x [N, K] -> [..., N].
//
// b is laid out the way checkpoints store linear weights ([out, in]), so the
// inner loop walks both operands contiguously and no transpose is
// materialized.
func (cpu *CPUBackend) MatMulT(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := sameComputable("matmul", a, b); err != nil {
		return nil, err
	}

	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) == 0 {
		return nil, &tensor.ShapeError{Op: "matmul", Got: aShape.Clone(), Details: "input must have at least one dimension"}
	}
	if len(bShape) != 2 {
		return nil, &tensor.ShapeError{Op: "matmul", Got: bShape.Clone(), Details: "weight must be 2-D [out, in]"}
	}

	n, k := bShape[0], bShape[1]
	if aShape.Last() != k {
		return nil, &tensor.ShapeError{
			Op:       "matmul",
			Expected: aShape.WithLast(k),
			Got:      aShape.Clone(),
			Details:  fmt.Sprintf("trailing dimension %d does not match weight inner dimension %d", aShape.Last(), k),
		}
	}

	result, err := tensor.NewRaw(aShape.WithLast(n), a.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}

	m := aShape.Rows()
	switch a.DType() {
	case tensor.Float32:
		matmulT(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cpu.cfg)
	case tensor.Float64:
		matmulT(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n, cpu.cfg)
	}

	return result, nil
}

// matmulT computes C[i,j] = sum_k A[i,k] * B[j,k]. Work is split by output
// element; each dot product accumulates sequentially in T.
func matmulT[T tensor.Float](c, a, b []T, m, k, n int, cfg parallel.Config) {
	parallel.For(m*n, func(idx int) {
		i, j := idx/n, idx%n
		row := a[i*k : (i+1)*k]
		col := b[j*k : (j+1)*k]

		var sum T
		for x := range row {
			sum += row[x] * col[x]
		}
		c[idx] = sum
	}, cfg)
}
