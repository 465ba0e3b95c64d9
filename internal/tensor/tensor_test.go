package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/decoder/internal/backend/cpu"
	"github.com/born-ml/decoder/internal/tensor"
)

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, x.DType())
	assert.Equal(t, float32(6), x.At(1, 2))
	assert.Equal(t, "Tensor[float32][2 3] on CPU", x.String())

	_, err = tensor.FromSlice([]float32{1, 2}, tensor.Shape{3}, backend)
	assert.Error(t, err)
}

func TestFromRaw_DTypeChecked(t *testing.T) {
	raw, err := tensor.RawFromSlice([]float64{1}, tensor.Shape{1})
	require.NoError(t, err)

	_, err = tensor.FromRaw[float32](raw, cpu.New())
	assert.ErrorIs(t, err, tensor.ErrDType)

	x, err := tensor.FromRaw[float64](raw, cpu.New())
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, x.Data())
}

func TestTensor_Ops(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	w, err := tensor.FromSlice([]float64{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2}, backend)
	require.NoError(t, err)

	y, err := x.MatMulT(w)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 3, 4, 7}, y.Data())

	sum, err := x.Add(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6, 8}, sum.Data())

	prod, err := x.Mul(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 9, 16}, prod.Data())

	parts, err := x.Chunk(2, -1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, parts[0].Data())
	assert.Equal(t, []float64{2, 4}, parts[1].Data())

	flat, err := x.Reshape(4)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4}, flat.Shape())
}

func TestTensor_OpErrorsReturnNil(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)
	w, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	y, err := x.MatMulT(w)
	assert.Nil(t, y)
	assert.ErrorIs(t, err, tensor.ErrShape)
}
