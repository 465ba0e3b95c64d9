package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidenNarrow_RoundTrip(t *testing.T) {
	// Values exactly representable in both half formats.
	values := []float32{0, 1, -2, 0.5, 1024, -0.25}
	src, err := RawFromSlice(values, Shape{2, 3})
	require.NoError(t, err)

	for _, dt := range []DataType{Float16, BFloat16} {
		t.Run(dt.String(), func(t *testing.T) {
			half, err := Narrow(src, dt)
			require.NoError(t, err)
			assert.Equal(t, dt, half.DType())
			assert.Equal(t, 12, half.ByteSize())

			wide, err := Widen(half)
			require.NoError(t, err)
			assert.Equal(t, Float32, wide.DType())
			assert.Equal(t, Shape{2, 3}, wide.Shape())
			assert.Equal(t, values, wide.AsFloat32())
		})
	}
}

func TestWiden_ComputableIsIdentity(t *testing.T) {
	src, err := RawFromSlice([]float64{1, 2}, Shape{2})
	require.NoError(t, err)

	out, err := Widen(src)
	require.NoError(t, err)
	assert.Same(t, src, out)
}

func TestNarrow_Errors(t *testing.T) {
	f64, err := RawFromSlice([]float64{1}, Shape{1})
	require.NoError(t, err)
	_, err = Narrow(f64, Float16)
	assert.ErrorIs(t, err, ErrDType)

	f32, err := RawFromSlice([]float32{1}, Shape{1})
	require.NoError(t, err)
	_, err = Narrow(f32, Float64)
	assert.ErrorIs(t, err, ErrDType)
}

func TestConvert(t *testing.T) {
	src, err := RawFromSlice([]float32{1.5, -2}, Shape{2})
	require.NoError(t, err)

	wide, err := Convert(src, Float64)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2}, wide.AsFloat64())

	back, err := Convert(wide, Float32)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2}, back.AsFloat32())

	half, err := Narrow(src, Float16)
	require.NoError(t, err)
	_, err = Convert(half, Float32)
	assert.ErrorIs(t, err, ErrDType)
}
