package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/decoder/internal/backend/cpu"
	"github.com/born-ml/decoder/internal/tensor"
)

func refSiLU(v float64) float64 {
	return v / (1 + math.Exp(-v))
}

func refGELU(v float64) float64 {
	return 0.5 * v * (1 + math.Erf(v/math.Sqrt2))
}

func TestSwiGLU(t *testing.T) {
	backend := cpu.New()
	values := ramp(2*3*8, 0.37, -8)
	x := from64(t, backend, values, 2, 3, 8)

	y, err := SwiGLU(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 4}, y.Shape())

	got := y.Data()
	for row := 0; row < 6; row++ {
		in := values[row*8 : (row+1)*8]
		for j := 0; j < 4; j++ {
			want := refSiLU(in[j]) * in[4+j]
			assert.InDelta(t, want, got[row*4+j], 1e-6, "row %d col %d", row, j)
		}
	}
}

func TestGeGLU(t *testing.T) {
	backend := cpu.New()
	values := []float64{-1, 0.5, 2, 3}
	y, err := GeGLU(from64(t, backend, values, 4))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2}, y.Shape())
	assert.InDelta(t, refGELU(-1)*2, y.Data()[0], 1e-6)
	assert.InDelta(t, refGELU(0.5)*3, y.Data()[1], 1e-6)
}

func TestSwiGLUOddWidth(t *testing.T) {
	backend := cpu.New()
	y, err := SwiGLU(from64(t, backend, []float64{1, 2, 3}, 3))
	assert.Nil(t, y)

	var serr *tensor.ShapeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, tensor.Shape{3}, serr.Got)
}

func TestSiLU(t *testing.T) {
	backend := cpu.New()
	y, err := SiLU(from64(t, backend, []float64{-2, 0, 2}, 3))
	require.NoError(t, err)
	for i, v := range []float64{-2, 0, 2} {
		assert.InDelta(t, refSiLU(v), y.Data()[i], 1e-12)
	}
}

func TestParseGate(t *testing.T) {
	tests := []struct {
		in   string
		want Gate
		err  bool
	}{
		{in: "", want: GateSwiGLU},
		{in: "swiglu", want: GateSwiGLU},
		{in: " SwiGLU ", want: GateSwiGLU},
		{in: "silu", want: GateSwiGLU},
		{in: "geglu", want: GateGeGLU},
		{in: "gelu", want: GateGeGLU},
		{in: "reglu", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGate(tt.in)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGateText(t *testing.T) {
	text, err := GateGeGLU.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "geglu", string(text))

	var g Gate
	require.NoError(t, g.UnmarshalText([]byte("swiglu")))
	assert.Equal(t, GateSwiGLU, g)

	_, err = Gate(7).MarshalText()
	require.Error(t, err)
	assert.Equal(t, "Gate(7)", Gate(7).String())
}
