package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/decoder/internal/tensor"
)

// SiLU applies SiLU (Swish) activation: f(x) = x * sigmoid(x).
func SiLU[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return x.SiLU()
}

// GELU applies the exact GELU: 0.5 * x * (1 + erf(x / sqrt(2))).
func GELU[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return x.GELU()
}

// SwiGLU applies the fused Swish-Gated Linear Unit.
//
// The trailing dimension of x is split into two equal halves: the first is
// the gate, the second the value. The result is silu(gate) * value, with
// the trailing dimension halved.
//
// Example:
//
//	h, err := gateUpProj.Forward(x) // [..., 2*ffn]
//	h, err = nn.SwiGLU(h)           // [..., ffn]
func SwiGLU[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return gated(x, SiLU[T, B])
}

// GeGLU is SwiGLU with a GELU gate: gelu(gate) * value.
func GeGLU[T tensor.Float, B tensor.Backend](x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	return gated(x, GELU[T, B])
}

func gated[T tensor.Float, B tensor.Backend](
	x *tensor.Tensor[T, B],
	act func(*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error),
) (*tensor.Tensor[T, B], error) {
	shape := x.Shape()
	if len(shape) == 0 || shape.Last()%2 != 0 {
		return nil, &tensor.ShapeError{
			Op:      "glu",
			Got:     shape.Clone(),
			Details: "trailing dimension must be even",
		}
	}

	halves, err := x.Chunk(2, -1)
	if err != nil {
		return nil, err
	}
	gate, err := act(halves[0])
	if err != nil {
		return nil, err
	}
	return gate.Mul(halves[1])
}

// Gate selects the gated activation applied between an MLP's projections.
type Gate int

// Supported gates.
const (
	GateSwiGLU Gate = iota
	GateGeGLU
)

// ParseGate parses a gate name ("swiglu", "geglu"). The empty string
// selects SwiGLU.
func ParseGate(name string) (Gate, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "swiglu", "silu":
		return GateSwiGLU, nil
	case "geglu", "gelu":
		return GateGeGLU, nil
	default:
		return 0, fmt.Errorf("unknown gate %q", name)
	}
}

// String returns the gate name.
func (g Gate) String() string {
	switch g {
	case GateSwiGLU:
		return "swiglu"
	case GateGeGLU:
		return "geglu"
	default:
		return fmt.Sprintf("Gate(%d)", int(g))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (g Gate) MarshalText() ([]byte, error) {
	switch g {
	case GateSwiGLU, GateGeGLU:
		return []byte(g.String()), nil
	default:
		return nil, fmt.Errorf("unknown gate %d", int(g))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Gate) UnmarshalText(text []byte) error {
	parsed, err := ParseGate(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func gateFunc[T tensor.Float, B tensor.Backend](g Gate) (func(*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error), error) {
	switch g {
	case GateSwiGLU:
		return SwiGLU[T, B], nil
	case GateGeGLU:
		return GeGLU[T, B], nil
	default:
		return nil, fmt.Errorf("unknown gate %d", int(g))
	}
}
