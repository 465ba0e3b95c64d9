package nn

import (
	"fmt"

	"github.com/born-ml/decoder/internal/logutil"
	"github.com/born-ml/decoder/internal/tensor"
	"github.com/born-ml/decoder/internal/weights"
)

// Weight names of an MLP block, relative to the block's prefix.
const (
	GateUpProjName = "gate_up_proj"
	DownProjName   = "down_proj"
)

// MLP is the feed-forward block of a decoder layer.
//
// Architecture (fused gate and up projections):
//
//	h = x @ W_gate_up.T + b_gate_up   // [..., 2*ffn]
//	h = silu(h[..., :ffn]) * h[..., ffn:]
//	y = h @ W_down.T + b_down         // [..., hidden]
//
// Both projections always carry a bias.
type MLP[T tensor.Float, B tensor.Backend] struct {
	gateUpProj *Linear[T, B] // hidden -> 2*ffn
	downProj   *Linear[T, B] // ffn -> hidden

	gate   Gate
	gateFn func(*tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error)
}

// FromBuilder loads a SwiGLU MLP from the gate_up_proj and down_proj
// tensors under b's prefix.
//
// Example:
//
//	b := weights.NewBuilder(store).PP("layers").PP("3").PP("mlp")
//	mlp, err := nn.FromBuilder[float32](b, cpu.New())
func FromBuilder[T tensor.Float, B tensor.Backend](b weights.Builder, backend B) (*MLP[T, B], error) {
	return FromBuilderWithGate[T](b, backend, GateSwiGLU)
}

// FromBuilderWithGate is FromBuilder with an explicit gate.
func FromBuilderWithGate[T tensor.Float, B tensor.Backend](b weights.Builder, backend B, gate Gate) (*MLP[T, B], error) {
	if _, err := gateFunc[T, B](gate); err != nil {
		return nil, err
	}

	gateUp, err := LinearFromBuilder[T](true, b.PP(GateUpProjName), backend)
	if err != nil {
		return nil, err
	}
	down, err := LinearFromBuilder[T](true, b.PP(DownProjName), backend)
	if err != nil {
		return nil, err
	}

	m, err := NewMLP(gateUp, down, gate)
	if err != nil {
		path := b.PP(DownProjName).Path("weight")
		if gateUp.OutFeatures() != 2*down.InFeatures() {
			path = b.PP(GateUpProjName).Path("weight")
		}
		return nil, &weights.WeightLoadError{Path: path, Err: err}
	}

	logutil.Trace("loaded mlp", "prefix", b.Prefix(), "hidden", m.HiddenSize(), "ffn", m.FFNSize(), "gate", gate)
	return m, nil
}

// NewMLP assembles an MLP from its projections, checking that their
// shapes chain: gateUp maps hidden to 2*ffn, down maps ffn to hidden.
func NewMLP[T tensor.Float, B tensor.Backend](gateUp, down *Linear[T, B], gate Gate) (*MLP[T, B], error) {
	if gateUp == nil || down == nil {
		return nil, &tensor.ShapeError{Op: "mlp", Details: "projection is nil"}
	}
	fn, err := gateFunc[T, B](gate)
	if err != nil {
		return nil, err
	}

	if gateUp.OutFeatures()%2 != 0 || gateUp.OutFeatures() != 2*down.InFeatures() {
		return nil, &tensor.ShapeError{
			Op:       "mlp",
			Expected: tensor.Shape{2 * down.InFeatures(), gateUp.InFeatures()},
			Got:      gateUp.Weight().Tensor().Shape().Clone(),
			Details:  fmt.Sprintf("%s output width must be twice %s input width %d", GateUpProjName, DownProjName, down.InFeatures()),
		}
	}
	if down.OutFeatures() != gateUp.InFeatures() {
		return nil, &tensor.ShapeError{
			Op:       "mlp",
			Expected: tensor.Shape{gateUp.InFeatures(), down.InFeatures()},
			Got:      down.Weight().Tensor().Shape().Clone(),
			Details:  fmt.Sprintf("%s output width must equal %s input width %d", DownProjName, GateUpProjName, gateUp.InFeatures()),
		}
	}

	return &MLP[T, B]{
		gateUpProj: gateUp,
		downProj:   down,
		gate:       gate,
		gateFn:     fn,
	}, nil
}

// Forward applies the block to x of shape [..., hidden].
// Leading dimensions are preserved; no partial result is returned on error.
func (m *MLP[T, B]) Forward(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	h, err := m.gateUpProj.Forward(x)
	if err != nil {
		return nil, fmt.Errorf("mlp: %s: %w", GateUpProjName, err)
	}
	h, err = m.gateFn(h)
	if err != nil {
		return nil, fmt.Errorf("mlp: %s: %w", m.gate, err)
	}
	y, err := m.downProj.Forward(h)
	if err != nil {
		return nil, fmt.Errorf("mlp: %s: %w", DownProjName, err)
	}
	return y, nil
}

// Parameters returns the projections' parameters, gate_up_proj first.
func (m *MLP[T, B]) Parameters() []*Parameter[T, B] {
	return append(m.gateUpProj.Parameters(), m.downProj.Parameters()...)
}

// GateUpProj returns the fused gate and up projection.
func (m *MLP[T, B]) GateUpProj() *Linear[T, B] {
	return m.gateUpProj
}

// DownProj returns the down projection.
func (m *MLP[T, B]) DownProj() *Linear[T, B] {
	return m.downProj
}

// Gate returns the block's gated activation.
func (m *MLP[T, B]) Gate() Gate {
	return m.gate
}

// HiddenSize returns the model width the block maps from and to.
func (m *MLP[T, B]) HiddenSize() int {
	return m.gateUpProj.InFeatures()
}

// FFNSize returns the intermediate width after gating.
func (m *MLP[T, B]) FFNSize() int {
	return m.downProj.InFeatures()
}
