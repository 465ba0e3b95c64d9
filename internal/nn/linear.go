package nn

import (
	"fmt"

	"github.com/born-ml/decoder/internal/tensor"
	"github.com/born-ml/decoder/internal/weights"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [..., in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [..., out_features]
//
// Example:
//
//	b := weights.NewBuilder(store).PP("layers").PP("0").PP("mlp")
//	proj, err := nn.LinearFromBuilder[float32](true, b.PP("down_proj"), cpu.New())
//	if err != nil {
//	    return err
//	}
//	y, err := proj.Forward(x)
type Linear[T tensor.Float, B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[T, B] // [out_features, in_features]
	bias        *Parameter[T, B] // [out_features], nil without bias
}

// NewLinear creates a Linear layer from in-memory tensors. bias may be nil.
func NewLinear[T tensor.Float, B tensor.Backend](weight, bias *tensor.Tensor[T, B]) (*Linear[T, B], error) {
	if weight == nil {
		return nil, &tensor.ShapeError{Op: "linear", Details: "weight is nil"}
	}
	if err := checkWeight(weight.Shape()); err != nil {
		return nil, err
	}
	out, in := weight.Shape()[0], weight.Shape()[1]

	l := &Linear[T, B]{
		inFeatures:  in,
		outFeatures: out,
		weight:      NewParameter("weight", weight),
	}
	if bias != nil {
		if err := checkBias(bias.Shape(), out); err != nil {
			return nil, err
		}
		l.bias = NewParameter("bias", bias)
	}
	return l, nil
}

// LinearFromBuilder loads a Linear layer from the "weight" and, when
// hasBias is set, "bias" tensors under b's prefix.
//
// Weights must be stored in precision T. A stored dtype that differs from T
// fails with a WeightLoadError wrapping tensor.ErrDType; F16 and BF16 weights
// count as float32 since stores decode them on read.
func LinearFromBuilder[T tensor.Float, B tensor.Backend](hasBias bool, b weights.Builder, backend B) (*Linear[T, B], error) {
	weight, err := loadParameter[T](b, "weight", backend, checkWeight)
	if err != nil {
		return nil, err
	}
	out, in := weight.Tensor().Shape()[0], weight.Tensor().Shape()[1]

	l := &Linear[T, B]{
		inFeatures:  in,
		outFeatures: out,
		weight:      weight,
	}
	if hasBias {
		l.bias, err = loadParameter[T](b, "bias", backend, func(s tensor.Shape) error {
			return checkBias(s, out)
		})
		if err != nil {
			return nil, err
		}
	}
	return l, nil
}

func loadParameter[T tensor.Float, B tensor.Backend](b weights.Builder, name string, backend B, check func(tensor.Shape) error) (*Parameter[T, B], error) {
	raw, err := b.Get(name)
	if err != nil {
		return nil, err
	}

	path := b.Path(name)
	if err := check(raw.Shape()); err != nil {
		return nil, &weights.WeightLoadError{Path: path, Err: err}
	}

	t, err := tensor.FromRaw[T](raw, backend)
	if err != nil {
		return nil, &weights.WeightLoadError{Path: path, Err: err}
	}
	return NewParameter(path, t), nil
}

func checkWeight(s tensor.Shape) error {
	if len(s) != 2 {
		return &tensor.ShapeError{Op: "linear", Got: s.Clone(), Details: "weight must be 2-D [out_features, in_features]"}
	}
	return nil
}

func checkBias(s tensor.Shape, out int) error {
	if want := (tensor.Shape{out}); !s.Equal(want) {
		return &tensor.ShapeError{Op: "linear", Expected: want, Got: s.Clone(), Details: "bias must be 1-D [out_features]"}
	}
	return nil
}

// Forward computes x @ W.T + b over the trailing dimension of x.
// Leading dimensions are preserved.
func (l *Linear[T, B]) Forward(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	y, err := x.MatMulT(l.weight.Tensor())
	if err != nil {
		return nil, err
	}
	if l.bias == nil {
		return y, nil
	}
	return y.Add(l.bias.Tensor())
}

// Parameters returns [weight, bias], or [weight] without bias.
func (l *Linear[T, B]) Parameters() []*Parameter[T, B] {
	if l.bias != nil {
		return []*Parameter[T, B]{l.weight, l.bias}
	}
	return []*Parameter[T, B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[T, B]) Weight() *Parameter[T, B] {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear[T, B]) Bias() *Parameter[T, B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[T, B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[T, B]) OutFeatures() int {
	return l.outFeatures
}

// String returns a short description of the layer.
func (l *Linear[T, B]) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d, bias=%t)", l.inFeatures, l.outFeatures, l.bias != nil)
}
