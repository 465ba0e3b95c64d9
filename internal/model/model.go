// Package model assembles the decoder's per-layer blocks from a config and
// a weight store.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/decoder/internal/envconfig"
	"github.com/born-ml/decoder/internal/nn"
	"github.com/born-ml/decoder/internal/tensor"
	"github.com/born-ml/decoder/internal/weights"
)

// LayersName is the path segment holding the decoder layers.
const LayersName = "layers"

// MLPName is the path segment of a layer's feed-forward block.
const MLPName = "mlp"

// Layer is one decoder layer. Only the feed-forward block is held here.
type Layer[T tensor.Float, B tensor.Backend] struct {
	Index int
	MLP   *nn.MLP[T, B]
}

// Model is a loaded decoder.
type Model[T tensor.Float, B tensor.Backend] struct {
	Config Config
	Layers []*Layer[T, B]
	Gate   nn.Gate
}

type loadOptions struct {
	gate    nn.Gate
	prefix  []string
	workers int
}

// Option configures Load.
type Option func(*loadOptions)

// WithGate selects the gated activation of every layer's MLP.
func WithGate(g nn.Gate) Option {
	return func(o *loadOptions) {
		o.gate = g
	}
}

// WithPrefix roots the layers under the given path segments, e.g.
// WithPrefix("model") for checkpoints that name "model.layers.0...".
func WithPrefix(segments ...string) Option {
	return func(o *loadOptions) {
		o.prefix = append(o.prefix, segments...)
	}
}

// WithWorkers bounds the number of layers loaded at once. Values below one
// fall back to DECODER_NUM_WORKERS.
func WithWorkers(n int) Option {
	return func(o *loadOptions) {
		o.workers = n
	}
}

// Load validates cfg and builds one MLP per layer from
// b.PP("layers").PP(i).PP("mlp"). Layers load concurrently; the first
// failure cancels the rest and no partial model is returned.
func Load[T tensor.Float, B tensor.Backend](ctx context.Context, cfg *Config, b weights.Builder, backend B, opts ...Option) (*Model[T, B], error) {
	o := loadOptions{gate: nn.GateSwiGLU}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = envconfig.NumWorkers()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := b
	for _, p := range o.prefix {
		root = root.PP(p)
	}
	root = root.PP(LayersName)

	start := time.Now()
	layers := make([]*Layer[T, B], cfg.NumLayers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range layers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			lb := root.PP(strconv.Itoa(i)).PP(MLPName)
			mlp, err := nn.FromBuilderWithGate[T](lb, backend, o.gate)
			if err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
			if err := checkMLP(cfg, lb, mlp); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}

			layers[i] = &Layer[T, B]{Index: i, MLP: mlp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("model loaded", "layers", cfg.NumLayers, "gate", o.gate, "dtype", tensor.DataTypeOf[T](), "elapsed", time.Since(start))
	return &Model[T, B]{Config: *cfg, Layers: layers, Gate: o.gate}, nil
}

// checkMLP checks the block's projections against the config.
func checkMLP[T tensor.Float, B tensor.Backend](cfg *Config, b weights.Builder, mlp *nn.MLP[T, B]) error {
	checks := []struct {
		name string
		got  tensor.Shape
		want tensor.Shape
	}{
		{nn.GateUpProjName, mlp.GateUpProj().Weight().Tensor().Shape(), tensor.Shape{2 * cfg.FFNSize, cfg.HiddenSize}},
		{nn.DownProjName, mlp.DownProj().Weight().Tensor().Shape(), tensor.Shape{cfg.HiddenSize, cfg.FFNSize}},
	}
	for _, c := range checks {
		if !c.got.Equal(c.want) {
			return &weights.WeightLoadError{
				Path: b.PP(c.name).Path("weight"),
				Err: &tensor.ShapeError{
					Op:       "load",
					Expected: c.want,
					Got:      c.got.Clone(),
					Details:  fmt.Sprintf("config has hidden_size %d, ffn_size %d", cfg.HiddenSize, cfg.FFNSize),
				},
			}
		}
	}
	return nil
}

// Layer returns layer i.
func (m *Model[T, B]) Layer(i int) (*Layer[T, B], error) {
	if i < 0 || i >= len(m.Layers) {
		return nil, fmt.Errorf("layer %d out of range [0, %d)", i, len(m.Layers))
	}
	return m.Layers[i], nil
}

// NumParameters returns the number of scalar weights across all layers.
func (m *Model[T, B]) NumParameters() int {
	n := 0
	for _, l := range m.Layers {
		n += nn.CountParameters[T, B](l.MLP)
	}
	return n
}

// Forward runs layer i's feed-forward block on x.
func (l *Layer[T, B]) Forward(x *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	y, err := l.MLP.Forward(x)
	if err != nil {
		return nil, fmt.Errorf("layer %d: %w", l.Index, err)
	}
	return y, nil
}
