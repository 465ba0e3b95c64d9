package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/decoder/internal/backend/cpu"
	"github.com/born-ml/decoder/internal/model"
	"github.com/born-ml/decoder/internal/nn"
	"github.com/born-ml/decoder/internal/tensor"
	"github.com/born-ml/decoder/internal/weights"
)

func newForwardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forward",
		Short: "Run one layer's feed-forward block on an input vector",
		Example: `  decoder forward --config config.json --weights model.safetensors --layer 0 --input 1,0,0,0
  DECODER_NUM_WORKERS=1 decoder forward -c config.yaml -w ./checkpoint --dtype float64 --input 0.5,-1,2,0`,
		Args: cobra.NoArgs,
		RunE: forwardHandler,
	}
	addModelFlags(cmd)
	cmd.Flags().IntP("layer", "l", 0, "Decoder layer index")
	cmd.Flags().StringP("input", "i", "", "Comma-separated input vector of hidden_size values")
	cmd.Flags().String("gate", "swiglu", "Gated activation (swiglu, geglu)")
	cmd.Flags().String("dtype", "float32", "Compute precision (float32, float64)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

type forwardOptions struct {
	configPath  string
	weightsPath string
	prefix      string
	layer       int
	input       []float64
	gate        nn.Gate
}

func forwardHandler(cmd *cobra.Command, _ []string) error {
	var opts forwardOptions
	opts.configPath, _ = cmd.Flags().GetString("config")
	opts.weightsPath, _ = cmd.Flags().GetString("weights")
	opts.prefix, _ = cmd.Flags().GetString("prefix")
	opts.layer, _ = cmd.Flags().GetInt("layer")

	inputFlag, _ := cmd.Flags().GetString("input")
	input, err := parseVector(inputFlag)
	if err != nil {
		return err
	}
	opts.input = input

	gateFlag, _ := cmd.Flags().GetString("gate")
	if opts.gate, err = nn.ParseGate(gateFlag); err != nil {
		return err
	}

	dtype, _ := cmd.Flags().GetString("dtype")
	switch dtype {
	case "float32", "f32":
		return runForward[float32](cmd, opts)
	case "float64", "f64":
		return runForward[float64](cmd, opts)
	default:
		return fmt.Errorf("unsupported dtype %q", dtype)
	}
}

func runForward[T tensor.Float](cmd *cobra.Command, opts forwardOptions) error {
	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if len(opts.input) != cfg.HiddenSize {
		return fmt.Errorf("input has %d values, hidden_size is %d", len(opts.input), cfg.HiddenSize)
	}

	store, err := weights.Open(opts.weightsPath)
	if err != nil {
		return err
	}
	defer store.Close()

	loadOpts := []model.Option{model.WithGate(opts.gate)}
	if opts.prefix != "" {
		loadOpts = append(loadOpts, model.WithPrefix(strings.Split(opts.prefix, ".")...))
	}

	backend := cpu.New()
	m, err := model.Load[T](cmd.Context(), cfg, weights.NewBuilder(store), backend, loadOpts...)
	if err != nil {
		return err
	}
	layer, err := m.Layer(opts.layer)
	if err != nil {
		return err
	}

	values := make([]T, len(opts.input))
	for i, v := range opts.input {
		values[i] = T(v)
	}
	x, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	if err != nil {
		return err
	}

	y, err := layer.Forward(x)
	if err != nil {
		return err
	}
	return printVector(cmd.OutOrStdout(), y.Data())
}

func parseVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("input vector is empty")
	}

	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("input value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func printVector[T tensor.Float](w io.Writer, values []T) error {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, bitSize[T]())
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, ","))
	return err
}

func bitSize[T tensor.Float]() int {
	if tensor.DataTypeOf[T]() == tensor.Float32 {
		return 32
	}
	return 64
}
