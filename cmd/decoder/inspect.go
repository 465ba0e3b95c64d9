package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/decoder/internal/model"
	"github.com/born-ml/decoder/internal/weights"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show a model's config and checkpoint tensors",
		Args:  cobra.NoArgs,
		RunE:  inspectHandler,
	}
	addModelFlags(cmd)
	cmd.Flags().Bool("validate", true, "Check the config's numeric invariants")
	return cmd
}

func inspectHandler(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	weightsPath, _ := cmd.Flags().GetString("weights")
	validate, _ := cmd.Flags().GetBool("validate")

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	store, err := weights.Open(weightsPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return showInfo(cfg, store, cmd.OutOrStdout())
}

func showInfo(cfg *model.Config, store weights.FileStore, w io.Writer) error {
	tableRender := func(header string, rows [][]string) {
		fmt.Fprintln(w, " ", header)
		table := tablewriter.NewWriter(w)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)
		table.SetNoWhiteSpace(true)
		table.SetTablePadding("    ")
		table.AppendBulk(rows)
		table.Render()
		fmt.Fprintln(w)
	}

	tableRender("Config", [][]string{
		{"", "hidden_size", strconv.Itoa(cfg.HiddenSize)},
		{"", "num_heads", strconv.Itoa(cfg.NumHeads)},
		{"", "num_kv_heads", strconv.Itoa(cfg.NumKVHeads)},
		{"", "ffn_size", strconv.Itoa(cfg.FFNSize)},
		{"", "norm_eps", strconv.FormatFloat(float64(cfg.NormEps), 'g', -1, 32)},
		{"", "num_layers", strconv.Itoa(cfg.NumLayers)},
		{"", "vocab_size", strconv.Itoa(cfg.VocabSize)},
		{"", "max_ctx_length", strconv.Itoa(cfg.MaxCtxLength)},
		{"", "has_qkv_proj_bias", strconv.FormatBool(cfg.HasQKVProjBias)},
	})

	names := store.Names()
	rows := make([][]string, 0, len(names))
	var params int
	for _, name := range names {
		info, err := store.Info(name)
		if err != nil {
			return err
		}
		dims := make([]string, len(info.Shape))
		n := 1
		for i, d := range info.Shape {
			dims[i] = strconv.Itoa(d)
			n *= d
		}
		params += n
		rows = append(rows, []string{"", name, string(info.DType), "[" + strings.Join(dims, " ") + "]"})
	}
	tableRender("Tensors", rows)

	fmt.Fprintf(w, "  %d tensors, %d parameters\n", len(names), params)
	return nil
}
