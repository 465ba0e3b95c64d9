package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes one decoder architecture. It is loaded once and only
// read afterwards.
type Config struct {
	HiddenSize     int     `json:"hidden_size" yaml:"hidden_size"`
	NumHeads       int     `json:"num_heads" yaml:"num_heads"`
	NumKVHeads     int     `json:"num_kv_heads" yaml:"num_kv_heads"`
	FFNSize        int     `json:"ffn_size" yaml:"ffn_size"`
	NormEps        float32 `json:"norm_eps" yaml:"norm_eps"`
	NumLayers      int     `json:"num_layers" yaml:"num_layers"`
	VocabSize      int     `json:"vocab_size" yaml:"vocab_size"`
	MaxCtxLength   int     `json:"max_ctx_length" yaml:"max_ctx_length"`
	HasQKVProjBias bool    `json:"has_qkv_proj_bias" yaml:"has_qkv_proj_bias"`
}

// field binds a document key to its Config field.
type field struct {
	key  string
	kind string // "integer", "number" or "boolean"
	ptr  any
}

func (c *Config) fields() []field {
	return []field{
		{"hidden_size", "integer", &c.HiddenSize},
		{"num_heads", "integer", &c.NumHeads},
		{"num_kv_heads", "integer", &c.NumKVHeads},
		{"ffn_size", "integer", &c.FFNSize},
		{"norm_eps", "number", &c.NormEps},
		{"num_layers", "integer", &c.NumLayers},
		{"vocab_size", "integer", &c.VocabSize},
		{"max_ctx_length", "integer", &c.MaxCtxLength},
		{"has_qkv_proj_bias", "boolean", &c.HasQKVProjBias},
	}
}

// DecodeConfig decodes a JSON config document. Every key is required;
// unknown keys are ignored. Values are not range-checked, see Validate.
func DecodeConfig(data []byte) (*Config, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Reason: "malformed JSON document", Err: err}
	}
	if doc == nil {
		return nil, &SchemaError{Reason: "document is not an object"}
	}

	var c Config
	for _, f := range c.fields() {
		raw, ok := doc[f.key]
		if !ok {
			return nil, &SchemaError{Field: f.key, Reason: "missing"}
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, &SchemaError{Field: f.key, Reason: "expected " + f.kind + ", got null"}
		}
		if err := json.Unmarshal(raw, f.ptr); err != nil {
			return nil, &SchemaError{Field: f.key, Reason: "expected " + f.kind, Err: err}
		}
	}
	return &c, nil
}

// DecodeConfigYAML decodes a YAML config document with the same schema as
// DecodeConfig.
func DecodeConfigYAML(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &SchemaError{Reason: "malformed YAML document", Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, &SchemaError{Reason: "document is not a mapping"}
	}

	mapping := root.Content[0]
	doc := make(map[string]*yaml.Node, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		doc[mapping.Content[i].Value] = mapping.Content[i+1]
	}

	var c Config
	for _, f := range c.fields() {
		node, ok := doc[f.key]
		if !ok {
			return nil, &SchemaError{Field: f.key, Reason: "missing"}
		}
		if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
			return nil, &SchemaError{Field: f.key, Reason: "expected " + f.kind}
		}
		if err := node.Decode(f.ptr); err != nil {
			return nil, &SchemaError{Field: f.key, Reason: "expected " + f.kind, Err: err}
		}
	}
	return &c, nil
}

// LoadConfig reads a config file, choosing the decoder by extension:
// ".yaml" and ".yml" are YAML, anything else JSON.
func LoadConfig(path string) (*Config, error) {
	//nolint:gosec // G304: config path is user-supplied by design.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var c *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err = DecodeConfigYAML(data)
	default:
		c, err = DecodeConfig(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("loaded config", "path", path, "layers", c.NumLayers, "hidden", c.HiddenSize, "ffn", c.FFNSize)
	return c, nil
}

// Marshal returns the canonical JSON encoding of the config.
func (c *Config) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Validate checks the numeric invariants and returns a *ValueError for the
// first violation. A nil config is a *SchemaError.
func (c *Config) Validate() error {
	if c == nil {
		return &SchemaError{Reason: "config is nil"}
	}
	positive := []struct {
		key   string
		value int
	}{
		{"hidden_size", c.HiddenSize},
		{"num_heads", c.NumHeads},
		{"num_kv_heads", c.NumKVHeads},
		{"ffn_size", c.FFNSize},
		{"num_layers", c.NumLayers},
		{"vocab_size", c.VocabSize},
		{"max_ctx_length", c.MaxCtxLength},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return &ValueError{Field: p.key, Value: p.value, Reason: "must be positive"}
		}
	}

	if eps := float64(c.NormEps); !(eps > 0) || math.IsInf(eps, 0) {
		return &ValueError{Field: "norm_eps", Value: c.NormEps, Reason: "must be positive and finite"}
	}
	if c.HiddenSize%c.NumHeads != 0 {
		return &ValueError{
			Field:  "num_heads",
			Value:  c.NumHeads,
			Reason: fmt.Sprintf("must divide hidden_size %d", c.HiddenSize),
		}
	}
	if c.NumKVHeads > c.NumHeads {
		return &ValueError{
			Field:  "num_kv_heads",
			Value:  c.NumKVHeads,
			Reason: fmt.Sprintf("must not exceed num_heads %d", c.NumHeads),
		}
	}
	if c.NumHeads%c.NumKVHeads != 0 {
		return &ValueError{
			Field:  "num_kv_heads",
			Value:  c.NumKVHeads,
			Reason: fmt.Sprintf("must divide num_heads %d", c.NumHeads),
		}
	}
	return nil
}

// HeadDim returns the width of one attention head.
func (c *Config) HeadDim() int {
	return c.HiddenSize / c.NumHeads
}

// GroupSize returns the number of query heads sharing one key/value head.
func (c *Config) GroupSize() int {
	return c.NumHeads / c.NumKVHeads
}
