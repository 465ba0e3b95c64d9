package weights

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/born-ml/decoder/internal/tensor"
)

// Checkpoint file names inside a model directory.
const (
	SingleFileName = "model.safetensors"
	IndexFileName  = "model.safetensors.index.json"
)

// shardIndex is the layout of model.safetensors.index.json.
type shardIndex struct {
	Metadata  map[string]any    `json:"metadata"`
	WeightMap map[string]string `json:"weight_map"`
}

// ShardedStore is a Store spanning several SafeTensors files.
type ShardedStore struct {
	shards map[string]*SafeTensorsStore // by file name
	owner  map[string]*SafeTensorsStore // by tensor name
}

// OpenSafeTensorsDir opens the checkpoint in dir. A sharded checkpoint is
// described by model.safetensors.index.json; otherwise dir must contain a
// single model.safetensors.
func OpenSafeTensorsDir(dir string) (*ShardedStore, error) {
	//nolint:gosec // G304: model directory is user-supplied by design.
	data, err := os.ReadFile(filepath.Join(dir, IndexFileName))
	if errors.Is(err, os.ErrNotExist) {
		s, err := OpenSafeTensors(filepath.Join(dir, SingleFileName))
		if err != nil {
			return nil, err
		}
		return newShardedStore(map[string]*SafeTensorsStore{SingleFileName: s}, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("read shard index: %w", err)
	}

	var index shardIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse shard index: %w", err)
	}

	shards := make(map[string]*SafeTensorsStore)
	for _, file := range index.WeightMap {
		if _, ok := shards[file]; ok {
			continue
		}
		if filepath.Base(file) != file {
			_ = closeAll(shards)
			return nil, fmt.Errorf("shard index: invalid shard name %q", file)
		}
		s, err := OpenSafeTensors(filepath.Join(dir, file))
		if err != nil {
			_ = closeAll(shards)
			return nil, err
		}
		shards[file] = s
	}

	store, err := newShardedStore(shards, index.WeightMap)
	if err != nil {
		_ = closeAll(shards)
		return nil, err
	}
	slog.Debug("opened sharded checkpoint", "dir", dir, "shards", len(shards), "tensors", len(store.owner))
	return store, nil
}

func newShardedStore(shards map[string]*SafeTensorsStore, weightMap map[string]string) (*ShardedStore, error) {
	s := &ShardedStore{
		shards: shards,
		owner:  make(map[string]*SafeTensorsStore),
	}

	if weightMap == nil {
		for _, shard := range shards {
			for _, name := range shard.Names() {
				s.owner[name] = shard
			}
		}
		return s, nil
	}

	for name, file := range weightMap {
		shard := shards[file]
		if _, err := shard.Info(name); err != nil {
			return nil, fmt.Errorf("shard index maps %s to %s: %w", name, file, err)
		}
		s.owner[name] = shard
	}
	return s, nil
}

// Tensor implements Store.
func (s *ShardedStore) Tensor(name string) (*tensor.RawTensor, error) {
	shard, ok := s.owner[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return shard.Tensor(name)
}

// Info returns the header entry for name.
func (s *ShardedStore) Info(name string) (TensorInfo, error) {
	shard, ok := s.owner[name]
	if !ok {
		return TensorInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return shard.Info(name)
}

// Names implements Store. Names are sorted.
func (s *ShardedStore) Names() []string {
	names := make([]string, 0, len(s.owner))
	for name := range s.owner {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shards returns the number of files backing the store.
func (s *ShardedStore) Shards() int {
	return len(s.shards)
}

// Close closes every shard and returns the first error.
func (s *ShardedStore) Close() error {
	return closeAll(s.shards)
}

func closeAll(shards map[string]*SafeTensorsStore) error {
	var first error
	for _, shard := range shards {
		if err := shard.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// FileStore is a Store backed by checkpoint files.
type FileStore interface {
	Store
	Info(name string) (TensorInfo, error)
	Close() error
}

// Open opens a SafeTensors file, or a checkpoint directory as in
// OpenSafeTensorsDir.
func Open(path string) (FileStore, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open weights: %w", err)
	}
	if st.IsDir() {
		return OpenSafeTensorsDir(path)
	}
	return OpenSafeTensors(path)
}
