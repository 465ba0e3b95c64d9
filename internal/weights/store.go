package weights

import (
	"fmt"
	"sort"
	"sync"

	"github.com/born-ml/decoder/internal/tensor"
)

// Store is a read-only collection of named tensors.
//
// Tensor returns the tensor in a computable dtype: half-precision storage
// is widened to float32, float32 and float64 are returned as stored.
// Implementations must be safe for concurrent use.
type Store interface {
	Tensor(name string) (*tensor.RawTensor, error)
	Names() []string
}

// MapStore is an in-memory Store.
type MapStore struct {
	mu      sync.RWMutex
	tensors map[string]*tensor.RawTensor
}

// NewMapStore creates a store holding a copy of the given map.
func NewMapStore(tensors map[string]*tensor.RawTensor) *MapStore {
	s := &MapStore{tensors: make(map[string]*tensor.RawTensor, len(tensors))}
	for name, t := range tensors {
		s.tensors[name] = t
	}
	return s
}

// Set adds or replaces a tensor.
func (s *MapStore) Set(name string, t *tensor.RawTensor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tensors == nil {
		s.tensors = make(map[string]*tensor.RawTensor)
	}
	s.tensors[name] = t
}

// Delete removes a tensor if present.
func (s *MapStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tensors, name)
}

// Tensor implements Store.
func (s *MapStore) Tensor(name string) (*tensor.RawTensor, error) {
	s.mu.RLock()
	t, ok := s.tensors[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return tensor.Widen(t)
}

// Names implements Store. Names are sorted.
func (s *MapStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tensors))
	for name := range s.tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tensors returns a snapshot of the stored tensors as stored.
func (s *MapStore) Tensors() map[string]*tensor.RawTensor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*tensor.RawTensor, len(s.tensors))
	for name, t := range s.tensors {
		out[name] = t
	}
	return out
}
