package weights

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/born-ml/decoder/internal/tensor"
)

// SafeTensors format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw bytes]

// Format limits.
const (
	MaxHeaderSize  = 100 * 1024 * 1024
	MaxTensorCount = 100_000
)

const metadataKey = "__metadata__"

// SafeTensorsDType is a dtype name as written in SafeTensors headers.
type SafeTensorsDType string

// Supported SafeTensors dtypes.
const (
	SafeTensorsF16  SafeTensorsDType = "F16"
	SafeTensorsBF16 SafeTensorsDType = "BF16"
	SafeTensorsF32  SafeTensorsDType = "F32"
	SafeTensorsF64  SafeTensorsDType = "F64"
)

// DataType converts a SafeTensors dtype to a tensor.DataType.
func (d SafeTensorsDType) DataType() (tensor.DataType, error) {
	switch d {
	case SafeTensorsF16:
		return tensor.Float16, nil
	case SafeTensorsBF16:
		return tensor.BFloat16, nil
	case SafeTensorsF32:
		return tensor.Float32, nil
	case SafeTensorsF64:
		return tensor.Float64, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, string(d))
	}
}

func safeTensorsDType(dt tensor.DataType) (SafeTensorsDType, error) {
	switch dt {
	case tensor.Float16:
		return SafeTensorsF16, nil
	case tensor.BFloat16:
		return SafeTensorsBF16, nil
	case tensor.Float32:
		return SafeTensorsF32, nil
	case tensor.Float64:
		return SafeTensorsF64, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, dt)
	}
}

// TensorInfo describes a tensor in a SafeTensors header.
type TensorInfo struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int            `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"` // [start, end) relative to the data section.
}

// ValidationError reports a malformed SafeTensors header.
type ValidationError struct {
	Type    string // "dtype", "shape", "size", "offset", "out_of_bounds", "offset_overlap"
	Tensor  string
	Tensor2 string // Second tensor, for overlaps.
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("safetensors: %s: tensors %q and %q: %s", e.Type, e.Tensor, e.Tensor2, e.Details)
	}
	return fmt.Sprintf("safetensors: %s: tensor %q: %s", e.Type, e.Tensor, e.Details)
}

// SafeTensorsStore is a Store backed by a SafeTensors file.
//
// Tensor data is read on demand with ReadAt, so concurrent Tensor calls
// are safe.
type SafeTensorsStore struct {
	path       string
	mu         sync.RWMutex // guards file
	file       *os.File
	metadata   map[string]string
	tensors    map[string]TensorInfo
	dataOffset int64
}

// OpenSafeTensors opens and validates a SafeTensors file.
func OpenSafeTensors(path string) (*SafeTensorsStore, error) {
	//nolint:gosec // G304: weight files are user-supplied by design.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open safetensors: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat safetensors: %w", err)
	}

	s, err := newSafeTensorsStore(f, st.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.path = path
	s.file = f

	slog.Debug("opened safetensors", "path", path, "tensors", len(s.tensors))
	return s, nil
}

func newSafeTensorsStore(r io.ReaderAt, size int64) (*SafeTensorsStore, error) {
	var prefix [8]byte
	if _, err := r.ReadAt(prefix[:], 0); err != nil {
		return nil, fmt.Errorf("read header size: %w", err)
	}

	headerSize := binary.LittleEndian.Uint64(prefix[:])
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	dataOffset := int64(8 + headerSize) //nolint:gosec // G115: bounded by MaxHeaderSize.
	if dataOffset > size {
		return nil, fmt.Errorf("header size %d exceeds file size %d", headerSize, size)
	}

	header := make([]byte, headerSize)
	if _, err := r.ReadAt(header, 8); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	metadata, tensors, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	if err := validateTensors(tensors, size-dataOffset); err != nil {
		return nil, err
	}

	return &SafeTensorsStore{
		metadata:   metadata,
		tensors:    tensors,
		dataOffset: dataOffset,
	}, nil
}

func parseHeader(data []byte) (map[string]string, map[string]TensorInfo, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse header: %w", err)
	}
	if len(raw) > MaxTensorCount+1 {
		return nil, nil, fmt.Errorf("header lists %d entries, limit is %d", len(raw), MaxTensorCount)
	}

	var metadata map[string]string
	if m, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(m, &metadata); err != nil {
			return nil, nil, fmt.Errorf("parse metadata: %w", err)
		}
	}

	tensors := make(map[string]TensorInfo, len(raw))
	for name, value := range raw {
		if name == metadataKey {
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return nil, nil, fmt.Errorf("parse tensor %s: %w", name, err)
		}
		tensors[name] = info
	}
	return metadata, tensors, nil
}

func validateTensors(tensors map[string]TensorInfo, dataSize int64) error {
	type span struct {
		name       string
		start, end int64
	}
	spans := make([]span, 0, len(tensors))

	for name, info := range tensors {
		dt, err := info.DType.DataType()
		if err != nil {
			return &ValidationError{Type: "dtype", Tensor: name, Details: err.Error()}
		}
		size, err := tensor.Shape(info.Shape).ByteSize(dt)
		if err != nil {
			return &ValidationError{Type: "shape", Tensor: name, Details: err.Error()}
		}

		start, end := info.DataOffsets[0], info.DataOffsets[1]
		if start < 0 || end < start {
			return &ValidationError{
				Type:    "offset",
				Tensor:  name,
				Details: fmt.Sprintf("invalid offsets [%d, %d]", start, end),
			}
		}
		if end > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  name,
				Details: fmt.Sprintf("end offset %d exceeds data size %d", end, dataSize),
			}
		}
		if want := int64(size); end-start != want {
			return &ValidationError{
				Type:    "size",
				Tensor:  name,
				Details: fmt.Sprintf("%d bytes for shape %v of %s, want %d", end-start, info.Shape, info.DType, want),
			}
		}
		spans = append(spans, span{name: name, start: start, end: end})
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].name < spans[j].name
	})
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if cur.start < prev.end {
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  prev.name,
				Tensor2: cur.name,
				Details: fmt.Sprintf("[%d, %d) overlaps [%d, %d)", prev.start, prev.end, cur.start, cur.end),
			}
		}
	}
	return nil
}

// Path returns the file the store was opened from.
func (s *SafeTensorsStore) Path() string {
	return s.path
}

// Metadata returns the header's free-form metadata.
func (s *SafeTensorsStore) Metadata() map[string]string {
	return s.metadata
}

// Info returns the header entry for name.
func (s *SafeTensorsStore) Info(name string) (TensorInfo, error) {
	info, ok := s.tensors[name]
	if !ok {
		return TensorInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return info, nil
}

// Names implements Store. Names are sorted.
func (s *SafeTensorsStore) Names() []string {
	names := make([]string, 0, len(s.tensors))
	for name := range s.tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw reads name in its stored dtype.
func (s *SafeTensorsStore) Raw(name string) (*tensor.RawTensor, error) {
	info, err := s.Info(name)
	if err != nil {
		return nil, err
	}
	dt, err := info.DType.DataType()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.file == nil {
		return nil, ErrClosed
	}

	data := make([]byte, info.DataOffsets[1]-info.DataOffsets[0])
	if _, err := s.file.ReadAt(data, s.dataOffset+info.DataOffsets[0]); err != nil {
		return nil, fmt.Errorf("read tensor data: %w", err)
	}
	return tensor.NewRawFromBytes(tensor.Shape(info.Shape), dt, tensor.CPU, data)
}

// Tensor implements Store. F16 and BF16 tensors are decoded to float32.
func (s *SafeTensorsStore) Tensor(name string) (*tensor.RawTensor, error) {
	raw, err := s.Raw(name)
	if err != nil {
		return nil, err
	}
	return tensor.Widen(raw)
}

// Close closes the underlying file. It waits for in-flight reads and is
// safe to call more than once.
func (s *SafeTensorsStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
