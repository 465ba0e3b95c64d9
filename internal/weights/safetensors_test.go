package weights

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/decoder/internal/tensor"
)

func mustRaw(t *testing.T, values []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.RawFromSlice(values, tensor.Shape(shape))
	require.NoError(t, err)
	return raw
}

func writeFile(t *testing.T, tensors map[string]*tensor.RawTensor, metadata map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, SaveSafeTensors(path, tensors, metadata))
	return path
}

// rawFile writes a SafeTensors file from a literal header and data section.
func rawFile(t *testing.T, header string, data []byte) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
	buf.WriteString(header)
	buf.Write(data)

	path := filepath.Join(t.TempDir(), "raw.safetensors")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestSafeTensorsRoundTrip(t *testing.T) {
	weight := mustRaw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	bias := mustRaw(t, []float32{0.1, 0.2}, 2)
	wide, err := tensor.RawFromSlice([]float64{1.5, -2.25}, tensor.Shape{2})
	require.NoError(t, err)

	path := writeFile(t, map[string]*tensor.RawTensor{
		"proj.weight": weight,
		"proj.bias":   bias,
		"scale":       wide,
	}, map[string]string{"format": "pt"})

	s, err := OpenSafeTensors(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, path, s.Path())
	assert.Equal(t, map[string]string{"format": "pt"}, s.Metadata())
	assert.Equal(t, []string{"proj.bias", "proj.weight", "scale"}, s.Names())

	got, err := s.Tensor("proj.weight")
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, got.DType())
	assert.Equal(t, tensor.Shape{2, 3}, got.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, got.AsFloat32())

	got, err = s.Tensor("proj.bias")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, got.AsFloat32())

	got, err = s.Tensor("scale")
	require.NoError(t, err)
	assert.Equal(t, tensor.Float64, got.DType())
	assert.Equal(t, []float64{1.5, -2.25}, got.AsFloat64())

	info, err := s.Info("proj.weight")
	require.NoError(t, err)
	assert.Equal(t, SafeTensorsF32, info.DType)
	assert.Equal(t, []int{2, 3}, info.Shape)
	assert.Equal(t, int64(24), info.DataOffsets[1]-info.DataOffsets[0])
}

func TestSafeTensorsHalfPrecision(t *testing.T) {
	values := []float32{0.5, -1.25, 2, 3.5}
	src := mustRaw(t, values, 2, 2)

	for _, dt := range []tensor.DataType{tensor.Float16, tensor.BFloat16} {
		t.Run(dt.String(), func(t *testing.T) {
			narrow, err := tensor.Narrow(src, dt)
			require.NoError(t, err)

			path := writeFile(t, map[string]*tensor.RawTensor{"w": narrow}, nil)
			s, err := OpenSafeTensors(path)
			require.NoError(t, err)
			defer s.Close()

			stored, err := s.Raw("w")
			require.NoError(t, err)
			assert.Equal(t, dt, stored.DType())

			got, err := s.Tensor("w")
			require.NoError(t, err)
			assert.Equal(t, tensor.Float32, got.DType())
			assert.Equal(t, tensor.Shape{2, 2}, got.Shape())
			assert.Equal(t, values, got.AsFloat32())
		})
	}
}

func TestSafeTensorsDeterministicWriter(t *testing.T) {
	tensors := map[string]*tensor.RawTensor{
		"b": mustRaw(t, []float32{1}, 1),
		"a": mustRaw(t, []float32{2, 3}, 2),
		"c": mustRaw(t, []float32{4}, 1),
	}

	var first, second bytes.Buffer
	require.NoError(t, WriteSafeTensors(&first, tensors, map[string]string{"k": "v"}))
	require.NoError(t, WriteSafeTensors(&second, tensors, map[string]string{"k": "v"}))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestSafeTensorsMissingTensor(t *testing.T) {
	path := writeFile(t, map[string]*tensor.RawTensor{"w": mustRaw(t, []float32{1}, 1)}, nil)
	s, err := OpenSafeTensors(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Tensor("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSafeTensorsClosed(t *testing.T) {
	path := writeFile(t, map[string]*tensor.RawTensor{"w": mustRaw(t, []float32{1}, 1)}, nil)
	s, err := OpenSafeTensors(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Tensor("w")
	require.ErrorIs(t, err, ErrClosed)
}

func TestSafeTensorsConcurrentClose(t *testing.T) {
	path := writeFile(t, map[string]*tensor.RawTensor{"w": mustRaw(t, []float32{1, 2, 3, 4}, 2, 2)}, nil)
	s, err := OpenSafeTensors(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8*8+1)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 8 {
				raw, err := s.Tensor("w")
				if err != nil {
					errs <- err
					continue
				}
				if got := raw.AsFloat32(); got[3] != 4 {
					errs <- fmt.Errorf("read %v", got)
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- s.Close()
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrClosed)
		}
	}
	_, err = s.Tensor("w")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSafeTensorsInvalid(t *testing.T) {
	eight := make([]byte, 8)

	tests := []struct {
		name     string
		header   string
		data     []byte
		wantType string
	}{
		{
			name:     "unsupported dtype",
			header:   `{"w":{"dtype":"I32","shape":[2],"data_offsets":[0,8]}}`,
			data:     eight,
			wantType: "dtype",
		},
		{
			name:     "zero dimension",
			header:   `{"w":{"dtype":"F32","shape":[0],"data_offsets":[0,0]}}`,
			wantType: "shape",
		},
		{
			name:     "element count overflow",
			header:   `{"w":{"dtype":"F32","shape":[4294967296,4294967296],"data_offsets":[0,0]}}`,
			wantType: "shape",
		},
		{
			name:     "byte size overflow",
			header:   `{"w":{"dtype":"F32","shape":[4611686018427387904],"data_offsets":[0,0]}}`,
			wantType: "shape",
		},
		{
			name:     "negative offset",
			header:   `{"w":{"dtype":"F32","shape":[1],"data_offsets":[-4,0]}}`,
			data:     eight,
			wantType: "offset",
		},
		{
			name:     "out of bounds",
			header:   `{"w":{"dtype":"F32","shape":[4],"data_offsets":[0,16]}}`,
			data:     eight,
			wantType: "out_of_bounds",
		},
		{
			name:     "size mismatch",
			header:   `{"w":{"dtype":"F32","shape":[1],"data_offsets":[0,8]}}`,
			data:     eight,
			wantType: "size",
		},
		{
			name:     "overlap",
			header:   `{"a":{"dtype":"F32","shape":[1],"data_offsets":[0,4]},"b":{"dtype":"F32","shape":[1],"data_offsets":[2,6]}}`,
			data:     eight,
			wantType: "offset_overlap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenSafeTensors(rawFile(t, tt.header, tt.data))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantType, verr.Type)
		})
	}
}

func TestSafeTensorsCorruptHeader(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		_, err := OpenSafeTensors(rawFile(t, `{"w":`, nil))
		require.Error(t, err)
	})

	t.Run("header too large", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(MaxHeaderSize+1)))
		path := filepath.Join(t.TempDir(), "big.safetensors")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

		_, err := OpenSafeTensors(path)
		require.ErrorIs(t, err, ErrHeaderTooLarge)
	})

	t.Run("truncated", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.safetensors")
		require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o600))

		_, err := OpenSafeTensors(path)
		require.Error(t, err)
	})

	t.Run("header beyond file", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(64)))
		buf.WriteString("{}")
		path := filepath.Join(t.TempDir(), "cut.safetensors")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

		_, err := OpenSafeTensors(path)
		require.Error(t, err)
	})
}

func TestSafeTensorsDir(t *testing.T) {
	t.Run("single file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, SaveSafeTensors(filepath.Join(dir, SingleFileName),
			map[string]*tensor.RawTensor{"w": mustRaw(t, []float32{7}, 1)}, nil))

		s, err := Open(dir)
		require.NoError(t, err)
		defer s.Close()

		got, err := s.Tensor("w")
		require.NoError(t, err)
		assert.Equal(t, []float32{7}, got.AsFloat32())
	})

	t.Run("sharded", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, SaveSafeTensors(filepath.Join(dir, "model-00001-of-00002.safetensors"),
			map[string]*tensor.RawTensor{"a": mustRaw(t, []float32{1, 2}, 2)}, nil))
		require.NoError(t, SaveSafeTensors(filepath.Join(dir, "model-00002-of-00002.safetensors"),
			map[string]*tensor.RawTensor{"b": mustRaw(t, []float32{3}, 1)}, nil))
		index := `{"metadata":{"total_size":12},"weight_map":{"a":"model-00001-of-00002.safetensors","b":"model-00002-of-00002.safetensors"}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFileName), []byte(index), 0o600))

		s, err := OpenSafeTensorsDir(dir)
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, 2, s.Shards())
		assert.Equal(t, []string{"a", "b"}, s.Names())

		got, err := s.Tensor("b")
		require.NoError(t, err)
		assert.Equal(t, []float32{3}, got.AsFloat32())

		_, err = s.Tensor("c")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("index names absent tensor", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, SaveSafeTensors(filepath.Join(dir, "shard.safetensors"),
			map[string]*tensor.RawTensor{"a": mustRaw(t, []float32{1}, 1)}, nil))
		index := `{"weight_map":{"a":"shard.safetensors","b":"shard.safetensors"}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFileName), []byte(index), 0o600))

		_, err := OpenSafeTensorsDir(dir)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("shard outside dir", func(t *testing.T) {
		dir := t.TempDir()
		index := `{"weight_map":{"a":"../escape.safetensors"}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFileName), []byte(index), 0o600))

		_, err := OpenSafeTensorsDir(dir)
		require.Error(t, err)
	})
}
