package tensor

import (
	"encoding/binary"
	"fmt"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Widen converts a Float16 or BFloat16 tensor to a new Float32 tensor.
// Computable tensors are returned unchanged.
func Widen(r *RawTensor) (*RawTensor, error) {
	var values []float32
	switch r.dtype {
	case Float32, Float64:
		return r, nil
	case Float16:
		values = decodeFloat16(r.data)
	case BFloat16:
		values = bfloat16.DecodeFloat32(r.data)
	default:
		return nil, dtypeErrorf("widen", "unsupported dtype %s", r.dtype)
	}

	out, err := NewRaw(r.shape, Float32, r.device)
	if err != nil {
		return nil, err
	}
	copy(out.AsFloat32(), values)
	return out, nil
}

// Narrow encodes a Float32 tensor into the Float16 or BFloat16 storage
// format. It is the inverse of Widen, up to the target format's precision.
func Narrow(r *RawTensor, dtype DataType) (*RawTensor, error) {
	if r.dtype != Float32 {
		return nil, dtypeErrorf("narrow", "source must be float32, got %s", r.dtype)
	}

	var data []byte
	switch dtype {
	case Float16:
		data = encodeFloat16(r.AsFloat32())
	case BFloat16:
		data = bfloat16.EncodeFloat32(r.AsFloat32())
	default:
		return nil, dtypeErrorf("narrow", "target must be float16 or bfloat16, got %s", dtype)
	}
	return NewRawFromBytes(r.shape, dtype, r.device, data)
}

// Convert casts a computable tensor to another computable dtype.
func Convert(r *RawTensor, dtype DataType) (*RawTensor, error) {
	if r.dtype == dtype {
		return r, nil
	}
	if !r.dtype.Computable() || !dtype.Computable() {
		return nil, fmt.Errorf("convert %s to %s: %w", r.dtype, dtype, ErrDType)
	}

	out, err := NewRaw(r.shape, dtype, r.device)
	if err != nil {
		return nil, err
	}
	if dtype == Float64 {
		dst := out.AsFloat64()
		for i, v := range r.AsFloat32() {
			dst[i] = float64(v)
		}
	} else {
		dst := out.AsFloat32()
		for i, v := range r.AsFloat64() {
			dst[i] = float32(v)
		}
	}
	return out, nil
}

func decodeFloat16(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		out[i] = float16.Frombits(binary.LittleEndian.Uint16(data[2*i:])).Float32()
	}
	return out
}

func encodeFloat16(values []float32) []byte {
	out := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[2*i:], float16.Fromfloat32(v).Bits())
	}
	return out
}

