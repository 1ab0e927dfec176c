package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Encode packs the current member values of t into exactly t.ByteSize bytes.
func Encode(t *Target) ([]byte, error) {
	buf := make([]byte, t.ByteSize)
	offset := 0
	for _, m := range t.Members {
		v, err := m.Accessor.Get(t.Instance)
		if err != nil {
			return nil, fmt.Errorf("persist: read node=%q member=%q: %w", t.Instance.Name(), m.Name, err)
		}
		k, ok := KindOf(v)
		if !ok || k != m.Kind {
			return nil, fmt.Errorf("%w: node=%q member=%q have=%s want=%s",
				ErrKindDrift, t.Instance.Name(), m.Name, typeName(v), m.Kind)
		}
		if m.Width != k.Width() || offset+m.Width > len(buf) {
			return nil, fmt.Errorf("%w: node=%q member=%q offset=%d size=%d",
				ErrLayoutDesync, t.Instance.Name(), m.Name, offset, len(buf))
		}
		putValue(buf[offset:offset+m.Width], k, v)
		offset += m.Width
	}
	if offset != len(buf) {
		return nil, fmt.Errorf("%w: node=%q wrote=%d size=%d", ErrLayoutDesync, t.Instance.Name(), offset, len(buf))
	}
	return buf, nil
}

// Decode reads t's members from payload starting at offset and writes them
// into the live instance. The returned offset always points past the whole
// target unless the payload is too short, in which case nothing is written.
func Decode(payload []byte, offset int, t *Target) (int, error) {
	end := offset + t.ByteSize
	if offset < 0 || end > len(payload) {
		return offset, fmt.Errorf("%w: node=%q need=%d have=%d", ErrTruncated, t.Instance.Name(), t.ByteSize, len(payload)-offset)
	}

	cursor := offset
	for _, m := range t.Members {
		v := restoreType(readValue(payload[cursor:cursor+m.Width], m.Kind), m.Type)
		if err := m.Accessor.Set(t.Instance, v); err != nil {
			return end, &LayoutDesyncError{Node: t.Instance.Name(), Member: m.Name, Err: err}
		}
		cursor += m.Width
	}
	return end, nil
}

// Encode concatenates every target in discovery order.
func (d *Discovery) Encode() ([]byte, error) {
	out := make([]byte, 0, d.ByteSize)
	for _, t := range d.Targets {
		buf, err := Encode(t)
		if err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}
	return out, nil
}

// Decode restores every target from payload in discovery order. A short
// payload is rejected before any instance is touched; per-target desyncs are
// returned as diagnostics and do not stop the remaining targets.
func (d *Discovery) Decode(payload []byte) ([]Diagnostic, error) {
	if len(payload) < d.ByteSize {
		return nil, fmt.Errorf("%w: need=%d have=%d", ErrTruncated, d.ByteSize, len(payload))
	}

	var diags []Diagnostic
	offset := 0
	for _, t := range d.Targets {
		next, err := Decode(payload, offset, t)
		if err != nil {
			diag := Diagnostic{
				Kind:   DiagLayoutDesync,
				Node:   t.Instance.Name(),
				Type:   reflect.TypeOf(t.Instance).String(),
				Detail: err.Error(),
			}
			var de *LayoutDesyncError
			if !errors.As(err, &de) {
				return diags, err
			}
			diag.Member = de.Member
			diag.Log()
			diags = append(diags, diag)
		}
		offset = next
	}
	return diags, nil
}

var float32Type = reflect.TypeOf(float32(0))

func putValue(dst []byte, k Kind, v any) {
	switch k {
	case KindInt32:
		var n int32
		if x, ok := v.(int32); ok {
			n = x
		} else {
			n = int32(reflect.ValueOf(v).Int())
		}
		binary.LittleEndian.PutUint32(dst, uint32(n))
	case KindFloat32:
		var f float32
		if x, ok := v.(float32); ok {
			f = x
		} else {
			f = reflect.ValueOf(v).Convert(float32Type).Interface().(float32)
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(f))
	case KindFloat64:
		var f float64
		if x, ok := v.(float64); ok {
			f = x
		} else {
			f = reflect.ValueOf(v).Float()
		}
		binary.LittleEndian.PutUint64(dst, math.Float64bits(f))
	case KindBool:
		var b bool
		if x, ok := v.(bool); ok {
			b = x
		} else {
			b = reflect.ValueOf(v).Bool()
		}
		dst[0] = 0
		if b {
			dst[0] = 1
		}
	}
}

func readValue(src []byte, k Kind) any {
	switch k {
	case KindInt32:
		return int32(binary.LittleEndian.Uint32(src))
	case KindFloat32:
		return math.Float32frombits(binary.LittleEndian.Uint32(src))
	case KindFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(src))
	case KindBool:
		return src[0] != 0
	default:
		return nil
	}
}

// restoreType converts a decoded primitive back to the dynamic type captured
// at discovery, so a named value held in an interface keeps its type.
func restoreType(v any, t reflect.Type) any {
	if v == nil || t == nil {
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == t || !rv.Type().ConvertibleTo(t) {
		return v
	}
	return rv.Convert(t).Interface()
}
