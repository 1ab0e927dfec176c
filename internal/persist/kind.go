package persist

import "reflect"

// Kind is the closed set of primitive member kinds the payload can carry.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindFloat32
	KindFloat64
	KindBool
)

// Width returns the fixed encoded size of k in bytes.
func (k Kind) Width() int {
	switch k {
	case KindInt32, KindFloat32:
		return 4
	case KindFloat64:
		return 8
	case KindBool:
		return 1
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// KindOf reports the payload kind of a live member value.
// Named types are classified by their underlying kind.
func KindOf(v any) (Kind, bool) {
	if v == nil {
		return KindInvalid, false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int32:
		return KindInt32, true
	case reflect.Float32:
		return KindFloat32, true
	case reflect.Float64:
		return KindFloat64, true
	case reflect.Bool:
		return KindBool, true
	default:
		return KindInvalid, false
	}
}

// typeName is used in diagnostics for values that failed KindOf.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
