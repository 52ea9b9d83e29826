package gopq

import (
	"bytes"

	"github.com/gopq/gopq/encoding/plain"
	"github.com/gopq/gopq/format"
)

// Value is a typed, PLAIN-encodable primitive value carried through the
// shredder, page engine, and assembler. Exactly one of its fields is
// meaningful, selected by Kind; Null values carry no payload.
type Value struct {
	Kind    format.Type
	Null    bool
	boolean bool
	i32     int32
	i64     int64
	i96     [12]byte
	f32     float32
	f64     float64
	bytes   []byte
}

func BooleanValue(v bool) Value        { return Value{Kind: format.Boolean, boolean: v} }
func Int32Value(v int32) Value         { return Value{Kind: format.Int32, i32: v} }
func Int64Value(v int64) Value         { return Value{Kind: format.Int64, i64: v} }
func Int96Value(v [12]byte) Value      { return Value{Kind: format.Int96, i96: v} }
func FloatValue(v float32) Value       { return Value{Kind: format.Float, f32: v} }
func DoubleValue(v float64) Value      { return Value{Kind: format.Double, f64: v} }
func ByteArrayValue(v []byte) Value    { return Value{Kind: format.ByteArray, bytes: v} }
func FixedLenByteArrayValue(v []byte) Value {
	return Value{Kind: format.FixedLenByteArray, bytes: v}
}

func (v Value) Boolean() bool    { return v.boolean }
func (v Value) Int32() int32     { return v.i32 }
func (v Value) Int64() int64     { return v.i64 }
func (v Value) Int96() [12]byte  { return v.i96 }
func (v Value) Float() float32   { return v.f32 }
func (v Value) Double() float64  { return v.f64 }
func (v Value) Bytes() []byte    { return v.bytes }

// AppendPlain appends the PLAIN encoding of v to dst. Boolean values are
// not handled here: PLAIN bit-packs booleans LSB-first across the whole
// value stream, which needs the running value index: the page engine calls
// plain.AppendBoolean directly instead of going through this method.
func (v Value) AppendPlain(dst []byte) []byte {
	switch v.Kind {
	case format.Int32:
		return plain.AppendInt32(dst, v.i32)
	case format.Int64:
		return plain.AppendInt64(dst, v.i64)
	case format.Int96:
		return plain.AppendInt96(dst, v.i96)
	case format.Float:
		return plain.AppendFloat(dst, v.f32)
	case format.Double:
		return plain.AppendDouble(dst, v.f64)
	case format.ByteArray:
		return plain.AppendByteArray(dst, v.bytes)
	case format.FixedLenByteArray:
		return plain.AppendFixedLenByteArray(dst, v.bytes)
	default:
		return dst
	}
}

// Compare orders two values of the same Kind: numeric order for numeric
// kinds, lexicographic byte order for ByteArray/FixedLenByteArray.
func Compare(a, b Value) int {
	switch a.Kind {
	case format.Boolean:
		switch {
		case a.boolean == b.boolean:
			return 0
		case !a.boolean:
			return -1
		default:
			return 1
		}
	case format.Int32:
		return compareOrdered(a.i32, b.i32)
	case format.Int64:
		return compareOrdered(a.i64, b.i64)
	case format.Int96:
		return bytes.Compare(a.i96[:], b.i96[:])
	case format.Float:
		return compareOrdered(a.f32, b.f32)
	case format.Double:
		return compareOrdered(a.f64, b.f64)
	case format.ByteArray, format.FixedLenByteArray:
		return bytes.Compare(a.bytes, b.bytes)
	default:
		return 0
	}
}

type ordered interface {
	~int32 | ~int64 | ~float32 | ~float64
}

func compareOrdered[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// EncodedRepresentation returns the bytes used to key this value in a
// distinct-value set; it reuses the PLAIN encoding since that is already a
// canonical byte representation per Kind. Boolean is handled separately
// since AppendPlain leaves it to the page engine's bit-packing.
func (v Value) EncodedRepresentation() string {
	if v.Kind == format.Boolean {
		if v.boolean {
			return "1"
		}
		return "0"
	}
	return string(v.AppendPlain(nil))
}
