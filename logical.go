package gopq

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/gopq/gopq/format"
)

// LogicalType annotates a leaf's backing primitive with a richer
// user-facing meaning: UTF8 strings, dates, timestamps, intervals, BSON,
// JSON, and DECIMAL. Each carries the conversion pair toPrimitive/
// fromPrimitive described in spec.md §3.
type LogicalType struct {
	name      string
	precision int
	scale     int
}

// Name returns the logical type's declared name (e.g. "UTF8", "DECIMAL").
func (lt LogicalType) Name() string { return lt.name }

// resolve returns the backing PrimitiveType and typeLength (0 if none) for
// this logical type given the field declaration it annotates.
func (lt LogicalType) resolve(d FieldDecl) (format.Type, int, error) {
	switch lt.name {
	case "UTF8", "BSON", "JSON":
		return format.ByteArray, 0, nil
	case "DATE":
		return format.Int32, 0, nil
	case "TIMESTAMP_MICROS", "TIMESTAMP_MILLIS":
		return format.Int64, 0, nil
	case "INTERVAL":
		return format.FixedLenByteArray, 12, nil
	case "DECIMAL":
		if d.Precision <= 0 {
			return 0, 0, fmt.Errorf("DECIMAL requires a positive precision")
		}
		if d.Scale < 0 || d.Scale > d.Precision {
			return 0, 0, fmt.Errorf("DECIMAL scale %d is invalid for precision %d", d.Scale, d.Precision)
		}
		switch {
		case d.Precision <= 9:
			return format.Int32, 0, nil
		case d.Precision <= 18:
			return format.Int64, 0, nil
		default:
			return 0, 0, fmt.Errorf("DECIMAL precision %d exceeds the supported maximum of 18", d.Precision)
		}
	default:
		return 0, 0, fmt.Errorf("unknown logical type %q", lt.name)
	}
}

var logicalTypes = map[string]LogicalType{
	"UTF8":             {name: "UTF8"},
	"DATE":             {name: "DATE"},
	"TIMESTAMP_MICROS": {name: "TIMESTAMP_MICROS"},
	"TIMESTAMP_MILLIS": {name: "TIMESTAMP_MILLIS"},
	"INTERVAL":         {name: "INTERVAL"},
	"BSON":             {name: "BSON"},
	"JSON":             {name: "JSON"},
	"DECIMAL":          {name: "DECIMAL"},
}

// toPrimitiveValue converts a user-supplied value into the Value
// representation backing leaf, dispatching through leaf's logical type
// when it has one.
func toPrimitiveValue(leaf *SchemaNode, raw any) (Value, error) {
	if leaf.Logical != nil {
		return leaf.Logical.toPrimitive(leaf, raw)
	}
	return coercePrimitive(leaf.Primitive, leaf.TypeLength, raw)
}

// fromPrimitiveValue converts a stored Value back into the shape the
// application expects to read, dispatching through leaf's logical type
// when it has one.
func fromPrimitiveValue(leaf *SchemaNode, v Value) (any, error) {
	if leaf.Logical != nil {
		return leaf.Logical.fromPrimitive(v)
	}
	return nativePrimitive(v), nil
}

func (lt LogicalType) toPrimitive(leaf *SchemaNode, raw any) (Value, error) {
	switch lt.name {
	case "UTF8", "BSON":
		s, err := asByteArrayInput(raw)
		if err != nil {
			return Value{}, err
		}
		return ByteArrayValue(s), nil
	case "JSON":
		b, err := json.Marshal(raw)
		if err != nil {
			return Value{}, newInvalidInput(leaf.PathString(), "cannot marshal JSON: %v", err)
		}
		return ByteArrayValue(b), nil
	case "DATE":
		days, err := asInt(raw)
		if err != nil {
			return Value{}, newInvalidInput(leaf.PathString(), "DATE requires an integer day count: %v", err)
		}
		return Int32Value(int32(days)), nil
	case "TIMESTAMP_MICROS", "TIMESTAMP_MILLIS":
		if t, ok := raw.(time.Time); ok {
			if lt.name == "TIMESTAMP_MICROS" {
				return Int64Value(t.UnixMicro()), nil
			}
			return Int64Value(t.UnixMilli()), nil
		}
		v, err := asInt(raw)
		if err != nil {
			return Value{}, newInvalidInput(leaf.PathString(), "%s requires an integer or time.Time: %v", lt.name, err)
		}
		return Int64Value(int64(v)), nil
	case "INTERVAL":
		b, err := asFixedBytes(raw, 12)
		if err != nil {
			return Value{}, newInvalidInput(leaf.PathString(), "%v", err)
		}
		return FixedLenByteArrayValue(b), nil
	case "DECIMAL":
		f, err := asFloat(raw)
		if err != nil {
			return Value{}, newInvalidInput(leaf.PathString(), "DECIMAL requires a numeric value: %v", err)
		}
		scaled := math.Trunc(f * math.Pow10(lt.scale))
		if leaf.Primitive == format.Int32 {
			return Int32Value(int32(scaled)), nil
		}
		return Int64Value(int64(scaled)), nil
	default:
		return Value{}, newConfigError("unhandled logical type %q", lt.name)
	}
}

func (lt LogicalType) fromPrimitive(v Value) (any, error) {
	switch lt.name {
	case "UTF8":
		return string(v.Bytes()), nil
	case "BSON":
		return v.Bytes(), nil
	case "JSON":
		var out any
		if err := json.Unmarshal(v.Bytes(), &out); err != nil {
			return nil, err
		}
		return out, nil
	case "DATE":
		return v.Int32(), nil
	case "TIMESTAMP_MICROS", "TIMESTAMP_MILLIS":
		return v.Int64(), nil
	case "INTERVAL":
		return v.Bytes(), nil
	case "DECIMAL":
		if v.Kind == format.Int32 {
			return float32(v.Int32()) / float32(math.Pow10(lt.scale)), nil
		}
		return float64(v.Int64()) / math.Pow10(lt.scale), nil
	default:
		return nil, newConfigError("unhandled logical type %q", lt.name)
	}
}

func nativePrimitive(v Value) any {
	switch v.Kind {
	case format.Boolean:
		return v.Boolean()
	case format.Int32:
		return v.Int32()
	case format.Int64:
		return v.Int64()
	case format.Int96:
		return v.Int96()
	case format.Float:
		return v.Float()
	case format.Double:
		return v.Double()
	case format.ByteArray, format.FixedLenByteArray:
		return v.Bytes()
	default:
		return nil
	}
}

// coercePrimitive converts a user value into a Value for a leaf with no
// logical type annotation.
func coercePrimitive(t format.Type, typeLength int, raw any) (Value, error) {
	switch t {
	case format.Boolean:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, fmt.Errorf("expected bool, got %T", raw)
		}
		return BooleanValue(b), nil
	case format.Int32:
		v, err := asInt(raw)
		if err != nil {
			return Value{}, err
		}
		return Int32Value(int32(v)), nil
	case format.Int64:
		v, err := asInt(raw)
		if err != nil {
			return Value{}, err
		}
		return Int64Value(int64(v)), nil
	case format.Int96:
		b, err := asFixedBytes(raw, 12)
		if err != nil {
			return Value{}, err
		}
		var arr [12]byte
		copy(arr[:], b)
		return Int96Value(arr), nil
	case format.Float:
		v, err := asFloat(raw)
		if err != nil {
			return Value{}, err
		}
		return FloatValue(float32(v)), nil
	case format.Double:
		v, err := asFloat(raw)
		if err != nil {
			return Value{}, err
		}
		return DoubleValue(v), nil
	case format.ByteArray:
		b, err := asByteArrayInput(raw)
		if err != nil {
			return Value{}, err
		}
		return ByteArrayValue(b), nil
	case format.FixedLenByteArray:
		b, err := asFixedBytes(raw, typeLength)
		if err != nil {
			return Value{}, err
		}
		return FixedLenByteArrayValue(b), nil
	default:
		return Value{}, fmt.Errorf("unsupported primitive type %v", t)
	}
}

func asInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("expected a numeric value, got %T", raw)
	}
}

func asFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected a numeric value, got %T", raw)
	}
}

// asByteArrayInput accepts only []byte and string for BYTE_ARRAY-backed
// leaves; any other slice/array type (e.g. []uint16, []int32, []float64)
// is rejected per spec.md §4.3 and E4.
func asByteArrayInput(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%T is not supported", raw)
	}
}

func asFixedBytes(raw any, length int) ([]byte, error) {
	b, err := asByteArrayInput(raw)
	if err != nil {
		return nil, err
	}
	if len(b) != length {
		return nil, fmt.Errorf("expected %d bytes, got %d", length, len(b))
	}
	return b, nil
}
