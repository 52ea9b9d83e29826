package gopq

import (
	"testing"
	"time"
)

func singleLeafSchema(t *testing.T, decl FieldDecl) *SchemaNode {
	t.Helper()
	schema, err := BuildSchema("row", []FieldDecl{decl})
	if err != nil {
		t.Fatal(err)
	}
	return schema.Leaves[0]
}

func TestUTF8RoundTripsThroughToAndFromPrimitive(t *testing.T) {
	leaf := singleLeafSchema(t, FieldDecl{Name: "s", Type: "UTF8"})
	v, err := toPrimitiveValue(leaf, "hello")
	if err != nil {
		t.Fatal(err)
	}
	back, err := fromPrimitiveValue(leaf, v)
	if err != nil {
		t.Fatal(err)
	}
	if back != "hello" {
		t.Errorf("got %v, want %q", back, "hello")
	}
}

func TestByteArrayRejectsUnsupportedTypedInput(t *testing.T) {
	leaf := singleLeafSchema(t, FieldDecl{Name: "raw", Type: "BYTE_ARRAY"})
	_, err := toPrimitiveValue(leaf, []int32{1, 2, 3})
	if err == nil {
		t.Fatal("expected an error for an unsupported typed slice input")
	}
	if got := err.Error(); !contains(got, "is not supported") {
		t.Errorf("error = %q, want it to contain %q", got, "is not supported")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestDecimalTruncatesRatherThanRounds(t *testing.T) {
	leaf := singleLeafSchema(t, FieldDecl{Name: "amount", Type: "DECIMAL", Precision: 9, Scale: 2})
	v, err := toPrimitiveValue(leaf, 3.345678901234567)
	if err != nil {
		t.Fatal(err)
	}
	back, err := fromPrimitiveValue(leaf, v)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := back.(float32)
	if !ok {
		t.Fatalf("got %T, want float32", back)
	}
	if got != 3.34 {
		t.Errorf("got %v, want 3.34 (truncated, not rounded)", got)
	}
}

func TestDecimalPrecisionAboveNineBacksOntoInt64(t *testing.T) {
	leaf := singleLeafSchema(t, FieldDecl{Name: "amount", Type: "DECIMAL", Precision: 12, Scale: 3})
	v, err := toPrimitiveValue(leaf, 123.456789)
	if err != nil {
		t.Fatal(err)
	}
	if v.Int64() != 123456 {
		t.Errorf("got %d, want 123456 (scaled by 10^3, truncated)", v.Int64())
	}
}

func TestDateAndTimestampAcceptBothIntegersAndTimeTime(t *testing.T) {
	dateLeaf := singleLeafSchema(t, FieldDecl{Name: "d", Type: "DATE"})
	v, err := toPrimitiveValue(dateLeaf, 19000)
	if err != nil {
		t.Fatal(err)
	}
	if v.Int32() != 19000 {
		t.Errorf("DATE: got %d, want 19000", v.Int32())
	}

	tsLeaf := singleLeafSchema(t, FieldDecl{Name: "ts", Type: "TIMESTAMP_MICROS"})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v, err = toPrimitiveValue(tsLeaf, now)
	if err != nil {
		t.Fatal(err)
	}
	if v.Int64() != now.UnixMicro() {
		t.Errorf("TIMESTAMP_MICROS from time.Time: got %d, want %d", v.Int64(), now.UnixMicro())
	}
	v, err = toPrimitiveValue(tsLeaf, now.UnixMicro())
	if err != nil {
		t.Fatal(err)
	}
	if v.Int64() != now.UnixMicro() {
		t.Errorf("TIMESTAMP_MICROS from int64: got %d, want %d", v.Int64(), now.UnixMicro())
	}
}

func TestJSONRoundTripsArbitraryStructure(t *testing.T) {
	leaf := singleLeafSchema(t, FieldDecl{Name: "doc", Type: "JSON"})
	in := map[string]any{"a": float64(1), "b": []any{"x", "y"}}
	v, err := toPrimitiveValue(leaf, in)
	if err != nil {
		t.Fatal(err)
	}
	back, err := fromPrimitiveValue(leaf, v)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := back.(map[string]any)
	if !ok {
		t.Fatalf("got %T, want map[string]any", back)
	}
	if m["a"] != float64(1) {
		t.Errorf("doc[a] = %v, want 1", m["a"])
	}
}

func TestIntervalRequiresExactlyTwelveBytes(t *testing.T) {
	leaf := singleLeafSchema(t, FieldDecl{Name: "span", Type: "INTERVAL"})
	if _, err := toPrimitiveValue(leaf, []byte("tooshort")); err == nil {
		t.Fatal("expected an error for an INTERVAL value shorter than 12 bytes")
	}
	b := make([]byte, 12)
	if _, err := toPrimitiveValue(leaf, b); err != nil {
		t.Errorf("12-byte INTERVAL value rejected: %v", err)
	}
}
