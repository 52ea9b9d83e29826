package rle

import (
	"reflect"
	"testing"
)

func TestBitWidth(t *testing.T) {
	cases := []struct {
		max  int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{255, 8},
		{256, 9},
	}
	for _, c := range cases {
		if got := BitWidth(c.max); got != c.want {
			t.Errorf("BitWidth(%d) = %d, want %d", c.max, got, c.want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]int{
		{},
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{1, 1, 1, 2, 2, 2, 2, 3},
		{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1},
		{7, 6, 5, 4, 3, 2, 1, 0, 7, 6, 5, 4, 3, 2, 1, 0},
	}

	for _, values := range cases {
		maxValue := 0
		for _, v := range values {
			if v > maxValue {
				maxValue = v
			}
		}
		bitWidth := BitWidth(maxValue)
		if bitWidth == 0 {
			bitWidth = 1
		}

		enc := NewEncoder(bitWidth)
		for _, v := range values {
			enc.Append(v)
		}
		encoded := enc.Bytes(nil)

		decoded, n, err := Decode(encoded, bitWidth, len(values))
		if err != nil {
			t.Fatalf("Decode(%v): %v", values, err)
		}
		if n != len(encoded) {
			t.Errorf("Decode(%v) consumed %d bytes, want %d", values, n, len(encoded))
		}
		if len(values) == 0 && len(decoded) == 0 {
			decoded = []int{}
		}
		if !reflect.DeepEqual(decoded, values) {
			t.Errorf("Decode(Encode(%v)) = %v", values, decoded)
		}
	}
}

func TestEncoderResetReusesStorage(t *testing.T) {
	enc := NewEncoder(3)
	for i := 0; i < 5; i++ {
		enc.Append(i % 4)
	}
	if enc.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", enc.Len())
	}
	enc.Reset()
	if enc.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", enc.Len())
	}
	enc.Append(2)
	decoded, _, err := Decode(enc.Bytes(nil), 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, []int{2}) {
		t.Errorf("decoded = %v, want [2]", decoded)
	}
}
