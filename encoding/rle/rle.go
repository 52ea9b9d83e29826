// Package rle implements the hybrid RLE/bit-packed encoding Parquet uses
// for repetition levels, definition levels, and (in V2 data pages) boolean
// values.
//
// The stream is a sequence of runs. Each run starts with a ULEB128 header
// h: when h&1==0 the run is (h>>1) repeated values, each stored in
// ceil(bitWidth/8) little-endian bytes; when h&1==1 the run is a bit-packed
// group of (h>>1)*8 values, packed LSB-first at bitWidth bits each.
package rle

import "fmt"

// BitWidth returns the minimum number of bits needed to represent values in
// [0, maxValue].
func BitWidth(maxValue int) int {
	w := 0
	for (1 << w) <= maxValue {
		w++
	}
	return w
}

const bitPackGroupSize = 8 // values per bit-packed group, per the spec

// Encoder accumulates level (or V2 boolean) values and produces the
// hybrid-encoded byte stream on Bytes.
type Encoder struct {
	bitWidth int
	values   []uint64
}

// NewEncoder creates an encoder for values occupying bitWidth bits.
func NewEncoder(bitWidth int) *Encoder {
	return &Encoder{bitWidth: bitWidth}
}

// Append records the next value in sequence.
func (e *Encoder) Append(v int) { e.values = append(e.values, uint64(v)) }

// Reset discards any accumulated values, reusing the underlying storage.
func (e *Encoder) Reset() { e.values = e.values[:0] }

// Len returns the number of values appended since the last Reset.
func (e *Encoder) Len() int { return len(e.values) }

// Bytes serializes the accumulated values as runs, choosing RLE runs for
// repeated values and bit-packed groups otherwise, and appends the result
// to dst.
func (e *Encoder) Bytes(dst []byte) []byte {
	values := e.values
	byteWidth := (e.bitWidth + 7) / 8

	i := 0
	for i < len(values) {
		runEnd := i + 1
		for runEnd < len(values) && values[runEnd] == values[i] {
			runEnd++
		}
		runLen := runEnd - i

		// Prefer an RLE run only when it covers at least one full
		// bit-packed group worth of values; otherwise bit-pack to avoid
		// bloating short runs with header overhead.
		if runLen >= bitPackGroupSize {
			dst = appendUvarint(dst, uint64(runLen)<<1)
			dst = appendLittleEndian(dst, values[i], byteWidth)
			i = runEnd
			continue
		}

		// Accumulate a bit-packed span until we hit a long enough repeat
		// to switch back to RLE. The span is then extended with the values
		// that follow up to a whole group of 8, so zero padding only ever
		// fills the final group of the stream.
		spanStart := i
		for i < len(values) {
			end := i + 1
			for end < len(values) && values[end] == values[i] {
				end++
			}
			if end-i >= bitPackGroupSize {
				break
			}
			i = end
		}
		for i < len(values) && (i-spanStart)%bitPackGroupSize != 0 {
			i++
		}
		dst = encodeBitPacked(dst, values[spanStart:i], e.bitWidth)
	}
	return dst
}

func appendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

func appendLittleEndian(dst []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst
}

func encodeBitPacked(dst []byte, values []uint64, bitWidth int) []byte {
	numGroups := (len(values) + bitPackGroupSize - 1) / bitPackGroupSize
	padded := make([]uint64, numGroups*bitPackGroupSize)
	copy(padded, values)

	dst = appendUvarint(dst, uint64(numGroups<<1)|1)

	var bitBuf uint64
	var bitCount uint
	for _, v := range padded {
		bitBuf |= (v & ((1 << bitWidth) - 1)) << bitCount
		bitCount += uint(bitWidth)
		for bitCount >= 8 {
			dst = append(dst, byte(bitBuf))
			bitBuf >>= 8
			bitCount -= 8
		}
	}
	if bitCount > 0 {
		dst = append(dst, byte(bitBuf))
	}
	return dst
}

// Decode reads exactly count values encoded at bitWidth bits from src,
// returning them and the number of bytes consumed.
func Decode(src []byte, bitWidth, count int) ([]int, int, error) {
	values := make([]int, 0, count)
	byteWidth := (bitWidth + 7) / 8
	pos := 0

	for len(values) < count {
		h, n, err := readUvarint(src[pos:])
		if err != nil {
			return nil, 0, fmt.Errorf("rle: reading run header: %w", err)
		}
		pos += n

		if h&1 == 0 {
			runLen := int(h >> 1)
			if pos+byteWidth > len(src) {
				return nil, 0, fmt.Errorf("rle: truncated RLE run value")
			}
			var v uint64
			for i := 0; i < byteWidth; i++ {
				v |= uint64(src[pos+i]) << (8 * i)
			}
			pos += byteWidth
			for i := 0; i < runLen && len(values) < count; i++ {
				values = append(values, int(v))
			}
		} else {
			numGroups := int(h >> 1)
			numValues := numGroups * bitPackGroupSize
			totalBits := numValues * bitWidth
			totalBytes := (totalBits + 7) / 8
			if pos+totalBytes > len(src) {
				return nil, 0, fmt.Errorf("rle: truncated bit-packed group")
			}
			group := src[pos : pos+totalBytes]
			pos += totalBytes

			var bitBuf uint64
			var bitCount uint
			byteIdx := 0
			for i := 0; i < numValues && len(values) < count; i++ {
				for bitCount < uint(bitWidth) && byteIdx < len(group) {
					bitBuf |= uint64(group[byteIdx]) << bitCount
					bitCount += 8
					byteIdx++
				}
				mask := uint64(1)<<bitWidth - 1
				values = append(values, int(bitBuf&mask))
				bitBuf >>= uint(bitWidth)
				bitCount -= uint(bitWidth)
			}
		}
	}
	return values, pos, nil
}

func readUvarint(src []byte) (uint64, int, error) {
	var x uint64
	var s uint
	for i := 0; i < len(src); i++ {
		b := src[i]
		if b < 0x80 {
			return x | uint64(b)<<s, i + 1, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, 0, fmt.Errorf("rle: truncated varint")
}
