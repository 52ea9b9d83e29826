// Package plain implements the Parquet PLAIN encoding: little-endian
// fixed-width values for numeric primitives, LSB-first bit-packing for
// booleans, a 4-byte little-endian length prefix for BYTE_ARRAY, and raw
// bytes for FIXED_LEN_BYTE_ARRAY.
package plain

import (
	"encoding/binary"
	"math"
)

// AppendBoolean packs the i-th boolean value into dst, growing dst as
// needed. Callers append values in order starting at i=0.
func AppendBoolean(dst []byte, i int, value bool) []byte {
	byteIndex, bitIndex := i/8, i%8
	for len(dst) <= byteIndex {
		dst = append(dst, 0)
	}
	if value {
		dst[byteIndex] |= 1 << bitIndex
	}
	return dst
}

// AppendInt32 appends the little-endian encoding of v.
func AppendInt32(dst []byte, v int32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	return append(dst, buf[:]...)
}

// AppendInt64 appends the little-endian encoding of v.
func AppendInt64(dst []byte, v int64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return append(dst, buf[:]...)
}

// AppendInt96 appends the 12-byte little-endian encoding of v.
func AppendInt96(dst []byte, v [12]byte) []byte {
	return append(dst, v[:]...)
}

// AppendFloat appends the little-endian encoding of v.
func AppendFloat(dst []byte, v float32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	return append(dst, buf[:]...)
}

// AppendDouble appends the little-endian encoding of v.
func AppendDouble(dst []byte, v float64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return append(dst, buf[:]...)
}

// AppendByteArray appends a 4-byte little-endian length prefix followed by
// the bytes of v.
func AppendByteArray(dst []byte, v []byte) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(len(v)))
	dst = append(dst, buf[:]...)
	return append(dst, v...)
}

// AppendFixedLenByteArray appends exactly len(v) raw bytes; the caller is
// responsible for ensuring len(v) matches the column's typeLength.
func AppendFixedLenByteArray(dst []byte, v []byte) []byte {
	return append(dst, v...)
}

// Decoder reads PLAIN-encoded values from a fixed byte slice, advancing an
// internal cursor. It reports io.ErrUnexpectedEOF-style errors via
// ErrShortBuffer when the underlying slice is exhausted.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder wraps buf for sequential decoding.
func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

// Len returns the number of unread bytes remaining.
func (d *Decoder) Len() int { return len(d.buf) - d.off }

// ErrShortBuffer is returned when a decode call needs more bytes than
// remain in the buffer.
var ErrShortBuffer = errShortBuffer{}

type errShortBuffer struct{}

func (errShortBuffer) Error() string { return "plain: short buffer" }

func (d *Decoder) take(n int) ([]byte, error) {
	if d.off+n > len(d.buf) {
		return nil, ErrShortBuffer
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

// Boolean reads the i-th boolean value directly (booleans are random
// accessible since each occupies exactly one bit).
func (d *Decoder) Boolean(i int) (bool, error) {
	byteIndex, bitIndex := i/8, i%8
	if byteIndex >= len(d.buf) {
		return false, ErrShortBuffer
	}
	return d.buf[byteIndex]&(1<<bitIndex) != 0, nil
}

func (d *Decoder) Int32() (int32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (d *Decoder) Int64() (int64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (d *Decoder) Int96() ([12]byte, error) {
	var v [12]byte
	b, err := d.take(12)
	if err != nil {
		return v, err
	}
	copy(v[:], b)
	return v, nil
}

func (d *Decoder) Float() (float32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (d *Decoder) Double() (float64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (d *Decoder) ByteArray() ([]byte, error) {
	lb, err := d.take(4)
	if err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lb)
	return d.take(int(n))
}

func (d *Decoder) FixedLenByteArray(length int) ([]byte, error) {
	return d.take(length)
}
