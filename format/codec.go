package format

import (
	"errors"
	"fmt"
)

// MetaCodec is the capability injected into the writer and reader for
// serializing/deserializing the metadata structures of this package. The
// core treats it as opaque: it never inspects the resulting bytes itself,
// only records their length and offset.
type MetaCodec interface {
	// EncodeFileMetaData serializes meta, appending to dst.
	EncodeFileMetaData(dst []byte, meta *FileMetaData) ([]byte, error)
	// DecodeFileMetaData parses a FileMetaData from the front of src,
	// returning the number of bytes consumed.
	DecodeFileMetaData(src []byte) (*FileMetaData, int, error)
	// EncodePageHeader serializes a page header, appending to dst.
	EncodePageHeader(dst []byte, hdr *PageHeader) ([]byte, error)
	// DecodePageHeader parses a PageHeader from the front of src,
	// returning the number of bytes consumed.
	DecodePageHeader(src []byte) (*PageHeader, int, error)
}

// compact protocol field-type tags, following Thrift's compact protocol.
const (
	ctStop   = 0
	ctTrue   = 1
	ctFalse  = 2
	ctI32    = 5
	ctI64    = 6
	ctDouble = 7
	ctBinary = 8
	ctList   = 9
	ctStruct = 12
)

// CompactCodec implements MetaCodec using a Thrift-compact-protocol-style
// framing: zigzag varints for integers, a length-prefixed byte string for
// binary/string fields, delta-encoded field headers within a struct, and a
// single stop byte (0x00) closing each struct.
type CompactCodec struct{}

// ---- low level writer ----

type cwriter struct {
	buf      []byte
	lastID   []int16 // stack of "last field id" per open struct
}

func (w *cwriter) pushStruct() { w.lastID = append(w.lastID, 0) }
func (w *cwriter) popStruct()  { w.lastID = w.lastID[:len(w.lastID)-1] }

func (w *cwriter) field(id int16, typ byte) {
	top := len(w.lastID) - 1
	delta := id - w.lastID[top]
	if delta > 0 && delta <= 15 {
		w.buf = append(w.buf, byte(delta)<<4|typ)
	} else {
		w.buf = append(w.buf, typ)
		w.buf = appendVarint(w.buf, zigzag64(int64(id)))
	}
	w.lastID[top] = id
}

func (w *cwriter) stop() { w.buf = append(w.buf, ctStop) }

func (w *cwriter) writeBool(id int16, v bool) {
	top := len(w.lastID) - 1
	delta := id - w.lastID[top]
	typ := byte(ctFalse)
	if v {
		typ = ctTrue
	}
	if delta > 0 && delta <= 15 {
		w.buf = append(w.buf, byte(delta)<<4|typ)
	} else {
		w.buf = append(w.buf, typ)
		w.buf = appendVarint(w.buf, zigzag64(int64(id)))
	}
	w.lastID[top] = id
}

func (w *cwriter) writeI32(id int16, v int32) {
	w.field(id, ctI32)
	w.buf = appendVarint(w.buf, zigzag64(int64(v)))
}

func (w *cwriter) writeI64(id int16, v int64) {
	w.field(id, ctI64)
	w.buf = appendVarint(w.buf, zigzag64(v))
}

func (w *cwriter) writeBinary(id int16, v []byte) {
	w.field(id, ctBinary)
	w.buf = appendVarint(w.buf, uint64(len(v)))
	w.buf = append(w.buf, v...)
}

func (w *cwriter) writeString(id int16, v string) { w.writeBinary(id, []byte(v)) }

// writeListHeader starts a list field of elemType and size; caller writes
// size elements with no intervening field headers.
func (w *cwriter) writeListHeader(id int16, elemType byte, size int) {
	w.field(id, ctList)
	if size < 15 {
		w.buf = append(w.buf, byte(size)<<4|elemType)
	} else {
		w.buf = append(w.buf, 0xF0|elemType)
		w.buf = appendVarint(w.buf, uint64(size))
	}
}

func (w *cwriter) beginStructField(id int16) {
	w.field(id, ctStruct)
	w.pushStruct()
}

func appendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

func zigzag64(v int64) uint64 { return uint64(v<<1) ^ uint64(v>>63) }
func unzigzag64(v uint64) int64 { return int64(v>>1) ^ -int64(v&1) }

// ---- low level reader ----

type creader struct {
	buf    []byte
	pos    int
	lastID []int16
}

func (r *creader) pushStruct() { r.lastID = append(r.lastID, 0) }
func (r *creader) popStruct()  { r.lastID = r.lastID[:len(r.lastID)-1] }

var errTruncated = errors.New("format: truncated metadata")

func (r *creader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errTruncated
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *creader) readVarint() (uint64, error) {
	var x uint64
	var s uint
	for {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		if b < 0x80 {
			return x | uint64(b)<<s, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
}

func (r *creader) readSlice(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, errTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// fieldHeader returns (fieldID, type, error); the end of a struct is
// reported as type ctStop. For bool types, type is ctTrue/ctFalse (the
// value is carried in the header itself).
func (r *creader) fieldHeader() (int16, byte, error) {
	top := len(r.lastID) - 1
	b, err := r.readByte()
	if err != nil {
		return 0, 0, err
	}
	if b == ctStop {
		return 0, ctStop, nil
	}
	typ := b & 0x0f
	delta := b >> 4
	var id int16
	if delta == 0 {
		v, err := r.readVarint()
		if err != nil {
			return 0, 0, err
		}
		id = int16(unzigzag64(v))
	} else {
		id = r.lastID[top] + int16(delta)
	}
	r.lastID[top] = id
	return id, typ, nil
}

func (r *creader) readI32() (int32, error) {
	v, err := r.readVarint()
	return int32(unzigzag64(v)), err
}

func (r *creader) readI64() (int64, error) {
	v, err := r.readVarint()
	return unzigzag64(v), err
}

func (r *creader) readBinary() ([]byte, error) {
	n, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	return r.readSlice(int(n))
}

func (r *creader) readListHeader() (elemType byte, size int, err error) {
	b, err := r.readByte()
	if err != nil {
		return 0, 0, err
	}
	elemType = b & 0x0f
	sz := int(b >> 4)
	if sz == 15 {
		v, err := r.readVarint()
		if err != nil {
			return 0, 0, err
		}
		sz = int(v)
	}
	return elemType, sz, nil
}

// skip discards the value for a field of the given type, used to tolerate
// unknown fields written by a future schema version.
func (r *creader) skip(typ byte) error {
	switch typ {
	case ctTrue, ctFalse:
		return nil
	case ctI32, ctI64:
		_, err := r.readVarint()
		return err
	case ctDouble:
		_, err := r.readSlice(8)
		return err
	case ctBinary:
		_, err := r.readBinary()
		return err
	case ctStruct:
		r.pushStruct()
		for {
			id, t, err := r.fieldHeader()
			_ = id
			if err != nil {
				return err
			}
			if t == ctStop {
				break
			}
			if err := r.skip(t); err != nil {
				return err
			}
		}
		r.popStruct()
		return nil
	case ctList:
		elemType, size, err := r.readListHeader()
		if err != nil {
			return err
		}
		for i := 0; i < size; i++ {
			if err := r.skip(elemType); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("format: unknown compact type tag %d", typ)
	}
}
