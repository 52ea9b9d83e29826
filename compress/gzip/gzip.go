// Package gzip adapts github.com/klauspost/compress/gzip to compress.Codec.
package gzip

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/gopq/gopq/compress"
)

func init() { compress.Register("GZIP", new(Codec)) }

// Codec implements compress.Codec using DEFLATE via klauspost/compress.
type Codec struct{}

func (c *Codec) String() string { return "GZIP" }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w := gzip.NewWriter(buf)
	if _, err := w.Write(src); err != nil {
		return dst, err
	}
	if err := w.Close(); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return dst, err
	}
	defer r.Close()
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, r); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}
