// Package lz4 adapts github.com/pierrec/lz4/v4 to compress.Codec.
package lz4

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/gopq/gopq/compress"
)

func init() { compress.Register("LZ4_RAW", new(Codec)) }

// Codec implements compress.Codec using the LZ4 frame format.
type Codec struct {
	// Level sets the LZ4 compression level; the zero value selects the
	// library default.
	Level lz4.CompressionLevel
}

func (c *Codec) String() string { return "LZ4_RAW" }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w := lz4.NewWriter(buf)
	if err := w.Apply(lz4.CompressionLevelOption(c.Level)); err != nil {
		return dst, err
	}
	if _, err := w.Write(src); err != nil {
		return dst, err
	}
	if err := w.Close(); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, r); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}
