// Package brotli adapts github.com/andybalholm/brotli to compress.Codec.
package brotli

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/gopq/gopq/compress"
)

func init() { compress.Register("BROTLI", new(Codec)) }

// Codec implements compress.Codec using Brotli at the library's default
// quality level.
type Codec struct{}

func (c *Codec) String() string { return "BROTLI" }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w := brotli.NewWriter(buf)
	if _, err := w.Write(src); err != nil {
		return dst, err
	}
	if err := w.Close(); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(src))
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, r); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}
