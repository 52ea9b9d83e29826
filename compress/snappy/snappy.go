// Package snappy adapts github.com/golang/snappy to compress.Codec.
package snappy

import (
	"github.com/golang/snappy"

	"github.com/gopq/gopq/compress"
)

func init() { compress.Register("SNAPPY", new(Codec)) }

// Codec implements compress.Codec using Snappy block compression.
type Codec struct{}

func (c *Codec) String() string { return "SNAPPY" }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	// snappy.Encode overwrites its dst argument rather than appending to
	// it, so it is handed nil and its fresh output is appended to dst.
	encoded := snappy.Encode(nil, src)
	return append(dst, encoded...), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	decoded, err := snappy.Decode(nil, src)
	if err != nil {
		return dst, err
	}
	return append(dst, decoded...), nil
}
