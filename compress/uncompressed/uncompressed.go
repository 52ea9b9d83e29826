// Package uncompressed provides the identity Codec used when a column's
// compression is configured as UNCOMPRESSED.
package uncompressed

import "github.com/gopq/gopq/compress"

func init() { compress.Register("UNCOMPRESSED", new(Codec)) }

// Codec implements compress.Codec as a no-op.
type Codec struct{}

func (c *Codec) String() string { return "UNCOMPRESSED" }

func (c *Codec) Encode(dst, src []byte) ([]byte, error) { return append(dst, src...), nil }

func (c *Codec) Decode(dst, src []byte) ([]byte, error) { return append(dst, src...), nil }
