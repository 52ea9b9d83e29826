// Package zstd adapts github.com/klauspost/compress/zstd to compress.Codec.
package zstd

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/gopq/gopq/compress"
)

func init() { compress.Register("ZSTD", new(Codec)) }

// Codec implements compress.Codec using zstd. Encoders/decoders are
// expensive to construct, so the codec lazily builds and reuses one of
// each.
type Codec struct {
	encOnce sync.Once
	enc     *zstd.Encoder
	decOnce sync.Once
	dec     *zstd.Decoder
}

func (c *Codec) String() string { return "ZSTD" }

func (c *Codec) encoder() *zstd.Encoder {
	c.encOnce.Do(func() {
		c.enc, _ = zstd.NewWriter(nil)
	})
	return c.enc
}

func (c *Codec) decoder() *zstd.Decoder {
	c.decOnce.Do(func() {
		c.dec, _ = zstd.NewReader(nil)
	})
	return c.dec
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return c.encoder().EncodeAll(src, dst), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return c.decoder().DecodeAll(src, dst)
}
