package compress_test

import (
	"bytes"
	"testing"

	"github.com/gopq/gopq/compress"
	"github.com/gopq/gopq/compress/brotli"
	"github.com/gopq/gopq/compress/gzip"
	"github.com/gopq/gopq/compress/lz4"
	"github.com/gopq/gopq/compress/snappy"
	"github.com/gopq/gopq/compress/uncompressed"
	"github.com/gopq/gopq/compress/zstd"
)

var tests = [...]struct {
	scenario string
	codec    compress.Codec
}{
	{scenario: "uncompressed", codec: new(uncompressed.Codec)},
	{scenario: "snappy", codec: new(snappy.Codec)},
	{scenario: "gzip", codec: new(gzip.Codec)},
	{scenario: "brotli", codec: new(brotli.Codec)},
	{scenario: "zstd", codec: new(zstd.Codec)},
	{scenario: "lz4", codec: new(lz4.Codec)},
}

var testdata = bytes.Repeat([]byte("1234567890qwertyuiopasdfghjklzxcvbnm"), 10e3)

func TestCompressionCodecRoundTrip(t *testing.T) {
	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			const N = 10
			var buffer, output []byte
			for i := range N {
				var err error

				buffer, err = test.codec.Encode(buffer[:0], testdata)
				if err != nil {
					t.Fatal(err)
				}

				output, err = test.codec.Decode(output[:0], buffer)
				if err != nil {
					t.Fatal(err)
				}

				if !bytes.Equal(testdata, output) {
					t.Errorf("content mismatch after compressing and decompressing (attempt %d/%d)", i+1, N)
				}
			}
		})
	}
}

func TestCompressionCodecName(t *testing.T) {
	for _, test := range tests {
		if test.codec.String() == "" {
			t.Errorf("%s: codec reports an empty name", test.scenario)
		}
	}
}

func TestLookupRegistered(t *testing.T) {
	for _, name := range []string{"UNCOMPRESSED", "SNAPPY", "GZIP", "BROTLI", "ZSTD", "LZ4_RAW"} {
		if _, err := compress.Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := compress.Lookup("NOT_A_CODEC"); err == nil {
		t.Fatal("expected an error for an unregistered codec name")
	}
}

func BenchmarkEncode(b *testing.B) {
	buffer := make([]byte, 0, len(testdata))
	for _, test := range tests {
		b.Run(test.scenario, func(b *testing.B) {
			b.SetBytes(int64(len(testdata)))
			for range b.N {
				buffer, _ = test.codec.Encode(buffer[:0], testdata)
			}
		})
	}
}

func BenchmarkDecode(b *testing.B) {
	buffer := make([]byte, 0, len(testdata))
	output := make([]byte, 0, len(testdata))
	for _, test := range tests {
		b.Run(test.scenario, func(b *testing.B) {
			buffer, _ = test.codec.Encode(buffer[:0], testdata)
			b.SetBytes(int64(len(testdata)))
			for range b.N {
				output, _ = test.codec.Decode(output[:0], buffer)
			}
		})
	}
}
