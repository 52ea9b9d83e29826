// Package compress defines the Codec capability injected into column chunk
// writers and readers, and provides adapters over the compression libraries
// the Parquet ecosystem commonly relies on.
//
// The core page engine never implements compression itself; it calls
// Encode/Decode on whichever Codec is attached to a leaf's schema node.
package compress

import "fmt"

// Codec compresses and decompresses page bodies. Implementations must be
// safe to reuse across many pages of the same column chunk but need not be
// safe for concurrent use by multiple goroutines.
type Codec interface {
	// String returns the name used in the Parquet format's CompressionCodec
	// enum (e.g. "SNAPPY", "GZIP", "UNCOMPRESSED").
	String() string

	// Encode appends the compressed form of src to dst and returns the
	// extended slice.
	Encode(dst, src []byte) ([]byte, error)

	// Decode appends the decompressed form of src to dst and returns the
	// extended slice.
	Decode(dst, src []byte) ([]byte, error)
}

// ErrCodecNotFound is returned by Lookup when no codec is registered under
// the requested name.
type ErrCodecNotFound struct{ Name string }

func (e *ErrCodecNotFound) Error() string {
	return fmt.Sprintf("compress: no codec registered for %q", e.Name)
}

var registry = map[string]Codec{}

// Register installs a codec under name, overwriting any previous
// registration. Subpackages call this from an init function so that
// importing them for side effects is enough to make them available to
// Lookup.
func Register(name string, codec Codec) { registry[name] = codec }

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, error) {
	if c, ok := registry[name]; ok {
		return c, nil
	}
	return nil, &ErrCodecNotFound{Name: name}
}
