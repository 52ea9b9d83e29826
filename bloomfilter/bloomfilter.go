// Package bloomfilter reserves a byte region for a future per-column
// bloom filter and tags it with an xxhash-derived seed so tooling can
// identify which column a reserved region belongs to. It does not
// implement split block filters; construction is explicitly out of scope
// (spec.md §4.6), only the reservation/offset contract is.
package bloomfilter

import "github.com/cespare/xxhash/v2"

// DefaultRegionSize is the size, in bytes, of a reserved placeholder
// region when the caller doesn't request a specific size.
const DefaultRegionSize = 1 << 15

// Reservation describes a placeholder bloom-filter region within a
// column chunk's trailing bytes.
type Reservation struct {
	Path string
	Size int
	Seed uint64
}

// Reserve computes the seed tag for path and returns a Reservation of size
// bytes (DefaultRegionSize when size <= 0). Its Bytes method renders the
// zero-filled region with the seed written as a big-endian uint64 in its
// first 8 bytes, so a reader can at least recover which column reserved it.
func Reserve(path string, size int) Reservation {
	if size <= 0 {
		size = DefaultRegionSize
	}
	seed := xxhash.Sum64String(path)
	return Reservation{Path: path, Size: size, Seed: seed}
}

// Bytes renders the reservation's placeholder region.
func (r Reservation) Bytes() []byte {
	buf := make([]byte, r.Size)
	for i := 0; i < 8 && i < r.Size; i++ {
		buf[i] = byte(r.Seed >> (8 * (7 - i)))
	}
	return buf
}

// SeedOf reads back the seed tag from a previously written reservation
// region, for tooling that wants to confirm which column it belongs to
// without a real filter implementation to query.
func SeedOf(region []byte) uint64 {
	var seed uint64
	for i := 0; i < 8 && i < len(region); i++ {
		seed = seed<<8 | uint64(region[i])
	}
	return seed
}
