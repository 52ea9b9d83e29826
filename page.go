package gopq

import (
	"github.com/gopq/gopq/compress"
	"github.com/gopq/gopq/encoding/plain"
	"github.com/gopq/gopq/encoding/rle"
	"github.com/gopq/gopq/format"
)

// pageBuilder accumulates Leveled tuples for one leaf column and flushes
// them into data pages before the pending PLAIN-encoded value bytes would
// exceed pageSize. It never splits a single value across two pages.
type pageBuilder struct {
	leaf     *SchemaNode
	codec    compress.Codec
	useV2    bool
	pageSize int

	rLevels   []int
	dLevels   []int
	values    []byte
	numVals   int
	numNull   int
	boolIndex int // running index into values for bit-packed BOOLEAN PLAIN encoding

	stats columnStats
}

func newPageBuilder(leaf *SchemaNode, codec compress.Codec, useV2 bool, pageSize int) *pageBuilder {
	return &pageBuilder{leaf: leaf, codec: codec, useV2: useV2, pageSize: pageSize}
}

// Add appends one leveled tuple to the builder's pending page, flushing a
// completed page first when the pending value bytes would otherwise exceed
// pageSize. Returns the page produced, if any.
func (b *pageBuilder) Add(t Leveled) (*builtPage, error) {
	var flushed *builtPage
	newBytes := 0
	if t.DLevel >= b.leaf.DLevelMax && !t.Value.Null {
		if b.leaf.Primitive != format.Boolean {
			newBytes = len(t.Value.AppendPlain(nil))
		} else if b.boolIndex%8 == 0 {
			newBytes = 1
		}
	}
	if b.numVals > 0 && len(b.values)+newBytes > b.pageSize {
		p, err := b.flush()
		if err != nil {
			return nil, err
		}
		flushed = p
	}

	b.rLevels = append(b.rLevels, t.RLevel)
	b.dLevels = append(b.dLevels, t.DLevel)
	b.numVals++
	if t.DLevel < b.leaf.DLevelMax || t.Value.Null {
		b.numNull++
		b.stats.nullCount++
	} else if b.leaf.Primitive == format.Boolean {
		b.values = plain.AppendBoolean(b.values, b.boolIndex, t.Value.Boolean())
		b.boolIndex++
		b.stats.observe(t.Value)
	} else {
		b.values = t.Value.AppendPlain(b.values)
		b.stats.observe(t.Value)
	}
	return flushed, nil
}

// Flush forces out any pending page, used at end of row group.
func (b *pageBuilder) Flush() (*builtPage, error) {
	if b.numVals == 0 {
		return nil, nil
	}
	return b.flush()
}

type builtPage struct {
	header      format.PageHeader
	body        []byte
	stats       columnStats
	numValues   int
	numNulls    int
}

func (b *pageBuilder) flush() (*builtPage, error) {
	rWidth := rle.BitWidth(b.leaf.RLevelMax)
	dWidth := rle.BitWidth(b.leaf.DLevelMax)

	var rBytes, dBytes []byte
	if rWidth > 0 {
		enc := rle.NewEncoder(rWidth)
		for _, v := range b.rLevels {
			enc.Append(v)
		}
		rBytes = enc.Bytes(nil)
	}
	if dWidth > 0 {
		enc := rle.NewEncoder(dWidth)
		for _, v := range b.dLevels {
			enc.Append(v)
		}
		dBytes = enc.Bytes(nil)
	}

	page := &builtPage{stats: b.stats, numValues: b.numVals, numNulls: b.numNull}

	if b.useV2 {
		uncompressed := b.values
		compressedValues := uncompressed
		isCompressed := false
		if b.codec != nil && b.codec.String() != "UNCOMPRESSED" {
			c, err := b.codec.Encode(nil, uncompressed)
			if err != nil {
				return nil, wrapCodecError(b.codec.String(), err)
			}
			compressedValues = c
			isCompressed = true
		}

		body := append(append([]byte{}, rBytes...), dBytes...)
		body = append(body, compressedValues...)

		hdr := format.PageHeader{
			Type:                 format.DataPageV2,
			UncompressedPageSize: int32(len(rBytes) + len(dBytes) + len(uncompressed)),
			CompressedPageSize:   int32(len(rBytes) + len(dBytes) + len(compressedValues)),
			DataPageHeaderV2: &format.DataPageHeaderV2{
				NumValues:                  int32(b.numVals),
				NumNulls:                   int32(b.numNull),
				NumRows:                    int32(countRowBoundaries(b.rLevels)),
				Encoding:                   format.Plain,
				DefinitionLevelsByteLength: int32(len(dBytes)),
				RepetitionLevelsByteLength: int32(len(rBytes)),
				IsCompressed:               isCompressed,
				Statistics:                 b.stats.toStatistics(),
			},
		}
		page.header = hdr
		page.body = body
	} else {
		// V1 framing: levels and values are concatenated (each level
		// section carries a 4-byte length prefix per Parquet's v1
		// convention), then the whole body is compressed as one unit.
		var uncompressed []byte
		if rWidth > 0 {
			uncompressed = appendLengthPrefixed(uncompressed, rBytes)
		}
		if dWidth > 0 {
			uncompressed = appendLengthPrefixed(uncompressed, dBytes)
		}
		uncompressed = append(uncompressed, b.values...)

		compressedBody := uncompressed
		if b.codec != nil && b.codec.String() != "UNCOMPRESSED" {
			c, err := b.codec.Encode(nil, uncompressed)
			if err != nil {
				return nil, wrapCodecError(b.codec.String(), err)
			}
			compressedBody = c
		}

		hdr := format.PageHeader{
			Type:                 format.DataPage,
			UncompressedPageSize: int32(len(uncompressed)),
			CompressedPageSize:   int32(len(compressedBody)),
			DataPageHeader: &format.DataPageHeader{
				NumValues:               int32(b.numVals),
				Encoding:                format.Plain,
				DefinitionLevelEncoding: format.RLE,
				RepetitionLevelEncoding: format.RLE,
				Statistics:              b.stats.toStatistics(),
			},
		}
		page.header = hdr
		page.body = compressedBody
	}

	b.rLevels = b.rLevels[:0]
	b.dLevels = b.dLevels[:0]
	b.values = b.values[:0]
	b.numVals, b.numNull = 0, 0
	b.boolIndex = 0
	b.stats = columnStats{}

	return page, nil
}

func appendLengthPrefixed(dst, src []byte) []byte {
	dst = plain.AppendInt32(dst, int32(len(src)))
	return append(dst, src...)
}

func countRowBoundaries(rLevels []int) int {
	n := 0
	for _, r := range rLevels {
		if r == 0 {
			n++
		}
	}
	return n
}

// columnStats tracks the running min/max/null-count/distinct-count needed
// for a page's (or a chunk's, after merging) Statistics.
type columnStats struct {
	hasMinMax bool
	min       Value
	max       Value
	nullCount int64
	distinct  map[string]struct{}
}

const distinctCap = 4096 // stop tracking exact distinct values beyond this many

func (s *columnStats) observe(v Value) {
	if !s.hasMinMax {
		s.min, s.max, s.hasMinMax = v, v, true
	} else {
		if Compare(v, s.min) < 0 {
			s.min = v
		}
		if Compare(v, s.max) > 0 {
			s.max = v
		}
	}
	if s.distinct == nil {
		s.distinct = map[string]struct{}{}
	}
	if len(s.distinct) <= distinctCap {
		s.distinct[v.EncodedRepresentation()] = struct{}{}
	}
}

func (s *columnStats) merge(o columnStats) {
	if o.hasMinMax {
		if !s.hasMinMax || Compare(o.min, s.min) < 0 {
			s.min = o.min
		}
		if !s.hasMinMax || Compare(o.max, s.max) > 0 {
			s.max = o.max
		}
		s.hasMinMax = true
	}
	s.nullCount += o.nullCount
	if s.distinct == nil {
		s.distinct = map[string]struct{}{}
	}
	for k := range o.distinct {
		if len(s.distinct) > distinctCap {
			break
		}
		s.distinct[k] = struct{}{}
	}
}

func (s *columnStats) toStatistics() format.Statistics {
	st := format.Statistics{NullCount: s.nullCount, HasMinMax: s.hasMinMax}
	if s.hasMinMax {
		st.MinValue = s.min.AppendPlain(nil)
		st.MaxValue = s.max.AppendPlain(nil)
	}
	if s.distinct != nil && len(s.distinct) <= distinctCap {
		st.DistinctCount = int64(len(s.distinct))
	}
	return st
}
