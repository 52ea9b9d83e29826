package gopq

import (
	"github.com/gopq/gopq/bloomfilter"
	"github.com/gopq/gopq/compress"
	"github.com/gopq/gopq/format"
)

// columnChunkWriter accumulates the pages of one leaf column for a single
// row group, serializing each page header through the MetaCodec as it is
// produced and keeping a running chunk-level Statistics merge.
type columnChunkWriter struct {
	leaf        *SchemaNode
	codec       compress.Codec
	codecName   format.CompressionCodec
	metaCodec   format.MetaCodec
	reserveBloom bool
	pages       *pageBuilder

	buf                   []byte
	numValues             int64
	totalUncompressedSize int64
	totalCompressedSize   int64
	stats                 columnStats
}

func newColumnChunkWriter(leaf *SchemaNode, codec compress.Codec, codecName format.CompressionCodec, metaCodec format.MetaCodec, useV2 bool, pageSize int, reserveBloom bool) *columnChunkWriter {
	return &columnChunkWriter{
		leaf:         leaf,
		codec:        codec,
		codecName:    codecName,
		metaCodec:    metaCodec,
		reserveBloom: reserveBloom,
		pages:        newPageBuilder(leaf, codec, useV2, pageSize),
	}
}

func (w *columnChunkWriter) Add(t Leveled) error {
	p, err := w.pages.Add(t)
	if err != nil {
		return err
	}
	if p != nil {
		return w.appendPage(p)
	}
	return nil
}

// Finish flushes any pending page and returns the completed ColumnMetaData
// (DataPageOffset and BloomFilterOffset are relative to the start of this
// chunk's bytes; the writer makes them absolute when laying out the file).
// The sizes cover every byte of the chunk: page headers, page bodies, and
// any reserved bloom filter region.
func (w *columnChunkWriter) Finish() (format.ColumnMetaData, []byte, error) {
	p, err := w.pages.Flush()
	if err != nil {
		return format.ColumnMetaData{}, nil, err
	}
	if p != nil {
		if err := w.appendPage(p); err != nil {
			return format.ColumnMetaData{}, nil, err
		}
	}

	meta := format.ColumnMetaData{
		Type:                  w.leaf.Primitive,
		Encodings:             []format.Encoding{format.Plain, format.RLE},
		PathInSchema:          w.leaf.Path,
		Codec:                 w.codecName,
		NumValues:             w.numValues,
		TotalUncompressedSize: w.totalUncompressedSize,
		TotalCompressedSize:   w.totalCompressedSize,
		DataPageOffset:        0,
		Statistics:            w.stats.toStatistics(),
	}

	if w.reserveBloom {
		res := bloomfilter.Reserve(w.leaf.PathString(), bloomfilter.DefaultRegionSize)
		offset := int64(len(w.buf))
		w.buf = append(w.buf, res.Bytes()...)
		length := int32(res.Size)
		meta.BloomFilterOffset = &offset
		meta.BloomFilterLength = &length
		meta.TotalUncompressedSize += int64(res.Size)
		meta.TotalCompressedSize += int64(res.Size)
	}

	return meta, w.buf, nil
}

func (w *columnChunkWriter) appendPage(p *builtPage) error {
	hdr := p.header
	var err error
	start := len(w.buf)
	w.buf, err = w.metaCodec.EncodePageHeader(w.buf, &hdr)
	if err != nil {
		return wrapFormatError(err, "encoding page header for %q", w.leaf.PathString())
	}
	hdrLen := int64(len(w.buf) - start)
	w.buf = append(w.buf, p.body...)

	w.numValues += int64(p.numValues)
	w.totalUncompressedSize += hdrLen + int64(hdr.UncompressedPageSize)
	w.totalCompressedSize += hdrLen + int64(hdr.CompressedPageSize)
	w.stats.merge(p.stats)
	return nil
}
