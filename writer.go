package gopq

import (
	"io"

	"github.com/gopq/gopq/compress"
	_ "github.com/gopq/gopq/compress/brotli"
	_ "github.com/gopq/gopq/compress/gzip"
	_ "github.com/gopq/gopq/compress/lz4"
	_ "github.com/gopq/gopq/compress/snappy"
	_ "github.com/gopq/gopq/compress/uncompressed"
	_ "github.com/gopq/gopq/compress/zstd"
	"github.com/gopq/gopq/format"
)

var magic = [4]byte{'P', 'A', 'R', '1'}

// Writer assembles rows into row groups and serializes them into the
// Parquet file layout: magic, column chunk bytes, FileMetaData, a
// little-endian footer length, and a closing magic.
//
// A Writer is not safe for concurrent use. Once Abort or Close has been
// called the Writer is poisoned and every subsequent WriteRow or Close
// returns an error.
type Writer struct {
	dst       io.WriteCloser
	schema    *Schema
	cfg       *WriterConfig
	metaCodec format.MetaCodec

	offset    int64
	rowGroups []format.RowGroup
	kv        []format.KeyValue

	group *rowGroupBuilder

	poisoned bool
	poison   error
}

// NewWriter creates a Writer over dst for records matching schema. The
// Writer takes ownership of dst and closes it from Close or Abort; callers
// must not close dst themselves.
func NewWriter(dst io.WriteCloser, schema *Schema, cfg *WriterConfig) (*Writer, error) {
	if cfg == nil {
		cfg = NewWriterConfig()
	}
	w := &Writer{dst: dst, schema: schema, cfg: cfg, metaCodec: format.CompactCodec{}}
	n, err := w.write(magic[:])
	if err != nil {
		return nil, err
	}
	w.offset += int64(n)
	w.group = newRowGroupBuilder(schema, cfg, w.metaCodec, w.offset)
	return w, nil
}

// SetMetadata appends a key/value pair to the file's KeyValueMetadata.
// Duplicate keys are allowed, mirroring Parquet's own footer semantics.
func (w *Writer) SetMetadata(key, value string) {
	w.kv = append(w.kv, format.KeyValue{Key: key, Value: value})
}

// WriteRow shreds record against the schema and appends it to the current
// row group, rolling over to a new row group once RowGroupSize is
// exceeded.
func (w *Writer) WriteRow(record map[string]any) error {
	if w.poisoned {
		return w.poison
	}
	tuples, err := ShredRecord(w.schema, record)
	if err != nil {
		w.fail(err)
		return err
	}
	if err := w.group.addRow(tuples); err != nil {
		w.fail(err)
		return err
	}
	if w.group.uncompressedSize() >= w.cfg.rowGroupSize {
		if err := w.flushRowGroup(); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes the pending row group and writes the file footer. It is
// an error to call Close more than once or after Abort.
func (w *Writer) Close() error {
	if w.poisoned {
		return w.poison
	}
	if w.group.numRows() > 0 {
		if err := w.flushRowGroup(); err != nil {
			return err
		}
	}

	meta := &format.FileMetaData{
		Version:          1,
		Schema:           w.schema.ToFileSchema(),
		NumRows:          totalRows(w.rowGroups),
		RowGroups:        w.rowGroups,
		KeyValueMetadata: w.kv,
		CreatedBy:        w.cfg.createdBy,
	}
	var buf []byte
	buf, err := w.metaCodec.EncodeFileMetaData(buf, meta)
	if err != nil {
		w.fail(err)
		return wrapFormatError(err, "encoding file metadata")
	}
	if _, err := w.write(buf); err != nil {
		return err
	}

	footerLen := uint32(len(buf))
	lenBytes := []byte{byte(footerLen), byte(footerLen >> 8), byte(footerLen >> 16), byte(footerLen >> 24)}
	if _, err := w.write(lenBytes); err != nil {
		return err
	}
	if _, err := w.write(magic[:]); err != nil {
		return err
	}

	w.fail(newFormatError("writer already closed"))
	return nil
}

// Abort poisons the Writer without writing a footer, leaving dst holding
// an unreadable partial file, then releases dst. Use this when a caller
// decides mid-stream that the output should be discarded rather than
// finalized.
func (w *Writer) Abort(cause error) {
	if cause == nil {
		cause = newFormatError("writer aborted")
	}
	w.fail(cause)
}

// fail poisons the Writer and releases dst. It is the single path by which
// the Writer's sink is closed, whether triggered by a write error, Abort,
// or a successful Close.
func (w *Writer) fail(err error) {
	if !w.poisoned {
		w.poisoned = true
		w.poison = err
		w.dst.Close()
	}
}

func (w *Writer) flushRowGroup() error {
	rg, err := w.group.finish(w.offset)
	if err != nil {
		w.fail(err)
		return err
	}
	n, err := w.write(rg.bytes)
	if err != nil {
		return err
	}
	w.offset += int64(n)
	w.rowGroups = append(w.rowGroups, rg.meta)
	w.group = newRowGroupBuilder(w.schema, w.cfg, w.metaCodec, w.offset)
	return nil
}

func (w *Writer) write(b []byte) (int, error) {
	n, err := w.dst.Write(b)
	if err != nil {
		wrapped := wrapIoError(err)
		w.fail(wrapped)
		return n, wrapped
	}
	return n, nil
}

func totalRows(rgs []format.RowGroup) int64 {
	var n int64
	for _, rg := range rgs {
		n += rg.NumRows
	}
	return n
}

// rowGroupBuilder accumulates one row group's worth of per-column pages.
type rowGroupBuilder struct {
	schema  *Schema
	cfg     *WriterConfig
	columns []*columnChunkWriter
	rows    int64
}

func newRowGroupBuilder(schema *Schema, cfg *WriterConfig, metaCodec format.MetaCodec, baseOffset int64) *rowGroupBuilder {
	columns := make([]*columnChunkWriter, len(schema.Leaves))
	for i, leaf := range schema.Leaves {
		codecName := cfg.codecFor(leaf.PathString())
		codec, err := compress.Lookup(codecName.String())
		if err != nil {
			codec, _ = compress.Lookup("UNCOMPRESSED")
		}
		columns[i] = newColumnChunkWriter(leaf, codec, codecName, metaCodec, cfg.useDataPageV2, cfg.pageSize, cfg.bloomFilterPaths[leaf.PathString()])
	}
	return &rowGroupBuilder{schema: schema, cfg: cfg, columns: columns}
}

func (b *rowGroupBuilder) addRow(tuples [][]Leveled) error {
	for i, col := range tuples {
		for _, t := range col {
			if err := b.columns[i].Add(t); err != nil {
				return err
			}
		}
	}
	b.rows++
	return nil
}

func (b *rowGroupBuilder) numRows() int64 { return b.rows }

// uncompressedSize estimates the row group's size so far (flushed pages
// plus the value bytes still pending in each column's page builder), used
// to decide when to roll over to a new row group.
func (b *rowGroupBuilder) uncompressedSize() int64 {
	var n int64
	for _, c := range b.columns {
		n += c.totalUncompressedSize + int64(len(c.pages.values))
	}
	return n
}

type finishedRowGroup struct {
	meta  format.RowGroup
	bytes []byte
}

func (b *rowGroupBuilder) finish(baseOffset int64) (finishedRowGroup, error) {
	var buf []byte
	rg := format.RowGroup{FileOffset: baseOffset, NumRows: b.rows}
	for _, c := range b.columns {
		meta, chunkBytes, err := c.Finish()
		if err != nil {
			return finishedRowGroup{}, err
		}
		chunkOffset := baseOffset + int64(len(buf))
		meta.DataPageOffset = chunkOffset
		if meta.BloomFilterOffset != nil {
			absolute := chunkOffset + *meta.BloomFilterOffset
			meta.BloomFilterOffset = &absolute
		}
		rg.Columns = append(rg.Columns, format.ColumnChunk{FileOffset: chunkOffset, MetaData: meta})
		rg.TotalByteSize += meta.TotalUncompressedSize
		rg.TotalCompressedSize += meta.TotalCompressedSize
		buf = append(buf, chunkBytes...)
	}
	return finishedRowGroup{meta: rg, bytes: buf}, nil
}
