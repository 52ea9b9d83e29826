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
	"github.com/gopq/gopq/encoding/plain"
	"github.com/gopq/gopq/encoding/rle"
	"github.com/gopq/gopq/format"
)

const footerLenFieldSize = 4

// ByteSource is the minimal random-access surface an envelope Reader needs
// over the underlying file. Implementations include *os.File (via
// internal/ioutil) and an in-memory bytes.Reader for tests.
type ByteSource interface {
	io.ReaderAt
	Size() (int64, error)
}

// Reader parses the Parquet envelope (magic, footer, row groups) and
// exposes schema and metadata; ReadAll and ReadRowGroup assemble records
// from the projected columns.
type Reader struct {
	src       ByteSource
	schema    *Schema
	meta      *format.FileMetaData
	metaCodec format.MetaCodec
}

// OpenReader validates the magic bytes at both ends of src, decodes the
// footer, and compiles the stored schema elements back into a Schema.
func OpenReader(src ByteSource) (*Reader, error) {
	size, err := src.Size()
	if err != nil {
		return nil, wrapIoError(err)
	}
	if size < int64(len(magic)*2+footerLenFieldSize) {
		return nil, newFormatError("file too small to be a Parquet file")
	}

	var head [4]byte
	if _, err := src.ReadAt(head[:], 0); err != nil {
		return nil, wrapIoError(err)
	}
	if head != magic {
		return nil, newFormatError("missing leading PAR1 magic")
	}

	var tail [4]byte
	if _, err := src.ReadAt(tail[:], size-4); err != nil {
		return nil, wrapIoError(err)
	}
	if tail != magic {
		return nil, newFormatError("missing trailing PAR1 magic")
	}

	var lenBuf [4]byte
	if _, err := src.ReadAt(lenBuf[:], size-4-footerLenFieldSize); err != nil {
		return nil, wrapIoError(err)
	}
	footerLen := int64(lenBuf[0]) | int64(lenBuf[1])<<8 | int64(lenBuf[2])<<16 | int64(lenBuf[3])<<24

	footerStart := size - 4 - footerLenFieldSize - footerLen
	if footerStart < int64(len(magic)) {
		return nil, newFormatError("footer length overruns file start")
	}
	footerBuf := make([]byte, footerLen)
	if _, err := src.ReadAt(footerBuf, footerStart); err != nil {
		return nil, wrapIoError(err)
	}

	metaCodec := format.CompactCodec{}
	meta, _, err := metaCodec.DecodeFileMetaData(footerBuf)
	if err != nil {
		return nil, wrapFormatError(err, "decoding file metadata")
	}

	schema, err := schemaFromFileMetaData(meta)
	if err != nil {
		return nil, err
	}

	return &Reader{src: src, schema: schema, meta: meta, metaCodec: metaCodec}, nil
}

// NumRows returns the total row count recorded in the footer.
func (r *Reader) NumRows() int64 { return r.meta.NumRows }

// Schema returns the compiled schema for this file.
func (r *Reader) Schema() *Schema { return r.schema }

// KeyValueMetadata returns the file's key/value metadata pairs in the
// order they were written, duplicates included.
func (r *Reader) KeyValueMetadata() []format.KeyValue { return r.meta.KeyValueMetadata }

// ReadAll decodes every row group and assembles the projected records.
// cfg may be nil to select every leaf.
func (r *Reader) ReadAll(cfg *ReaderConfig) ([]map[string]any, error) {
	if cfg == nil {
		cfg = NewReaderConfig()
	}
	wanted, err := r.projectedLeaves(cfg)
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	for rgIndex := range r.meta.RowGroups {
		recs, err := r.readRowGroupRecords(rgIndex, wanted)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

// NumRowGroups returns the number of row groups stored in the file.
func (r *Reader) NumRowGroups() int { return len(r.meta.RowGroups) }

// ReadRowGroup decodes and assembles the projected records of a single row
// group, without touching any other row group's column chunks. cfg may be
// nil to select every leaf. Used by parquetrange to stream a large file one
// row group at a time instead of materializing every record at once.
func (r *Reader) ReadRowGroup(i int, cfg *ReaderConfig) ([]map[string]any, error) {
	if i < 0 || i >= len(r.meta.RowGroups) {
		return nil, newInvalidInput("", "row group index %d out of range [0, %d)", i, len(r.meta.RowGroups))
	}
	if cfg == nil {
		cfg = NewReaderConfig()
	}
	wanted, err := r.projectedLeaves(cfg)
	if err != nil {
		return nil, err
	}
	return r.readRowGroupRecords(i, wanted)
}

func (r *Reader) readRowGroupRecords(rgIndex int, wanted map[int]bool) ([]map[string]any, error) {
	rg := &r.meta.RowGroups[rgIndex]
	columns, err := r.readRowGroupColumns(rg, wanted)
	if err != nil {
		return nil, err
	}
	return AssembleRecords(r.schema, columns)
}

func (r *Reader) projectedLeaves(cfg *ReaderConfig) (map[int]bool, error) {
	wanted := map[int]bool{}
	if len(cfg.projection) == 0 {
		for i := range r.schema.Leaves {
			wanted[i] = true
		}
		return wanted, nil
	}
	for _, path := range cfg.projection {
		n, err := r.schema.findField(splitPath(path))
		if err != nil {
			return nil, err
		}
		if n.IsGroup {
			for _, leaf := range r.schema.Leaves {
				if hasPrefix(leaf.Path, n.Path) {
					wanted[leaf.LeafIndex] = true
				}
			}
			continue
		}
		wanted[n.LeafIndex] = true
	}
	return wanted, nil
}

func hasPrefix(path, prefix []string) bool {
	if len(path) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if path[i] != p {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			out = append(out, path[start:i])
			start = i + 1
		}
	}
	return out
}

// readRowGroupColumns decodes the page streams of every wanted leaf in rg,
// returning a [][]Leveled indexed like schema.Leaves (nil for leaves not
// in wanted).
func (r *Reader) readRowGroupColumns(rg *format.RowGroup, wanted map[int]bool) ([][]Leveled, error) {
	out := make([][]Leveled, len(r.schema.Leaves))
	for i, cc := range rg.Columns {
		if !wanted[i] {
			continue
		}
		leaf := r.schema.Leaves[i]
		tuples, err := r.readColumnChunk(leaf, &cc)
		if err != nil {
			return nil, err
		}
		out[i] = tuples
	}
	return out, nil
}

func (r *Reader) readColumnChunk(leaf *SchemaNode, cc *format.ColumnChunk) ([]Leveled, error) {
	size := cc.MetaData.TotalCompressedSize
	buf := make([]byte, size)
	if _, err := r.src.ReadAt(buf, cc.FileOffset); err != nil {
		return nil, wrapIoError(err)
	}

	codec, err := compress.Lookup(cc.MetaData.Codec.String())
	if err != nil {
		return nil, wrapCodecError(cc.MetaData.Codec.String(), err)
	}

	var tuples []Leveled
	pos := 0
	for int64(len(tuples)) < cc.MetaData.NumValues && pos < len(buf) {
		hdr, n, err := r.metaCodec.DecodePageHeader(buf[pos:])
		if err != nil {
			return nil, wrapFormatError(err, "decoding page header for %q", leaf.PathString())
		}
		pos += n

		body := buf[pos : pos+int(hdr.CompressedPageSize)]
		pos += int(hdr.CompressedPageSize)

		decoded, err := decodePage(leaf, codec, hdr, body)
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, decoded...)
	}
	return tuples, nil
}

func decodePage(leaf *SchemaNode, codec compress.Codec, hdr *format.PageHeader, body []byte) ([]Leveled, error) {
	rWidth := rle.BitWidth(leaf.RLevelMax)
	dWidth := rle.BitWidth(leaf.DLevelMax)

	switch hdr.Type {
	case format.DataPageV2:
		h := hdr.DataPageHeaderV2
		rBytes := body[:h.RepetitionLevelsByteLength]
		dBytes := body[h.RepetitionLevelsByteLength : h.RepetitionLevelsByteLength+h.DefinitionLevelsByteLength]
		valueBytes := body[h.RepetitionLevelsByteLength+h.DefinitionLevelsByteLength:]
		if h.IsCompressed && codec.String() != "UNCOMPRESSED" {
			dv, err := codec.Decode(nil, valueBytes)
			if err != nil {
				return nil, wrapCodecError(codec.String(), err)
			}
			valueBytes = dv
		}
		return buildLeveled(leaf, int(h.NumValues), rWidth, dWidth, rBytes, dBytes, valueBytes)

	case format.DataPage:
		uncompressed := body
		if codec.String() != "UNCOMPRESSED" {
			dv, err := codec.Decode(nil, body)
			if err != nil {
				return nil, wrapCodecError(codec.String(), err)
			}
			uncompressed = dv
		}
		h := hdr.DataPageHeader
		rest := uncompressed
		var rBytes, dBytes []byte
		if rWidth > 0 {
			n, frame := readLengthPrefixed(rest)
			rBytes = frame
			rest = rest[n:]
		}
		if dWidth > 0 {
			n, frame := readLengthPrefixed(rest)
			dBytes = frame
			rest = rest[n:]
		}
		return buildLeveled(leaf, int(h.NumValues), rWidth, dWidth, rBytes, dBytes, rest)

	default:
		return nil, newFormatError("unsupported page type %v", hdr.Type)
	}
}

func readLengthPrefixed(src []byte) (consumed int, frame []byte) {
	d := plain.NewDecoder(src)
	n, _ := d.Int32()
	frame = src[4 : 4+int(n)]
	return 4 + int(n), frame
}

func buildLeveled(leaf *SchemaNode, numValues, rWidth, dWidth int, rBytes, dBytes, valueBytes []byte) ([]Leveled, error) {
	var rLevels, dLevels []int
	if rWidth > 0 {
		var err error
		rLevels, _, err = rle.Decode(rBytes, rWidth, numValues)
		if err != nil {
			return nil, wrapFormatError(err, "decoding repetition levels for %q", leaf.PathString())
		}
	} else {
		rLevels = make([]int, numValues)
	}
	if dWidth > 0 {
		var err error
		dLevels, _, err = rle.Decode(dBytes, dWidth, numValues)
		if err != nil {
			return nil, wrapFormatError(err, "decoding definition levels for %q", leaf.PathString())
		}
	} else {
		dLevels = make([]int, numValues)
		for i := range dLevels {
			dLevels[i] = leaf.DLevelMax
		}
	}

	dec := plain.NewDecoder(valueBytes)
	boolIdx := 0
	out := make([]Leveled, numValues)
	for i := 0; i < numValues; i++ {
		out[i].RLevel = rLevels[i]
		out[i].DLevel = dLevels[i]
		if dLevels[i] < leaf.DLevelMax {
			out[i].Value = Value{Kind: leaf.Primitive, Null: true}
			continue
		}
		if leaf.Primitive == format.Boolean {
			b, err := dec.Boolean(boolIdx)
			if err != nil {
				return nil, wrapFormatError(err, "decoding value for %q", leaf.PathString())
			}
			boolIdx++
			out[i].Value = BooleanValue(b)
			continue
		}
		v, err := decodeValue(leaf, dec)
		if err != nil {
			return nil, wrapFormatError(err, "decoding value for %q", leaf.PathString())
		}
		out[i].Value = v
	}
	return out, nil
}

func decodeValue(leaf *SchemaNode, dec *plain.Decoder) (Value, error) {
	switch leaf.Primitive {
	case format.Int32:
		v, err := dec.Int32()
		return Int32Value(v), err
	case format.Int64:
		v, err := dec.Int64()
		return Int64Value(v), err
	case format.Int96:
		v, err := dec.Int96()
		return Int96Value(v), err
	case format.Float:
		v, err := dec.Float()
		return FloatValue(v), err
	case format.Double:
		v, err := dec.Double()
		return DoubleValue(v), err
	case format.ByteArray:
		v, err := dec.ByteArray()
		return ByteArrayValue(v), err
	case format.FixedLenByteArray:
		v, err := dec.FixedLenByteArray(leaf.TypeLength)
		return FixedLenByteArrayValue(v), err
	default:
		return Value{}, newFormatError("unsupported primitive type %v", leaf.Primitive)
	}
}

// schemaFromFileMetaData reconstructs a Schema tree from the flattened,
// pre-order SchemaElement list stored in the footer.
func schemaFromFileMetaData(meta *format.FileMetaData) (*Schema, error) {
	if len(meta.Schema) == 0 {
		return nil, newFormatError("file metadata has no schema elements")
	}
	root := meta.Schema[0]
	s := &Schema{Name: root.Name, byPath: map[string]*SchemaNode{}}
	rootNode := &SchemaNode{Name: root.Name, IsGroup: true, Repetition: format.Required, LeafIndex: -1}
	s.Root = rootNode

	pos := 1
	var build func(parent *SchemaNode, n int) ([]*SchemaNode, error)
	build = func(parent *SchemaNode, n int) ([]*SchemaNode, error) {
		children := make([]*SchemaNode, 0, n)
		for i := 0; i < n; i++ {
			if pos >= len(meta.Schema) {
				return nil, newFormatError("schema element list truncated")
			}
			e := meta.Schema[pos]
			pos++

			node := &SchemaNode{
				Name:   e.Name,
				Parent: parent,
				Path:   append(append([]string{}, parent.Path...), e.Name),
			}
			if e.RepetitionType != nil {
				node.Repetition = *e.RepetitionType
			}
			node.RLevelMax = parent.RLevelMax
			if node.Repetition == format.Repeated {
				node.RLevelMax++
			}
			node.DLevelMax = parent.DLevelMax
			if node.Repetition != format.Required {
				node.DLevelMax++
			}

			if e.NumChildren != nil {
				node.IsGroup = true
				node.LeafIndex = -1
				kids, err := build(node, int(*e.NumChildren))
				if err != nil {
					return nil, err
				}
				node.Children = kids
			} else {
				node.Primitive = *e.Type
				if e.TypeLength != nil {
					node.TypeLength = int(*e.TypeLength)
				}
				if e.LogicalType != "" {
					lt := logicalTypes[string(e.LogicalType)]
					if e.Precision != nil {
						lt.precision = int(*e.Precision)
					}
					if e.Scale != nil {
						lt.scale = int(*e.Scale)
					}
					node.Logical = &lt
				}
			}
			children = append(children, node)
		}
		return children, nil
	}

	rootChildCount := 0
	if root.NumChildren != nil {
		rootChildCount = int(*root.NumChildren)
	}
	children, err := build(rootNode, rootChildCount)
	if err != nil {
		return nil, err
	}
	rootNode.Children = children
	flatten(rootNode, s)
	return s, nil
}
