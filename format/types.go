// Package format defines the on-disk metadata structures of a Parquet file
// (file metadata, schema elements, row groups, column chunks, page headers,
// statistics) and the MetaCodec capability used to serialize them.
//
// The core writer/reader treat MetaCodec as an injected, opaque capability;
// this package additionally ships CompactCodec, a concrete implementation
// in the style of Thrift's compact protocol, grounded on the varint/zigzag
// framing a generic Thrift decoder would use.
package format

// Type mirrors Parquet's physical type enum.
type Type int32

const (
	Boolean Type = iota
	Int32
	Int64
	Int96
	Float
	Double
	ByteArray
	FixedLenByteArray
)

func (t Type) String() string {
	switch t {
	case Boolean:
		return "BOOLEAN"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Int96:
		return "INT96"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case ByteArray:
		return "BYTE_ARRAY"
	case FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

// FieldRepetitionType mirrors Parquet's repetition enum.
type FieldRepetitionType int32

const (
	Required FieldRepetitionType = iota
	Optional
	Repeated
)

func (r FieldRepetitionType) String() string {
	switch r {
	case Required:
		return "REQUIRED"
	case Optional:
		return "OPTIONAL"
	case Repeated:
		return "REPEATED"
	default:
		return "UNKNOWN"
	}
}

// Encoding mirrors Parquet's value-encoding enum. This library only emits
// PLAIN and RLE (the latter for levels and V2 booleans).
type Encoding int32

const (
	Plain Encoding = iota
	RLE
)

func (e Encoding) String() string {
	switch e {
	case Plain:
		return "PLAIN"
	case RLE:
		return "RLE"
	default:
		return "UNKNOWN"
	}
}

// CompressionCodec mirrors Parquet's compression enum.
type CompressionCodec int32

const (
	Uncompressed CompressionCodec = iota
	Snappy
	Gzip
	Lz4Raw
	Brotli
	Zstd
)

func (c CompressionCodec) String() string {
	switch c {
	case Uncompressed:
		return "UNCOMPRESSED"
	case Snappy:
		return "SNAPPY"
	case Gzip:
		return "GZIP"
	case Lz4Raw:
		return "LZ4_RAW"
	case Brotli:
		return "BROTLI"
	case Zstd:
		return "ZSTD"
	default:
		return "UNKNOWN"
	}
}

// PageType mirrors Parquet's page-type enum. Dictionary pages are never
// emitted by this library (PLAIN-only), but the tag exists so a reader can
// recognize and reject a dictionary page it encounters in a foreign file.
type PageType int32

const (
	DataPage PageType = iota
	IndexPage
	DictionaryPage
	DataPageV2
)

// LogicalTypeName identifies a Parquet logical type annotation.
type LogicalTypeName string

const (
	UTF8             LogicalTypeName = "UTF8"
	Date             LogicalTypeName = "DATE"
	TimestampMicros  LogicalTypeName = "TIMESTAMP_MICROS"
	TimestampMillis  LogicalTypeName = "TIMESTAMP_MILLIS"
	Interval         LogicalTypeName = "INTERVAL"
	Bson             LogicalTypeName = "BSON"
	Json             LogicalTypeName = "JSON"
	Decimal          LogicalTypeName = "DECIMAL"
)

// KeyValue is one entry of FileMetaData.KeyValueMetadata.
type KeyValue struct {
	Key   string
	Value string
}

// SchemaElement is the flattened, pre-order serialization of one SchemaNode.
type SchemaElement struct {
	Type           *Type
	TypeLength     *int32
	RepetitionType *FieldRepetitionType
	Name           string
	NumChildren    *int32
	LogicalType    LogicalTypeName
	Precision      *int32
	Scale          *int32
}

// Statistics holds per-page or per-chunk value statistics. MinValue and
// MaxValue carry the PLAIN-encoded representation of the bound, matching
// the comparison rule of the column's physical type.
type Statistics struct {
	MinValue     []byte
	MaxValue     []byte
	NullCount    int64
	DistinctCount int64
	HasMinMax    bool
}

// DataPageHeader carries the V1 data page metadata.
type DataPageHeader struct {
	NumValues             int32
	Encoding               Encoding
	DefinitionLevelEncoding Encoding
	RepetitionLevelEncoding Encoding
	Statistics             Statistics
}

// DataPageHeaderV2 carries the V2 data page metadata.
type DataPageHeaderV2 struct {
	NumValues                 int32
	NumNulls                   int32
	NumRows                    int32
	Encoding                   Encoding
	DefinitionLevelsByteLength int32
	RepetitionLevelsByteLength int32
	IsCompressed               bool
	Statistics                 Statistics
}

// PageHeader is the envelope preceding every page's body bytes.
type PageHeader struct {
	Type                 PageType
	UncompressedPageSize int32
	CompressedPageSize   int32
	DataPageHeader       *DataPageHeader
	DataPageHeaderV2     *DataPageHeaderV2
}

// ColumnMetaData describes one column chunk.
type ColumnMetaData struct {
	Type                  Type
	Encodings             []Encoding
	PathInSchema          []string
	Codec                 CompressionCodec
	NumValues             int64
	TotalUncompressedSize int64
	TotalCompressedSize   int64
	DataPageOffset        int64
	Statistics            Statistics
	BloomFilterOffset     *int64
	BloomFilterLength     *int32
}

// ColumnChunk points at one column's metadata, either inline or (not used
// by this writer) in a separate file.
type ColumnChunk struct {
	FilePath   string
	FileOffset int64
	MetaData   ColumnMetaData
}

// RowGroup is the set of column chunks covering the same record range.
type RowGroup struct {
	Columns        []ColumnChunk
	TotalByteSize  int64
	NumRows        int64
	FileOffset     int64
	TotalCompressedSize int64
}

// FileMetaData is the complete footer of a Parquet file.
type FileMetaData struct {
	Version          int32
	Schema           []SchemaElement
	NumRows          int64
	RowGroups        []RowGroup
	KeyValueMetadata []KeyValue
	CreatedBy        string
}
