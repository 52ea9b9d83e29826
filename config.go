package gopq

import "github.com/gopq/gopq/format"

const (
	defaultPageSize     = 1 << 20 // 1 MiB of PLAIN-encoded value bytes per page
	defaultRowGroupSize = 128 << 20
)

// WriterConfig controls how a Writer lays out row groups, pages, and
// compression. Use NewWriterConfig with WriterOption values to build one;
// the zero value is not valid on its own.
type WriterConfig struct {
	pageSize         int
	rowGroupSize     int64
	useDataPageV2    bool
	defaultCodec     format.CompressionCodec
	columnCodecs     map[string]format.CompressionCodec
	bloomFilterPaths map[string]bool
	createdBy        string
}

// WriterOption configures a WriterConfig.
type WriterOption func(*WriterConfig)

// NewWriterConfig builds a WriterConfig from a set of functional options,
// applying library defaults for anything left unset.
func NewWriterConfig(opts ...WriterOption) *WriterConfig {
	c := &WriterConfig{
		pageSize:         defaultPageSize,
		rowGroupSize:     defaultRowGroupSize,
		defaultCodec:     format.Uncompressed,
		columnCodecs:     map[string]format.CompressionCodec{},
		bloomFilterPaths: map[string]bool{},
		createdBy:        "gopq",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageSize sets the target size, in PLAIN-encoded value bytes, of each
// data page before it is flushed.
func PageSize(n int) WriterOption {
	return func(c *WriterConfig) { c.pageSize = n }
}

// RowGroupSize sets the approximate uncompressed byte size at which the
// writer closes the current row group and starts a new one.
func RowGroupSize(n int64) WriterOption {
	return func(c *WriterConfig) { c.rowGroupSize = n }
}

// UseDataPageV2 selects the V2 data page layout (levels stored
// uncompressed, ahead of the compressed value stream) instead of the V1
// layout (whole page body compressed as one unit).
func UseDataPageV2(v bool) WriterOption {
	return func(c *WriterConfig) { c.useDataPageV2 = v }
}

// Compression sets the default compression codec (e.g. format.Snappy,
// format.Gzip, format.Zstd, format.Brotli, format.Lz4Raw,
// format.Uncompressed) applied to every column that doesn't have a more
// specific ColumnCompression override.
func Compression(codec format.CompressionCodec) WriterOption {
	return func(c *WriterConfig) { c.defaultCodec = codec }
}

// ColumnCompression overrides the compression codec for a single leaf,
// addressed by its dotted path.
func ColumnCompression(path string, codec format.CompressionCodec) WriterOption {
	return func(c *WriterConfig) { c.columnCodecs[path] = codec }
}

// BloomFilter reserves a bloom filter region for the named leaf. See
// package bloomfilter.
func BloomFilter(path string) WriterOption {
	return func(c *WriterConfig) { c.bloomFilterPaths[path] = true }
}

// CreatedBy sets the FileMetaData.CreatedBy string.
func CreatedBy(s string) WriterOption {
	return func(c *WriterConfig) { c.createdBy = s }
}

func (c *WriterConfig) codecFor(path string) format.CompressionCodec {
	if cc, ok := c.columnCodecs[path]; ok {
		return cc
	}
	return c.defaultCodec
}

// ReaderConfig controls how a Reader projects and decodes columns.
type ReaderConfig struct {
	projection []string // dotted leaf paths; nil means all leaves
}

// ReaderOption configures a ReaderConfig.
type ReaderOption func(*ReaderConfig)

// NewReaderConfig builds a ReaderConfig from a set of functional options.
func NewReaderConfig(opts ...ReaderOption) *ReaderConfig {
	c := &ReaderConfig{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Project restricts reads to the named leaf columns (dotted paths). With
// no Project option, every leaf is read.
func Project(paths ...string) ReaderOption {
	return func(c *ReaderConfig) { c.projection = paths }
}
