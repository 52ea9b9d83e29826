// Package parquetrange provides range-over-func iterators over a gopq
// Reader, so a large file's row groups can be streamed one at a time
// instead of assembled into memory all at once via Reader.ReadAll.
package parquetrange

import (
	"iter"

	"github.com/gopq/gopq"
)

// RowGroups iterates the row groups of reader in order, yielding each row
// group's assembled records. cfg may be nil to select every column.
func RowGroups(reader *gopq.Reader, cfg *gopq.ReaderConfig) iter.Seq2[[]map[string]any, error] {
	return func(yield func([]map[string]any, error) bool) {
		for i := 0; i < reader.NumRowGroups(); i++ {
			records, err := reader.ReadRowGroup(i, cfg)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(records, nil) {
				return
			}
		}
	}
}

// Flatten adapts a row-group iterator into a per-record iterator.
func Flatten(seq iter.Seq2[[]map[string]any, error]) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for records, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, rec := range records {
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

// Records iterates every record of reader, row group by row group. It is
// equivalent to Flatten(RowGroups(reader, cfg)) but reads more naturally at
// call sites that only need one record at a time.
func Records(reader *gopq.Reader, cfg *gopq.ReaderConfig) iter.Seq2[map[string]any, error] {
	return Flatten(RowGroups(reader, cfg))
}
