package gopq

import (
	"bytes"
	"testing"
)

// memSink adapts a *bytes.Buffer to io.WriteCloser for round-tripping a
// Writer's output straight into an in-memory Reader.
type memSink struct{ *bytes.Buffer }

func (memSink) Close() error { return nil }

// memSource adapts a *bytes.Reader to ByteSource.
type memSource struct{ *bytes.Reader }

func (r memSource) Size() (int64, error) { return int64(r.Reader.Len()), nil }

func fruitRecords() []map[string]any {
	return []map[string]any{
		{
			"name":     "apples",
			"quantity": 10,
			"colour":   []any{"green", "red"},
			"stock": []any{
				map[string]any{"q": 10, "w": "A"},
				map[string]any{"q": 20, "w": "B"},
			},
		},
		{
			"name":   "kiwi",
			"colour": []any{"green"},
			"stock": []any{
				map[string]any{"q": 42, "w": "f"},
			},
		},
		{
			"name":   "banana",
			"colour": []any{"yellow"},
		},
	}
}

func writeFruitFile(t *testing.T, cfg *WriterConfig) []byte {
	t.Helper()
	schema := fruitSchema(t)
	var buf bytes.Buffer
	w, err := NewWriter(memSink{&buf}, schema, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range fruitRecords() {
		if err := w.WriteRow(rec); err != nil {
			w.Abort(err)
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestWriterCloseReleasesTheSink(t *testing.T) {
	schema := fruitSchema(t)
	var buf bytes.Buffer
	closed := false
	sink := closeTrackingSink{Buffer: &buf, closed: &closed}
	w, err := NewWriter(sink, schema, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if !closed {
		t.Error("Writer.Close did not close its sink")
	}
}

type closeTrackingSink struct {
	*bytes.Buffer
	closed *bool
}

func (s closeTrackingSink) Close() error {
	*s.closed = true
	return nil
}

func TestWriterAbortReleasesTheSink(t *testing.T) {
	schema := fruitSchema(t)
	var buf bytes.Buffer
	closed := false
	sink := closeTrackingSink{Buffer: &buf, closed: &closed}
	w, err := NewWriter(sink, schema, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Abort(nil)
	if !closed {
		t.Error("Writer.Abort did not close its sink")
	}
	if err := w.WriteRow(map[string]any{"name": "x"}); err == nil {
		t.Error("expected WriteRow to fail on a poisoned (aborted) Writer")
	}
}

func TestFileBeginsAndEndsWithTheMagicMarker(t *testing.T) {
	data := writeFruitFile(t, NewWriterConfig())
	if len(data) < 8 {
		t.Fatalf("file is only %d bytes", len(data))
	}
	if string(data[:4]) != "PAR1" {
		t.Errorf("leading magic = %q, want PAR1", data[:4])
	}
	if string(data[len(data)-4:]) != "PAR1" {
		t.Errorf("trailing magic = %q, want PAR1", data[len(data)-4:])
	}
}

func TestRoundTripThroughWriterAndReaderPreservesFruitSet(t *testing.T) {
	data := writeFruitFile(t, NewWriterConfig())
	r, err := OpenReader(memSource{bytes.NewReader(data)})
	if err != nil {
		t.Fatal(err)
	}
	if r.NumRows() != 3 {
		t.Fatalf("NumRows() = %d, want 3", r.NumRows())
	}

	records, err := r.ReadAll(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0]["name"] != "apples" {
		t.Errorf("records[0][name] = %v, want apples", records[0]["name"])
	}
	if _, ok := records[2]["quantity"]; ok {
		t.Errorf("banana record should omit \"quantity\", got %v", records[2]["quantity"])
	}
	if _, ok := records[2]["stock"]; ok {
		t.Errorf("banana record should omit \"stock\", got %v", records[2]["stock"])
	}
}

func TestRoundTripAcrossMultipleRowGroups(t *testing.T) {
	data := writeFruitFile(t, NewWriterConfig(RowGroupSize(1)))
	r, err := OpenReader(memSource{bytes.NewReader(data)})
	if err != nil {
		t.Fatal(err)
	}
	if r.NumRowGroups() < 2 {
		t.Fatalf("NumRowGroups() = %d, want at least 2 for this test to be meaningful", r.NumRowGroups())
	}
	records, err := r.ReadAll(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records across row groups, want 3", len(records))
	}
}

func TestReaderProjectionOmitsUnselectedColumns(t *testing.T) {
	data := writeFruitFile(t, NewWriterConfig())
	r, err := OpenReader(memSource{bytes.NewReader(data)})
	if err != nil {
		t.Fatal(err)
	}
	records, err := r.ReadAll(NewReaderConfig(Project("name")))
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		if len(rec) != 1 {
			t.Fatalf("record = %v, want only the projected \"name\" field", rec)
		}
		if _, ok := rec["name"]; !ok {
			t.Error("expected \"name\" to be present under projection")
		}
	}
}

func TestColumnChunkOffsetsDoNotOverlap(t *testing.T) {
	data := writeFruitFile(t, NewWriterConfig())
	r, err := OpenReader(memSource{bytes.NewReader(data)})
	if err != nil {
		t.Fatal(err)
	}
	for _, rg := range r.meta.RowGroups {
		var chunks []struct{ start, end int64 }
		for _, cc := range rg.Columns {
			chunks = append(chunks, struct{ start, end int64 }{cc.FileOffset, cc.FileOffset + cc.MetaData.TotalCompressedSize})
		}
		for i := 0; i < len(chunks); i++ {
			for j := i + 1; j < len(chunks); j++ {
				a, b := chunks[i], chunks[j]
				if a.start < b.end && b.start < a.end {
					t.Errorf("column chunks %d and %d overlap: [%d,%d) vs [%d,%d)", i, j, a.start, a.end, b.start, b.end)
				}
			}
		}
	}
}

func TestBloomFilterReservationOffsetFallsWithinItsChunk(t *testing.T) {
	data := writeFruitFile(t, NewWriterConfig(BloomFilter("name")))
	r, err := OpenReader(memSource{bytes.NewReader(data)})
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, rg := range r.meta.RowGroups {
		for _, cc := range rg.Columns {
			if cc.MetaData.BloomFilterOffset == nil {
				continue
			}
			found = true
			off := *cc.MetaData.BloomFilterOffset
			length := int64(*cc.MetaData.BloomFilterLength)
			chunkStart := cc.FileOffset
			chunkEnd := chunkStart + cc.MetaData.TotalCompressedSize
			if off < chunkStart || off+length > chunkEnd {
				t.Errorf("bloom filter region [%d,%d) falls outside its chunk [%d,%d)", off, off+length, chunkStart, chunkEnd)
			}
		}
	}
	if !found {
		t.Error("expected at least one column chunk to carry a bloom filter reservation")
	}
}

func TestWriteRowRejectsATypeMismatchWithoutCorruptingTheStream(t *testing.T) {
	schema := fruitSchema(t)
	var buf bytes.Buffer
	w, err := NewWriter(memSink{&buf}, schema, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteRow(map[string]any{"name": "ok"}); err != nil {
		t.Fatal(err)
	}
	err = w.WriteRow(map[string]any{"name": []int32{1, 2, 3}})
	if err == nil {
		t.Fatal("expected an error writing a row whose \"name\" is an unsupported typed slice")
	}
	if writeErr := w.WriteRow(map[string]any{"name": "after-failure"}); writeErr == nil {
		t.Error("expected the Writer to stay poisoned after a mid-stream shredding error")
	}
}
