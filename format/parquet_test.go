package format_test

import (
	"reflect"
	"testing"

	"github.com/gopq/gopq/format"
)

func TestCompactCodecRoundTripFileMetaData(t *testing.T) {
	codec := format.CompactCodec{}
	numChildren := int32(1)
	rep := format.Required
	typ := format.ByteArray
	meta := &format.FileMetaData{
		Version: 1,
		Schema: []format.SchemaElement{
			{Name: "hello", NumChildren: &numChildren},
			{Name: "world", RepetitionType: &rep, Type: &typ},
		},
		NumRows:   0,
		RowGroups: []format.RowGroup{},
	}

	b, err := codec.EncodeFileMetaData(nil, meta)
	if err != nil {
		t.Fatal(err)
	}

	decoded, n, err := codec.DecodeFileMetaData(b)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(b) {
		t.Fatalf("consumed %d bytes, want %d", n, len(b))
	}
	if !reflect.DeepEqual(meta.Schema, decoded.Schema) {
		t.Errorf("schema mismatch:\nexpected %#v\nfound    %#v", meta.Schema, decoded.Schema)
	}
	if decoded.Version != meta.Version {
		t.Errorf("version mismatch: expected %d, found %d", meta.Version, decoded.Version)
	}
}

func TestCompactCodecRoundTripPageHeader(t *testing.T) {
	codec := format.CompactCodec{}
	hdr := &format.PageHeader{
		Type:                 format.DataPage,
		UncompressedPageSize: 128,
		CompressedPageSize:   96,
		DataPageHeader: &format.DataPageHeader{
			NumValues: 10,
			Encoding:  format.Plain,
		},
	}

	b, err := codec.EncodePageHeader(nil, hdr)
	if err != nil {
		t.Fatal(err)
	}

	decoded, n, err := codec.DecodePageHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(b) {
		t.Fatalf("consumed %d bytes, want %d", n, len(b))
	}
	if decoded.UncompressedPageSize != hdr.UncompressedPageSize || decoded.CompressedPageSize != hdr.CompressedPageSize {
		t.Errorf("size mismatch: expected %+v, found %+v", hdr, decoded)
	}
	if decoded.DataPageHeader == nil || decoded.DataPageHeader.NumValues != hdr.DataPageHeader.NumValues {
		t.Errorf("data page header mismatch: expected %+v, found %+v", hdr.DataPageHeader, decoded.DataPageHeader)
	}
}
