package format

// Field IDs below are fixed per struct and mirror the shape (not
// necessarily the exact numbering) of the canonical parquet.thrift
// definitions; CompactCodec only needs to be self-consistent between
// Encode and Decode, since MetaCodec is an injected capability the core
// never interprets directly.

const (
	fidSchemaType           = 1
	fidSchemaTypeLength      = 2
	fidSchemaRepetitionType  = 3
	fidSchemaName            = 4
	fidSchemaNumChildren     = 5
	fidSchemaLogicalType     = 6
	fidSchemaPrecision       = 7
	fidSchemaScale           = 8

	fidStatsMin           = 1
	fidStatsMax           = 2
	fidStatsNullCount      = 3
	fidStatsDistinctCount  = 4

	fidKVKey   = 1
	fidKVValue = 2

	fidColMetaType      = 1
	fidColMetaEncodings  = 2
	fidColMetaPath       = 3
	fidColMetaCodec      = 4
	fidColMetaNumValues  = 5
	fidColMetaTotalUncompressedSize = 6
	fidColMetaTotalCompressedSize   = 7
	fidColMetaDataPageOffset        = 8
	fidColMetaStatistics            = 9
	fidColMetaBloomFilterOffset     = 10
	fidColMetaBloomFilterLength     = 11

	fidChunkFilePath   = 1
	fidChunkFileOffset = 2
	fidChunkMetaData   = 3

	fidRowGroupColumns       = 1
	fidRowGroupTotalByteSize = 2
	fidRowGroupNumRows       = 3
	fidRowGroupFileOffset    = 4
	fidRowGroupTotalCompressedSize = 5

	fidFileVersion   = 1
	fidFileSchema    = 2
	fidFileNumRows   = 3
	fidFileRowGroups = 4
	fidFileKeyValue  = 5
	fidFileCreatedBy = 6

	fidPageType                 = 1
	fidPageUncompressedPageSize = 2
	fidPageCompressedPageSize   = 3
	fidPageDataPageHeader       = 5
	fidPageDataPageHeaderV2     = 8

	fidDPHNumValues                = 1
	fidDPHEncoding                  = 2
	fidDPHDefinitionLevelEncoding   = 3
	fidDPHRepetitionLevelEncoding   = 4
	fidDPHStatistics                = 5

	fidDPH2NumValues                 = 1
	fidDPH2NumNulls                   = 2
	fidDPH2NumRows                    = 3
	fidDPH2Encoding                   = 4
	fidDPH2DefinitionLevelsByteLength = 5
	fidDPH2RepetitionLevelsByteLength = 6
	fidDPH2IsCompressed               = 7
	fidDPH2Statistics                 = 8
)

func (CompactCodec) EncodeFileMetaData(dst []byte, meta *FileMetaData) ([]byte, error) {
	w := &cwriter{buf: dst}
	w.pushStruct()
	w.writeI32(fidFileVersion, meta.Version)

	w.writeListHeader(fidFileSchema, ctStruct, len(meta.Schema))
	for i := range meta.Schema {
		encodeSchemaElement(w, &meta.Schema[i])
	}

	w.writeI64(fidFileNumRows, meta.NumRows)

	w.writeListHeader(fidFileRowGroups, ctStruct, len(meta.RowGroups))
	for i := range meta.RowGroups {
		encodeRowGroup(w, &meta.RowGroups[i])
	}

	if len(meta.KeyValueMetadata) > 0 {
		w.writeListHeader(fidFileKeyValue, ctStruct, len(meta.KeyValueMetadata))
		for _, kv := range meta.KeyValueMetadata {
			w.pushStruct()
			w.writeString(fidKVKey, kv.Key)
			w.writeString(fidKVValue, kv.Value)
			w.stop()
			w.popStruct()
		}
	}

	w.writeString(fidFileCreatedBy, meta.CreatedBy)
	w.stop()
	w.popStruct()
	return w.buf, nil
}

func encodeSchemaElement(w *cwriter, e *SchemaElement) {
	w.pushStruct()
	if e.Type != nil {
		w.writeI32(fidSchemaType, int32(*e.Type))
	}
	if e.TypeLength != nil {
		w.writeI32(fidSchemaTypeLength, *e.TypeLength)
	}
	if e.RepetitionType != nil {
		w.writeI32(fidSchemaRepetitionType, int32(*e.RepetitionType))
	}
	w.writeString(fidSchemaName, e.Name)
	if e.NumChildren != nil {
		w.writeI32(fidSchemaNumChildren, *e.NumChildren)
	}
	if e.LogicalType != "" {
		w.writeString(fidSchemaLogicalType, string(e.LogicalType))
	}
	if e.Precision != nil {
		w.writeI32(fidSchemaPrecision, *e.Precision)
	}
	if e.Scale != nil {
		w.writeI32(fidSchemaScale, *e.Scale)
	}
	w.stop()
	w.popStruct()
}

// encodeStatisticsBody writes Statistics fields onto a struct frame the
// caller has already pushed (beginStructField pushes one) and emits the
// struct's stop byte; the caller only pops the frame afterwards.
func encodeStatisticsBody(w *cwriter, s *Statistics) {
	if s.HasMinMax {
		w.writeBinary(fidStatsMin, s.MinValue)
		w.writeBinary(fidStatsMax, s.MaxValue)
	}
	w.writeI64(fidStatsNullCount, s.NullCount)
	w.writeI64(fidStatsDistinctCount, s.DistinctCount)
	w.stop()
}

func encodeColumnChunk(w *cwriter, c *ColumnChunk) {
	w.pushStruct()
	if c.FilePath != "" {
		w.writeString(fidChunkFilePath, c.FilePath)
	}
	w.writeI64(fidChunkFileOffset, c.FileOffset)
	w.beginStructField(fidChunkMetaData)
	encodeColumnMetaDataBody(w, &c.MetaData)
	w.popStruct()
	w.stop()
	w.popStruct()
}

func encodeColumnMetaDataBody(w *cwriter, c *ColumnMetaData) {
	w.writeI32(fidColMetaType, int32(c.Type))

	w.writeListHeader(fidColMetaEncodings, ctI32, len(c.Encodings))
	for _, e := range c.Encodings {
		w.buf = appendVarint(w.buf, zigzag64(int64(e)))
	}

	w.writeListHeader(fidColMetaPath, ctBinary, len(c.PathInSchema))
	for _, p := range c.PathInSchema {
		w.buf = appendVarint(w.buf, uint64(len(p)))
		w.buf = append(w.buf, p...)
	}

	w.writeI32(fidColMetaCodec, int32(c.Codec))
	w.writeI64(fidColMetaNumValues, c.NumValues)
	w.writeI64(fidColMetaTotalUncompressedSize, c.TotalUncompressedSize)
	w.writeI64(fidColMetaTotalCompressedSize, c.TotalCompressedSize)
	w.writeI64(fidColMetaDataPageOffset, c.DataPageOffset)

	w.beginStructField(fidColMetaStatistics)
	encodeStatisticsBody(w, &c.Statistics)
	w.popStruct()

	if c.BloomFilterOffset != nil {
		w.writeI64(fidColMetaBloomFilterOffset, *c.BloomFilterOffset)
	}
	if c.BloomFilterLength != nil {
		w.writeI32(fidColMetaBloomFilterLength, *c.BloomFilterLength)
	}
	w.stop()
}

func encodeRowGroup(w *cwriter, rg *RowGroup) {
	w.pushStruct()
	w.writeListHeader(fidRowGroupColumns, ctStruct, len(rg.Columns))
	for i := range rg.Columns {
		encodeColumnChunk(w, &rg.Columns[i])
	}
	w.writeI64(fidRowGroupTotalByteSize, rg.TotalByteSize)
	w.writeI64(fidRowGroupNumRows, rg.NumRows)
	w.writeI64(fidRowGroupFileOffset, rg.FileOffset)
	w.writeI64(fidRowGroupTotalCompressedSize, rg.TotalCompressedSize)
	w.stop()
	w.popStruct()
}

func (CompactCodec) EncodePageHeader(dst []byte, hdr *PageHeader) ([]byte, error) {
	w := &cwriter{buf: dst}
	w.pushStruct()
	w.writeI32(fidPageType, int32(hdr.Type))
	w.writeI32(fidPageUncompressedPageSize, hdr.UncompressedPageSize)
	w.writeI32(fidPageCompressedPageSize, hdr.CompressedPageSize)

	if hdr.DataPageHeader != nil {
		w.beginStructField(fidPageDataPageHeader)
		dph := hdr.DataPageHeader
		w.writeI32(fidDPHNumValues, dph.NumValues)
		w.writeI32(fidDPHEncoding, int32(dph.Encoding))
		w.writeI32(fidDPHDefinitionLevelEncoding, int32(dph.DefinitionLevelEncoding))
		w.writeI32(fidDPHRepetitionLevelEncoding, int32(dph.RepetitionLevelEncoding))
		w.beginStructField(fidDPHStatistics)
		encodeStatisticsBody(w, &dph.Statistics)
		w.popStruct()
		w.stop()
		w.popStruct()
	}

	if hdr.DataPageHeaderV2 != nil {
		w.beginStructField(fidPageDataPageHeaderV2)
		dph := hdr.DataPageHeaderV2
		w.writeI32(fidDPH2NumValues, dph.NumValues)
		w.writeI32(fidDPH2NumNulls, dph.NumNulls)
		w.writeI32(fidDPH2NumRows, dph.NumRows)
		w.writeI32(fidDPH2Encoding, int32(dph.Encoding))
		w.writeI32(fidDPH2DefinitionLevelsByteLength, dph.DefinitionLevelsByteLength)
		w.writeI32(fidDPH2RepetitionLevelsByteLength, dph.RepetitionLevelsByteLength)
		w.writeBool(fidDPH2IsCompressed, dph.IsCompressed)
		w.beginStructField(fidDPH2Statistics)
		encodeStatisticsBody(w, &dph.Statistics)
		w.popStruct()
		w.stop()
		w.popStruct()
	}

	w.stop()
	w.popStruct()
	return w.buf, nil
}

// ---- decode ----

func (CompactCodec) DecodeFileMetaData(src []byte) (*FileMetaData, int, error) {
	r := &creader{buf: src}
	r.pushStruct()
	meta := &FileMetaData{}
	for {
		id, typ, err := r.fieldHeader()
		if err != nil {
			return nil, 0, wrapDecodeErr(err)
		}
		if typ == ctStop {
			break
		}
		switch id {
		case fidFileVersion:
			meta.Version, err = r.readI32()
		case fidFileSchema:
			_, n, e := r.readListHeader()
			err = e
			if err == nil {
				meta.Schema = make([]SchemaElement, n)
				for i := 0; i < n && err == nil; i++ {
					err = decodeSchemaElement(r, &meta.Schema[i])
				}
			}
		case fidFileNumRows:
			meta.NumRows, err = r.readI64()
		case fidFileRowGroups:
			_, n, e := r.readListHeader()
			err = e
			if err == nil {
				meta.RowGroups = make([]RowGroup, n)
				for i := 0; i < n && err == nil; i++ {
					err = decodeRowGroup(r, &meta.RowGroups[i])
				}
			}
		case fidFileKeyValue:
			_, n, e := r.readListHeader()
			err = e
			if err == nil {
				meta.KeyValueMetadata = make([]KeyValue, n)
				for i := 0; i < n && err == nil; i++ {
					err = decodeKeyValue(r, &meta.KeyValueMetadata[i])
				}
			}
		case fidFileCreatedBy:
			var b []byte
			b, err = r.readBinary()
			meta.CreatedBy = string(b)
		default:
			err = r.skip(typ)
		}
		if err != nil {
			return nil, 0, wrapDecodeErr(err)
		}
	}
	r.popStruct()
	return meta, r.pos, nil
}

func decodeSchemaElement(r *creader, e *SchemaElement) error {
	r.pushStruct()
	defer r.popStruct()
	for {
		id, typ, err := r.fieldHeader()
		if err != nil {
			return err
		}
		if typ == ctStop {
			return nil
		}
		switch id {
		case fidSchemaType:
			v, err := r.readI32()
			if err != nil {
				return err
			}
			t := Type(v)
			e.Type = &t
		case fidSchemaTypeLength:
			v, err := r.readI32()
			if err != nil {
				return err
			}
			e.TypeLength = &v
		case fidSchemaRepetitionType:
			v, err := r.readI32()
			if err != nil {
				return err
			}
			rt := FieldRepetitionType(v)
			e.RepetitionType = &rt
		case fidSchemaName:
			b, err := r.readBinary()
			if err != nil {
				return err
			}
			e.Name = string(b)
		case fidSchemaNumChildren:
			v, err := r.readI32()
			if err != nil {
				return err
			}
			e.NumChildren = &v
		case fidSchemaLogicalType:
			b, err := r.readBinary()
			if err != nil {
				return err
			}
			e.LogicalType = LogicalTypeName(b)
		case fidSchemaPrecision:
			v, err := r.readI32()
			if err != nil {
				return err
			}
			e.Precision = &v
		case fidSchemaScale:
			v, err := r.readI32()
			if err != nil {
				return err
			}
			e.Scale = &v
		default:
			if err := r.skip(typ); err != nil {
				return err
			}
		}
	}
}

func decodeStatisticsBody(r *creader, s *Statistics) error {
	for {
		id, typ, err := r.fieldHeader()
		if err != nil {
			return err
		}
		if typ == ctStop {
			return nil
		}
		switch id {
		case fidStatsMin:
			s.MinValue, err = r.readBinary()
			s.HasMinMax = true
		case fidStatsMax:
			s.MaxValue, err = r.readBinary()
			s.HasMinMax = true
		case fidStatsNullCount:
			s.NullCount, err = r.readI64()
		case fidStatsDistinctCount:
			s.DistinctCount, err = r.readI64()
		default:
			err = r.skip(typ)
		}
		if err != nil {
			return err
		}
	}
}

func decodeKeyValue(r *creader, kv *KeyValue) error {
	r.pushStruct()
	defer r.popStruct()
	for {
		id, typ, err := r.fieldHeader()
		if err != nil {
			return err
		}
		if typ == ctStop {
			return nil
		}
		var b []byte
		switch id {
		case fidKVKey:
			b, err = r.readBinary()
			kv.Key = string(b)
		case fidKVValue:
			b, err = r.readBinary()
			kv.Value = string(b)
		default:
			err = r.skip(typ)
		}
		if err != nil {
			return err
		}
	}
}

func decodeColumnMetaDataBody(r *creader, c *ColumnMetaData) error {
	for {
		id, typ, err := r.fieldHeader()
		if err != nil {
			return err
		}
		if typ == ctStop {
			return nil
		}
		switch id {
		case fidColMetaType:
			v, e := r.readI32()
			c.Type, err = Type(v), e
		case fidColMetaEncodings:
			_, n, e := r.readListHeader()
			err = e
			if err == nil {
				c.Encodings = make([]Encoding, n)
				for i := 0; i < n && err == nil; i++ {
					v, e := r.readI32()
					c.Encodings[i] = Encoding(v)
					err = e
				}
			}
		case fidColMetaPath:
			_, n, e := r.readListHeader()
			err = e
			if err == nil {
				c.PathInSchema = make([]string, n)
				for i := 0; i < n && err == nil; i++ {
					b, e := r.readBinary()
					c.PathInSchema[i] = string(b)
					err = e
				}
			}
		case fidColMetaCodec:
			v, e := r.readI32()
			c.Codec, err = CompressionCodec(v), e
		case fidColMetaNumValues:
			c.NumValues, err = r.readI64()
		case fidColMetaTotalUncompressedSize:
			c.TotalUncompressedSize, err = r.readI64()
		case fidColMetaTotalCompressedSize:
			c.TotalCompressedSize, err = r.readI64()
		case fidColMetaDataPageOffset:
			c.DataPageOffset, err = r.readI64()
		case fidColMetaStatistics:
			r.pushStruct()
			err = decodeStatisticsBody(r, &c.Statistics)
			r.popStruct()
		case fidColMetaBloomFilterOffset:
			v, e := r.readI64()
			c.BloomFilterOffset, err = &v, e
		case fidColMetaBloomFilterLength:
			v, e := r.readI32()
			c.BloomFilterLength, err = &v, e
		default:
			err = r.skip(typ)
		}
		if err != nil {
			return err
		}
	}
}

func decodeColumnChunk(r *creader, c *ColumnChunk) error {
	r.pushStruct()
	defer r.popStruct()
	for {
		id, typ, err := r.fieldHeader()
		if err != nil {
			return err
		}
		if typ == ctStop {
			return nil
		}
		switch id {
		case fidChunkFilePath:
			b, e := r.readBinary()
			c.FilePath, err = string(b), e
		case fidChunkFileOffset:
			c.FileOffset, err = r.readI64()
		case fidChunkMetaData:
			r.pushStruct()
			err = decodeColumnMetaDataBody(r, &c.MetaData)
			r.popStruct()
		default:
			err = r.skip(typ)
		}
		if err != nil {
			return err
		}
	}
}

func decodeRowGroup(r *creader, rg *RowGroup) error {
	r.pushStruct()
	defer r.popStruct()
	for {
		id, typ, err := r.fieldHeader()
		if err != nil {
			return err
		}
		if typ == ctStop {
			return nil
		}
		switch id {
		case fidRowGroupColumns:
			_, n, e := r.readListHeader()
			err = e
			if err == nil {
				rg.Columns = make([]ColumnChunk, n)
				for i := 0; i < n && err == nil; i++ {
					err = decodeColumnChunk(r, &rg.Columns[i])
				}
			}
		case fidRowGroupTotalByteSize:
			rg.TotalByteSize, err = r.readI64()
		case fidRowGroupNumRows:
			rg.NumRows, err = r.readI64()
		case fidRowGroupFileOffset:
			rg.FileOffset, err = r.readI64()
		case fidRowGroupTotalCompressedSize:
			rg.TotalCompressedSize, err = r.readI64()
		default:
			err = r.skip(typ)
		}
		if err != nil {
			return err
		}
	}
}

func (CompactCodec) DecodePageHeader(src []byte) (*PageHeader, int, error) {
	r := &creader{buf: src}
	r.pushStruct()
	hdr := &PageHeader{}
	for {
		id, typ, err := r.fieldHeader()
		if err != nil {
			return nil, 0, wrapDecodeErr(err)
		}
		if typ == ctStop {
			break
		}
		switch id {
		case fidPageType:
			v, e := r.readI32()
			hdr.Type, err = PageType(v), e
		case fidPageUncompressedPageSize:
			hdr.UncompressedPageSize, err = r.readI32()
		case fidPageCompressedPageSize:
			hdr.CompressedPageSize, err = r.readI32()
		case fidPageDataPageHeader:
			dph := &DataPageHeader{}
			r.pushStruct()
			err = decodeDataPageHeaderBody(r, dph)
			r.popStruct()
			if err == nil {
				hdr.DataPageHeader = dph
			}
		case fidPageDataPageHeaderV2:
			dph := &DataPageHeaderV2{}
			r.pushStruct()
			err = decodeDataPageHeaderV2Body(r, dph)
			r.popStruct()
			if err == nil {
				hdr.DataPageHeaderV2 = dph
			}
		default:
			err = r.skip(typ)
		}
		if err != nil {
			return nil, 0, wrapDecodeErr(err)
		}
	}
	r.popStruct()
	return hdr, r.pos, nil
}

func decodeDataPageHeaderBody(r *creader, dph *DataPageHeader) error {
	for {
		id, typ, err := r.fieldHeader()
		if err != nil {
			return err
		}
		if typ == ctStop {
			return nil
		}
		switch id {
		case fidDPHNumValues:
			dph.NumValues, err = r.readI32()
		case fidDPHEncoding:
			v, e := r.readI32()
			dph.Encoding, err = Encoding(v), e
		case fidDPHDefinitionLevelEncoding:
			v, e := r.readI32()
			dph.DefinitionLevelEncoding, err = Encoding(v), e
		case fidDPHRepetitionLevelEncoding:
			v, e := r.readI32()
			dph.RepetitionLevelEncoding, err = Encoding(v), e
		case fidDPHStatistics:
			r.pushStruct()
			err = decodeStatisticsBody(r, &dph.Statistics)
			r.popStruct()
		default:
			err = r.skip(typ)
		}
		if err != nil {
			return err
		}
	}
}

func decodeDataPageHeaderV2Body(r *creader, dph *DataPageHeaderV2) error {
	for {
		id, typ, err := r.fieldHeader()
		if err != nil {
			return err
		}
		if typ == ctStop {
			return nil
		}
		switch id {
		case fidDPH2NumValues:
			dph.NumValues, err = r.readI32()
		case fidDPH2NumNulls:
			dph.NumNulls, err = r.readI32()
		case fidDPH2NumRows:
			dph.NumRows, err = r.readI32()
		case fidDPH2Encoding:
			v, e := r.readI32()
			dph.Encoding, err = Encoding(v), e
		case fidDPH2DefinitionLevelsByteLength:
			dph.DefinitionLevelsByteLength, err = r.readI32()
		case fidDPH2RepetitionLevelsByteLength:
			dph.RepetitionLevelsByteLength, err = r.readI32()
		case fidDPH2IsCompressed:
			dph.IsCompressed = typ == ctTrue
		case fidDPH2Statistics:
			r.pushStruct()
			err = decodeStatisticsBody(r, &dph.Statistics)
			r.popStruct()
		default:
			err = r.skip(typ)
		}
		if err != nil {
			return err
		}
	}
}

func wrapDecodeErr(err error) error {
	return &decodeError{err}
}

type decodeError struct{ cause error }

func (e *decodeError) Error() string { return "format: decode: " + e.cause.Error() }
func (e *decodeError) Unwrap() error { return e.cause }
