package gopq

import (
	"reflect"
	"testing"
)

func fruitSchema(t *testing.T) *Schema {
	t.Helper()
	schema, err := BuildSchema("fruit", []FieldDecl{
		{Name: "name", Type: "UTF8"},
		{Name: "quantity", Type: "INT32", Optional: true},
		{Name: "colour", Type: "UTF8", Repeated: true},
		{Name: "stock", Repeated: true, Fields: []FieldDecl{
			{Name: "q", Type: "INT32"},
			{Name: "w", Type: "UTF8"},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return schema
}

func leafIndex(t *testing.T, schema *Schema, path string) int {
	t.Helper()
	for _, leaf := range schema.Leaves {
		if leaf.PathString() == path {
			return leaf.LeafIndex
		}
	}
	t.Fatalf("no leaf %q in schema", path)
	return -1
}

func TestShredRecordRequiredField(t *testing.T) {
	schema := fruitSchema(t)
	tuples, err := ShredRecord(schema, map[string]any{
		"name":  "apples",
		"colour": []any{"green", "red"},
		"stock": []any{
			map[string]any{"q": 10, "w": "A"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	nameLeaf := leafIndex(t, schema, "name")
	if got := tuples[nameLeaf]; len(got) != 1 || got[0].Value.Bytes() == nil {
		t.Fatalf("name tuples = %+v, want one non-null tuple", got)
	}
	if rl, dl := tuples[nameLeaf][0].RLevel, tuples[nameLeaf][0].DLevel; rl != 0 || dl != 0 {
		t.Errorf("name: rLevel/dLevel = %d/%d, want 0/0 (required, top-level)", rl, dl)
	}
}

func TestShredRecordMissingRequiredFieldFails(t *testing.T) {
	schema := fruitSchema(t)
	_, err := ShredRecord(schema, map[string]any{
		"colour": []any{"green"},
	})
	if err == nil {
		t.Fatal("expected an error for a missing required field")
	}
}

func TestShredRecordOptionalFieldAbsentEmitsNullAtLowerDLevel(t *testing.T) {
	schema := fruitSchema(t)
	tuples, err := ShredRecord(schema, map[string]any{
		"name":  "kiwi",
		"colour": []any{"green"},
	})
	if err != nil {
		t.Fatal(err)
	}

	quantityLeaf := leafIndex(t, schema, "quantity")
	got := tuples[quantityLeaf]
	if len(got) != 1 {
		t.Fatalf("quantity tuples = %+v, want exactly one null placeholder tuple", got)
	}
	if !got[0].Value.Null {
		t.Errorf("quantity: expected a null placeholder when the field is absent")
	}
	quantityNode := schema.byPath["quantity"]
	if got[0].DLevel != quantityNode.DLevelMax-1 {
		t.Errorf("quantity: dLevel = %d, want %d (one less than max, since the field itself is absent)", got[0].DLevel, quantityNode.DLevelMax-1)
	}
}

func TestShredRecordRepeatedFieldAbsentEmitsNoOccurrences(t *testing.T) {
	schema := fruitSchema(t)
	tuples, err := ShredRecord(schema, map[string]any{
		"name": "banana",
	})
	if err != nil {
		t.Fatal(err)
	}

	stockQLeaf := leafIndex(t, schema, "stock.q")
	got := tuples[stockQLeaf]
	if len(got) != 1 {
		t.Fatalf("stock.q tuples = %+v, want exactly one null placeholder tuple for the missing repeated group", got)
	}
	if !got[0].Value.Null {
		t.Errorf("stock.q: expected a null placeholder when the repeated group is absent")
	}
}

func TestShredRecordRepeatedScalarSugarIsSingleElementList(t *testing.T) {
	schema := fruitSchema(t)
	tuples, err := ShredRecord(schema, map[string]any{
		"name":  "banana",
		"colour": "yellow", // bare scalar, sugar for a single-element list
	})
	if err != nil {
		t.Fatal(err)
	}

	colourLeaf := leafIndex(t, schema, "colour")
	got := tuples[colourLeaf]
	if len(got) != 1 {
		t.Fatalf("colour tuples = %+v, want exactly one element", got)
	}
	if string(got[0].Value.Bytes()) != "yellow" {
		t.Errorf("colour[0] = %q, want %q", got[0].Value.Bytes(), "yellow")
	}
}

func TestExpandStructOfListsMatchesListOfStructs(t *testing.T) {
	schema := fruitSchema(t)

	listOfStructs, err := ShredRecord(schema, map[string]any{
		"name": "oranges",
		"stock": []any{
			map[string]any{"q": 50, "w": "X"},
			map[string]any{"q": 33, "w": "X"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	structOfLists, err := ShredRecord(schema, map[string]any{
		"name": "oranges",
		"stock": map[string]any{
			"q": []any{50, 33},
			"w": []any{"X", "X"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	qLeaf := leafIndex(t, schema, "stock.q")
	wLeaf := leafIndex(t, schema, "stock.w")
	if !leveledValuesEqual(listOfStructs[qLeaf], structOfLists[qLeaf]) {
		t.Errorf("stock.q: struct-of-lists form = %+v, want %+v", structOfLists[qLeaf], listOfStructs[qLeaf])
	}
	if !leveledValuesEqual(listOfStructs[wLeaf], structOfLists[wLeaf]) {
		t.Errorf("stock.w: struct-of-lists form = %+v, want %+v", structOfLists[wLeaf], listOfStructs[wLeaf])
	}
}

func TestExpandStructOfListsRejectsMismatchedLengths(t *testing.T) {
	schema := fruitSchema(t)
	_, err := ShredRecord(schema, map[string]any{
		"name": "oranges",
		"stock": map[string]any{
			"q": []any{50, 33},
			"w": []any{"X"},
		},
	})
	if err == nil {
		t.Fatal("expected an error for mismatched struct-of-lists column lengths")
	}
}

func leveledValuesEqual(a, b []Leveled) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].RLevel != b[i].RLevel || a[i].DLevel != b[i].DLevel {
			return false
		}
		if !reflect.DeepEqual(nativePrimitive(a[i].Value), nativePrimitive(b[i].Value)) {
			return false
		}
	}
	return true
}

func TestEmitAllNullCoversEveryLeafOfAGroup(t *testing.T) {
	schema := fruitSchema(t)
	sh := &shredder{schema: schema, out: make([][]Leveled, len(schema.Leaves))}
	stockNode := schema.byPath["stock"]
	sh.emitAllNull(stockNode, 0, stockNode.DLevelMax-1)

	qLeaf := leafIndex(t, schema, "stock.q")
	wLeaf := leafIndex(t, schema, "stock.w")
	if len(sh.out[qLeaf]) != 1 || !sh.out[qLeaf][0].Value.Null {
		t.Errorf("stock.q: expected a single null tuple, got %+v", sh.out[qLeaf])
	}
	if len(sh.out[wLeaf]) != 1 || !sh.out[wLeaf][0].Value.Null {
		t.Errorf("stock.w: expected a single null tuple, got %+v", sh.out[wLeaf])
	}
}
