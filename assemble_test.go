package gopq

import (
	"reflect"
	"testing"
)

// shredAll shreds every record and concatenates each leaf's tuples in
// record order, producing the per-leaf column layout AssembleRecords (and
// a real column chunk) expects.
func shredAll(t *testing.T, schema *Schema, records []map[string]any) [][]Leveled {
	t.Helper()
	columns := make([][]Leveled, len(schema.Leaves))
	for _, rec := range records {
		tuples, err := ShredRecord(schema, rec)
		if err != nil {
			t.Fatal(err)
		}
		for i, col := range tuples {
			columns[i] = append(columns[i], col...)
		}
	}
	return columns
}

func TestAssembleRecordsFruitSetOmitsAbsentFields(t *testing.T) {
	schema := fruitSchema(t)
	records := []map[string]any{
		{
			"name":   "apples",
			"quantity": 10,
			"colour": []any{"green", "red"},
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
				map[string]any{"q": 20, "w": "x"},
			},
		},
		{
			"name":   "banana",
			"colour": []any{"yellow"},
		},
	}

	columns := shredAll(t, schema, records)
	out, err := AssembleRecords(schema, columns)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(records) {
		t.Fatalf("got %d records, want %d", len(out), len(records))
	}

	apples, kiwi, banana := out[0], out[1], out[2]

	if _, ok := apples["quantity"]; !ok {
		t.Errorf("apples: expected \"quantity\" to be present")
	}
	if _, ok := kiwi["quantity"]; ok {
		t.Errorf("kiwi: expected \"quantity\" to be omitted, got %v", kiwi["quantity"])
	}
	if _, ok := banana["quantity"]; ok {
		t.Errorf("banana: expected \"quantity\" to be omitted, got %v", banana["quantity"])
	}
	if _, ok := banana["stock"]; ok {
		t.Errorf("banana: expected \"stock\" to be omitted, got %v", banana["stock"])
	}
	if _, ok := kiwi["stock"]; !ok {
		t.Errorf("kiwi: expected \"stock\" to be present")
	}
}

func TestAssembleRecordsRepeatedLeafNormalizesToSequence(t *testing.T) {
	schema := fruitSchema(t)
	columns := shredAll(t, schema, []map[string]any{
		{"name": "banana", "colour": "yellow"}, // bare scalar sugar
	})
	out, err := AssembleRecords(schema, columns)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := out[0]["colour"].([]any)
	if !ok {
		t.Fatalf("colour = %#v (%T), want a []any", out[0]["colour"], out[0]["colour"])
	}
	// colour is UTF8-annotated, so assembly converts it back to a string.
	want := []any{"yellow"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("colour = %v, want %v", got, want)
	}
}

func TestAssembleRecordsProjectionOmitsUnwantedLeaves(t *testing.T) {
	schema := fruitSchema(t)
	columns := shredAll(t, schema, []map[string]any{
		{"name": "apples", "quantity": 10, "colour": []any{"green"}},
	})
	// Projection: only "name" and "colour" are read back; every other
	// leaf's column slot is left nil, as a real projecting Reader would do.
	projected := make([][]Leveled, len(schema.Leaves))
	nameLeaf := leafIndex(t, schema, "name")
	colourLeaf := leafIndex(t, schema, "colour")
	projected[nameLeaf] = columns[nameLeaf]
	projected[colourLeaf] = columns[colourLeaf]

	out, err := AssembleRecords(schema, projected)
	if err != nil {
		t.Fatal(err)
	}
	rec := out[0]
	if len(rec) != 2 {
		t.Fatalf("record = %v, want exactly the projected keys", rec)
	}
	if _, ok := rec["name"]; !ok {
		t.Errorf("expected \"name\" to be present")
	}
	if _, ok := rec["colour"]; !ok {
		t.Errorf("expected \"colour\" to be present")
	}
	if _, ok := rec["quantity"]; ok {
		t.Errorf("expected \"quantity\" to be projected away")
	}
	if _, ok := rec["stock"]; ok {
		t.Errorf("expected \"stock\" to be projected away")
	}
}

func TestAssembleRecordsReturnsNilForAnEmptyProjection(t *testing.T) {
	schema := fruitSchema(t)
	out, err := AssembleRecords(schema, make([][]Leveled, len(schema.Leaves)))
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		t.Errorf("got %v, want nil when every column is unprojected", out)
	}
}
