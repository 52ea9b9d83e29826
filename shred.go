package gopq

import (
	"fmt"

	"github.com/gopq/gopq/format"
)

// Leveled is one (value, repetition level, definition level) tuple produced
// by shredding a record down to a single leaf column, per the Dremel
// algorithm referenced in spec.md §3.
type Leveled struct {
	Value  Value
	RLevel int
	DLevel int
}

// shredder walks a record against a Schema and emits one Leveled tuple per
// leaf into the corresponding slot of out, which must have len(out) ==
// len(schema.Leaves).
type shredder struct {
	schema *Schema
	out    [][]Leveled
}

// ShredRecord decomposes record into per-leaf (value, rLevel, dLevel)
// tuples. record is a map[string]any keyed by field name at every group
// level; repeated fields take either a bare scalar (sugar for a
// single-element list) or a []any; a repeated group may also be expressed
// as a "struct-of-lists" map[string]any whose values are parallel []any
// slices (non-list values are repeated in every element), per spec.md's
// Open Question resolution — this is sugar for the equivalent
// list-of-structs and is expanded before shredding.
func ShredRecord(schema *Schema, record map[string]any) ([][]Leveled, error) {
	out := make([][]Leveled, len(schema.Leaves))
	sh := &shredder{schema: schema, out: out}
	if err := sh.shredGroup(schema.Root, record, 0, 0); err != nil {
		return nil, err
	}
	return out, nil
}

func (sh *shredder) emit(leaf *SchemaNode, v Value, rLevel, dLevel int) {
	sh.out[leaf.LeafIndex] = append(sh.out[leaf.LeafIndex], Leveled{Value: v, RLevel: rLevel, DLevel: dLevel})
}

// emitAllNull emits a null tuple for every leaf beneath n (n included if it
// is itself a leaf), used when an optional ancestor is absent.
func (sh *shredder) emitAllNull(n *SchemaNode, rLevel, dLevel int) {
	if !n.IsGroup {
		sh.emit(n, Value{Kind: n.Primitive, Null: true}, rLevel, dLevel)
		return
	}
	for _, c := range n.Children {
		sh.emitAllNull(c, rLevel, dLevel)
	}
}

// shredGroup shreds the field values of a group node (or the record root)
// found in parentValue, a map[string]any.
func (sh *shredder) shredGroup(group *SchemaNode, parentValue map[string]any, rLevel, dLevel int) error {
	for _, child := range group.Children {
		raw, present := parentValue[child.Name]
		if err := sh.shredField(child, raw, present, rLevel, dLevel); err != nil {
			return err
		}
	}
	return nil
}

func (sh *shredder) shredField(n *SchemaNode, raw any, present bool, rLevel, dLevel int) error {
	switch n.Repetition {
	case format.Required:
		if !present || raw == nil {
			return newInvalidInput(n.PathString(), "required field is missing")
		}
		return sh.shredRequired(n, raw, rLevel, dLevel)
	case format.Optional:
		if !present || raw == nil {
			sh.emitAllNull(n, rLevel, dLevel)
			return nil
		}
		return sh.shredRequired(n, raw, rLevel, dLevel+1)
	case format.Repeated:
		return sh.shredRepeated(n, raw, present, rLevel, dLevel)
	default:
		return fmt.Errorf("unknown repetition %v", n.Repetition)
	}
}

// shredRequired shreds a value known to be present, at the given levels.
func (sh *shredder) shredRequired(n *SchemaNode, raw any, rLevel, dLevel int) error {
	if n.IsGroup {
		m, ok := raw.(map[string]any)
		if !ok {
			return newInvalidInput(n.PathString(), "expected a nested record, got %T", raw)
		}
		return sh.shredGroup(n, m, rLevel, dLevel)
	}
	v, err := toPrimitiveValue(n, raw)
	if err != nil {
		return newInvalidInput(n.PathString(), "%v", err)
	}
	sh.emit(n, v, rLevel, dLevel)
	return nil
}

// shredRepeated shreds a repeated field: raw may be nil/absent (zero
// elements), a bare scalar/map (sugar for a single-element list), or a
// []any of elements.
func (sh *shredder) shredRepeated(n *SchemaNode, raw any, present bool, rLevel, dLevel int) error {
	if !present || raw == nil {
		sh.emitAllNull(n, rLevel, dLevel)
		return nil
	}

	elems, err := asElementList(n, raw)
	if err != nil {
		return err
	}
	if len(elems) == 0 {
		sh.emitAllNull(n, rLevel, dLevel)
		return nil
	}

	for i, elem := range elems {
		elemRLevel := rLevel
		if i > 0 {
			elemRLevel = n.RLevelMax
		}
		if err := sh.shredRequired(n, elem, elemRLevel, dLevel+1); err != nil {
			return err
		}
	}
	return nil
}

// asElementList normalizes a repeated field's raw value into a slice of
// per-element values, expanding the struct-of-lists sugar for repeated
// groups into the equivalent list-of-structs.
func asElementList(n *SchemaNode, raw any) ([]any, error) {
	if lst, ok := raw.([]any); ok {
		return lst, nil
	}

	if n.IsGroup {
		if m, ok := raw.(map[string]any); ok {
			return expandStructOfLists(n, m)
		}
		return nil, newInvalidInput(n.PathString(), "expected a list or struct-of-lists, got %T", raw)
	}

	// Bare scalar is sugar for a single-element list.
	return []any{raw}, nil
}

// expandStructOfLists turns {"a": [1,2], "b": [3,4]} into
// [{"a":1,"b":3}, {"a":2,"b":4}], per spec.md's struct-of-lists Open
// Question: it is sugar for the equivalent list-of-structs. All list
// fields must have the same length; a non-list field is copied into every
// element, and a map with no list fields yields a single element.
func expandStructOfLists(n *SchemaNode, m map[string]any) ([]any, error) {
	length := -1
	cols := make(map[string][]any, len(m))
	for k, v := range m {
		lst, ok := v.([]any)
		if !ok {
			continue
		}
		if length == -1 {
			length = len(lst)
		} else if len(lst) != length {
			return nil, newInvalidInput(n.PathString(), "struct-of-lists columns have mismatched lengths")
		}
		cols[k] = lst
	}
	if length == -1 && len(m) > 0 {
		length = 1
	}
	if length <= 0 {
		return nil, nil
	}
	out := make([]any, length)
	for i := 0; i < length; i++ {
		rec := make(map[string]any, len(m))
		for k, v := range m {
			if lst, ok := cols[k]; ok {
				rec[k] = lst[i]
			} else {
				rec[k] = v
			}
		}
		out[i] = rec
	}
	return out, nil
}
