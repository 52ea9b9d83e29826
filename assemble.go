package gopq

import "github.com/gopq/gopq/format"

// columnCursor walks one leaf's Leveled tuple stream in order, letting the
// assembler peek at the next tuple's rLevel/dLevel before deciding whether
// it belongs to the record currently being built.
type columnCursor struct {
	leaf   *SchemaNode
	tuples []Leveled
	pos    int
}

func (c *columnCursor) done() bool    { return c.pos >= len(c.tuples) }
func (c *columnCursor) peek() Leveled { return c.tuples[c.pos] }
func (c *columnCursor) next() Leveled {
	t := c.tuples[c.pos]
	c.pos++
	return t
}

// AssembleRecords is the inverse of ShredRecord: given the per-leaf Leveled
// tuple streams of a row group (projection is supported — leaves not of
// interest pass a nil slice and are simply not materialized), it
// reconstructs the projected records.
func AssembleRecords(schema *Schema, columns [][]Leveled) ([]map[string]any, error) {
	cursors := make([]*columnCursor, len(schema.Leaves))
	rowCount := -1
	for i, leaf := range schema.Leaves {
		if columns[i] == nil {
			continue
		}
		cursors[i] = &columnCursor{leaf: leaf, tuples: columns[i]}
		if rowCount == -1 {
			rowCount = countRecords(columns[i])
		}
	}
	if rowCount == -1 {
		return nil, nil
	}

	records := make([]map[string]any, 0, rowCount)
	for !allDone(cursors) {
		rec, err := assembleOne(schema.Root, cursors)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func allDone(cursors []*columnCursor) bool {
	for _, c := range cursors {
		if c != nil && !c.done() {
			return false
		}
	}
	return true
}

// countRecords counts record boundaries (rLevel == 0 tuples) in a single
// leaf's tuple stream, used to size the output slice.
func countRecords(tuples []Leveled) int {
	n := 0
	for _, t := range tuples {
		if t.RLevel == 0 {
			n++
		}
	}
	return n
}

// assembleOne materializes a single occurrence of group (a whole record
// when group is the schema root, or a single element when group is a
// repeated group being assembled by assembleRepeated) from the cursors'
// current positions.
func assembleOne(group *SchemaNode, cursors []*columnCursor) (map[string]any, error) {
	rec := map[string]any{}
	for _, child := range group.Children {
		val, present, err := assembleField(child, cursors)
		if err != nil {
			return nil, err
		}
		if present {
			rec[child.Name] = val
		}
	}
	return rec, nil
}

// assembleField reconstructs one field's value from its subtree of
// cursors. present is false when every underlying leaf was projected away
// (nothing to report) or when an optional/repeated field is legitimately
// absent with no value to set.
func assembleField(n *SchemaNode, cursors []*columnCursor) (any, bool, error) {
	active := activeLeavesUnder(n, cursors)
	if len(active) == 0 {
		return nil, false, nil
	}

	if n.Repetition == format.Repeated {
		return assembleRepeated(n, cursors, active)
	}

	if !n.IsGroup {
		return assembleLeafValue(n, cursors[n.LeafIndex])
	}

	dl := minDLevel(active)
	if dl < n.DLevelMax {
		consumeOne(active)
		return nil, false, nil
	}
	rec, err := assembleOne(n, cursors)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// assembleRepeated gathers every element of a repeated field/group at the
// cursors' current position: zero or more occurrences at rLevel ==
// n.RLevelMax after the first, terminated by a tuple whose rLevel falls
// back below n.RLevelMax (start of the next sibling occurrence) or by the
// cursor running out.
func assembleRepeated(n *SchemaNode, cursors []*columnCursor, active []*columnCursor) (any, bool, error) {
	dl := minDLevel(active)
	if dl < n.DLevelMax {
		consumeOne(active)
		return nil, false, nil
	}

	var elems []any
	for {
		var elem any
		var err error
		if n.IsGroup {
			elem, err = assembleOne(n, cursors)
		} else {
			elem, _, err = assembleLeafValue(n, cursors[n.LeafIndex])
		}
		if err != nil {
			return nil, false, err
		}
		elems = append(elems, elem)

		if anyDone(active) || peekRLevel(active) < n.RLevelMax {
			break
		}
	}
	return elems, true, nil
}

func assembleLeafValue(n *SchemaNode, c *columnCursor) (any, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	if c.done() {
		return nil, false, newFormatError("column %q ran out of values before record boundary", n.PathString())
	}
	t := c.next()
	if t.DLevel < n.DLevelMax || t.Value.Null {
		return nil, false, nil
	}
	v, err := fromPrimitiveValue(n, t.Value)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func activeLeavesUnder(n *SchemaNode, cursors []*columnCursor) []*columnCursor {
	var out []*columnCursor
	var walk func(*SchemaNode)
	walk = func(m *SchemaNode) {
		if !m.IsGroup {
			if c := cursors[m.LeafIndex]; c != nil {
				out = append(out, c)
			}
			return
		}
		for _, c := range m.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

func anyDone(active []*columnCursor) bool {
	for _, c := range active {
		if c.done() {
			return true
		}
	}
	return false
}

func minDLevel(active []*columnCursor) int {
	min := active[0].peek().DLevel
	for _, c := range active[1:] {
		if c.peek().DLevel < min {
			min = c.peek().DLevel
		}
	}
	return min
}

func peekRLevel(active []*columnCursor) int {
	min := active[0].peek().RLevel
	for _, c := range active[1:] {
		if c.peek().RLevel < min {
			min = c.peek().RLevel
		}
	}
	return min
}

// consumeOne advances every active leaf cursor under a field by one tuple,
// used when the field itself is absent for this occurrence: every leaf
// beneath it carries a single null/empty placeholder tuple.
func consumeOne(active []*columnCursor) {
	for _, c := range active {
		c.next()
	}
}
