package gopq

import (
	"strings"

	"github.com/gopq/gopq/format"
)

// FieldDecl is one entry of a schema declaration, as accepted by
// buildSchema. A FieldDecl is a group when Type is empty or Fields is
// non-empty; otherwise it is a primitive leaf.
type FieldDecl struct {
	Name        string
	Type        string // PrimitiveType or LogicalType name
	Optional    bool
	Repeated    bool
	Fields      []FieldDecl
	Compression string // default UNCOMPRESSED
	Encoding    string // default PLAIN
	TypeLength  int    // required for FIXED_LEN_BYTE_ARRAY
	Precision   int    // for DECIMAL
	Scale       int    // for DECIMAL
}

// SchemaNode is one node of the compiled schema tree. SchemaNodes are
// immutable after buildSchema returns.
type SchemaNode struct {
	Name       string
	Parent     *SchemaNode
	Children   []*SchemaNode
	Repetition format.FieldRepetitionType
	IsGroup    bool

	// Leaf-only fields; zero/undefined on group nodes.
	Primitive   format.Type
	Logical     *LogicalType
	TypeLength  int
	Compression string
	EncodingName string

	Path      []string
	RLevelMax int
	DLevelMax int

	// LeafIndex is this node's position in Schema.Leaves; -1 for groups.
	LeafIndex int
}

// PathString joins Path with '.' for use as a map key / human-readable
// reference.
func (n *SchemaNode) PathString() string { return strings.Join(n.Path, ".") }

func (n *SchemaNode) String() string {
	kind := "group"
	if !n.IsGroup {
		kind = n.Primitive.String()
	}
	return n.PathString() + " (" + n.Repetition.String() + " " + kind + ")"
}

// Schema is the compiled, immutable result of buildSchema.
type Schema struct {
	Name   string
	Root   *SchemaNode // synthetic root; Root.Children are the top-level fields
	Fields []*SchemaNode // pre-order traversal of every node (groups and leaves)
	Leaves []*SchemaNode // pre-order traversal of leaves only, the FieldList

	byPath map[string]*SchemaNode
}

// findField resolves a dotted or slice path to its SchemaNode.
func (s *Schema) findField(path []string) (*SchemaNode, error) {
	n, ok := s.byPath[strings.Join(path, ".")]
	if !ok {
		return nil, newConfigError("no such field %q", strings.Join(path, "."))
	}
	return n, nil
}

// BuildSchema compiles a schema declaration into a Schema. fields is the
// message's top-level field list in declaration order; name labels the
// message for diagnostics and becomes the root group's name in the file
// footer.
func BuildSchema(name string, fields []FieldDecl) (*Schema, error) {
	return buildSchema(name, fields)
}

func buildSchema(name string, fields []FieldDecl) (*Schema, error) {
	root := &SchemaNode{Name: name, IsGroup: true, Repetition: format.Required, LeafIndex: -1}
	s := &Schema{Name: name, Root: root, byPath: map[string]*SchemaNode{}}

	children, err := buildChildren(root, fields, s)
	if err != nil {
		return nil, err
	}
	root.Children = children

	flatten(root, s)
	return s, nil
}

func buildChildren(parent *SchemaNode, decls []FieldDecl, s *Schema) ([]*SchemaNode, error) {
	seen := map[string]bool{}
	nodes := make([]*SchemaNode, 0, len(decls))
	for _, d := range decls {
		if d.Name == "" {
			return nil, newConfigError("field declaration is missing a name")
		}
		if seen[d.Name] {
			return nil, newConfigError("duplicate field name %q", d.Name)
		}
		seen[d.Name] = true

		n, err := buildNode(parent, d, s)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func buildNode(parent *SchemaNode, d FieldDecl, s *Schema) (*SchemaNode, error) {
	if d.Optional && d.Repeated {
		return nil, newConfigError("field %q cannot be both optional and repeated", d.Name)
	}

	n := &SchemaNode{
		Name:   d.Name,
		Parent: parent,
		Path:   append(append([]string{}, parent.Path...), d.Name),
	}
	switch {
	case d.Repeated:
		n.Repetition = format.Repeated
	case d.Optional:
		n.Repetition = format.Optional
	default:
		n.Repetition = format.Required
	}

	n.RLevelMax = parent.RLevelMax
	if n.Repetition == format.Repeated {
		n.RLevelMax++
	}
	n.DLevelMax = parent.DLevelMax
	if n.Repetition != format.Required {
		n.DLevelMax++
	}

	isGroup := d.Type == "" || len(d.Fields) > 0
	if isGroup {
		if d.Type != "" {
			return nil, newConfigError("field %q has both a type and nested fields", d.Name)
		}
		n.IsGroup = true
		n.LeafIndex = -1
		children, err := buildChildren(n, d.Fields, s)
		if err != nil {
			return nil, err
		}
		n.Children = children
		return n, nil
	}

	if err := resolveLeafType(n, d); err != nil {
		return nil, err
	}
	n.Compression = d.Compression
	if n.Compression == "" {
		n.Compression = "UNCOMPRESSED"
	}
	n.EncodingName = d.Encoding
	if n.EncodingName == "" {
		n.EncodingName = "PLAIN"
	}
	if n.RLevelMax > n.DLevelMax {
		return nil, newConfigError("field %q: rLevelMax > dLevelMax, schema is inconsistent", d.Name)
	}
	return n, nil
}

func resolveLeafType(n *SchemaNode, d FieldDecl) error {
	if lt, ok := logicalTypes[d.Type]; ok {
		primitive, typeLength, err := lt.resolve(d)
		if err != nil {
			return newConfigError("field %q: %v", d.Name, err)
		}
		n.Primitive = primitive
		n.TypeLength = typeLength
		logical := lt
		n.Logical = &logical
		if lt.name == "DECIMAL" {
			logical.scale, logical.precision = d.Scale, d.Precision
			n.Logical = &logical
		}
		return nil
	}

	primitive, ok := primitiveTypes[d.Type]
	if !ok {
		return newConfigError("field %q: unknown type %q", d.Name, d.Type)
	}
	n.Primitive = primitive
	if primitive == format.FixedLenByteArray {
		if d.TypeLength <= 0 {
			return newConfigError("field %q: FIXED_LEN_BYTE_ARRAY requires typeLength", d.Name)
		}
		n.TypeLength = d.TypeLength
	}
	return nil
}

var primitiveTypes = map[string]format.Type{
	"BOOLEAN":              format.Boolean,
	"INT32":                format.Int32,
	"INT64":                format.Int64,
	"INT96":                format.Int96,
	"FLOAT":                format.Float,
	"DOUBLE":               format.Double,
	"BYTE_ARRAY":           format.ByteArray,
	"FIXED_LEN_BYTE_ARRAY": format.FixedLenByteArray,
}

func flatten(root *SchemaNode, s *Schema) {
	var walk func(n *SchemaNode)
	walk = func(n *SchemaNode) {
		if n != root {
			s.Fields = append(s.Fields, n)
			s.byPath[n.PathString()] = n
		}
		if n.IsGroup {
			for _, c := range n.Children {
				walk(c)
			}
		} else {
			n.LeafIndex = len(s.Leaves)
			s.Leaves = append(s.Leaves, n)
		}
	}
	walk(root)
}

// ToFileSchema flattens the tree into the pre-order []format.SchemaElement
// representation stored in the file footer.
func (s *Schema) ToFileSchema() []format.SchemaElement {
	elems := make([]format.SchemaElement, 0, len(s.Fields)+1)
	var rootNumChildren = int32(len(s.Root.Children))
	elems = append(elems, format.SchemaElement{Name: s.Name, NumChildren: &rootNumChildren})

	var walk func(n *SchemaNode)
	walk = func(n *SchemaNode) {
		rep := n.Repetition
		e := format.SchemaElement{Name: n.Name, RepetitionType: &rep}
		if n.IsGroup {
			nc := int32(len(n.Children))
			e.NumChildren = &nc
		} else {
			t := n.Primitive
			e.Type = &t
			if n.TypeLength > 0 {
				tl := int32(n.TypeLength)
				e.TypeLength = &tl
			}
			if n.Logical != nil {
				e.LogicalType = format.LogicalTypeName(n.Logical.name)
				if n.Logical.name == "DECIMAL" {
					p, sc := int32(n.Logical.precision), int32(n.Logical.scale)
					e.Precision, e.Scale = &p, &sc
				}
			}
		}
		elems = append(elems, e)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, c := range s.Root.Children {
		walk(c)
	}
	return elems
}
