package vmesh

import "fmt"

// VertexAttribute 顶点属性：语义、分量编码和分量个数。构造后不可变。
type VertexAttribute struct {
	semantic    VertexAttributeSemantic
	typ         VertexAttributeType
	cardinality int
	offset      int
}

func NewVertexAttribute(semantic VertexAttributeSemantic, typ VertexAttributeType, cardinality int) (VertexAttribute, error) {
	if !semantic.Valid() {
		return VertexAttribute{}, fmt.Errorf("%w: invalid vertex attribute semantic %d", ErrFormat, uint8(semantic))
	}
	if !typ.Valid() {
		return VertexAttribute{}, fmt.Errorf("%w: invalid vertex attribute type %d", ErrFormat, uint8(typ))
	}
	if cardinality < 1 || cardinality > 4 {
		return VertexAttribute{}, fmt.Errorf("%w: attribute %s cardinality %d not in [1, 4]", ErrShapeMismatch, semantic, cardinality)
	}
	return VertexAttribute{semantic: semantic, typ: typ, cardinality: cardinality}, nil
}

// MustVertexAttribute is like NewVertexAttribute but panics on error. It is meant for
// package-level layouts built from constants.
func MustVertexAttribute(semantic VertexAttributeSemantic, typ VertexAttributeType, cardinality int) VertexAttribute {
	a, err := NewVertexAttribute(semantic, typ, cardinality)
	if err != nil {
		panic(err)
	}
	return a
}

func (a VertexAttribute) Semantic() VertexAttributeSemantic {
	return a.semantic
}

func (a VertexAttribute) Type() VertexAttributeType {
	return a.typ
}

func (a VertexAttribute) Cardinality() int {
	return a.cardinality
}

// Offset is the byte offset of the attribute inside a vertex. It is only meaningful for
// attributes obtained from a VertexLayout.
func (a VertexAttribute) Offset() int {
	return a.offset
}

// Size returns the byte size of the attribute.
func (a VertexAttribute) Size() int {
	return a.cardinality * a.typ.Size()
}

func (a VertexAttribute) String() string {
	return fmt.Sprintf("%s(%s,%d)", a.semantic, a.typ, a.cardinality)
}
