package vmesh

import (
	"fmt"
	"strings"
)

// VertexLayout is an ordered set of vertex attributes with cached offsets and stride.
// It is a value; changing a mesh's schema means building a new layout.
type VertexLayout struct {
	attributes []VertexAttribute
	stride     int
}

// NewVertexLayout builds a layout from attributes in the given order. Two attributes with the
// same semantic are rejected.
func NewVertexLayout(attrs ...VertexAttribute) (VertexLayout, error) {
	var seen [semanticCount]bool
	l := VertexLayout{attributes: make([]VertexAttribute, len(attrs))}
	for i, a := range attrs {
		if !a.semantic.Valid() || !a.typ.Valid() || a.cardinality < 1 || a.cardinality > 4 {
			return VertexLayout{}, fmt.Errorf("%w: attribute %d is not a valid vertex attribute", ErrShapeMismatch, i)
		}
		if seen[a.semantic] {
			return VertexLayout{}, fmt.Errorf("%w: duplicate attribute semantic %s", ErrSchemaMismatch, a.semantic)
		}
		seen[a.semantic] = true
		a.offset = l.stride
		l.stride += a.Size()
		l.attributes[i] = a
	}
	return l, nil
}

// DefaultVertexLayout returns Position(Float32,3), Normal(Float32,3), TextureCoords0(Float32,2).
func DefaultVertexLayout() VertexLayout {
	l, _ := NewVertexLayout(
		MustVertexAttribute(Position, Float32, 3),
		MustVertexAttribute(Normal, Float32, 3),
		MustVertexAttribute(TextureCoords0, Float32, 2),
	)
	return l
}

func (l VertexLayout) AttributeWithSemantic(s VertexAttributeSemantic) (VertexAttribute, bool) {
	for _, a := range l.attributes {
		if a.semantic == s {
			return a, true
		}
	}
	return VertexAttribute{}, false
}

func (l VertexLayout) HasAttributeWithSemantic(s VertexAttributeSemantic) bool {
	_, ok := l.AttributeWithSemantic(s)
	return ok
}

// Attributes returns a copy of the attributes in layout order, offsets filled in.
func (l VertexLayout) Attributes() []VertexAttribute {
	return append([]VertexAttribute(nil), l.attributes...)
}

func (l VertexLayout) AttributeCount() int {
	return len(l.attributes)
}

// Stride returns the byte size of one vertex.
func (l VertexLayout) Stride() int {
	return l.stride
}

// Equal reports whether both layouts declare the same attributes in the same order.
func (l VertexLayout) Equal(o VertexLayout) bool {
	if len(l.attributes) != len(o.attributes) {
		return false
	}
	for i := range l.attributes {
		if l.attributes[i] != o.attributes[i] {
			return false
		}
	}
	return true
}

func (l VertexLayout) String() string {
	parts := make([]string, len(l.attributes))
	for i, a := range l.attributes {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
