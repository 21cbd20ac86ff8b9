package vmesh

import (
	"fmt"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/flywave/go3d/vec4"
)

// MeshWriter appends vertices and indices to a mesh without compile-time knowledge of its
// vertex layout. Attribute writes always target the most recently added vertex.
type MeshWriter struct {
	mesh        *Mesh
	vertexIndex int
}

func NewMeshWriter(m *Mesh) *MeshWriter {
	return &MeshWriter{mesh: m, vertexIndex: -1}
}

// AddVertex appends a zero-filled vertex and returns its index.
func (w *MeshWriter) AddVertex() int {
	m := w.mesh
	m.vertexData = append(m.vertexData, make([]byte, m.layout.Stride())...)
	m.vertexCount++
	w.vertexIndex = m.vertexCount - 1
	return w.vertexIndex
}

func (w *MeshWriter) SetAttributeFloat(s VertexAttributeSemantic, v float32) error {
	return w.SetAttributeData(s, v)
}

func (w *MeshWriter) SetAttributeVector2(s VertexAttributeSemantic, v vec2.T) error {
	return w.SetAttributeData(s, v[:]...)
}

func (w *MeshWriter) SetAttributeVector3(s VertexAttributeSemantic, v vec3.T) error {
	return w.SetAttributeData(s, v[:]...)
}

func (w *MeshWriter) SetAttributeVector4(s VertexAttributeSemantic, v vec4.T) error {
	return w.SetAttributeData(s, v[:]...)
}

// SetAttributeData encodes the components into the current vertex. The number of components
// must equal the attribute's declared cardinality.
//
// The bounding box grows from the stored Position; overwriting a Position of the same vertex
// does not shrink it.
func (w *MeshWriter) SetAttributeData(s VertexAttributeSemantic, components ...float32) error {
	m := w.mesh
	if w.vertexIndex < 0 {
		return fmt.Errorf("%w: attribute %s written before first vertex was added", ErrBoundary, s)
	}
	stride := m.layout.Stride()
	if w.vertexIndex >= m.vertexCount || (w.vertexIndex+1)*stride > len(m.vertexData) {
		return fmt.Errorf("%w: vertex %d no longer exists, mesh has %d vertices", ErrBoundary, w.vertexIndex, m.vertexCount)
	}
	attr, ok := m.layout.AttributeWithSemantic(s)
	if !ok {
		return fmt.Errorf("%w: mesh layout %s has no attribute %s", ErrSchemaMismatch, m.layout, s)
	}
	if len(components) != attr.cardinality {
		return fmt.Errorf("%w: attribute %s expects %d components, got %d", ErrShapeMismatch, s, attr.cardinality, len(components))
	}
	for i, c := range components {
		if !componentFits(attr.typ, c) {
			return fmt.Errorf("%w: attribute %s component %d value %g exceeds %s range", ErrOverflow, s, i, c, attr.typ)
		}
	}

	base := w.vertexIndex*stride + attr.offset
	width := attr.typ.Size()
	for i, c := range components {
		putComponent(m.vertexData[base+i*width:], attr.typ, c)
	}

	if s == Position {
		var p [3]float32
		for i := 0; i < len(p) && i < len(components); i++ {
			p[i] = getComponent(m.vertexData[base+i*width:], attr.typ)
		}
		m.growBoundingBox(p[0], p[1], p[2])
	}
	return nil
}

// AddIndex appends an index encoded at the mesh's index width. Values the width cannot
// represent are rejected.
func (w *MeshWriter) AddIndex(v uint64) error {
	m := w.mesh
	if v > m.indexType.MaxValue() {
		return fmt.Errorf("%w: index %d exceeds %s maximum %d", ErrOverflow, v, m.indexType, m.indexType.MaxValue())
	}
	size := m.indexType.Size()
	off := len(m.indexData)
	m.indexData = append(m.indexData, make([]byte, size)...)
	putIndex(m.indexData[off:], m.indexType, v)
	m.indexCount++
	return nil
}

// AddIndices appends all values, or none of them if any overflows.
func (w *MeshWriter) AddIndices(vs ...uint64) error {
	max := w.mesh.indexType.MaxValue()
	for i, v := range vs {
		if v > max {
			return fmt.Errorf("index %d: %w: %d exceeds %s maximum %d", i, ErrOverflow, v, w.mesh.indexType, max)
		}
	}
	for _, v := range vs {
		if err := w.AddIndex(v); err != nil {
			return err
		}
	}
	return nil
}
