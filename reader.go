package vmesh

import (
	"fmt"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/flywave/go3d/vec4"
)

// MeshReader walks a mesh's vertices and indices with two independent forward-only cursors.
// Both start before the first element; NextVertex/NextIndex must be called before reading.
type MeshReader struct {
	mesh *Mesh

	vertexCount int
	vertexIndex int

	indexCount    int
	indexPosition int
}

func NewMeshReader(m *Mesh) *MeshReader {
	return &MeshReader{
		mesh:          m,
		vertexCount:   m.vertexCount,
		vertexIndex:   -1,
		indexCount:    m.indexCount,
		indexPosition: -1,
	}
}

// NextVertex moves to the next vertex and reports whether one is left to read.
func (r *MeshReader) NextVertex() bool {
	if r.vertexIndex < r.vertexCount {
		r.vertexIndex++
	}
	return r.vertexIndex < r.vertexCount
}

// VertexIndex returns the index of the current vertex, -1 before the first NextVertex.
func (r *MeshReader) VertexIndex() int {
	return r.vertexIndex
}

func (r *MeshReader) ReadAttributeFloat(s VertexAttributeSemantic) (float32, error) {
	var v [1]float32
	if err := r.readAttribute(s, v[:]); err != nil {
		return 0, err
	}
	return v[0], nil
}

func (r *MeshReader) ReadAttributeVector2(s VertexAttributeSemantic) (vec2.T, error) {
	var v vec2.T
	err := r.readAttribute(s, v[:])
	return v, err
}

func (r *MeshReader) ReadAttributeVector3(s VertexAttributeSemantic) (vec3.T, error) {
	var v vec3.T
	err := r.readAttribute(s, v[:])
	return v, err
}

func (r *MeshReader) ReadAttributeVector4(s VertexAttributeSemantic) (vec4.T, error) {
	var v vec4.T
	err := r.readAttribute(s, v[:])
	return v, err
}

// ReadAttributeData decodes all declared components of the attribute.
func (r *MeshReader) ReadAttributeData(s VertexAttributeSemantic) ([]float32, error) {
	if err := r.checkVertexBoundary(); err != nil {
		return nil, err
	}
	attr, ok := r.mesh.layout.AttributeWithSemantic(s)
	if !ok {
		return nil, fmt.Errorf("%w: mesh layout %s has no attribute %s", ErrSchemaMismatch, r.mesh.layout, s)
	}
	dst := make([]float32, attr.cardinality)
	if err := r.readAttribute(s, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// readAttribute fills dst with the leading len(dst) components of the attribute. Asking for
// more components than were declared fails rather than inventing values.
func (r *MeshReader) readAttribute(s VertexAttributeSemantic, dst []float32) error {
	if err := r.checkVertexBoundary(); err != nil {
		return err
	}
	m := r.mesh
	attr, ok := m.layout.AttributeWithSemantic(s)
	if !ok {
		return fmt.Errorf("%w: mesh layout %s has no attribute %s", ErrSchemaMismatch, m.layout, s)
	}
	if len(dst) > attr.cardinality {
		return fmt.Errorf("%w: attribute %s has %d components, %d requested", ErrShapeMismatch, s, attr.cardinality, len(dst))
	}
	base := r.vertexIndex*m.layout.Stride() + attr.offset
	width := attr.typ.Size()
	for i := range dst {
		dst[i] = getComponent(m.vertexData[base+i*width:], attr.typ)
	}
	return nil
}

func (r *MeshReader) checkVertexBoundary() error {
	if r.vertexIndex < 0 {
		return fmt.Errorf("%w: cannot read vertex before moving to the first vertex", ErrBoundary)
	}
	if r.vertexIndex >= r.vertexCount {
		return fmt.Errorf("%w: cannot read past the last vertex (%d vertices)", ErrBoundary, r.vertexCount)
	}
	return nil
}

// NextIndex moves to the next index and reports whether one is left to read.
func (r *MeshReader) NextIndex() bool {
	if r.indexPosition < r.indexCount {
		r.indexPosition++
	}
	return r.indexPosition < r.indexCount
}

// IndexPosition returns the position of the current index, -1 before the first NextIndex.
func (r *MeshReader) IndexPosition() int {
	return r.indexPosition
}

func (r *MeshReader) ReadIndexByte() (uint8, error) {
	v, err := r.readIndex(Unsigned8)
	return uint8(v), err
}

func (r *MeshReader) ReadIndexShort() (uint16, error) {
	v, err := r.readIndex(Unsigned16)
	return uint16(v), err
}

func (r *MeshReader) ReadIndexInt() (uint32, error) {
	v, err := r.readIndex(Unsigned32)
	return uint32(v), err
}

// readIndex decodes the current index and checks it fits the requested width.
func (r *MeshReader) readIndex(as IndexType) (uint64, error) {
	if r.indexPosition < 0 {
		return 0, fmt.Errorf("%w: cannot read index before moving to the first index", ErrBoundary)
	}
	if r.indexPosition >= r.indexCount {
		return 0, fmt.Errorf("%w: cannot read past the last index (%d indices)", ErrBoundary, r.indexCount)
	}
	m := r.mesh
	v := getIndex(m.indexData[r.indexPosition*m.indexType.Size():], m.indexType)
	if v > as.MaxValue() {
		return 0, fmt.Errorf("%w: index %d at position %d does not fit %s", ErrOverflow, v, r.indexPosition, as)
	}
	return v, nil
}
