package vmesh

import (
	"fmt"

	dvec3 "github.com/flywave/go3d/float64/vec3"
)

// Mesh 网格：顶点布局、索引编码、图元拓扑，以及原始的顶点和索引字节缓冲。
//
// A Mesh is mutated only through a MeshWriter and read through a MeshReader. It is not safe
// for concurrent use.
type Mesh struct {
	Name string

	layout        VertexLayout
	indexType     IndexType
	primitiveType PrimitiveType

	vertexData  []byte
	vertexCount int
	indexData   []byte
	indexCount  int

	bbox      dvec3.Box
	bboxValid bool
}

func NewMesh() *Mesh {
	return &Mesh{
		layout:        DefaultVertexLayout(),
		indexType:     Unsigned16,
		primitiveType: Triangles,
		bbox:          dvec3.MinBox,
	}
}

func NewMeshWithName(name string) *Mesh {
	m := NewMesh()
	m.Name = name
	return m
}

func (m *Mesh) VertexLayout() VertexLayout {
	return m.layout
}

// SetVertexLayout replaces the layout. It fails once vertex data exist since their bytes would
// no longer match the schema.
func (m *Mesh) SetVertexLayout(l VertexLayout) error {
	if m.vertexCount > 0 {
		return fmt.Errorf("%w: cannot change vertex layout of mesh with %d vertices", ErrSchemaMismatch, m.vertexCount)
	}
	m.layout = l
	return nil
}

func (m *Mesh) IndexType() IndexType {
	return m.indexType
}

// SetIndexType changes the index encoding. It fails once indices exist.
func (m *Mesh) SetIndexType(t IndexType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: invalid index type %d", ErrFormat, uint8(t))
	}
	if m.indexCount > 0 {
		return fmt.Errorf("%w: cannot change index type of mesh with %d indices", ErrSchemaMismatch, m.indexCount)
	}
	m.indexType = t
	return nil
}

func (m *Mesh) PrimitiveType() PrimitiveType {
	return m.primitiveType
}

func (m *Mesh) SetPrimitiveType(t PrimitiveType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: invalid primitive type %d", ErrFormat, uint8(t))
	}
	m.primitiveType = t
	return nil
}

func (m *Mesh) VertexCount() int {
	return m.vertexCount
}

func (m *Mesh) IndexCount() int {
	return m.indexCount
}

func (m *Mesh) Stride() int {
	return m.layout.Stride()
}

func (m *Mesh) IndexSize() int {
	return m.indexType.Size()
}

// VertexData returns a copy of the packed vertex bytes.
func (m *Mesh) VertexData() []byte {
	return append([]byte(nil), m.vertexData...)
}

// IndexData returns a copy of the packed little-endian index bytes.
func (m *Mesh) IndexData() []byte {
	return append([]byte(nil), m.indexData...)
}

// BoundingBox returns the box enclosing every position written so far; ok is false when no
// position has been written.
func (m *Mesh) BoundingBox() (box dvec3.Box, ok bool) {
	return m.bbox, m.bboxValid
}

// Clear drops all vertices, indices and the bounding box, keeping the schema.
func (m *Mesh) Clear() {
	m.vertexData = nil
	m.vertexCount = 0
	m.indexData = nil
	m.indexCount = 0
	m.bbox = dvec3.MinBox
	m.bboxValid = false
}

func (m *Mesh) growBoundingBox(x, y, z float32) {
	p := dvec3.T{float64(x), float64(y), float64(z)}
	pt := dvec3.Box{Min: p, Max: p}
	if !m.bboxValid {
		m.bbox = pt
		m.bboxValid = true
		return
	}
	m.bbox.Join(&pt)
}

func (m *Mesh) String() string {
	return fmt.Sprintf("Mesh{%q %s %s vertices=%d indices=%d layout=%s}",
		m.Name, m.primitiveType, m.indexType, m.vertexCount, m.indexCount, m.layout)
}
