package vmesh

import (
	"testing"

	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMesh 测试创建新网格
func TestNewMesh(t *testing.T) {
	m := NewMesh()
	assert.Equal(t, 0, m.VertexCount())
	assert.Equal(t, 0, m.IndexCount())
	assert.Equal(t, Unsigned16, m.IndexType())
	assert.Equal(t, 2, m.IndexSize())
	assert.Equal(t, Triangles, m.PrimitiveType())
	assert.True(t, m.VertexLayout().Equal(DefaultVertexLayout()))
	assert.Equal(t, 32, m.Stride())
	_, ok := m.BoundingBox()
	assert.False(t, ok)
}

func TestMeshSchemaChangesRequireEmptyBuffers(t *testing.T) {
	m := NewMesh()
	l, err := NewVertexLayout(MustVertexAttribute(Position, Float16, 3))
	require.NoError(t, err)
	require.NoError(t, m.SetVertexLayout(l))
	require.NoError(t, m.SetIndexType(Unsigned8))

	w := NewMeshWriter(m)
	w.AddVertex()
	require.NoError(t, w.AddIndex(0))

	assert.ErrorIs(t, m.SetVertexLayout(DefaultVertexLayout()), ErrSchemaMismatch)
	assert.ErrorIs(t, m.SetIndexType(Unsigned32), ErrSchemaMismatch)
	assert.NoError(t, m.SetPrimitiveType(Points))
	assert.Equal(t, Points, m.PrimitiveType())
	assert.ErrorIs(t, m.SetPrimitiveType(primitiveTypeCount), ErrFormat)

	m.Clear()
	assert.NoError(t, m.SetVertexLayout(DefaultVertexLayout()))
	assert.NoError(t, m.SetIndexType(Unsigned32))
}

func TestMeshBoundingBox(t *testing.T) {
	m := NewMesh()
	w := NewMeshWriter(m)
	for _, p := range []vec3.T{{-1, 2, 0}, {3, -4, 5}, {0, 0, -6}} {
		w.AddVertex()
		require.NoError(t, w.SetAttributeVector3(Position, p))
	}
	box, ok := m.BoundingBox()
	require.True(t, ok)
	assert.Equal(t, [3]float64{-1, -4, -6}, [3]float64(box.Min))
	assert.Equal(t, [3]float64{3, 2, 5}, [3]float64(box.Max))

	m.Clear()
	_, ok = m.BoundingBox()
	assert.False(t, ok)
}

func TestMeshDataAccessorsCopy(t *testing.T) {
	m := NewMesh()
	w := NewMeshWriter(m)
	w.AddVertex()
	require.NoError(t, w.SetAttributeVector3(Position, vec3.T{1, 2, 3}))
	require.NoError(t, w.AddIndex(7))

	vd := m.VertexData()
	vd[0] = 0xff
	id := m.IndexData()
	id[0] = 0xff

	r := NewMeshReader(m)
	require.True(t, r.NextVertex())
	p, err := r.ReadAttributeVector3(Position)
	require.NoError(t, err)
	assert.Equal(t, vec3.T{1, 2, 3}, p)
	require.True(t, r.NextIndex())
	i, err := r.ReadIndexShort()
	require.NoError(t, err)
	assert.Equal(t, uint16(7), i)
}
