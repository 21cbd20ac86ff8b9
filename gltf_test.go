package vmesh

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/flywave/go3d/vec4"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGltfTestMesh(t *testing.T) *Mesh {
	t.Helper()
	m := newTestLayout(t,
		MustVertexAttribute(Position, Float32, 3),
		MustVertexAttribute(Normal, Float32, 3),
		MustVertexAttribute(Color, Float32, 4),
		MustVertexAttribute(Binormal, Float16, 3),
		MustVertexAttribute(Weight0, Float32, 1),
		MustVertexAttribute(TextureCoords0, Float16, 2),
	)
	m.Name = "quad"
	require.NoError(t, m.SetIndexType(Unsigned8))
	w := NewMeshWriter(m)
	corners := []vec3.T{{0, 0, 0}, {2, 0, 0}, {2, 3, 0}, {0, 3, -1}}
	for i, p := range corners {
		w.AddVertex()
		require.NoError(t, w.SetAttributeVector3(Position, p))
		require.NoError(t, w.SetAttributeVector3(Normal, vec3.T{0, 0, 1}))
		require.NoError(t, w.SetAttributeVector4(Color, vec4.T{1, 0, 0, 0.5}))
		require.NoError(t, w.SetAttributeVector3(Binormal, vec3.T{0, 1, 0}))
		require.NoError(t, w.SetAttributeFloat(Weight0, float32(i)*0.25))
		require.NoError(t, w.SetAttributeVector2(TextureCoords0, vec2.T{p[0] / 2, p[1] / 3}))
	}
	require.NoError(t, w.AddIndices(0, 1, 2, 0, 2, 3))
	return m
}

// assertSameVertices compares two meshes attribute by attribute through readers, so the
// component types of the two layouts may differ.
func assertSameVertices(t *testing.T, want, got *Mesh) {
	t.Helper()
	require.Equal(t, want.VertexCount(), got.VertexCount())
	wr, gr := NewMeshReader(want), NewMeshReader(got)
	for wr.NextVertex() {
		require.True(t, gr.NextVertex())
		for _, a := range want.VertexLayout().Attributes() {
			wd, err := wr.ReadAttributeData(a.Semantic())
			require.NoError(t, err)
			gd, err := gr.ReadAttributeData(a.Semantic())
			require.NoError(t, err, a.String())
			assert.Equal(t, wd, gd, "vertex %d %s", wr.VertexIndex(), a)
		}
	}
	require.Equal(t, want.IndexCount(), got.IndexCount())
	for wr.NextIndex() {
		require.True(t, gr.NextIndex())
		wi, err := wr.ReadIndexInt()
		require.NoError(t, err)
		gi, err := gr.ReadIndexInt()
		require.NoError(t, err)
		assert.Equal(t, wi, gi)
	}
}

func TestCreateDoc(t *testing.T) {
	doc := CreateDoc()
	assert.Equal(t, GLTF_VERSION, doc.Asset.Version)
	require.NotNil(t, doc.Scene)
	assert.Equal(t, uint32(0), *doc.Scene)
	assert.Len(t, doc.Scenes, 1)
	assert.Len(t, doc.Buffers, 1)
}

func TestGltfAttributeNames(t *testing.T) {
	tests := []struct {
		attr VertexAttribute
		name string
	}{
		{MustVertexAttribute(Position, Float32, 3), "POSITION"},
		{MustVertexAttribute(Position, Float32, 2), "_POSITION"},
		{MustVertexAttribute(Normal, Float16, 3), "NORMAL"},
		{MustVertexAttribute(Tangent, Float32, 4), "TANGENT"},
		{MustVertexAttribute(Tangent, Float32, 3), "_TANGENT"},
		{MustVertexAttribute(Color, Float32, 3), "COLOR_0"},
		{MustVertexAttribute(Color, Float32, 4), "COLOR_0"},
		{MustVertexAttribute(Color, Float32, 1), "_COLOR"},
		{MustVertexAttribute(Binormal, Float32, 3), "_BINORMAL"},
		{MustVertexAttribute(Weight2, Float32, 1), "_WEIGHT2"},
		{MustVertexAttribute(TextureCoords3, Float32, 2), "TEXCOORD_3"},
	}
	for _, tt := range tests {
		t.Run(tt.attr.String(), func(t *testing.T) {
			assert.Equal(t, tt.name, gltfAttributeName(tt.attr))
			s, ok := semanticFromGltfAttribute(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.attr.Semantic(), s)
		})
	}
	for _, name := range []string{"JOINTS_0", "WEIGHTS_0", "TEXCOORD_4", "_CUSTOM"} {
		_, ok := semanticFromGltfAttribute(name)
		assert.False(t, ok, name)
	}
}

func TestBuildGltf(t *testing.T) {
	m := newGltfTestMesh(t)
	doc, err := MeshToGltf([]*Mesh{m})
	require.NoError(t, err)

	require.Len(t, doc.Meshes, 1)
	assert.Equal(t, "quad", doc.Meshes[0].Name)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, []uint32{0}, doc.Scenes[0].Nodes)

	prim := doc.Meshes[0].Primitives[0]
	assert.Equal(t, gltf.PrimitiveTriangles, prim.Mode)
	for _, name := range []string{"POSITION", "NORMAL", "COLOR_0", "_BINORMAL", "_WEIGHT0", "TEXCOORD_0"} {
		assert.Contains(t, prim.Attributes, name)
	}

	pos := doc.Accessors[prim.Attributes["POSITION"]]
	assert.Equal(t, gltf.ComponentFloat, pos.ComponentType)
	assert.Equal(t, gltf.AccessorVec3, pos.Type)
	assert.Equal(t, uint32(4), pos.Count)
	assert.Equal(t, []float32{0, 0, -1}, pos.Min)
	assert.Equal(t, []float32{2, 3, 0}, pos.Max)
	assert.Equal(t, gltf.AccessorScalar, doc.Accessors[prim.Attributes["_WEIGHT0"]].Type)

	require.NotNil(t, prim.Indices)
	idx := doc.Accessors[*prim.Indices]
	assert.Equal(t, gltf.ComponentUbyte, idx.ComponentType)
	assert.Equal(t, uint32(6), idx.Count)
	assert.Equal(t, gltf.Target(gltf.TargetElementArrayBuffer), doc.BufferViews[*idx.BufferView].Target)

	for _, bv := range doc.BufferViews {
		assert.Zero(t, bv.ByteOffset%4, "buffer views are 4-byte aligned")
	}
	assert.Equal(t, uint32(len(doc.Buffers[0].Data)), doc.Buffers[0].ByteLength)
}

func TestBuildGltfEmptyMesh(t *testing.T) {
	_, err := MeshToGltf([]*Mesh{NewMeshWithName("empty")})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestGltfRoundTrip(t *testing.T) {
	m := newGltfTestMesh(t)
	doc, err := MeshToGltf([]*Mesh{m})
	require.NoError(t, err)

	meshes, err := GltfToMesh(doc)
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	got := meshes[0]
	assert.Equal(t, "quad", got.Name)
	assert.Equal(t, Unsigned8, got.IndexType())
	assert.Equal(t, Triangles, got.PrimitiveType())
	assert.Equal(t, m.VertexLayout().AttributeCount(), got.VertexLayout().AttributeCount())
	for _, a := range got.VertexLayout().Attributes() {
		assert.Equal(t, Float32, a.Type())
	}
	assertSameVertices(t, m, got)

	wb, _ := m.BoundingBox()
	gb, ok := got.BoundingBox()
	require.True(t, ok)
	assert.Equal(t, wb, gb)
}

func TestGltfBinaryRoundTrip(t *testing.T) {
	m := newGltfTestMesh(t)
	require.NoError(t, m.SetPrimitiveType(Lines))
	doc, err := MeshToGltf([]*Mesh{m})
	require.NoError(t, err)

	bt, err := GetGltfBinary(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, "glTF", string(bt[:4]))

	padded, err := GetGltfBinary(doc, 8)
	require.NoError(t, err)
	assert.Zero(t, len(padded)%8)

	decoded := new(gltf.Document)
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(bt)).Decode(decoded))
	meshes, err := GltfToMesh(decoded)
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	assert.Equal(t, Lines, meshes[0].PrimitiveType())
	assertSameVertices(t, m, meshes[0])
}

func TestGltfFileRoundTrip(t *testing.T) {
	a := newGltfTestMesh(t)
	b := NewMeshWithName("points")
	require.NoError(t, b.SetPrimitiveType(Points))
	w := NewMeshWriter(b)
	w.AddVertex()
	require.NoError(t, w.SetAttributeVector3(Position, vec3.T{5, 5, 5}))

	path := filepath.Join(t.TempDir(), "out", "scene.glb")
	require.NoError(t, MeshWriteToGlb(path, []*Mesh{a, b}))

	meshes, err := MeshReadFromGltf(path)
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assertSameVertices(t, a, meshes[0])
	assert.Equal(t, "points", meshes[1].Name)
	assert.Equal(t, Points, meshes[1].PrimitiveType())
	assert.Equal(t, 0, meshes[1].IndexCount())
	assertSameVertices(t, b, meshes[1])
}

func TestGltfToMeshPrimitives(t *testing.T) {
	doc, err := MeshToGltf([]*Mesh{newGltfTestMesh(t)})
	require.NoError(t, err)
	prim := doc.Meshes[0].Primitives[0]

	// JOINTS_0 has no semantic and is skipped.
	prim.Attributes["JOINTS_0"] = prim.Attributes["POSITION"]
	second := &gltf.Primitive{
		Attributes: gltf.Attribute{"POSITION": prim.Attributes["POSITION"]},
		Mode:       gltf.PrimitivePoints,
	}
	doc.Meshes[0].Primitives = append(doc.Meshes[0].Primitives, second)

	meshes, err := GltfToMesh(doc)
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assert.Equal(t, "quad#0", meshes[0].Name)
	assert.Equal(t, "quad#1", meshes[1].Name)
	assert.Equal(t, 6, meshes[0].VertexLayout().AttributeCount())
	assert.Equal(t, 1, meshes[1].VertexLayout().AttributeCount())
	assert.Equal(t, 4, meshes[1].VertexCount())
	assert.Equal(t, 0, meshes[1].IndexCount())
}

func TestGltfToMeshErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc *gltf.Document)
	}{
		{"TriangleFan", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Mode = gltf.PrimitiveTriangleFan
		}},
		{"IntegerAttribute", func(doc *gltf.Document) {
			prim := doc.Meshes[0].Primitives[0]
			prim.Attributes["_WEIGHT1"] = *prim.Indices
		}},
		{"AccessorOutOfRange", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Attributes["NORMAL"] = 99
		}},
		{"CountMismatch", func(doc *gltf.Document) {
			prim := doc.Meshes[0].Primitives[0]
			doc.Accessors[prim.Attributes["NORMAL"]].Count = 3
		}},
		{"AccessorPastBufferView", func(doc *gltf.Document) {
			prim := doc.Meshes[0].Primitives[0]
			doc.Accessors[prim.Attributes["NORMAL"]].ByteOffset = 40
		}},
		{"FloatIndices", func(doc *gltf.Document) {
			prim := doc.Meshes[0].Primitives[0]
			prim.Indices = uint32Ptr(prim.Attributes["_WEIGHT0"])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := MeshToGltf([]*Mesh{newGltfTestMesh(t)})
			require.NoError(t, err)
			tt.mutate(doc)
			_, err = GltfToMesh(doc)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}
