package vmesh

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/qmuntal/gltf"
)

// GltfToMesh converts every primitive of every glTF mesh into a Mesh, built through a
// MeshWriter. Only float attributes are supported; attributes that map to no semantic, such
// as JOINTS_0, are skipped.
func GltfToMesh(doc *gltf.Document) ([]*Mesh, error) {
	var meshes []*Mesh
	for i, mh := range doc.Meshes {
		for j, ps := range mh.Primitives {
			name := mh.Name
			if len(mh.Primitives) > 1 {
				name = fmt.Sprintf("%s#%d", mh.Name, j)
			}
			m, err := transPrimitive(doc, ps, name)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", i, j, err)
			}
			meshes = append(meshes, m)
		}
	}
	return meshes, nil
}

// MeshReadFromGltf opens a .gltf or .glb file and converts its primitives.
func MeshReadFromGltf(path string) ([]*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return GltfToMesh(doc)
}

type gltfStream struct {
	attr   VertexAttribute
	values []float32
}

func transPrimitive(doc *gltf.Document, ps *gltf.Primitive, name string) (*Mesh, error) {
	m := NewMeshWithName(name)

	var pt PrimitiveType
	found := false
	for t, mode := range gltfPrimitiveModes {
		if mode == ps.Mode {
			pt, found = t, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: unsupported primitive mode %v", ErrFormat, ps.Mode)
	}
	if err := m.SetPrimitiveType(pt); err != nil {
		return nil, err
	}

	var streams []gltfStream
	vertexCount := -1
	for attrName, idx := range ps.Attributes {
		s, ok := semanticFromGltfAttribute(attrName)
		if !ok {
			continue
		}
		values, count, cardinality, err := readAccessorFloats(doc, idx)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", attrName, err)
		}
		if vertexCount >= 0 && count != vertexCount {
			return nil, fmt.Errorf("%w: attribute %s has %d elements, expected %d", ErrFormat, attrName, count, vertexCount)
		}
		vertexCount = count
		attr, err := NewVertexAttribute(s, Float32, cardinality)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", attrName, err)
		}
		streams = append(streams, gltfStream{attr: attr, values: values})
	}
	sort.Slice(streams, func(i, j int) bool {
		return streams[i].attr.semantic < streams[j].attr.semantic
	})

	attrs := make([]VertexAttribute, len(streams))
	for i := range streams {
		attrs[i] = streams[i].attr
	}
	layout, err := NewVertexLayout(attrs...)
	if err != nil {
		return nil, err
	}
	if err := m.SetVertexLayout(layout); err != nil {
		return nil, err
	}

	var indices []uint64
	if ps.Indices != nil {
		var it IndexType
		if indices, it, err = readAccessorIndices(doc, *ps.Indices); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		if err := m.SetIndexType(it); err != nil {
			return nil, err
		}
	}

	w := NewMeshWriter(m)
	for v := 0; v < vertexCount; v++ {
		w.AddVertex()
		for _, st := range streams {
			c := st.attr.cardinality
			if err := w.SetAttributeData(st.attr.semantic, st.values[v*c:(v+1)*c]...); err != nil {
				return nil, err
			}
		}
	}
	if err := w.AddIndices(indices...); err != nil {
		return nil, err
	}
	return m, nil
}

// accessorRange returns the accessor's bytes starting at its first element and the stride
// between elements.
func accessorRange(doc *gltf.Document, acc *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if acc.BufferView == nil {
		return nil, 0, fmt.Errorf("%w: accessor without buffer view", ErrFormat)
	}
	if int(*acc.BufferView) >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("%w: buffer view %d out of range", ErrFormat, *acc.BufferView)
	}
	bv := doc.BufferViews[*acc.BufferView]
	if int(bv.Buffer) >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("%w: buffer %d out of range", ErrFormat, bv.Buffer)
	}
	buf := doc.Buffers[bv.Buffer].Data
	start := int(bv.ByteOffset)
	end := start + int(bv.ByteLength)
	if end > len(buf) {
		return nil, 0, fmt.Errorf("%w: buffer view exceeds buffer length", ErrFormat)
	}
	stride := int(bv.ByteStride)
	if stride == 0 {
		stride = elemSize
	}
	data := buf[start:end]
	off := int(acc.ByteOffset)
	if off > len(data) || (acc.Count > 0 && off+(int(acc.Count)-1)*stride+elemSize > len(data)) {
		return nil, 0, fmt.Errorf("%w: accessor exceeds buffer view", ErrFormat)
	}
	return data[off:], stride, nil
}

func readAccessorFloats(doc *gltf.Document, idx uint32) ([]float32, int, int, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, 0, 0, fmt.Errorf("%w: accessor %d out of range", ErrFormat, idx)
	}
	acc := doc.Accessors[idx]
	if acc.ComponentType != gltf.ComponentFloat {
		return nil, 0, 0, fmt.Errorf("%w: unsupported component type %v", ErrFormat, acc.ComponentType)
	}
	cardinality := gltfAccessorCardinality(acc.Type)
	if cardinality == 0 {
		return nil, 0, 0, fmt.Errorf("%w: unsupported accessor type %v", ErrFormat, acc.Type)
	}
	data, stride, err := accessorRange(doc, acc, cardinality*4)
	if err != nil {
		return nil, 0, 0, err
	}
	count := int(acc.Count)
	values := make([]float32, 0, count*cardinality)
	for i := 0; i < count; i++ {
		elem := data[i*stride:]
		for c := 0; c < cardinality; c++ {
			values = append(values, math.Float32frombits(binary.LittleEndian.Uint32(elem[c*4:])))
		}
	}
	return values, count, cardinality, nil
}

func readAccessorIndices(doc *gltf.Document, idx uint32) ([]uint64, IndexType, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, 0, fmt.Errorf("%w: accessor %d out of range", ErrFormat, idx)
	}
	acc := doc.Accessors[idx]
	var it IndexType
	found := false
	for t, ct := range gltfIndexComponents {
		if ct == acc.ComponentType {
			it, found = t, true
			break
		}
	}
	if !found || acc.Type != gltf.AccessorScalar {
		return nil, 0, fmt.Errorf("%w: unsupported index accessor %v %v", ErrFormat, acc.ComponentType, acc.Type)
	}
	data, stride, err := accessorRange(doc, acc, it.Size())
	if err != nil {
		return nil, 0, err
	}
	indices := make([]uint64, acc.Count)
	for i := range indices {
		indices[i] = getIndex(data[i*stride:], it)
	}
	return indices, it, nil
}
