package vmesh

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
)

func MeshToGltf(meshes []*Mesh) (*gltf.Document, error) {
	doc := CreateDoc()
	for _, m := range meshes {
		if e := BuildGltf(doc, m); e != nil {
			return nil, e
		}
	}
	return doc, nil
}

func CreateDoc() *gltf.Document {
	doc := &gltf.Document{}
	doc.Asset.Version = GLTF_VERSION
	srcIndex := uint32(0)
	doc.Scene = &srcIndex
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	return doc
}

type calcSizeWriter struct {
	writer io.Writer
	Size   int
}

func (w *calcSizeWriter) Write(p []byte) (n int, err error) {
	si := len(p)
	if _, err := w.writer.Write(p); err != nil {
		return 0, err
	}
	w.Size += si
	return si, nil
}

func (w *calcSizeWriter) Bytes() []byte {
	return w.writer.(*bytes.Buffer).Bytes()
}

func newSizeWriter() *calcSizeWriter {
	return &calcSizeWriter{writer: bytes.NewBuffer(nil)}
}

func calcPadding(offset, paddingUnit int) int {
	padding := offset % paddingUnit
	if padding != 0 {
		padding = paddingUnit - padding
	}
	return padding
}

// GetGltfBinary encodes doc as glb, padding the output with spaces to a multiple of
// paddingUnit bytes.
func GetGltfBinary(doc *gltf.Document, paddingUnit int) ([]byte, error) {
	w := newSizeWriter()
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if paddingUnit <= 0 {
		return w.Bytes(), nil
	}
	padding := calcPadding(w.Size, paddingUnit)
	if padding == 0 {
		return w.Bytes(), nil
	}
	if _, err := w.Write(bytes.Repeat([]byte{0x20}, padding)); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// appendBufferView appends data to the document's first buffer, 4-byte aligned, and returns
// the index of a buffer view covering it.
func appendBufferView(doc *gltf.Document, data []byte, target gltf.Target) uint32 {
	buffer := doc.Buffers[0]
	if pad := calcPadding(len(buffer.Data), 4); pad != 0 {
		buffer.Data = append(buffer.Data, make([]byte, pad)...)
	}
	view := &gltf.BufferView{
		Buffer:     0,
		ByteOffset: uint32(len(buffer.Data)),
		ByteLength: uint32(len(data)),
		Target:     target,
	}
	buffer.Data = append(buffer.Data, data...)
	buffer.ByteLength = uint32(len(buffer.Data))
	doc.BufferViews = append(doc.BufferViews, view)
	return uint32(len(doc.BufferViews) - 1)
}

// BuildGltf appends m to doc as one mesh with a single primitive and one node referencing it.
// Vertex data are decoded through a MeshReader and stored as float32 accessors.
func BuildGltf(doc *gltf.Document, m *Mesh) error {
	if m.VertexCount() == 0 {
		return fmt.Errorf("%w: mesh %q has no vertices to export", ErrFormat, m.Name)
	}
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	}
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	}

	attrs := m.VertexLayout().Attributes()
	streams := make([]*bytes.Buffer, len(attrs))
	for i := range streams {
		streams[i] = bytes.NewBuffer(make([]byte, 0, m.VertexCount()*attrs[i].cardinality*4))
	}

	rd := NewMeshReader(m)
	for rd.NextVertex() {
		for i, a := range attrs {
			data, err := rd.ReadAttributeData(a.semantic)
			if err != nil {
				return err
			}
			for _, c := range data {
				var b [4]byte
				binary.LittleEndian.PutUint32(b[:], math.Float32bits(c))
				streams[i].Write(b[:])
			}
		}
	}

	prim := &gltf.Primitive{
		Attributes: gltf.Attribute{},
		Mode:       gltfPrimitiveModes[m.PrimitiveType()],
	}
	for i, a := range attrs {
		acc := &gltf.Accessor{
			BufferView:    uint32Ptr(appendBufferView(doc, streams[i].Bytes(), gltf.TargetArrayBuffer)),
			ComponentType: gltf.ComponentFloat,
			Type:          gltfAccessorTypes[a.cardinality],
			Count:         uint32(m.VertexCount()),
		}
		if a.semantic == Position && a.cardinality == 3 {
			if box, ok := m.BoundingBox(); ok {
				acc.Min = []float32{float32(box.Min[0]), float32(box.Min[1]), float32(box.Min[2])}
				acc.Max = []float32{float32(box.Max[0]), float32(box.Max[1]), float32(box.Max[2])}
			}
		}
		doc.Accessors = append(doc.Accessors, acc)
		prim.Attributes[gltfAttributeName(a)] = uint32(len(doc.Accessors) - 1)
	}

	if m.IndexCount() > 0 {
		it := m.IndexType()
		data := make([]byte, m.IndexCount()*it.Size())
		for off := 0; rd.NextIndex(); off += it.Size() {
			v, err := rd.ReadIndexInt()
			if err != nil {
				return err
			}
			putIndex(data[off:], it, uint64(v))
		}
		acc := &gltf.Accessor{
			BufferView:    uint32Ptr(appendBufferView(doc, data, gltf.TargetElementArrayBuffer)),
			ComponentType: gltfIndexComponents[it],
			Type:          gltf.AccessorScalar,
			Count:         uint32(m.IndexCount()),
		}
		doc.Accessors = append(doc.Accessors, acc)
		prim.Indices = uint32Ptr(uint32(len(doc.Accessors) - 1))
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: m.Name, Primitives: []*gltf.Primitive{prim}})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: m.Name, Mesh: uint32Ptr(uint32(len(doc.Meshes) - 1))})
	scene := doc.Scenes[0]
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		scene = doc.Scenes[*doc.Scene]
	}
	scene.Nodes = append(scene.Nodes, uint32(len(doc.Nodes)-1))
	return nil
}

// MeshWriteToGlb exports meshes as a binary glTF file.
func MeshWriteToGlb(path string, meshes []*Mesh) error {
	doc, err := MeshToGltf(meshes)
	if err != nil {
		return err
	}
	bt, err := GetGltfBinary(doc, 0)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, bt, 0o644)
}
