package vmesh

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	dvec3 "github.com/flywave/go3d/float64/vec3"
)

// maxPayloadSize bounds a single vertex or index payload read from a file.
const maxPayloadSize = 1 << 31

type MarshalOptions struct {
	Version  uint32
	Compress bool
}

var DefaultMarshalOptions = MarshalOptions{Version: V2}

func writeLittleByte(wt io.Writer, v interface{}) error {
	return binary.Write(wt, binary.LittleEndian, v)
}

func readLittleByte(rd io.Reader, v interface{}) error {
	return binary.Read(rd, binary.LittleEndian, v)
}

func compressPayload(buf []byte) ([]byte, error) {
	bf := bytes.NewBuffer(nil)
	w := zlib.NewWriter(bf)
	if _, err := w.Write(buf); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return bf.Bytes(), nil
}

// decompressPayload inflates src, reading at most limit+1 bytes so an oversized stream is
// detected without being expanded.
func decompressPayload(src []byte, limit int64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(io.LimitReader(r, limit+1))
}

// readFull reads exactly n bytes. The buffer grows with the data actually present rather than
// with n.
func readFull(rd io.Reader, n int64) ([]byte, error) {
	bf := bytes.NewBuffer(nil)
	if _, err := io.CopyN(bf, rd, n); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: truncated payload of %d bytes: %v", ErrFormat, n, err)
	}
	return bf.Bytes(), nil
}

func VertexLayoutMarshal(wt io.Writer, l VertexLayout) error {
	if err := writeLittleByte(wt, uint32(l.AttributeCount())); err != nil {
		return err
	}
	for _, a := range l.attributes {
		if err := writeLittleByte(wt, [3]uint8{uint8(a.semantic), uint8(a.typ), uint8(a.cardinality)}); err != nil {
			return err
		}
	}
	return nil
}

func VertexLayoutUnMarshal(rd io.Reader) (VertexLayout, error) {
	var size uint32
	if err := readLittleByte(rd, &size); err != nil {
		return VertexLayout{}, err
	}
	if size > uint32(semanticCount) {
		return VertexLayout{}, fmt.Errorf("%w: layout declares %d attributes", ErrFormat, size)
	}
	attrs := make([]VertexAttribute, size)
	for i := range attrs {
		var raw [3]uint8
		if err := readLittleByte(rd, &raw); err != nil {
			return VertexLayout{}, err
		}
		a, err := NewVertexAttribute(VertexAttributeSemantic(raw[0]), VertexAttributeType(raw[1]), int(raw[2]))
		if err != nil {
			return VertexLayout{}, fmt.Errorf("%w: attribute %d: %w", ErrFormat, i, err)
		}
		attrs[i] = a
	}
	l, err := NewVertexLayout(attrs...)
	if err != nil {
		return VertexLayout{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return l, nil
}

func writePayload(wt io.Writer, count int, data []byte, compress bool) error {
	if err := writeLittleByte(wt, uint32(count)); err != nil {
		return err
	}
	if compress {
		var err error
		if data, err = compressPayload(data); err != nil {
			return err
		}
	}
	if err := writeLittleByte(wt, uint32(len(data))); err != nil {
		return err
	}
	_, err := wt.Write(data)
	return err
}

func readPayload(rd io.Reader, elemSize int, compressed bool) (int, []byte, error) {
	var count, size uint32
	if err := readLittleByte(rd, &count); err != nil {
		return 0, nil, err
	}
	if err := readLittleByte(rd, &size); err != nil {
		return 0, nil, err
	}
	expected := uint64(count) * uint64(elemSize)
	if expected > maxPayloadSize {
		return 0, nil, fmt.Errorf("%w: %d elements of %d bytes exceed the payload limit", ErrFormat, count, elemSize)
	}
	if uint64(size) > maxPayloadSize || (!compressed && uint64(size) != expected) {
		return 0, nil, fmt.Errorf("%w: payload is %d bytes, expected %d elements of %d bytes", ErrFormat, size, count, elemSize)
	}
	data, err := readFull(rd, int64(size))
	if err != nil {
		return 0, nil, err
	}
	if compressed {
		if data, err = decompressPayload(data, int64(expected)); err != nil {
			return 0, nil, fmt.Errorf("%w: corrupt payload: %v", ErrFormat, err)
		}
		if uint64(len(data)) != expected {
			return 0, nil, fmt.Errorf("%w: payload inflates to %d bytes, expected %d elements of %d bytes", ErrFormat, len(data), count, elemSize)
		}
	}
	if count == 0 {
		data = nil
	}
	return int(count), data, nil
}

func MeshMarshal(wt io.Writer, ms *Mesh) error {
	return MeshMarshalWithOptions(wt, ms, DefaultMarshalOptions)
}

func MeshMarshalWithOptions(wt io.Writer, ms *Mesh, opts MarshalOptions) error {
	if opts.Version != V1 && opts.Version != V2 {
		return fmt.Errorf("%w: unsupported version %d", ErrFormat, opts.Version)
	}
	if opts.Compress && opts.Version < V2 {
		return fmt.Errorf("%w: compression requires version %d", ErrFormat, V2)
	}
	if _, err := wt.Write([]byte(MESH_SIGNATURE)); err != nil {
		return err
	}
	if err := writeLittleByte(wt, opts.Version); err != nil {
		return err
	}
	// V2 及以上版本写入标志位
	if opts.Version >= V2 {
		var flags uint32
		if opts.Compress {
			flags |= MESH_FLAG_COMPRESSED_ZLIB
		}
		if err := writeLittleByte(wt, flags); err != nil {
			return err
		}
	}
	if err := writeLittleByte(wt, uint32(len(ms.Name))); err != nil {
		return err
	}
	if _, err := wt.Write([]byte(ms.Name)); err != nil {
		return err
	}
	if err := writeLittleByte(wt, [2]uint8{uint8(ms.indexType), uint8(ms.primitiveType)}); err != nil {
		return err
	}
	if err := VertexLayoutMarshal(wt, ms.layout); err != nil {
		return err
	}
	if ms.bboxValid {
		box := [6]float64{ms.bbox.Min[0], ms.bbox.Min[1], ms.bbox.Min[2], ms.bbox.Max[0], ms.bbox.Max[1], ms.bbox.Max[2]}
		if err := writeLittleByte(wt, uint8(1)); err != nil {
			return err
		}
		if err := writeLittleByte(wt, &box); err != nil {
			return err
		}
	} else if err := writeLittleByte(wt, uint8(0)); err != nil {
		return err
	}
	if err := writePayload(wt, ms.vertexCount, ms.vertexData, opts.Compress); err != nil {
		return err
	}
	return writePayload(wt, ms.indexCount, ms.indexData, opts.Compress)
}

func MeshUnMarshal(rd io.Reader) (*Mesh, error) {
	sig := make([]byte, len(MESH_SIGNATURE))
	if _, err := io.ReadFull(rd, sig); err != nil {
		return nil, err
	}
	if string(sig) != MESH_SIGNATURE {
		return nil, fmt.Errorf("%w: bad signature %q", ErrFormat, sig)
	}
	var version uint32
	if err := readLittleByte(rd, &version); err != nil {
		return nil, err
	}
	if version != V1 && version != V2 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, version)
	}
	var flags uint32
	if version >= V2 {
		if err := readLittleByte(rd, &flags); err != nil {
			return nil, err
		}
	}
	compressed := flags&MESH_FLAG_COMPRESSED_ZLIB != 0

	var nameSize uint32
	if err := readLittleByte(rd, &nameSize); err != nil {
		return nil, err
	}
	if nameSize > 1<<16 {
		return nil, fmt.Errorf("%w: name of %d bytes", ErrFormat, nameSize)
	}
	name := make([]byte, nameSize)
	if _, err := io.ReadFull(rd, name); err != nil {
		return nil, err
	}

	ms := NewMeshWithName(string(name))
	var types [2]uint8
	if err := readLittleByte(rd, &types); err != nil {
		return nil, err
	}
	if err := ms.SetIndexType(IndexType(types[0])); err != nil {
		return nil, err
	}
	if err := ms.SetPrimitiveType(PrimitiveType(types[1])); err != nil {
		return nil, err
	}
	layout, err := VertexLayoutUnMarshal(rd)
	if err != nil {
		return nil, err
	}
	ms.layout = layout

	var hasBox uint8
	if err := readLittleByte(rd, &hasBox); err != nil {
		return nil, err
	}
	switch hasBox {
	case 0:
	case 1:
		var box [6]float64
		if err := readLittleByte(rd, &box); err != nil {
			return nil, err
		}
		ms.bbox = dvec3.Box{Min: dvec3.T{box[0], box[1], box[2]}, Max: dvec3.T{box[3], box[4], box[5]}}
		ms.bboxValid = true
	default:
		return nil, fmt.Errorf("%w: bounding box flag %d", ErrFormat, hasBox)
	}

	if ms.vertexCount, ms.vertexData, err = readPayload(rd, layout.Stride(), compressed); err != nil {
		return nil, fmt.Errorf("vertices: %w", err)
	}
	if ms.indexCount, ms.indexData, err = readPayload(rd, ms.indexType.Size(), compressed); err != nil {
		return nil, fmt.Errorf("indices: %w", err)
	}
	return ms, nil
}

func MeshReadFrom(path string) (*Mesh, error) {
	f, e := os.Open(path)
	if e != nil {
		return nil, e
	}
	defer f.Close()
	return MeshUnMarshal(f)
}

func MeshWriteTo(path string, ms *Mesh) error {
	return MeshWriteToWithOptions(path, ms, DefaultMarshalOptions)
}

func MeshWriteToWithOptions(path string, ms *Mesh, opts MarshalOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	f, e := os.Create(path)
	if e != nil {
		return e
	}
	if err := MeshMarshalWithOptions(f, ms, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
