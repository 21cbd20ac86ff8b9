package vmesh

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DocumentFormat selects the text syntax of a mesh document. All formats describe the same
// tree:
//
//	{
//	  "name": "quad",
//	  "indexType": "Unsigned16",
//	  "primitiveType": "Triangles",
//	  "vertexLayout": [{"semantic": "Position", "type": "Float32", "cardinality": 3}],
//	  "vertices": [[{"semantic": "Position", "data": [0, 0, 0]}]],
//	  "indices": [0]
//	}
//
// A vertex may also be an object keyed by semantic name: {"Position": [0, 0, 0]}.
type DocumentFormat int

const (
	DocumentJSON DocumentFormat = iota
	DocumentYAML
	DocumentTOML
)

func (f DocumentFormat) String() string {
	switch f {
	case DocumentJSON:
		return "json"
	case DocumentYAML:
		return "yaml"
	case DocumentTOML:
		return "toml"
	}
	return fmt.Sprintf("DocumentFormat(%d)", int(f))
}

// DocumentFormatFromPath picks the format from the file extension.
func DocumentFormatFromPath(path string) (DocumentFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DocumentJSON, nil
	case ".yaml", ".yml":
		return DocumentYAML, nil
	case ".toml":
		return DocumentTOML, nil
	}
	return 0, fmt.Errorf("%w: unknown mesh document extension '%s'", ErrFormat, filepath.Ext(path))
}

// DecodeMesh parses a mesh document into a new mesh.
func DecodeMesh(r io.Reader, f DocumentFormat) (*Mesh, error) {
	m := NewMesh()
	if err := LoadMesh(m, r, f); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadMesh replaces the contents of m with the mesh described by the document. The schema
// fields the document omits keep m's current values. On error m is left untouched.
func LoadMesh(m *Mesh, r io.Reader, f DocumentFormat) error {
	root, err := decodeDocument(r, f)
	if err != nil {
		return err
	}
	scratch := &Mesh{
		Name:          m.Name,
		layout:        m.layout,
		indexType:     m.indexType,
		primitiveType: m.primitiveType,
	}
	scratch.Clear()
	if err := loadMeshDocument(scratch, root); err != nil {
		return err
	}
	*m = *scratch
	return nil
}

// MeshReadFromDocument loads a mesh document from disk, naming the mesh after the file when the
// document has no name.
func MeshReadFromDocument(path string) (*Mesh, error) {
	f, err := DocumentFormatFromPath(path)
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	m, err := DecodeMesh(fd, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

func decodeDocument(r io.Reader, f DocumentFormat) (interface{}, error) {
	var root interface{}
	switch f {
	case DocumentJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&root); err != nil {
			return nil, fmt.Errorf("%w: invalid json document: %v", ErrFormat, err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("%w: invalid json document: trailing data after the root value", ErrFormat)
		}
	case DocumentYAML:
		if err := yaml.NewDecoder(r).Decode(&root); err != nil {
			return nil, fmt.Errorf("%w: invalid yaml document: %v", ErrFormat, err)
		}
	case DocumentTOML:
		if err := toml.NewDecoder(r).Decode(&root); err != nil {
			return nil, fmt.Errorf("%w: invalid toml document: %v", ErrFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported document format %s", ErrFormat, f)
	}
	return root, nil
}

func loadMeshDocument(m *Mesh, root interface{}) error {
	doc, ok := root.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%w: document root must be an object", ErrFormat)
	}

	if v, ok := doc["name"]; ok {
		name, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: name must be a string, got %v", ErrFormat, v)
		}
		m.Name = name
	}

	// Index type (optional)
	if v, ok := doc["indexType"]; ok {
		name, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: indexType must be a string, got %v", ErrFormat, v)
		}
		t, err := ParseIndexType(name)
		if err != nil {
			return err
		}
		if err := m.SetIndexType(t); err != nil {
			return err
		}
	}

	// Primitive type (optional)
	if v, ok := doc["primitiveType"]; ok {
		name, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: primitiveType must be a string, got %v", ErrFormat, v)
		}
		t, err := ParsePrimitiveType(name)
		if err != nil {
			return err
		}
		if err := m.SetPrimitiveType(t); err != nil {
			return err
		}
	}

	// Vertex layout (optional)
	if v, ok := doc["vertexLayout"]; ok {
		l, err := parseVertexLayout(v)
		if err != nil {
			return err
		}
		if err := m.SetVertexLayout(l); err != nil {
			return err
		}
	}

	vertices, err := requiredArray(doc, "vertices")
	if err != nil {
		return err
	}
	indices, err := requiredArray(doc, "indices")
	if err != nil {
		return err
	}

	w := NewMeshWriter(m)
	for i, v := range vertices {
		w.AddVertex()
		entries, err := parseVertexEntries(v)
		if err != nil {
			return fmt.Errorf("vertices[%d]: %w", i, err)
		}
		for _, e := range entries {
			attr, ok := m.layout.AttributeWithSemantic(e.semantic)
			if !ok {
				return fmt.Errorf("%w: vertices[%d]: %w: layout %s has no attribute %s", ErrFormat, i, ErrSchemaMismatch, m.layout, e.semantic)
			}
			if len(e.data) != attr.Cardinality() {
				return fmt.Errorf("%w: vertices[%d]: attribute %s has %d components, layout declares %d",
					ErrFormat, i, e.semantic, len(e.data), attr.Cardinality())
			}
			if err := w.SetAttributeData(e.semantic, e.data...); err != nil {
				return fmt.Errorf("vertices[%d]: %w", i, err)
			}
		}
	}

	for i, v := range indices {
		idx, ok := toUnsigned(v)
		if !ok {
			return fmt.Errorf("%w: indices[%d]: expected unsigned integer, got %v", ErrFormat, i, v)
		}
		if err := w.AddIndex(idx); err != nil {
			return fmt.Errorf("indices[%d]: %w", i, err)
		}
	}
	return nil
}

func requiredArray(doc map[string]interface{}, field string) ([]interface{}, error) {
	v, ok := doc[field]
	if !ok {
		return nil, fmt.Errorf("%w: missing required field '%s'", ErrFormat, field)
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array", ErrFormat, field)
	}
	return arr, nil
}

func parseVertexLayout(v interface{}) (VertexLayout, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return VertexLayout{}, fmt.Errorf("%w: vertexLayout must be an array", ErrFormat)
	}
	attrs := make([]VertexAttribute, 0, len(arr))
	for i, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return VertexLayout{}, fmt.Errorf("%w: vertexLayout[%d] must be an object", ErrFormat, i)
		}
		semName, err := stringField(obj, "semantic")
		if err != nil {
			return VertexLayout{}, fmt.Errorf("vertexLayout[%d]: %w", i, err)
		}
		semantic, err := ParseVertexAttributeSemantic(semName)
		if err != nil {
			return VertexLayout{}, fmt.Errorf("vertexLayout[%d]: %w", i, err)
		}
		typName, err := stringField(obj, "type")
		if err != nil {
			return VertexLayout{}, fmt.Errorf("vertexLayout[%d]: %w", i, err)
		}
		typ, err := ParseVertexAttributeType(typName)
		if err != nil {
			return VertexLayout{}, fmt.Errorf("vertexLayout[%d]: %w", i, err)
		}
		c, ok := obj["cardinality"]
		if !ok {
			return VertexLayout{}, fmt.Errorf("%w: vertexLayout[%d]: missing required field 'cardinality'", ErrFormat, i)
		}
		cardinality, ok := toUnsigned(c)
		if !ok || cardinality < 1 || cardinality > 4 {
			return VertexLayout{}, fmt.Errorf("%w: vertexLayout[%d]: invalid cardinality %v", ErrFormat, i, c)
		}
		attr, err := NewVertexAttribute(semantic, typ, int(cardinality))
		if err != nil {
			return VertexLayout{}, fmt.Errorf("%w: vertexLayout[%d]: %w", ErrFormat, i, err)
		}
		attrs = append(attrs, attr)
	}
	l, err := NewVertexLayout(attrs...)
	if err != nil {
		return VertexLayout{}, fmt.Errorf("%w: vertexLayout: %w", ErrFormat, err)
	}
	return l, nil
}

type attributeEntry struct {
	semantic VertexAttributeSemantic
	data     []float32
}

func parseVertexEntries(v interface{}) ([]attributeEntry, error) {
	switch vtx := v.(type) {
	case []interface{}:
		entries := make([]attributeEntry, 0, len(vtx))
		for j, item := range vtx {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: attribute %d must be an object", ErrFormat, j)
			}
			name, err := stringField(obj, "semantic")
			if err != nil {
				return nil, fmt.Errorf("attribute %d: %w", j, err)
			}
			e, err := parseAttributeEntry(name, obj["data"])
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
		return entries, nil
	case map[string]interface{}:
		names := make([]string, 0, len(vtx))
		for name := range vtx {
			names = append(names, name)
		}
		sort.Strings(names)
		entries := make([]attributeEntry, 0, len(vtx))
		for _, name := range names {
			e, err := parseAttributeEntry(name, vtx[name])
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
		return entries, nil
	}
	return nil, fmt.Errorf("%w: vertex must be an array or an object", ErrFormat)
}

func parseAttributeEntry(name string, data interface{}) (attributeEntry, error) {
	semantic, err := ParseVertexAttributeSemantic(name)
	if err != nil {
		return attributeEntry{}, err
	}
	if data == nil {
		return attributeEntry{}, fmt.Errorf("%w: attribute %s: missing data", ErrFormat, semantic)
	}
	if f, ok := toFloat(data); ok {
		return attributeEntry{semantic: semantic, data: []float32{f}}, nil
	}
	arr, ok := data.([]interface{})
	if !ok || len(arr) == 0 || len(arr) > 4 {
		return attributeEntry{}, fmt.Errorf("%w: attribute %s: data must be a number or an array of 1 to 4 numbers", ErrFormat, semantic)
	}
	e := attributeEntry{semantic: semantic, data: make([]float32, len(arr))}
	for k, c := range arr {
		f, ok := toFloat(c)
		if !ok {
			return attributeEntry{}, fmt.Errorf("%w: attribute %s: component %d is not a number: %v", ErrFormat, semantic, k, c)
		}
		e.data[k] = f
	}
	return e, nil
}

func stringField(obj map[string]interface{}, field string) (string, error) {
	v, ok := obj[field]
	if !ok {
		return "", fmt.Errorf("%w: missing required field '%s'", ErrFormat, field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %v", ErrFormat, field, v)
	}
	return s, nil
}

// toFloat accepts the numeric types produced by the json, yaml and toml decoders. Values that
// are not finite float32 numbers are rejected.
func toFloat(v interface{}) (float32, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return narrowFloat(f)
	case float64:
		return narrowFloat(n)
	case float32:
		return n, !math.IsInf(float64(n), 0) && !math.IsNaN(float64(n))
	case int:
		return float32(n), true
	case int64:
		return float32(n), true
	case uint64:
		return float32(n), true
	}
	return 0, false
}

func narrowFloat(f float64) (float32, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxFloat32 {
		return 0, false
	}
	return float32(f), true
}

func toUnsigned(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		return u, err == nil
	case float64:
		if n < 0 || n != math.Trunc(n) || n >= 1<<64 {
			return 0, false
		}
		return uint64(n), true
	case int:
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case uint64:
		return n, true
	}
	return 0, false
}
