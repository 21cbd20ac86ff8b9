package vmesh

import "fmt"

const MESH_SIGNATURE string = "fwvm"
const VMESHEXT string = ".vmesh"
const V1 uint32 = 1
const V2 uint32 = 2

const (
	MESH_FLAG_COMPRESSED_ZLIB uint32 = 1 << 0
)

// VertexAttributeSemantic 顶点属性语义
type VertexAttributeSemantic uint8

const (
	Position VertexAttributeSemantic = iota
	Normal
	Color
	Tangent
	Binormal
	Weight0
	Weight1
	Weight2
	Weight3
	TextureCoords0
	TextureCoords1
	TextureCoords2
	TextureCoords3
	semanticCount
)

var semanticNames = [semanticCount]string{
	Position:       "Position",
	Normal:         "Normal",
	Color:          "Color",
	Tangent:        "Tangent",
	Binormal:       "Binormal",
	Weight0:        "Weight0",
	Weight1:        "Weight1",
	Weight2:        "Weight2",
	Weight3:        "Weight3",
	TextureCoords0: "TextureCoords0",
	TextureCoords1: "TextureCoords1",
	TextureCoords2: "TextureCoords2",
	TextureCoords3: "TextureCoords3",
}

func (s VertexAttributeSemantic) Valid() bool {
	return s < semanticCount
}

func (s VertexAttributeSemantic) String() string {
	if !s.Valid() {
		return fmt.Sprintf("VertexAttributeSemantic(%d)", uint8(s))
	}
	return semanticNames[s]
}

// Directional reports whether the semantic describes a direction or point in space.
func (s VertexAttributeSemantic) Directional() bool {
	switch s {
	case Position, Normal, Tangent, Binormal:
		return true
	}
	return false
}

// VertexAttributeType 顶点属性分量的数值编码
type VertexAttributeType uint8

const (
	Float16 VertexAttributeType = iota
	Float32
	attributeTypeCount
)

var attributeTypeNames = [attributeTypeCount]string{
	Float16: "Float16",
	Float32: "Float32",
}

func (t VertexAttributeType) Valid() bool {
	return t < attributeTypeCount
}

func (t VertexAttributeType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("VertexAttributeType(%d)", uint8(t))
	}
	return attributeTypeNames[t]
}

// Size returns the byte width of one component.
func (t VertexAttributeType) Size() int {
	switch t {
	case Float16:
		return 2
	case Float32:
		return 4
	}
	return 0
}

// IndexType 索引编码宽度
type IndexType uint8

const (
	Unsigned8 IndexType = iota
	Unsigned16
	Unsigned32
	indexTypeCount
)

var indexTypeNames = [indexTypeCount]string{
	Unsigned8:  "Unsigned8",
	Unsigned16: "Unsigned16",
	Unsigned32: "Unsigned32",
}

func (t IndexType) Valid() bool {
	return t < indexTypeCount
}

func (t IndexType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("IndexType(%d)", uint8(t))
	}
	return indexTypeNames[t]
}

func (t IndexType) Size() int {
	switch t {
	case Unsigned8:
		return 1
	case Unsigned16:
		return 2
	case Unsigned32:
		return 4
	}
	return 0
}

// MaxValue returns the largest index representable with this encoding.
func (t IndexType) MaxValue() uint64 {
	switch t {
	case Unsigned8:
		return 1<<8 - 1
	case Unsigned16:
		return 1<<16 - 1
	case Unsigned32:
		return 1<<32 - 1
	}
	return 0
}

// PrimitiveType 图元拓扑
type PrimitiveType uint8

const (
	Triangles PrimitiveType = iota
	TriangleStrip
	Lines
	LineStrip
	Points
	primitiveTypeCount
)

var primitiveTypeNames = [primitiveTypeCount]string{
	Triangles:     "Triangles",
	TriangleStrip: "TriangleStrip",
	Lines:         "Lines",
	LineStrip:     "LineStrip",
	Points:        "Points",
}

func (t PrimitiveType) Valid() bool {
	return t < primitiveTypeCount
}

func (t PrimitiveType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("PrimitiveType(%d)", uint8(t))
	}
	return primitiveTypeNames[t]
}

// Closed name tables used by the document importer. No fallback, no case folding.
var (
	semanticsByName      = map[string]VertexAttributeSemantic{}
	attributeTypesByName = map[string]VertexAttributeType{}
	indexTypesByName     = map[string]IndexType{}
	primitiveTypesByName = map[string]PrimitiveType{}
)

func init() {
	for i, n := range semanticNames {
		semanticsByName[n] = VertexAttributeSemantic(i)
	}
	for i, n := range attributeTypeNames {
		attributeTypesByName[n] = VertexAttributeType(i)
	}
	for i, n := range indexTypeNames {
		indexTypesByName[n] = IndexType(i)
	}
	for i, n := range primitiveTypeNames {
		primitiveTypesByName[n] = PrimitiveType(i)
	}
}

func ParseVertexAttributeSemantic(name string) (VertexAttributeSemantic, error) {
	s, ok := semanticsByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: invalid vertex attribute semantic '%s'", ErrFormat, name)
	}
	return s, nil
}

func ParseVertexAttributeType(name string) (VertexAttributeType, error) {
	t, ok := attributeTypesByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: invalid vertex attribute type '%s'", ErrFormat, name)
	}
	return t, nil
}

func ParseIndexType(name string) (IndexType, error) {
	t, ok := indexTypesByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: invalid index type '%s'", ErrFormat, name)
	}
	return t, nil
}

func ParsePrimitiveType(name string) (PrimitiveType, error) {
	t, ok := primitiveTypesByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: invalid primitive type '%s'", ErrFormat, name)
	}
	return t, nil
}
