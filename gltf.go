package vmesh

import (
	"strings"

	"github.com/qmuntal/gltf"
)

// GLTF_VERSION 定义GLTF规范版本
const GLTF_VERSION = "2.0"

// 标准 glTF 属性名及其要求的分量个数
var gltfStandardAttributes = map[VertexAttributeSemantic]struct {
	name        string
	cardinality []int
}{
	Position:       {"POSITION", []int{3}},
	Normal:         {"NORMAL", []int{3}},
	Tangent:        {"TANGENT", []int{4}},
	Color:          {"COLOR_0", []int{3, 4}},
	TextureCoords0: {"TEXCOORD_0", []int{2}},
	TextureCoords1: {"TEXCOORD_1", []int{2}},
	TextureCoords2: {"TEXCOORD_2", []int{2}},
	TextureCoords3: {"TEXCOORD_3", []int{2}},
}

// gltfAttributeName maps an attribute to its glTF name. Attributes glTF has no slot for, or
// whose cardinality the standard slot does not allow, use an application-specific name.
func gltfAttributeName(a VertexAttribute) string {
	if std, ok := gltfStandardAttributes[a.semantic]; ok {
		for _, c := range std.cardinality {
			if c == a.cardinality {
				return std.name
			}
		}
	}
	return gltfCustomAttributeName(a.semantic)
}

func gltfCustomAttributeName(s VertexAttributeSemantic) string {
	return "_" + strings.ToUpper(s.String())
}

// semanticFromGltfAttribute is the inverse of gltfAttributeName.
func semanticFromGltfAttribute(name string) (VertexAttributeSemantic, bool) {
	for s, std := range gltfStandardAttributes {
		if std.name == name {
			return s, true
		}
	}
	for s := VertexAttributeSemantic(0); s < semanticCount; s++ {
		if gltfCustomAttributeName(s) == name {
			return s, true
		}
	}
	return 0, false
}

var gltfPrimitiveModes = map[PrimitiveType]gltf.PrimitiveMode{
	Points:        gltf.PrimitivePoints,
	Lines:         gltf.PrimitiveLines,
	LineStrip:     gltf.PrimitiveLineStrip,
	Triangles:     gltf.PrimitiveTriangles,
	TriangleStrip: gltf.PrimitiveTriangleStrip,
}

var gltfIndexComponents = map[IndexType]gltf.ComponentType{
	Unsigned8:  gltf.ComponentUbyte,
	Unsigned16: gltf.ComponentUshort,
	Unsigned32: gltf.ComponentUint,
}

var gltfAccessorTypes = [...]gltf.AccessorType{
	1: gltf.AccessorScalar,
	2: gltf.AccessorVec2,
	3: gltf.AccessorVec3,
	4: gltf.AccessorVec4,
}

func gltfAccessorCardinality(t gltf.AccessorType) int {
	for c, at := range gltfAccessorTypes {
		if c > 0 && at == t {
			return c
		}
	}
	return 0
}

func uint32Ptr(v uint32) *uint32 {
	return &v
}
