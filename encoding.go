package vmesh

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"
)

// All packed data are little-endian.

func putComponent(dst []byte, t VertexAttributeType, v float32) {
	switch t {
	case Float16:
		binary.LittleEndian.PutUint16(dst, float16.Fromfloat32(v).Bits())
	case Float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	}
}

// componentFits reports whether v survives encoding as t without turning a finite value into
// an infinity. Mantissa rounding is accepted.
func componentFits(t VertexAttributeType, v float32) bool {
	if t != Float16 || math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
		return true
	}
	return !math.IsInf(float64(float16.Fromfloat32(v).Float32()), 0)
}

func getComponent(src []byte, t VertexAttributeType) float32 {
	switch t {
	case Float16:
		return float16.Frombits(binary.LittleEndian.Uint16(src)).Float32()
	case Float32:
		return math.Float32frombits(binary.LittleEndian.Uint32(src))
	}
	return 0
}

func putIndex(dst []byte, t IndexType, v uint64) {
	switch t {
	case Unsigned8:
		dst[0] = uint8(v)
	case Unsigned16:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case Unsigned32:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	}
}

func getIndex(src []byte, t IndexType) uint64 {
	switch t {
	case Unsigned8:
		return uint64(src[0])
	case Unsigned16:
		return uint64(binary.LittleEndian.Uint16(src))
	case Unsigned32:
		return uint64(binary.LittleEndian.Uint32(src))
	}
	return 0
}
