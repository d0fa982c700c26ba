// Package formats provides parsers for legacy racing game asset formats.
// DMODEL polygon command stream interpreter.
package formats

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/Faultbox/dmodel-tools/pkg/math"
)

// DModelOpcode is the first byte of a polygon command. It selects the
// record layout and is the only dispatch key: several records share a
// length.
type DModelOpcode uint8

// Polygon command opcodes.
const (
	OpTriangle         DModelOpcode = 0x10 // Triangle, file winding, no UVs
	OpTriangleReversed DModelOpcode = 0x12 // Triangle, reversed winding, no UVs
	OpMarker           DModelOpcode = 0x13 // No geometry
	OpTexTriangle      DModelOpcode = 0x14 // Textured triangle
	OpTexQuad          DModelOpcode = 0x15 // Textured quad (two triangles)
	OpTexTriangleExt   DModelOpcode = 0x16 // Textured triangle, extended record
	OpTexQuadExt       DModelOpcode = 0x17 // Textured quad, extended record
)

// dmodelCmdIndexStart is the offset of the first vertex index in a record.
// Byte 0 is the opcode and byte 1 the mesh id.
const dmodelCmdIndexStart = 2

// UV field start within textured records.
const (
	uvStartTexTriangle    = 0x0A
	uvStartTexQuad        = 0x0C
	uvStartTexTriangleExt = 0x0E
	uvStartTexQuadExt     = 0x14
)

// Corner orders applied to the raw a,b,c,d slots of a record.
var (
	cornersFile     = [3]int{0, 1, 2} // (a,b,c)
	cornersReversed = [3]int{2, 1, 0} // (c,b,a)
	cornersQuadTail = [3]int{3, 2, 0} // (d,c,a)
)

// String returns a human-readable opcode name.
func (op DModelOpcode) String() string {
	switch op {
	case OpTriangle:
		return "Triangle"
	case OpTriangleReversed:
		return "TriangleReversed"
	case OpMarker:
		return "Marker"
	case OpTexTriangle:
		return "TexTriangle"
	case OpTexQuad:
		return "TexQuad"
	case OpTexTriangleExt:
		return "TexTriangleExt"
	case OpTexQuadExt:
		return "TexQuadExt"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(op))
	}
}

// RecordLength returns the byte length of the opcode's record.
// ok is false for unrecognized opcodes.
func (op DModelOpcode) RecordLength() (length int, ok bool) {
	switch op {
	case OpTriangle:
		return 0x10, true
	case OpTriangleReversed, OpTexTriangle:
		return 0x14, true
	case OpMarker:
		return 0x16, true
	case OpTexQuad, OpTexTriangleExt:
		return 0x18, true
	case OpTexQuadExt:
		return 0x20, true
	default:
		return 0, false
	}
}

// Triangles returns how many triangles one record of this opcode emits.
func (op DModelOpcode) Triangles() int {
	switch op {
	case OpTriangle, OpTriangleReversed, OpTexTriangle, OpTexTriangleExt:
		return 1
	case OpTexQuad, OpTexQuadExt:
		return 2
	default:
		return 0
	}
}

// CommandError reports a failure at a specific polygon command.
type CommandError struct {
	Index  int          // Command index (0-based)
	Offset int          // Byte offset of the record
	Opcode DModelOpcode // Valid unless Err is an overrun before the opcode was read
	Err    error
}

func (e *CommandError) Error() string {
	switch e.Err {
	case ErrUnknownOpcode:
		return fmt.Sprintf("%v 0x%02X at offset 0x%X (command %d)", e.Err, uint8(e.Opcode), e.Offset, e.Index)
	default:
		return fmt.Sprintf("%v at command %d, offset 0x%X", e.Err, e.Index, e.Offset)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// DModelCommandInfo describes one record of the command stream.
type DModelCommandInfo struct {
	Index  int
	Offset int
	Opcode DModelOpcode
	MeshID uint8
	Length int
}

// DModelCommandStats counts records per opcode.
type DModelCommandStats map[DModelOpcode]int

// Opcodes returns the opcodes present, in ascending order.
func (s DModelCommandStats) Opcodes() []DModelOpcode {
	ops := make([]DModelOpcode, 0, len(s))
	for op := range s {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// DModelCommands holds the interpreter output. Triangles, UVs and
// SurfaceIDs are parallel.
type DModelCommands struct {
	Triangles  []DModelTriangle
	UVs        []DModelUVs
	SurfaceIDs []uint8
	Stats      DModelCommandStats
}

// emit appends one triangle built from the record's raw slots.
func (c *DModelCommands) emit(meshID uint8, idx *[4]uint16, uvs *[4]math.Vec2, corners [3]int) {
	var tri DModelTriangle
	var tuv DModelUVs
	for k, slot := range corners {
		tri[k] = idx[slot]
		tuv[k] = uvs[slot]
	}
	c.Triangles = append(c.Triangles, tri)
	c.UVs = append(c.UVs, tuv)
	c.SurfaceIDs = append(c.SurfaceIDs, meshID)
}

// readIndices reads n little-endian vertex indices from the record.
func readIndices(rec []byte, n int) [4]uint16 {
	var idx [4]uint16
	for i := 0; i < n; i++ {
		idx[i] = binary.LittleEndian.Uint16(rec[dmodelCmdIndexStart+i*2:])
	}
	return idx
}

// readUVs reads n (u, v) byte pairs starting at off, scaled by 1/256.
func readUVs(rec []byte, off, n int) [4]math.Vec2 {
	var uvs [4]math.Vec2
	for i := 0; i < n; i++ {
		uvs[i] = math.Vec2{
			X: float32(rec[off+i*2]) / 256.0,
			Y: float32(rec[off+i*2+1]) / 256.0,
		}
	}
	return uvs
}

func (c *DModelCommands) decodeTriangle(rec []byte, corners [3]int) {
	idx := readIndices(rec, 3)
	var uvs [4]math.Vec2
	c.emit(rec[1], &idx, &uvs, corners)
}

func (c *DModelCommands) decodeTexTriangle(rec []byte, uvStart int) {
	idx := readIndices(rec, 3)
	uvs := readUVs(rec, uvStart, 3)
	c.emit(rec[1], &idx, &uvs, cornersReversed)
}

func (c *DModelCommands) decodeTexQuad(rec []byte, uvStart int) {
	idx := readIndices(rec, 4)
	uvs := readUVs(rec, uvStart, 4)
	c.emit(rec[1], &idx, &uvs, cornersReversed)
	c.emit(rec[1], &idx, &uvs, cornersQuadTail)
}

// walkDModelCommands visits exactly count records starting at offset.
// Trailing bytes after the last record are ignored.
func walkDModelCommands(data []byte, offset uint32, count uint16, visit func(info DModelCommandInfo, rec []byte)) error {
	n := len(data)
	p := int(offset)

	for i := 0; i < int(count); i++ {
		if p >= n {
			return &CommandError{Index: i, Offset: p, Err: ErrCommandBufferOverrun}
		}

		op := DModelOpcode(data[p])
		length, ok := op.RecordLength()
		if !ok {
			return &CommandError{Index: i, Offset: p, Opcode: op, Err: ErrUnknownOpcode}
		}
		if p+length > n {
			return &CommandError{Index: i, Offset: p, Opcode: op, Err: ErrCommandBufferOverrun}
		}

		rec := data[p : p+length]
		visit(DModelCommandInfo{
			Index:  i,
			Offset: p,
			Opcode: op,
			MeshID: rec[1],
			Length: length,
		}, rec)
		p += length
	}
	return nil
}

// DecodeDModelCommands interprets count polygon commands starting at offset.
func DecodeDModelCommands(data []byte, offset uint32, count uint16) (*DModelCommands, error) {
	out := &DModelCommands{Stats: make(DModelCommandStats)}

	err := walkDModelCommands(data, offset, count, func(info DModelCommandInfo, rec []byte) {
		out.Stats[info.Opcode]++

		switch info.Opcode {
		case OpTriangle:
			out.decodeTriangle(rec, cornersFile)
		case OpTriangleReversed:
			out.decodeTriangle(rec, cornersReversed)
		case OpMarker:
			// Marker records only advance the cursor.
		case OpTexTriangle:
			out.decodeTexTriangle(rec, uvStartTexTriangle)
		case OpTexQuad:
			out.decodeTexQuad(rec, uvStartTexQuad)
		case OpTexTriangleExt:
			out.decodeTexTriangle(rec, uvStartTexTriangleExt)
		case OpTexQuadExt:
			out.decodeTexQuad(rec, uvStartTexQuadExt)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ScanDModelCommands lists the records of the command stream without
// building geometry.
func ScanDModelCommands(data []byte, offset uint32, count uint16) ([]DModelCommandInfo, error) {
	infos := make([]DModelCommandInfo, 0, count)
	err := walkDModelCommands(data, offset, count, func(info DModelCommandInfo, _ []byte) {
		infos = append(infos, info)
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}
