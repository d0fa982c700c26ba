// Package formats provides parsers for legacy racing game asset formats.
// DMODEL (vehicle model) format decoder.
package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	stdmath "math"
	"os"
	"sort"

	"github.com/Faultbox/dmodel-tools/pkg/math"
)

// DMODEL format errors.
var (
	ErrTruncatedHeader      = errors.New("truncated DMODEL header")
	ErrVertexRangeOverrun   = errors.New("vertex array overruns DMODEL data")
	ErrCommandBufferOverrun = errors.New("command buffer overrun")
	ErrUnknownOpcode        = errors.New("unknown polygon command opcode")
	ErrIndexOutOfRange      = errors.New("triangle vertex index out of range")
)

// DModelHeaderSize is the size of the fixed DMODEL header.
const DModelHeaderSize = 0x30

// Header field offsets.
const (
	dmodelOffVertexCount  = 0x14
	dmodelOffPolyCmdCount = 0x16
	dmodelOffMeshCount    = 0x1A
	dmodelOffVertOffset   = 0x20
	dmodelOffPlaneOffset  = 0x24
	dmodelOffNormalOffset = 0x28
	dmodelOffCmdOffset    = 0x2C
)

// dmodelVertexSize is the size of one vertex record (three float32).
const dmodelVertexSize = 12

// dmodelVertexScale converts engine units to model units.
const dmodelVertexScale = 10.0

// DModelHeader holds the scalar fields of a DMODEL header.
type DModelHeader struct {
	VertexCount  uint16
	PolyCmdCount uint16
	MeshCount    uint16 // Informational, may be zero
	VertOffset   uint32
	PlaneOffset  uint32 // Parsed, not dereferenced
	NormalOffset uint32 // Parsed, not dereferenced
	CmdOffset    uint32
}

// DModelTriangle holds three vertex indices, in emitted corner order.
type DModelTriangle [3]uint16

// DModelUVs holds the texture coordinates of a triangle's three corners,
// in the same order as the triangle's indices.
type DModelUVs [3]math.Vec2

// DModelGeometry is the decoded geometry of a DMODEL file.
// Triangles, UVs and SurfaceIDs are parallel: index k in each refers to
// the same triangle.
type DModelGeometry struct {
	Vertices   []math.Vec3
	Triangles  []DModelTriangle
	UVs        []DModelUVs
	SurfaceIDs []uint8
}

// NumTriangles returns the number of triangles.
func (g *DModelGeometry) NumTriangles() int {
	return len(g.Triangles)
}

// DistinctSurfaceIDs returns the distinct surface ids in ascending order.
func (g *DModelGeometry) DistinctSurfaceIDs() []uint8 {
	var seen [256]bool
	var ids []uint8
	for _, id := range g.SurfaceIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Bounds returns the bounding box of all vertices.
func (g *DModelGeometry) Bounds() math.AABB {
	return math.BoundsOf(g.Vertices)
}

// IndexError reports a triangle corner referencing a missing vertex.
type IndexError struct {
	Triangle    int
	Corner      int
	Index       uint16
	VertexCount int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: triangle %d corner %d references vertex %d (have %d)",
		ErrIndexOutOfRange, e.Triangle, e.Corner, e.Index, e.VertexCount)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// ValidateIndices checks every triangle index against the vertex count.
// Decoding never calls this; the format itself does not cross-validate.
func ValidateIndices(g *DModelGeometry) error {
	n := len(g.Vertices)
	for i, tri := range g.Triangles {
		for c, idx := range tri {
			if int(idx) >= n {
				return &IndexError{Triangle: i, Corner: c, Index: idx, VertexCount: n}
			}
		}
	}
	return nil
}

// DecodeDModelHeader reads the fixed header fields.
func DecodeDModelHeader(data []byte) (*DModelHeader, error) {
	if len(data) < DModelHeaderSize {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncatedHeader, len(data), DModelHeaderSize)
	}

	le := binary.LittleEndian
	return &DModelHeader{
		VertexCount:  le.Uint16(data[dmodelOffVertexCount:]),
		PolyCmdCount: le.Uint16(data[dmodelOffPolyCmdCount:]),
		MeshCount:    le.Uint16(data[dmodelOffMeshCount:]),
		VertOffset:   le.Uint32(data[dmodelOffVertOffset:]),
		PlaneOffset:  le.Uint32(data[dmodelOffPlaneOffset:]),
		NormalOffset: le.Uint32(data[dmodelOffNormalOffset:]),
		CmdOffset:    le.Uint32(data[dmodelOffCmdOffset:]),
	}, nil
}

// DecodeDModelVertices reads count vertex records starting at offset and
// applies the (-x/10, -y/10, z/10) transform.
func DecodeDModelVertices(data []byte, offset uint32, count uint16) ([]math.Vec3, error) {
	end := uint64(offset) + uint64(count)*dmodelVertexSize
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d vertices at 0x%X end at 0x%X, data is 0x%X bytes",
			ErrVertexRangeOverrun, count, offset, end, len(data))
	}

	le := binary.LittleEndian
	verts := make([]math.Vec3, count)
	p := int(offset)
	for i := range verts {
		x := stdmath.Float32frombits(le.Uint32(data[p:]))
		y := stdmath.Float32frombits(le.Uint32(data[p+4:]))
		z := stdmath.Float32frombits(le.Uint32(data[p+8:]))
		// Scale in double precision from the float32 source, then store.
		verts[i] = math.Vec3{
			X: float32(-float64(x) / dmodelVertexScale),
			Y: float32(-float64(y) / dmodelVertexScale),
			Z: float32(float64(z) / dmodelVertexScale),
		}
		p += dmodelVertexSize
	}
	return verts, nil
}

// assembleDModel combines decoder outputs. The command sequences must be
// parallel; a mismatch is a decoder bug.
func assembleDModel(verts []math.Vec3, cmds *DModelCommands) *DModelGeometry {
	if len(cmds.Triangles) != len(cmds.UVs) || len(cmds.Triangles) != len(cmds.SurfaceIDs) {
		panic(fmt.Sprintf("dmodel: unparallel command output: %d triangles, %d uvs, %d surface ids",
			len(cmds.Triangles), len(cmds.UVs), len(cmds.SurfaceIDs)))
	}
	return &DModelGeometry{
		Vertices:   verts,
		Triangles:  cmds.Triangles,
		UVs:        cmds.UVs,
		SurfaceIDs: cmds.SurfaceIDs,
	}
}

// ParseDModel decodes a DMODEL file from raw bytes.
// No partial geometry is returned on error.
func ParseDModel(data []byte) (*DModelGeometry, error) {
	hdr, err := DecodeDModelHeader(data)
	if err != nil {
		return nil, err
	}

	verts, err := DecodeDModelVertices(data, hdr.VertOffset, hdr.VertexCount)
	if err != nil {
		return nil, err
	}

	cmds, err := DecodeDModelCommands(data, hdr.CmdOffset, hdr.PolyCmdCount)
	if err != nil {
		return nil, err
	}

	return assembleDModel(verts, cmds), nil
}

// ParseDModelFile parses a DMODEL file from disk.
func ParseDModelFile(path string) (*DModelGeometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading DMODEL file: %w", err)
	}
	return ParseDModel(data)
}
