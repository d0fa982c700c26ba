package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Faultbox/dmodel-tools/pkg/math"
)

// dmodelBuilder assembles DMODEL files for tests: header, then vertices at
// 0x30, then the command stream, then optional trailing bytes.
type dmodelBuilder struct {
	verts     [][3]float32
	cmds      [][]byte
	cmdCount  int // Overrides len(cmds) when > 0
	meshCount uint16
	trailing  []byte
}

func (b *dmodelBuilder) vertOffset() uint32 {
	return DModelHeaderSize
}

func (b *dmodelBuilder) cmdOffset() uint32 {
	return b.vertOffset() + uint32(len(b.verts)*12)
}

func (b *dmodelBuilder) bytes() []byte {
	buf := new(bytes.Buffer)

	header := make([]byte, DModelHeaderSize)
	count := len(b.cmds)
	if b.cmdCount > 0 {
		count = b.cmdCount
	}
	binary.LittleEndian.PutUint16(header[0x14:], uint16(len(b.verts)))
	binary.LittleEndian.PutUint16(header[0x16:], uint16(count))
	binary.LittleEndian.PutUint16(header[0x1A:], b.meshCount)
	binary.LittleEndian.PutUint32(header[0x20:], b.vertOffset())
	binary.LittleEndian.PutUint32(header[0x24:], 0xAAAA)
	binary.LittleEndian.PutUint32(header[0x28:], 0xBBBB)
	binary.LittleEndian.PutUint32(header[0x2C:], b.cmdOffset())
	buf.Write(header)

	for _, v := range b.verts {
		binary.Write(buf, binary.LittleEndian, v)
	}
	for _, c := range b.cmds {
		buf.Write(c)
	}
	buf.Write(b.trailing)
	return buf.Bytes()
}

// makeCmd builds a zero-filled record of the opcode's length with the
// given vertex indices.
func makeCmd(op DModelOpcode, meshID uint8, indices ...uint16) []byte {
	length, ok := op.RecordLength()
	if !ok {
		panic("makeCmd: unknown opcode")
	}
	rec := make([]byte, length)
	rec[0] = byte(op)
	rec[1] = meshID
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(rec[2+i*2:], idx)
	}
	return rec
}

// withUVs writes raw (u, v) byte pairs into rec starting at off.
func withUVs(rec []byte, off int, uvs ...[2]byte) []byte {
	for i, uv := range uvs {
		rec[off+i*2] = uv[0]
		rec[off+i*2+1] = uv[1]
	}
	return rec
}

func uv(u, v byte) math.Vec2 {
	return math.Vec2{X: float32(u) / 256, Y: float32(v) / 256}
}

func TestDecodeDModelHeader_Truncated(t *testing.T) {
	for _, size := range []int{0, 1, 0x14, 0x2C, DModelHeaderSize - 1} {
		data := bytes.Repeat([]byte{0xFF}, size)
		_, err := DecodeDModelHeader(data)
		if !errors.Is(err, ErrTruncatedHeader) {
			t.Errorf("size %d: expected ErrTruncatedHeader, got %v", size, err)
		}
		if _, err := ParseDModel(data); !errors.Is(err, ErrTruncatedHeader) {
			t.Errorf("size %d: ParseDModel expected ErrTruncatedHeader, got %v", size, err)
		}
	}
}

func TestDecodeDModelHeader_Fields(t *testing.T) {
	data := make([]byte, DModelHeaderSize)
	binary.LittleEndian.PutUint16(data[0x14:], 120)
	binary.LittleEndian.PutUint16(data[0x16:], 77)
	binary.LittleEndian.PutUint16(data[0x1A:], 4)
	binary.LittleEndian.PutUint32(data[0x20:], 0x100)
	binary.LittleEndian.PutUint32(data[0x24:], 0x200)
	binary.LittleEndian.PutUint32(data[0x28:], 0x300)
	binary.LittleEndian.PutUint32(data[0x2C:], 0x400)

	hdr, err := DecodeDModelHeader(data)
	if err != nil {
		t.Fatalf("DecodeDModelHeader failed: %v", err)
	}

	want := DModelHeader{
		VertexCount:  120,
		PolyCmdCount: 77,
		MeshCount:    4,
		VertOffset:   0x100,
		PlaneOffset:  0x200,
		NormalOffset: 0x300,
		CmdOffset:    0x400,
	}
	if *hdr != want {
		t.Errorf("header = %+v, want %+v", *hdr, want)
	}
}

func TestDecodeDModelVertices_Transform(t *testing.T) {
	b := &dmodelBuilder{verts: [][3]float32{{10, 20, 30}, {-5, 0, -2.5}}}
	data := b.bytes()

	verts, err := DecodeDModelVertices(data, b.vertOffset(), 2)
	if err != nil {
		t.Fatalf("DecodeDModelVertices failed: %v", err)
	}

	want := []math.Vec3{{X: -1, Y: -2, Z: 3}, {X: 0.5, Y: 0, Z: -0.25}}
	if !reflect.DeepEqual(verts, want) {
		t.Errorf("vertices = %v, want %v", verts, want)
	}
}

func TestDecodeDModelVertices_Precision(t *testing.T) {
	// 0.1 is not representable; the float32 source is divided in double
	// precision and rounded once.
	src := float32(0.1)
	b := &dmodelBuilder{verts: [][3]float32{{src, src, src}}}

	verts, err := DecodeDModelVertices(b.bytes(), b.vertOffset(), 1)
	if err != nil {
		t.Fatalf("DecodeDModelVertices failed: %v", err)
	}

	want := float32(float64(src) / 10)
	if verts[0].Z != want || verts[0].X != -want {
		t.Errorf("vertex = %v, want (%v, %v, %v)", verts[0], -want, -want, want)
	}
}

func TestDecodeDModelVertices_Overrun(t *testing.T) {
	b := &dmodelBuilder{verts: [][3]float32{{1, 2, 3}}}
	data := b.bytes()

	tests := []struct {
		name   string
		offset uint32
		count  uint16
	}{
		{"count past end", b.vertOffset(), 2},
		{"offset past end", uint32(len(data)), 1},
		{"offset near uint32 max", 0xFFFFFFF0, 1},
		{"last record short by one byte", uint32(len(data) - 11), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDModelVertices(data, tt.offset, tt.count)
			if !errors.Is(err, ErrVertexRangeOverrun) {
				t.Errorf("expected ErrVertexRangeOverrun, got %v", err)
			}
		})
	}
}

func TestDecodeDModelVertices_ZeroCount(t *testing.T) {
	verts, err := DecodeDModelVertices(make([]byte, DModelHeaderSize), DModelHeaderSize, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verts) != 0 {
		t.Errorf("expected no vertices, got %d", len(verts))
	}
}

func TestParseDModel_VertexOverrun(t *testing.T) {
	b := &dmodelBuilder{verts: [][3]float32{{1, 2, 3}}}
	data := b.bytes()
	binary.LittleEndian.PutUint16(data[0x14:], 50)

	geom, err := ParseDModel(data)
	if !errors.Is(err, ErrVertexRangeOverrun) {
		t.Fatalf("expected ErrVertexRangeOverrun, got %v", err)
	}
	if geom != nil {
		t.Error("expected no geometry on error")
	}
}

func TestParseDModel_Mixed(t *testing.T) {
	b := &dmodelBuilder{
		verts: [][3]float32{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}, {10, 10, 0}},
		cmds: [][]byte{
			makeCmd(OpTriangle, 1, 0, 1, 2),
			makeCmd(OpMarker, 9),
			makeCmd(OpTexQuad, 2, 0, 1, 2, 3),
			makeCmd(OpTriangleReversed, 3, 1, 2, 3),
			makeCmd(OpTexTriangleExt, 2, 3, 2, 1),
		},
		meshCount: 3,
	}

	geom, err := ParseDModel(b.bytes())
	if err != nil {
		t.Fatalf("ParseDModel failed: %v", err)
	}

	if len(geom.Vertices) != 4 {
		t.Errorf("expected 4 vertices, got %d", len(geom.Vertices))
	}
	if geom.NumTriangles() != 5 {
		t.Fatalf("expected 5 triangles, got %d", geom.NumTriangles())
	}
	if len(geom.UVs) != len(geom.Triangles) || len(geom.SurfaceIDs) != len(geom.Triangles) {
		t.Errorf("sequences not parallel: %d triangles, %d uvs, %d surface ids",
			len(geom.Triangles), len(geom.UVs), len(geom.SurfaceIDs))
	}

	wantIDs := []uint8{1, 2, 2, 3, 2}
	if !reflect.DeepEqual(geom.SurfaceIDs, wantIDs) {
		t.Errorf("surface ids = %v, want %v", geom.SurfaceIDs, wantIDs)
	}

	wantTris := []DModelTriangle{{0, 1, 2}, {2, 1, 0}, {3, 2, 0}, {3, 2, 1}, {1, 2, 3}}
	if !reflect.DeepEqual(geom.Triangles, wantTris) {
		t.Errorf("triangles = %v, want %v", geom.Triangles, wantTris)
	}

	if got := geom.DistinctSurfaceIDs(); !reflect.DeepEqual(got, []uint8{1, 2, 3}) {
		t.Errorf("DistinctSurfaceIDs() = %v, want [1 2 3]", got)
	}
}

func TestParseDModel_Deterministic(t *testing.T) {
	b := &dmodelBuilder{
		verts: [][3]float32{{1.5, -2.25, 3.125}, {4, 5, 6}, {7, 8, 9}, {0.3, 0.7, 0.9}},
		cmds: [][]byte{
			withUVs(makeCmd(OpTexQuadExt, 7, 0, 1, 2, 3), uvStartTexQuadExt, [2]byte{1, 2}, [2]byte{3, 4}, [2]byte{5, 6}, [2]byte{7, 8}),
			withUVs(makeCmd(OpTexTriangle, 8, 2, 1, 0), uvStartTexTriangle, [2]byte{9, 10}, [2]byte{11, 12}, [2]byte{13, 14}),
		},
	}
	data := b.bytes()

	first, err := ParseDModel(data)
	if err != nil {
		t.Fatalf("first ParseDModel failed: %v", err)
	}
	second, err := ParseDModel(data)
	if err != nil {
		t.Fatalf("second ParseDModel failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("decoding the same buffer twice produced different geometry")
	}
}

func TestParseDModel_DoesNotMutateInput(t *testing.T) {
	b := &dmodelBuilder{
		verts: [][3]float32{{1, 2, 3}},
		cmds:  [][]byte{makeCmd(OpTriangle, 0, 0, 0, 0)},
	}
	data := b.bytes()
	orig := append([]byte(nil), data...)

	if _, err := ParseDModel(data); err != nil {
		t.Fatalf("ParseDModel failed: %v", err)
	}
	if !bytes.Equal(data, orig) {
		t.Error("ParseDModel modified its input")
	}
}

func TestParseDModel_IndicesNotValidated(t *testing.T) {
	b := &dmodelBuilder{
		verts: [][3]float32{{1, 2, 3}},
		cmds:  [][]byte{makeCmd(OpTriangle, 0, 0, 500, 65535)},
	}

	geom, err := ParseDModel(b.bytes())
	if err != nil {
		t.Fatalf("ParseDModel should not validate indices, got %v", err)
	}
	if geom.Triangles[0] != (DModelTriangle{0, 500, 65535}) {
		t.Errorf("triangle = %v, want raw indices", geom.Triangles[0])
	}

	err = ValidateIndices(geom)
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	var ie *IndexError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *IndexError, got %T", err)
	}
	if ie.Triangle != 0 || ie.Corner != 1 || ie.Index != 500 || ie.VertexCount != 1 {
		t.Errorf("IndexError = %+v, want triangle 0 corner 1 index 500", ie)
	}
}

func TestValidateIndices_Valid(t *testing.T) {
	geom := &DModelGeometry{
		Vertices:   make([]math.Vec3, 3),
		Triangles:  []DModelTriangle{{0, 1, 2}, {2, 1, 0}},
		UVs:        make([]DModelUVs, 2),
		SurfaceIDs: []uint8{0, 0},
	}
	if err := ValidateIndices(geom); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDModelGeometry_Bounds(t *testing.T) {
	b := &dmodelBuilder{verts: [][3]float32{{10, 20, 30}, {-10, -20, -30}}}
	geom, err := ParseDModel(b.bytes())
	if err != nil {
		t.Fatalf("ParseDModel failed: %v", err)
	}

	bounds := geom.Bounds()
	if want := (math.Vec3{X: -1, Y: -2, Z: -3}); bounds.Min != want {
		t.Errorf("bounds min = %v, want %v", bounds.Min, want)
	}
	if want := (math.Vec3{X: 1, Y: 2, Z: 3}); bounds.Max != want {
		t.Errorf("bounds max = %v, want %v", bounds.Max, want)
	}
}

func TestAssembleDModel_PanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unparallel sequences")
		}
	}()
	assembleDModel(nil, &DModelCommands{
		Triangles:  make([]DModelTriangle, 2),
		UVs:        make([]DModelUVs, 1),
		SurfaceIDs: make([]uint8, 2),
	})
}

func TestParseDModelFile(t *testing.T) {
	testFile := filepath.Join("testdata", "test.dmodel")
	if _, err := os.Stat(testFile); os.IsNotExist(err) {
		t.Skip("testdata/test.dmodel not found, run: go run testdata/generate_dmodel.go")
	}

	geom, err := ParseDModelFile(testFile)
	if err != nil {
		t.Fatalf("ParseDModelFile failed: %v", err)
	}

	// generate_dmodel.go writes a unit cube: 8 vertices, 6 textured quads.
	if len(geom.Vertices) != 8 {
		t.Errorf("expected 8 vertices, got %d", len(geom.Vertices))
	}
	if geom.NumTriangles() != 12 {
		t.Errorf("expected 12 triangles, got %d", geom.NumTriangles())
	}
	if err := ValidateIndices(geom); err != nil {
		t.Errorf("generated cube has invalid indices: %v", err)
	}
}

func TestParseDModelFile_Missing(t *testing.T) {
	_, err := ParseDModelFile(filepath.Join(t.TempDir(), "missing.dmodel"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
