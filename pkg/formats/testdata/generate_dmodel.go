//go:build ignore

// This program generates a test DMODEL file for unit tests.
// Run with: go run generate_dmodel.go
package main

import (
	"bytes"
	"encoding/binary"
	"os"
)

func main() {
	// A cube of side 20 engine units (2 model units) built from six
	// textured quads, alternating basic (0x15) and extended (0x17) records.
	verts := [][3]float32{
		{-10, -10, -10}, {10, -10, -10}, {10, 10, -10}, {-10, 10, -10},
		{-10, -10, 10}, {10, -10, 10}, {10, 10, 10}, {-10, 10, 10},
	}
	faces := [][4]uint16{
		{0, 1, 2, 3}, // bottom
		{4, 7, 6, 5}, // top
		{0, 4, 5, 1}, // front
		{1, 5, 6, 2}, // right
		{2, 6, 7, 3}, // back
		{3, 7, 4, 0}, // left
	}
	quadUVs := [4][2]byte{{0, 0}, {255, 0}, {255, 255}, {0, 255}}

	var cmds bytes.Buffer
	for i, f := range faces {
		op, length, uvStart := byte(0x15), 0x18, 0x0C
		if i%2 == 1 {
			op, length, uvStart = 0x17, 0x20, 0x14
		}
		rec := make([]byte, length)
		rec[0] = op
		rec[1] = byte(i / 2) // mesh id: one per pair of faces
		for k, idx := range f {
			binary.LittleEndian.PutUint16(rec[2+k*2:], idx)
		}
		for k, uv := range quadUVs {
			rec[uvStart+k*2] = uv[0]
			rec[uvStart+k*2+1] = uv[1]
		}
		cmds.Write(rec)
	}

	// One marker record: no geometry, only advances the cursor.
	marker := make([]byte, 0x16)
	marker[0] = 0x13
	cmds.Write(marker)

	const headerSize = 0x30
	vertOffset := uint32(headerSize)
	cmdOffset := vertOffset + uint32(len(verts)*12)

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint16(header[0x14:], uint16(len(verts)))
	binary.LittleEndian.PutUint16(header[0x16:], uint16(len(faces)+1))
	binary.LittleEndian.PutUint16(header[0x1A:], 3)
	binary.LittleEndian.PutUint32(header[0x20:], vertOffset)
	binary.LittleEndian.PutUint32(header[0x2C:], cmdOffset)

	var buf bytes.Buffer
	buf.Write(header)
	for _, v := range verts {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.Write(cmds.Bytes())

	if err := os.WriteFile("test.dmodel", buf.Bytes(), 0644); err != nil {
		panic(err)
	}
}
