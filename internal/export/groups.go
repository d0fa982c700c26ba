package export

import (
	"fmt"
	"image/color"

	"github.com/chewxy/math32"

	"github.com/Faultbox/dmodel-tools/pkg/formats"
)

// SurfaceGroup is the set of triangles sharing one surface id.
type SurfaceGroup struct {
	SurfaceID uint8
	Triangles []int // Indices into DModelGeometry.Triangles
}

// GroupBySurface partitions triangles by surface id. Groups are in
// ascending id order; triangle order within a group is preserved.
func GroupBySurface(g *formats.DModelGeometry) []SurfaceGroup {
	ids := g.DistinctSurfaceIDs()
	slot := make(map[uint8]int, len(ids))
	groups := make([]SurfaceGroup, len(ids))
	for i, id := range ids {
		slot[id] = i
		groups[i].SurfaceID = id
	}
	for t, id := range g.SurfaceIDs {
		i := slot[id]
		groups[i].Triangles = append(groups[i].Triangles, t)
	}
	return groups
}

// allTriangles returns a single group holding every triangle.
func allTriangles(g *formats.DModelGeometry) []SurfaceGroup {
	tris := make([]int, g.NumTriangles())
	for i := range tris {
		tris[i] = i
	}
	return []SurfaceGroup{{Triangles: tris}}
}

// MaterialName returns the material name used for a surface id.
func MaterialName(id uint8) string {
	return fmt.Sprintf("Mesh_%02d", id)
}

// SurfaceColor returns a stable, well separated color for a surface id.
// Hues step by the golden ratio so neighbouring ids differ clearly.
func SurfaceColor(id uint8) color.NRGBA {
	h := float32(id) * 0.618034
	h -= math32.Floor(h)
	r, g, b := hsvToRGB(h, 0.55, 0.85)
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// surfaceColorFactor returns SurfaceColor as linear 0..1 RGBA.
func surfaceColorFactor(id uint8) [4]float32 {
	c := SurfaceColor(id)
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, 1}
}

func hsvToRGB(h, s, v float32) (uint8, uint8, uint8) {
	h6 := h * 6
	i := math32.Floor(h6)
	f := h6 - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float32
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return uint8(r*255 + 0.5), uint8(g*255 + 0.5), uint8(b*255 + 0.5)
}
