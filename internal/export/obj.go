package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Faultbox/dmodel-tools/pkg/formats"
)

// WriteOBJ writes g as Wavefront OBJ. Vertices are shared; texture
// coordinates are written once per triangle corner. When mtllib is not
// empty it is referenced and each surface group selects its material.
func WriteOBJ(w io.Writer, g *formats.DModelGeometry, opts Options, mtllib string) error {
	bw := bufio.NewWriter(w)
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	if mtllib != "" {
		line("mtllib %s", mtllib)
	}
	if opts.Name != "" {
		line("o %s", opts.Name)
	}

	s := opts.scale()
	for _, v := range g.Vertices {
		line("v %f %f %f", v.X*s, v.Y*s, v.Z*s)
	}

	for _, uvs := range g.UVs {
		for _, uv := range uvs {
			if opts.FlipV {
				uv = uv.FlipV()
			}
			line("vt %f %f", uv.X, uv.Y)
		}
	}

	useMaterials := opts.CreateMaterials && mtllib != ""
	for _, group := range opts.groups(g) {
		if useMaterials {
			line("usemtl %s", MaterialName(group.SurfaceID))
		}
		for _, t := range group.Triangles {
			tri := g.Triangles[t]
			vt := t*3 + 1
			line("f %d/%d %d/%d %d/%d",
				int(tri[0])+1, vt,
				int(tri[1])+1, vt+1,
				int(tri[2])+1, vt+2)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing obj: %w", err)
	}
	return nil
}

// WriteMTL writes one diffuse material per distinct surface id.
func WriteMTL(w io.Writer, g *formats.DModelGeometry) error {
	bw := bufio.NewWriter(w)
	for _, id := range g.DistinctSurfaceIDs() {
		c := surfaceColorFactor(id)
		fmt.Fprintf(bw, "newmtl %s\n", MaterialName(id))
		fmt.Fprintf(bw, "Kd %.4f %.4f %.4f\n", c[0], c[1], c[2])
		fmt.Fprintf(bw, "d 1.0\n\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing mtl: %w", err)
	}
	return nil
}
