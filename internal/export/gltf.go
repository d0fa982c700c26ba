package export

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/dmodel-tools/pkg/formats"
	"github.com/Faultbox/dmodel-tools/pkg/math"
)

// yUp converts the decoder's Z-up model space to glTF's Y-up space.
func yUp(v math.Vec3, s float32) [3]float32 {
	return [3]float32{v.X * s, v.Z * s, -v.Y * s}
}

// BuildGLTF builds a glTF document with one mesh. Corners are not welded
// because UVs are stored per triangle corner. Each surface group becomes
// one primitive; with materials enabled it gets its own material.
func BuildGLTF(g *formats.DModelGeometry, opts Options) (*gltf.Document, error) {
	if err := formats.ValidateIndices(g); err != nil {
		return nil, err
	}

	doc := gltf.NewDocument()
	s := opts.scale()

	var primitives []*gltf.Primitive
	for _, group := range opts.groups(g) {
		if len(group.Triangles) == 0 {
			continue
		}

		n := len(group.Triangles) * 3
		positions := make([][3]float32, 0, n)
		uvs := make([][2]float32, 0, n)
		indices := make([]uint32, 0, n)
		for _, t := range group.Triangles {
			tri := g.Triangles[t]
			for c := 0; c < 3; c++ {
				uv := g.UVs[t][c]
				indices = append(indices, uint32(len(positions)))
				positions = append(positions, yUp(g.Vertices[tri[c]], s))
				uvs = append(uvs, [2]float32{uv.X, uv.Y})
			}
		}

		attributes := make(map[string]uint32)
		attributes["POSITION"] = modeler.WritePosition(doc, positions)
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
		indicesAccessor := modeler.WriteIndices(doc, indices)

		primitive := &gltf.Primitive{
			Indices:    &indicesAccessor,
			Attributes: attributes,
		}

		if opts.CreateMaterials {
			color := new([4]float32)
			*color = surfaceColorFactor(group.SurfaceID)
			doc.Materials = append(doc.Materials, &gltf.Material{
				Name:        MaterialName(group.SurfaceID),
				DoubleSided: true,
				PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
					BaseColorFactor: color,
				},
			})
			primitive.Material = gltf.Index(uint32(len(doc.Materials) - 1))
		}

		primitives = append(primitives, primitive)
	}

	node := &gltf.Node{Name: opts.Name}
	if len(primitives) > 0 {
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       opts.Name,
			Primitives: primitives,
		})
		node.Mesh = gltf.Index(uint32(len(doc.Meshes) - 1))
	}

	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
	doc.Nodes = append(doc.Nodes, node)

	return doc, nil
}

// WriteGLTF encodes g as glTF. Binary output is a .glb container; text
// output embeds the buffer as a data URI.
func WriteGLTF(w io.Writer, g *formats.DModelGeometry, opts Options, binary bool) error {
	doc, err := BuildGLTF(g, opts)
	if err != nil {
		return err
	}

	if !binary {
		for _, b := range doc.Buffers {
			b.EmbeddedResource()
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	if err := encoder.Encode(doc); err != nil {
		if binary {
			return fmt.Errorf("writing glb: %w", err)
		}
		return fmt.Errorf("writing gltf: %w", err)
	}
	return nil
}
