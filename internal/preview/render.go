package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"golang.org/x/image/vector"

	"github.com/Faultbox/dmodel-tools/internal/export"
	"github.com/Faultbox/dmodel-tools/internal/logger"
	"github.com/Faultbox/dmodel-tools/pkg/formats"
	"github.com/Faultbox/dmodel-tools/pkg/math"
)

// ErrInvalidSize is returned for a non-positive image size.
var ErrInvalidSize = errors.New("preview size must be positive")

// Options controls rendering.
type Options struct {
	Width      int
	Height     int
	View       string
	Background color.NRGBA
	Wireframe  bool
}

// DefaultOptions returns a 512x512 isometric preview on a dark background.
func DefaultOptions() Options {
	return Options{
		Width:      512,
		Height:     512,
		View:       ViewIso,
		Background: color.NRGBA{R: 0x20, G: 0x24, B: 0x28, A: 255},
	}
}

// Light direction in view space.
var lightDir = math.Vec3{X: 0.3, Y: 0.5, Z: 1}.Normalize()

const (
	ambient      = 0.35
	marginFrac   = 0.08
	edgeWidth    = 1.0
	edgeDarkness = 0.45
)

type face struct {
	tri   int
	pts   [3]math.Vec2 // Screen space
	depth float32
	col   color.NRGBA
}

// Render draws g with flat shading. Triangles are painted back to front.
// Triangles referencing missing vertices or with zero area are skipped.
func Render(g *formats.DModelGeometry, opts Options) (*image.RGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	view, err := ViewMatrix(opts.View)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	projected := make([]math.Vec3, len(g.Vertices))
	for i, v := range g.Vertices {
		projected[i] = view.TransformVec3(v)
	}

	faces, skipped := buildFaces(g, projected)
	if skipped > 0 {
		logger.Debug("preview skipped triangles", zap.Int("skipped", skipped))
	}
	if len(faces) == 0 {
		return img, nil
	}

	toScreen := fitToCanvas(projected, opts.Width, opts.Height)
	for i := range faces {
		f := &faces[i]
		tri := g.Triangles[f.tri]
		for c := 0; c < 3; c++ {
			f.pts[c] = toScreen(projected[tri[c]])
		}
	}

	sort.SliceStable(faces, func(i, j int) bool { return faces[i].depth < faces[j].depth })

	var r vector.Rasterizer
	for _, f := range faces {
		fillPolygon(&r, img, f.pts[:], f.col)
		if opts.Wireframe {
			edge := shade(f.col, edgeDarkness)
			for c := 0; c < 3; c++ {
				strokeLine(&r, img, f.pts[c], f.pts[(c+1)%3], edge)
			}
		}
	}
	return img, nil
}

// buildFaces shades every drawable triangle in view space.
func buildFaces(g *formats.DModelGeometry, projected []math.Vec3) ([]face, int) {
	faces := make([]face, 0, len(g.Triangles))
	skipped := 0
	n := len(projected)

	for t, tri := range g.Triangles {
		if int(tri[0]) >= n || int(tri[1]) >= n || int(tri[2]) >= n {
			skipped++
			continue
		}
		a, b, c := projected[tri[0]], projected[tri[1]], projected[tri[2]]
		normal := b.Sub(a).Cross(c.Sub(a))
		if normal.Length() == 0 {
			skipped++
			continue
		}
		k := ambient + (1-ambient)*math32.Abs(normal.Normalize().Dot(lightDir))

		var id uint8
		if t < len(g.SurfaceIDs) {
			id = g.SurfaceIDs[t]
		}
		faces = append(faces, face{
			tri:   t,
			depth: (a.Z + b.Z + c.Z) / 3,
			col:   shade(export.SurfaceColor(id), k),
		})
	}
	return faces, skipped
}

// fitToCanvas returns a projection that centers the geometry's view-space
// bounds in a w x h canvas with a margin, preserving aspect ratio.
func fitToCanvas(projected []math.Vec3, w, h int) func(math.Vec3) math.Vec2 {
	bounds := math.BoundsOf(projected)
	center := bounds.Center()
	size := bounds.Size()

	margin := marginFrac * float32(min(w, h))
	availW := float32(w) - 2*margin
	availH := float32(h) - 2*margin

	scale := float32(1)
	switch {
	case size.X > 0 && size.Y > 0:
		scale = min(availW/size.X, availH/size.Y)
	case size.X > 0:
		scale = availW / size.X
	case size.Y > 0:
		scale = availH / size.Y
	}

	halfW, halfH := float32(w)/2, float32(h)/2
	return func(p math.Vec3) math.Vec2 {
		return math.Vec2{
			X: halfW + (p.X-center.X)*scale,
			Y: halfH - (p.Y-center.Y)*scale,
		}
	}
}

// fillPolygon rasterizes a closed polygon within its pixel bounding box.
func fillPolygon(r *vector.Rasterizer, dst *image.RGBA, pts []math.Vec2, col color.NRGBA) {
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rect := image.Rect(
		int(math32.Floor(minX)), int(math32.Floor(minY)),
		int(math32.Ceil(maxX)), int(math32.Ceil(maxY)),
	).Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}

	ox, oy := float32(rect.Min.X), float32(rect.Min.Y)
	r.Reset(rect.Dx(), rect.Dy())
	r.DrawOp = draw.Over
	r.MoveTo(pts[0].X-ox, pts[0].Y-oy)
	for _, p := range pts[1:] {
		r.LineTo(p.X-ox, p.Y-oy)
	}
	r.ClosePath()
	r.Draw(dst, rect, image.NewUniform(col), image.Point{})
}

// strokeLine draws a segment as a thin quad.
func strokeLine(r *vector.Rasterizer, dst *image.RGBA, a, b math.Vec2, col color.NRGBA) {
	d := b.Sub(a)
	l := d.Length()
	if l == 0 {
		return
	}
	// Half-width offset perpendicular to the segment.
	nx, ny := -d.Y/l*edgeWidth/2, d.X/l*edgeWidth/2
	fillPolygon(r, dst, []math.Vec2{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}, col)
}
