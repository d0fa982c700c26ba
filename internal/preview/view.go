// Package preview renders flat-shaded images of decoded DMODEL geometry
// without a GPU.
package preview

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/dmodel-tools/pkg/math"
)

// Views.
const (
	ViewFront = "front"
	ViewSide  = "side"
	ViewTop   = "top"
	ViewIso   = "iso"
)

// ViewMatrix returns the rotation taking Z-up model space to view space:
// X right, Y up, Z toward the viewer.
func ViewMatrix(view string) (math.Mat4, error) {
	switch view {
	case ViewFront:
		return math.RotateX(-math32.Pi / 2), nil
	case ViewSide:
		return math.RotateX(-math32.Pi / 2).Mul(math.RotateZ(-math32.Pi / 2)), nil
	case ViewTop:
		return math.Identity(), nil
	case ViewIso:
		return math.RotateX(-math32.Pi / 3).Mul(math.RotateZ(-math32.Pi / 4)), nil
	default:
		return math.Mat4{}, fmt.Errorf("unknown view %q", view)
	}
}
