package preview

import (
	"fmt"
	"image/color"
	"strconv"
)

// ParseHexColor parses a #RRGGBB color.
func ParseHexColor(s string) (color.NRGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: expected #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// shade scales a color's RGB by k in [0, 1].
func shade(c color.NRGBA, k float32) color.NRGBA {
	return color.NRGBA{
		R: uint8(float32(c.R)*k + 0.5),
		G: uint8(float32(c.G)*k + 0.5),
		B: uint8(float32(c.B)*k + 0.5),
		A: c.A,
	}
}
