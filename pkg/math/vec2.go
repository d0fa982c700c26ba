// Package math provides the small vector and matrix types shared by the
// DMODEL decoder, exporters and previewer.
package math

import "github.com/chewxy/math32"

// Vec2 is a 2D vector. Texture coordinates use X as U and Y as V.
type Vec2 struct {
	X, Y float32
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Length returns the magnitude.
func (v Vec2) Length() float32 {
	return math32.Hypot(v.X, v.Y)
}

// FlipV returns the coordinate with V mirrored (1 - V), the convention
// most bottom-left-origin consumers expect.
func (v Vec2) FlipV() Vec2 {
	return Vec2{v.X, 1 - v.Y}
}
