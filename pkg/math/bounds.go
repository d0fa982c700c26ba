package math

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
	valid    bool
}

// BoundsOf returns the bounding box of the given points.
// The result is empty when points is empty.
func BoundsOf(points []Vec3) AABB {
	var b AABB
	for _, p := range points {
		b.Extend(p)
	}
	return b
}

// Extend grows the box to contain p.
func (b *AABB) Extend(p Vec3) {
	if !b.valid {
		b.Min, b.Max, b.valid = p, p, true
		return
	}
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Empty reports whether no point has been added.
func (b AABB) Empty() bool {
	return !b.valid
}

// Size returns the box extent on each axis.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}
