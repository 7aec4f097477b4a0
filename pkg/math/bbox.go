package math

// BBox is an axis-aligned bounding box.
// A zero BBox is empty; use NewBBox or Merge to populate it.
type BBox struct {
	Min Vec3
	Max Vec3
}

// NewBBox returns an empty bounding box ready for merging.
func NewBBox() BBox {
	return BBox{
		Min: Vec3{1e30, 1e30, 1e30},
		Max: Vec3{-1e30, -1e30, -1e30},
	}
}

// Valid reports whether the box contains at least one merged point.
func (b BBox) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Merge extends the box to include point p.
func (b *BBox) Merge(p Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Union extends the box to include another box.
func (b *BBox) Union(other BBox) {
	if !other.Valid() {
		return
	}
	b.Min = b.Min.Min(other.Min)
	b.Max = b.Max.Max(other.Max)
}

// Dim returns the extent along each axis.
func (b BBox) Dim() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Transformed returns the axis-aligned box enclosing this box after
// transforming its eight corners by m.
func (b BBox) Transformed(m Mat4) BBox {
	out := NewBBox()
	for i := 0; i < 8; i++ {
		corner := Vec3{b.Min.X, b.Min.Y, b.Min.Z}
		if i&1 != 0 {
			corner.X = b.Max.X
		}
		if i&2 != 0 {
			corner.Y = b.Max.Y
		}
		if i&4 != 0 {
			corner.Z = b.Max.Z
		}
		out.Merge(m.TransformPoint(corner))
	}
	return out
}
