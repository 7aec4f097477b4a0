// Package oct packs unit normals into two snorm16 components using
// octahedral encoding, following "A Survey of Efficient Representations
// for Independent Unit Vectors" (http://jcgt.org/published/0003/02/01/).
package oct

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/cadbatch/pkg/math"
)

// Bits is the combined precision budget of the encoding, spread across
// the two output components.
const Bits = 16

// MaxSnorm is the largest magnitude stored per component. The int16
// minimum is never produced, keeping the range symmetric.
const MaxSnorm = 32767

// signNotZero returns +1 or -1 per component, never 0. Z passes through.
func signNotZero(v math.Vec3) math.Vec3 {
	s := math.Vec3{X: 1, Y: 1, Z: 1}
	if v.X < 0 {
		s.X = -1
	}
	if v.Y < 0 {
		s.Y = -1
	}
	return s
}

// project maps a unit vector onto the octahedron and unfolds it to the
// unit square. Both output components lie in [-1, 1].
func project(v math.Vec3) math.Vec3 {
	inv := 1.0 / (math32.Abs(v.X) + math32.Abs(v.Y) + math32.Abs(v.Z))
	p := math.Vec3{X: v.X * inv, Y: v.Y * inv}
	if v.Z <= 0 {
		// Reflect the folds of the lower hemisphere over the diagonals.
		p = math.Vec3{X: 1 - math32.Abs(p.Y), Y: 1 - math32.Abs(p.X)}.Mul(signNotZero(p))
	}
	return math.Vec3{X: p.X, Y: p.Y}
}

// unproject maps a point on the unit square back to a unit vector.
func unproject(e math.Vec3) math.Vec3 {
	v := math.Vec3{X: e.X, Y: e.Y, Z: 1 - math32.Abs(e.X) - math32.Abs(e.Y)}
	if v.Z < 0 {
		v = math.Vec3{X: 1 - math32.Abs(v.Y), Y: 1 - math32.Abs(v.X), Z: v.Z}.Mul(signNotZero(v))
	}
	return v.Normalize()
}

// EncodePrecise quantizes a unit vector onto the octahedral grid with
// the given combined bit budget, returning the snorm components in
// [-1, 1]. Floor rounding alone biases the result, so the four
// floor/floor+1 combinations are decoded and the one closest in angle
// to the input wins. Candidates at +/-1 may step outside the square,
// but such an encoding is always worse and never selected.
func EncodePrecise(v math.Vec3, bits int) math.Vec3 {
	s := project(v)
	m := float32(int32(1)<<((bits/2)-1)) - 1

	s.X = math32.Floor(clamp(s.X)*m) / m
	s.Y = math32.Floor(clamp(s.Y)*m) / m

	best := s
	bestCos := unproject(s).Dot(v)

	for i := 0; i <= 1; i++ {
		for j := 0; j <= 1; j++ {
			if i == 0 && j == 0 {
				continue
			}
			cand := math.Vec3{X: s.X + float32(i)/m, Y: s.Y + float32(j)/m}
			if cos := unproject(cand).Dot(v); cos > bestCos {
				best = cand
				bestCos = cos
			}
		}
	}
	return best
}

// Encode packs a unit normal into two snorm16 values. The same input
// always yields the same output pair.
func Encode(n math.Vec3) (x, y int16) {
	packed := EncodePrecise(n, Bits)
	return quantize(packed.X), quantize(packed.Y)
}

// Decode reconstructs the unit vector for an encoded pair.
func Decode(x, y int16) math.Vec3 {
	return unproject(math.Vec3{
		X: float32(x) / MaxSnorm,
		Y: float32(y) / MaxSnorm,
	})
}

func quantize(f float32) int16 {
	i := int32(f * MaxSnorm)
	if i > MaxSnorm {
		i = MaxSnorm
	}
	if i < -MaxSnorm {
		i = -MaxSnorm
	}
	return int16(i)
}

func clamp(f float32) float32 {
	if f < -1 {
		return -1
	}
	if f > 1 {
		return 1
	}
	return f
}
