package engine

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Transforms use the matrix.Matrix layout [a, b, c, d, e, f]:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |

// translate returns a translation matrix.
func translate(tx, ty float64) matrix.Matrix {
	return matrix.Matrix{1, 0, 0, 1, tx, ty}
}

// rotateTranslate rotates by radians about the origin, then translates.
func rotateTranslate(radians, tx, ty float64) matrix.Matrix {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return matrix.Matrix{cos, sin, -sin, cos, tx, ty}
}

// scaleMatrix returns a scale matrix.
func scaleMatrix(sx, sy float64) matrix.Matrix {
	return matrix.Matrix{sx, 0, 0, sy, 0, 0}
}

// multiply returns m * other, which applies other first, then m.
func multiply(m, other matrix.Matrix) matrix.Matrix {
	return matrix.Matrix{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// apply transforms a point.
func apply(m matrix.Matrix, v vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: m[0]*v.X + m[2]*v.Y + m[4], Y: m[1]*v.X + m[3]*v.Y + m[5]}
}

// pathBounds returns the bounding box of a path's coordinates under m. For
// curves this includes the control points, so the box may be loose.
func pathBounds(p *path.Data, m matrix.Matrix) rect.Rect {
	if p == nil || len(p.Coords) == 0 {
		return rect.Rect{}
	}
	first := apply(m, p.Coords[0])
	r := rect.Rect{LLx: first.X, LLy: first.Y, URx: first.X, URy: first.Y}
	for _, c := range p.Coords[1:] {
		v := apply(m, c)
		r.LLx = min(r.LLx, v.X)
		r.LLy = min(r.LLy, v.Y)
		r.URx = max(r.URx, v.X)
		r.URy = max(r.URy, v.Y)
	}
	return r
}

// inflate grows r by d on every side.
func inflate(r rect.Rect, d float64) rect.Rect {
	return rect.Rect{LLx: r.LLx - d, LLy: r.LLy - d, URx: r.URx + d, URy: r.URy + d}
}

// rectEmpty reports whether r has zero or negative area.
func rectEmpty(r rect.Rect) bool {
	return r.URx <= r.LLx || r.URy <= r.LLy
}

// union returns the smallest rect containing both rects.
func union(r, other rect.Rect) rect.Rect {
	if rectEmpty(r) {
		return other
	}
	if rectEmpty(other) {
		return r
	}
	return rect.Rect{
		LLx: min(r.LLx, other.LLx),
		LLy: min(r.LLy, other.LLy),
		URx: max(r.URx, other.URx),
		URy: max(r.URy, other.URy),
	}
}

func toSlice(m matrix.Matrix) []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}
