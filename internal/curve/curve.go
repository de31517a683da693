// Package curve evaluates time-to-value control curves. A curve is an ordered
// list of control points on the unit time axis plus a tension that blends
// between straight segments and a Catmull-Rom style cubic.
package curve

import (
	"errors"
	"math"
	"sort"
)

// TensionDivisor converts a tension value into the Bezier blend coefficient.
// Changing it changes every curve shape, including stored scenes.
const TensionDivisor = 6

var (
	ErrTooFewPoints = errors.New("curve must keep at least two points")
	ErrOutOfRange   = errors.New("point index out of range")
)

// Point is a single control point. X is normalized time in [0,1].
type Point struct {
	X float64
	Y float64
}

// Range bounds the Y values a curve may hold.
type Range struct {
	Min float64
	Max float64
}

var (
	// ScaleRange holds scale factors; see ScaleMultiplier.
	ScaleRange = Range{Min: -4, Max: 4}
	// EasingRange holds eased progress.
	EasingRange = Range{Min: 0, Max: 1}
)

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	return clamp(v, r.Min, r.Max)
}

// Curve is an ordered set of control points with a tension.
type Curve struct {
	Points  []Point
	Tension float64
}

// DefaultScale returns the identity scale curve (factor 0 everywhere).
func DefaultScale() Curve {
	return Curve{Points: []Point{{X: 0, Y: 0}, {X: 1, Y: 0}}}
}

// DefaultEasing returns the linear easing curve.
func DefaultEasing() Curve {
	return Curve{Points: []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}
}

// Clone returns a copy that shares no memory with c.
func (c Curve) Clone() Curve {
	out := Curve{Tension: c.Tension}
	if c.Points != nil {
		out.Points = make([]Point, len(c.Points))
		copy(out.Points, c.Points)
	}
	return out
}

// Degenerate reports whether the curve has too few points to evaluate.
func (c Curve) Degenerate() bool {
	return len(c.Points) < 2
}

// ValueAt evaluates the curve at time. A degenerate curve yields neutral.
func (c Curve) ValueAt(time, neutral float64) float64 {
	pts := c.Points
	if len(pts) < 2 {
		return neutral
	}

	seg := -1
	for i := 0; i < len(pts)-1; i++ {
		if time >= pts[i].X && time <= pts[i+1].X {
			seg = i
			break
		}
	}
	if seg < 0 {
		if time > pts[len(pts)-1].X {
			seg = len(pts) - 2
		} else {
			seg = 0
		}
	}

	p1, p2 := pts[seg], pts[seg+1]
	t := (time - p1.X) / (p2.X - p1.X)
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return p1.Y
	}
	if c.Tension == 0 {
		return Lerp(p1.Y, p2.Y, t)
	}

	p0 := p1
	if seg > 0 {
		p0 = pts[seg-1]
	}
	p3 := p2
	if seg+2 < len(pts) {
		p3 = pts[seg+2]
	}
	cp1, cp2 := ControlValues(p0.Y, p1.Y, p2.Y, p3.Y, c.Tension)
	return Bezier(p1.Y, cp1, cp2, p2.Y, t)
}

// Scale evaluates a scale curve and maps the factor to a size multiplier.
func (c Curve) Scale(time float64) float64 {
	if c.Degenerate() {
		return 1
	}
	return ScaleMultiplier(c.ValueAt(time, 0))
}

// Ease evaluates an easing curve. A degenerate curve passes time through.
func (c Curve) Ease(time float64) float64 {
	return c.ValueAt(time, time)
}

// Insert adds p and keeps the points ordered by X.
func (c *Curve) Insert(p Point) {
	c.Points = append(c.Points, p)
	sort.SliceStable(c.Points, func(i, j int) bool {
		return c.Points[i].X < c.Points[j].X
	})
}

// Remove deletes the point at index. The curve keeps at least two points.
func (c *Curve) Remove(index int) error {
	if len(c.Points) < 3 {
		return ErrTooFewPoints
	}
	if index < 0 || index >= len(c.Points) {
		return ErrOutOfRange
	}
	c.Points = append(c.Points[:index], c.Points[index+1:]...)
	return nil
}

// MovePoint drags the point at index to (x, y). Y is clamped to r. The first
// and last points keep their X; interior points stay within [0,1]. Returns
// the point's index after re-sorting.
func (c *Curve) MovePoint(index int, x, y float64, r Range) (int, error) {
	if index < 0 || index >= len(c.Points) {
		return index, ErrOutOfRange
	}
	p := &c.Points[index]
	p.Y = r.Clamp(y)
	if index == 0 || index == len(c.Points)-1 {
		return index, nil
	}
	p.X = clamp(x, 0, 1)

	moved := *p
	sort.SliceStable(c.Points, func(i, j int) bool {
		return c.Points[i].X < c.Points[j].X
	})
	for i, q := range c.Points {
		if q == moved {
			return i, nil
		}
	}
	return index, nil
}

// ScaleMultiplier maps a scale factor to a multiplier, one octave per two
// units: -4 is 0.25, 0 is 1, 4 is 4.
func ScaleMultiplier(factor float64) float64 {
	return math.Pow(2, factor/2)
}

// Lerp interpolates between a and b. It is exact at t=0 and t=1.
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// ControlValues returns the inner Bezier control values for the segment
// p1..p2 given its neighbours p0 and p3.
func ControlValues(p0, p1, p2, p3, tension float64) (cp1, cp2 float64) {
	k := tension / TensionDivisor
	return p1 + (p2-p0)*k, p2 - (p3-p1)*k
}

// Bezier evaluates a one-dimensional cubic Bezier in Bernstein form.
func Bezier(a, b, c, d, t float64) float64 {
	mt := 1 - t
	return mt*mt*mt*a + 3*mt*mt*t*b + 3*mt*t*t*c + t*t*t*d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
