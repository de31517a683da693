// Package geometry samples smooth paths through ordered 2D points. The path
// uses the same tension blend as control curves, applied to each axis.
package geometry

import (
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/curve"
)

// Resolution is the number of samples per segment used for every length
// and distance computation.
const Resolution = 100

// Path is a smooth path through Points.
type Path struct {
	Points  []vec.Vec2
	Tension float64
}

// Location is a position on the path.
type Location struct {
	Point        vec.Vec2
	SegmentIndex int
	T            float64
}

// Nearest is the result of a closest point query. SegmentIndex is -1 when
// the path has no segments.
type Nearest struct {
	Point        vec.Vec2
	Distance     float64
	SegmentIndex int
	T            float64
}

// Segments returns the number of segments.
func (p Path) Segments() int {
	if len(p.Points) < 2 {
		return 0
	}
	return len(p.Points) - 1
}

// PositionOnSegment evaluates segment i at local parameter t in [0,1].
func (p Path) PositionOnSegment(i int, t float64) vec.Vec2 {
	pts := p.Points
	switch {
	case len(pts) == 0:
		return vec.Vec2{}
	case len(pts) == 1:
		return pts[0]
	}
	if i < 0 {
		i = 0
	}
	if i > len(pts)-2 {
		i = len(pts) - 2
	}

	p1, p2 := pts[i], pts[i+1]
	if len(pts) == 2 {
		return vec.Vec2{X: curve.Lerp(p1.X, p2.X, t), Y: curve.Lerp(p1.Y, p2.Y, t)}
	}

	p0 := p1
	if i > 0 {
		p0 = pts[i-1]
	}
	p3 := p2
	if i+2 < len(pts) {
		p3 = pts[i+2]
	}
	c1x, c2x := curve.ControlValues(p0.X, p1.X, p2.X, p3.X, p.Tension)
	c1y, c2y := curve.ControlValues(p0.Y, p1.Y, p2.Y, p3.Y, p.Tension)
	return vec.Vec2{
		X: curve.Bezier(p1.X, c1x, c2x, p2.X, t),
		Y: curve.Bezier(p1.Y, c1y, c2y, p2.Y, t),
	}
}

// SegmentLength approximates the length of segment i with steps samples.
func (p Path) SegmentLength(i, steps int) float64 {
	if steps <= 0 {
		steps = Resolution
	}
	var total float64
	prev := p.PositionOnSegment(i, 0)
	for s := 1; s <= steps; s++ {
		pt := p.PositionOnSegment(i, float64(s)/float64(steps))
		total += pt.Sub(prev).Length()
		prev = pt
	}
	return total
}

// Length approximates the arc length of the whole path.
func (p Path) Length() float64 {
	var total float64
	for i := 0; i < p.Segments(); i++ {
		total += p.SegmentLength(i, Resolution)
	}
	return total
}

// PointAtDistance walks the path and returns the location d units from the
// start. Distances outside the path clamp to its ends.
func (p Path) PointAtDistance(d float64) Location {
	switch len(p.Points) {
	case 0:
		return Location{}
	case 1:
		return Location{Point: p.Points[0]}
	}
	if d <= 0 {
		return Location{Point: p.Points[0]}
	}

	var walked float64
	for i := 0; i < p.Segments(); i++ {
		prev := p.PositionOnSegment(i, 0)
		for s := 1; s <= Resolution; s++ {
			t := float64(s) / Resolution
			pt := p.PositionOnSegment(i, t)
			step := pt.Sub(prev).Length()
			if step > 0 && walked+step >= d {
				f := (d - walked) / step
				return Location{
					Point:        prev.Add(pt.Sub(prev).Mul(f)),
					SegmentIndex: i,
					T:            t - (1-f)/Resolution,
				}
			}
			walked += step
			prev = pt
		}
	}

	last := len(p.Points) - 1
	return Location{Point: p.Points[last], SegmentIndex: last - 1, T: 1}
}

// PositionAtProgress returns the point at fraction progress of the path's
// length.
func (p Path) PositionAtProgress(progress float64) vec.Vec2 {
	if len(p.Points) < 2 {
		return p.PointAtDistance(0).Point
	}
	return p.PointAtDistance(progress * p.Length()).Point
}

// ClosestPoint finds the sampled path point nearest to q.
func (p Path) ClosestPoint(q vec.Vec2) Nearest {
	best := Nearest{Distance: math.Inf(1), SegmentIndex: -1}
	for i := 0; i < p.Segments(); i++ {
		for s := 0; s <= Resolution; s++ {
			t := float64(s) / Resolution
			pt := p.PositionOnSegment(i, t)
			if d := pt.Sub(q).Length(); d < best.Distance {
				best = Nearest{Point: pt, Distance: d, SegmentIndex: i, T: t}
			}
		}
	}
	return best
}

// Near reports whether q lies within tolerance of the path, using a coarse
// sampling suitable for pointer hit tests.
func (p Path) Near(q vec.Vec2, tolerance float64) bool {
	const steps = 20
	for i := 0; i < p.Segments(); i++ {
		for s := 0; s <= steps; s++ {
			pt := p.PositionOnSegment(i, float64(s)/steps)
			if pt.Sub(q).Length() < tolerance {
				return true
			}
		}
	}
	return false
}

// LongestSegment returns the index of the longest segment, estimated with
// steps samples per segment, or -1 for a path without segments.
func (p Path) LongestSegment(steps int) int {
	longest, best := -1, -1.0
	for i := 0; i < p.Segments(); i++ {
		if l := p.SegmentLength(i, steps); l > best {
			longest, best = i, l
		}
	}
	return longest
}

// Outline returns the path as Bezier segments for a renderer to stroke.
func (p Path) Outline() *path.Data {
	out := &path.Data{}
	if len(p.Points) == 0 {
		return out
	}
	out = out.MoveTo(p.Points[0])
	if len(p.Points) == 2 {
		return out.LineTo(p.Points[1])
	}
	pts := p.Points
	for i := 0; i < p.Segments(); i++ {
		p1, p2 := pts[i], pts[i+1]
		p0 := p1
		if i > 0 {
			p0 = pts[i-1]
		}
		p3 := p2
		if i+2 < len(pts) {
			p3 = pts[i+2]
		}
		c1x, c2x := curve.ControlValues(p0.X, p1.X, p2.X, p3.X, p.Tension)
		c1y, c2y := curve.ControlValues(p0.Y, p1.Y, p2.Y, p3.Y, p.Tension)
		out = out.CubeTo(vec.Vec2{X: c1x, Y: c1y}, vec.Vec2{X: c2x, Y: c2y}, p2)
	}
	return out
}

// Bounds returns the bounding box of the control points.
func (p Path) Bounds() rect.Rect {
	if len(p.Points) == 0 {
		return rect.Rect{}
	}
	b := rect.Rect{LLx: p.Points[0].X, LLy: p.Points[0].Y, URx: p.Points[0].X, URy: p.Points[0].Y}
	for _, pt := range p.Points[1:] {
		b.LLx = min(b.LLx, pt.X)
		b.LLy = min(b.LLy, pt.Y)
		b.URx = max(b.URx, pt.X)
		b.URy = max(b.URy, pt.Y)
	}
	return b
}
