package document

import (
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/curve"
	"github.com/splinetool/splinetool/internal/typeid"
)

// NewSampleScene builds a small demo scene sized for the canvas: an eased
// spline that grows as it travels, a circle that starts late, and a pulsing
// anchor in the middle.
func NewSampleScene(canvas Canvas) *Scene {
	w, h := canvas.Width, canvas.Height
	s := NewScene(Timeline{FPS: DefaultFPS, TotalFrames: DefaultTotalFrames})

	arc := NewSpline(typeid.NewSplineID(),
		Point{ID: typeid.NewPointID(), X: w * 0.1, Y: h * 0.75},
		Point{ID: typeid.NewPointID(), X: w * 0.9, Y: h * 0.75},
		DefaultTotalFrames, s.NextColor())
	arc.Points = []Point{
		arc.Points[0],
		{ID: typeid.NewPointID(), X: w * 0.5, Y: h * 0.2},
		arc.Points[1],
	}
	arc.Tension = 1
	arc.Style.ShapeType = ShapeSquare
	arc.Style.FillColor = "#2196F3"
	arc.ScaleCurve = curve.Curve{Points: []curve.Point{{X: 0, Y: -2}, {X: 0.5, Y: 2}, {X: 1, Y: -2}}, Tension: 1}
	arc.EasingCurve = curve.Curve{Points: []curve.Point{{X: 0, Y: 0}, {X: 0.5, Y: 0.2}, {X: 1, Y: 1}}, Tension: 0.5}

	late := NewSpline(typeid.NewSplineID(),
		Point{ID: typeid.NewPointID(), X: w * 0.2, Y: h * 0.4},
		Point{ID: typeid.NewPointID(), X: w * 0.8, Y: h * 0.5},
		DefaultTotalFrames/2, s.NextColor())
	late.Schedule.StartFrame = DefaultTotalFrames / 4
	late.Schedule.HideOnComplete = false
	late.Style.ShapeType = ShapeCircle
	late.Style.FillColor = "#F44336"

	pulse := NewAnchor(typeid.NewAnchorID(), vec.Vec2{X: w / 2, Y: h / 2}, DefaultTotalFrames)
	pulse.Style.ShapeType = ShapeTriangle
	pulse.Style.FillColor = "#FFEB3B"
	pulse.Style.SizeX, pulse.Style.SizeY = 30, 30
	pulse.ScaleCurve = curve.Curve{Points: []curve.Point{{X: 0, Y: 0}, {X: 0.25, Y: 2}, {X: 0.5, Y: 0}, {X: 0.75, Y: 2}, {X: 1, Y: 0}}}

	s.Splines = []*Spline{arc, late}
	s.Anchors = []*Anchor{pulse}
	return s
}
