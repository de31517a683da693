package engine

import (
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/curve"
	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/playback"
)

// EvaluateScale evaluates a scale curve with the given tension and returns
// the size multiplier. Degenerate curves yield 1.
func EvaluateScale(c curve.Curve, time, tension float64) float64 {
	c.Tension = tension
	return c.Scale(time)
}

// EvaluateEasing evaluates an easing curve. Degenerate curves return time.
func EvaluateEasing(c curve.Curve, time float64) float64 {
	return c.Ease(time)
}

// PlaybackState evaluates an entity's visibility and progress at timeline
// time nowMs.
func PlaybackState(obj document.Entity, nowMs float64, fps int) playback.State {
	return playback.StateFor(obj, nowMs, fps)
}

// PositionAtProgress returns the point at fraction progress of the spline's
// arc length.
func PositionAtProgress(sp *document.Spline, progress float64) vec.Vec2 {
	return SplinePath(sp).PositionAtProgress(progress)
}

// ShapeState is where and how large an entity's shape is drawn.
type ShapeState struct {
	playback.State
	Pos        vec.Vec2
	Multiplier float64
}

// evaluateEntity places an entity's shape for a playback state. Moving
// shapes follow eased progress along the path; scale follows raw progress.
func evaluateEntity(obj document.Entity, st playback.State) ShapeState {
	out := ShapeState{State: st, Multiplier: 1}
	switch o := obj.(type) {
	case *document.Spline:
		out.Pos = PositionAtProgress(o, st.EasedProgress)
		out.Multiplier = o.ScaleCurve.Scale(st.RawProgress)
	case *document.Anchor:
		out.Pos = o.Pos
		if st.Visible {
			out.Multiplier = o.ScaleCurve.Scale(st.RawProgress)
		}
	}
	return out
}

// EntityState evaluates the entity with the given ID at the clock's current
// time.
func (e *Engine) EntityState(id string) (ShapeState, bool) {
	var obj document.Entity
	if sp, ok := e.scene.Spline(id); ok {
		obj = sp
	} else if a, ok := e.scene.Anchor(id); ok {
		obj = a
	} else {
		return ShapeState{}, false
	}
	return evaluateEntity(obj, e.clock.StateFor(obj)), true
}
