package engine

import (
	"errors"

	"github.com/splinetool/splinetool/internal/curve"
	"github.com/splinetool/splinetool/internal/selection"
)

var ErrNoCurve = errors.New("no curve for selection")

// CurveRange returns the value range of a curve field.
func CurveRange(field selection.CurveField) curve.Range {
	if field == selection.CurveEasing {
		return curve.EasingRange
	}
	return curve.ScaleRange
}

// Curve returns a copy of the curve the curve editor shows for the
// selection. With several owners this is the first owner's curve, which
// every other owner receives on change.
func (e *Engine) Curve(field selection.CurveField) (curve.Curve, bool) {
	c := e.edits.Master(field)
	if c == nil {
		return curve.Curve{}, false
	}
	return c.Clone(), true
}

// AddCurvePoint adds a control point to the selection's curve. The point is
// clamped to the curve's range.
func (e *Engine) AddCurvePoint(field selection.CurveField, x, y float64) error {
	c := e.edits.Master(field)
	if c == nil {
		return ErrNoCurve
	}
	c.Insert(curve.Point{X: curve.EasingRange.Clamp(x), Y: CurveRange(field).Clamp(y)})
	e.edits.OnCurveChanged(field, true)
	return nil
}

// MoveCurvePoint drags a control point of the selection's curve. Live moves
// are copied to every owner; only the final move is recorded in history.
// Returns the point's index after re-sorting.
func (e *Engine) MoveCurvePoint(field selection.CurveField, index int, x, y float64, final bool) (int, error) {
	c := e.edits.Master(field)
	if c == nil {
		return index, ErrNoCurve
	}
	i, err := c.MovePoint(index, x, y, CurveRange(field))
	if err != nil {
		return index, err
	}
	e.edits.OnCurveChanged(field, final)
	return i, nil
}

// RemoveCurvePoint removes a control point. Curves keep at least two.
func (e *Engine) RemoveCurvePoint(field selection.CurveField, index int) error {
	c := e.edits.Master(field)
	if c == nil {
		return ErrNoCurve
	}
	if err := c.Remove(index); err != nil {
		return err
	}
	e.edits.OnCurveChanged(field, true)
	return nil
}

// ResetCurve restores the selection's curve to its default.
func (e *Engine) ResetCurve(field selection.CurveField) int {
	return e.edits.ResetCurve(field)
}

// EvaluateSelectedScale returns the scale multiplier of the selection's
// scale curve at time, for the curve editor's preview.
func (e *Engine) EvaluateSelectedScale(time float64) float64 {
	c := e.edits.Master(selection.CurveScale)
	if c == nil {
		return 1
	}
	return EvaluateScale(*c, time, c.Tension)
}
