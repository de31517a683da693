package engine

import (
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/selection"
)

// Button is a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

const (
	pointHitRadius     = 15
	splineHitTolerance = 20
	dragStartRadius    = 20
)

type gestureKind int

const (
	gestureNone gestureKind = iota
	gesturePoint
	gestureAnchor
	gestureSpline
	gestureMulti
	gestureBox
)

// gesture is the drag in progress between PointerDown and PointerUp.
type gesture struct {
	kind  gestureKind
	id    string
	start vec.Vec2
	last  vec.Vec2
	moved bool
}

// PointerDown handles a press at pos in canvas coordinates. With ctrl held a
// left press toggles the item under the pointer in the multi-selection or
// starts a box selection. A right press deletes the point, anchor or spline
// under the pointer, in that order.
func (e *Engine) PointerDown(pos vec.Vec2, button Button, ctrl bool) {
	e.gesture = gesture{}
	switch {
	case button == ButtonRight:
		e.deleteAt(pos)
	case ctrl:
		e.toggleAt(pos)
	default:
		e.pressAt(pos)
	}
}

// PointerMove continues the gesture started by PointerDown.
func (e *Engine) PointerMove(pos vec.Vec2) {
	g := &e.gesture
	switch g.kind {
	case gestureNone:
		return
	case gestureBox:
		g.last = pos
		return
	case gesturePoint:
		sp, i, ok := e.scene.SplineOfPoint(g.id)
		if !ok {
			return
		}
		c := e.clampToCanvas(pos)
		sp.Points[i].X, sp.Points[i].Y = c.X, c.Y
	case gestureAnchor:
		a, ok := e.scene.Anchor(g.id)
		if !ok {
			return
		}
		a.Pos = e.clampToCanvas(pos)
	case gestureSpline:
		sp, ok := e.scene.Spline(g.id)
		if !ok {
			return
		}
		translatePoints(sp.Points, pos.Sub(g.last))
		g.last = pos
	case gestureMulti:
		e.translateItems(e.sel.Multi, pos.Sub(g.last))
		g.last = pos
	}
	g.moved = true
}

// PointerUp ends the gesture. A box selection selects what it encloses; a
// drag that moved something is recorded in history.
func (e *Engine) PointerUp() {
	g := e.gesture
	e.gesture = gesture{}
	switch {
	case g.kind == gestureBox:
		e.SelectBox(boxRect(g.start, g.last))
	case g.moved:
		e.Commit()
	}
}

// DoubleClick inserts a point on the spline under the pointer.
func (e *Engine) DoubleClick(pos vec.Vec2) bool {
	_, ok := e.InsertPointAt(pos)
	return ok
}

// SelectionBox returns the rubber band rectangle while a box selection is
// being dragged.
func (e *Engine) SelectionBox() (rect.Rect, bool) {
	if e.gesture.kind != gestureBox {
		return rect.Rect{}, false
	}
	return boxRect(e.gesture.start, e.gesture.last), true
}

// HitTest returns the ID of what a press at (x, y) would pick: an anchor, a
// spline point, or a spline, in that order. Empty if nothing.
func (e *Engine) HitTest(x, y float64) string {
	pos := vec.Vec2{X: x, Y: y}
	if a := e.anchorAt(pos); a != nil {
		return a.ID
	}
	if sp, i := e.pointAt(pos, 0); sp != nil {
		return sp.Points[i].ID
	}
	if sp := e.splineAt(pos); sp != nil {
		return sp.ID
	}
	return ""
}

func (e *Engine) pressAt(pos vec.Vec2) {
	if len(e.sel.Multi) > 0 && e.onMultiSelection(pos) {
		e.gesture = gesture{kind: gestureMulti, start: pos, last: pos}
		return
	}
	e.sel.Multi = nil

	if a := e.anchorAt(pos); a != nil {
		e.selectAnchor(a.ID)
		e.gesture = gesture{kind: gestureAnchor, id: a.ID, start: pos, last: pos}
		return
	}
	if sp, i := e.pointAt(pos, 0); sp != nil {
		id := sp.Points[i].ID
		e.sel.Point = id
		e.selectSpline(sp.ID)
		e.gesture = gesture{kind: gesturePoint, id: id, start: pos, last: pos}
		return
	}
	if sp := e.splineAt(pos); sp != nil {
		e.selectSpline(sp.ID)
		e.gesture = gesture{kind: gestureSpline, id: sp.ID, start: pos, last: pos}
		return
	}
	e.sel.ClearSingle()
}

func (e *Engine) toggleAt(pos vec.Vec2) {
	e.foldSingleIntoMulti()
	if a := e.anchorAt(pos); a != nil {
		e.sel.Toggle(selection.Anchor(a.ID))
		return
	}
	if sp, i := e.pointAt(pos, 0); sp != nil {
		e.sel.Toggle(selection.Point(sp.Points[i].ID))
		return
	}
	if sp := e.splineAt(pos); sp != nil {
		e.sel.ToggleSpline(sp)
		return
	}
	e.sel.Multi = nil
	e.gesture = gesture{kind: gestureBox, start: pos, last: pos}
}

func (e *Engine) deleteAt(pos vec.Vec2) {
	// Only points of splines that keep two points after the deletion.
	if sp, i := e.pointAt(pos, 3); sp != nil {
		id := sp.Points[i].ID
		sp.Points = append(sp.Points[:i], sp.Points[i+1:]...)
		e.dropFromMulti(selection.Point(id))
		if e.sel.Point == id {
			e.sel.Point = ""
		}
		e.Commit()
		return
	}
	if a := e.anchorAt(pos); a != nil {
		e.scene.RemoveAnchor(a.ID)
		e.dropFromMulti(selection.Anchor(a.ID))
		if e.sel.Anchor == a.ID {
			e.sel.Anchor = ""
		}
		e.Commit()
		return
	}
	if sp := e.splineAt(pos); sp != nil {
		e.scene.RemoveSpline(sp.ID)
		for _, p := range sp.Points {
			e.dropFromMulti(selection.Point(p.ID))
		}
		if e.sel.Spline == sp.ID {
			e.sel.Spline, e.sel.Point = "", ""
		}
		e.Commit()
	}
}

func (e *Engine) dropFromMulti(it selection.Item) {
	if e.sel.Contains(it) {
		e.sel.Toggle(it)
	}
}

// onMultiSelection reports whether pos can start dragging the
// multi-selection: near one of its items, or on a spline whose points are
// all selected.
func (e *Engine) onMultiSelection(pos vec.Vec2) bool {
	for _, it := range e.sel.Multi {
		if p, ok := e.itemPos(it); ok && p.Sub(pos).Length() < dragStartRadius {
			return true
		}
	}
	for _, sp := range e.scene.Splines {
		if fullySelected(e.sel, sp) && SplinePath(sp).Near(pos, splineHitTolerance) {
			return true
		}
	}
	return false
}

func (e *Engine) itemPos(it selection.Item) (vec.Vec2, bool) {
	switch it.Kind {
	case selection.KindAnchor:
		if a, ok := e.scene.Anchor(it.ID); ok {
			return a.Pos, true
		}
	case selection.KindPoint:
		if sp, i, ok := e.scene.SplineOfPoint(it.ID); ok {
			return sp.Points[i].Vec(), true
		}
	}
	return vec.Vec2{}, false
}

func (e *Engine) translateItems(items []selection.Item, d vec.Vec2) {
	for _, it := range items {
		switch it.Kind {
		case selection.KindAnchor:
			if a, ok := e.scene.Anchor(it.ID); ok {
				a.Pos = a.Pos.Add(d)
			}
		case selection.KindPoint:
			if sp, i, ok := e.scene.SplineOfPoint(it.ID); ok {
				translatePoints(sp.Points[i:i+1], d)
			}
		}
	}
}

// anchorAt returns the topmost anchor whose unscaled box contains pos.
func (e *Engine) anchorAt(pos vec.Vec2) *document.Anchor {
	for i := len(e.scene.Anchors) - 1; i >= 0; i-- {
		a := e.scene.Anchors[i]
		hx, hy := a.Style.SizeX/2, a.Style.SizeY/2
		if pos.X > a.Pos.X-hx && pos.X < a.Pos.X+hx && pos.Y > a.Pos.Y-hy && pos.Y < a.Pos.Y+hy {
			return a
		}
	}
	return nil
}

// pointAt returns the topmost spline point near pos, considering only
// splines with at least minPoints points.
func (e *Engine) pointAt(pos vec.Vec2, minPoints int) (*document.Spline, int) {
	for s := len(e.scene.Splines) - 1; s >= 0; s-- {
		sp := e.scene.Splines[s]
		if len(sp.Points) < minPoints {
			continue
		}
		for i, p := range sp.Points {
			if p.Vec().Sub(pos).Length() < pointHitRadius {
				return sp, i
			}
		}
	}
	return nil, -1
}

// splineAt returns the topmost spline whose path passes near pos.
func (e *Engine) splineAt(pos vec.Vec2) *document.Spline {
	for i := len(e.scene.Splines) - 1; i >= 0; i-- {
		sp := e.scene.Splines[i]
		if SplinePath(sp).Near(pos, splineHitTolerance) {
			return sp
		}
	}
	return nil
}

func (e *Engine) clampToCanvas(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: max(0, min(p.X, e.canvas.Width)),
		Y: max(0, min(p.Y, e.canvas.Height)),
	}
}

func translatePoints(pts []document.Point, d vec.Vec2) {
	for i := range pts {
		pts[i].X += d.X
		pts[i].Y += d.Y
	}
}

func boxRect(a, b vec.Vec2) rect.Rect {
	return normalizeRect(rect.Rect{LLx: a.X, LLy: a.Y, URx: b.X, URy: b.Y})
}

func normalizeRect(r rect.Rect) rect.Rect {
	return rect.Rect{
		LLx: min(r.LLx, r.URx), LLy: min(r.LLy, r.URy),
		URx: max(r.LLx, r.URx), URy: max(r.LLy, r.URy),
	}
}
