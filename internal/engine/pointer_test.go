package engine

import (
	"testing"

	"seehuhn.de/go/geom/rect"

	"github.com/splinetool/splinetool/internal/selection"
)

func TestPointDragCommitsOnRelease(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	sp := e.Scene().Splines[0]
	before := e.history.Len()

	e.PointerDown(v(250, 250), ButtonLeft, false)
	diff(t, sp.Points[0].ID, e.Selection().Point)
	diff(t, sp.ID, e.Selection().Spline)

	e.PointerMove(v(260, 240))
	assertNear(t, v(260, 240), sp.Points[0].Vec(), 0)
	diff(t, before, e.history.Len())

	// clamped to the canvas
	e.PointerMove(v(-50, 700))
	assertNear(t, v(0, 600), sp.Points[0].Vec(), 0)

	e.PointerUp()
	diff(t, before+1, e.history.Len())
}

func TestClickWithoutMoveDoesNotCommit(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	before := e.history.Len()
	e.PointerDown(v(250, 250), ButtonLeft, false)
	e.PointerUp()
	diff(t, before, e.history.Len())
}

func TestClickEmptySpaceClearsSingleSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	e.PointerDown(v(50, 50), ButtonLeft, false)
	e.PointerUp()
	diff(t, true, e.Selection().Empty())
}

func TestSplineDragTranslatesAllPoints(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	sp := e.Scene().Splines[0]

	e.PointerDown(v(500, 250), ButtonLeft, false)
	e.PointerMove(v(505, 255))
	e.PointerMove(v(510, 260))
	e.PointerUp()

	assertNear(t, v(260, 260), sp.Points[0].Vec(), 1e-9)
	assertNear(t, v(760, 260), sp.Points[1].Vec(), 1e-9)
}

func TestAnchorDrag(t *testing.T) {
	e, _ := newTestEngine(t)
	id := e.AddAnchor()
	e.ClearSelection()

	e.PointerDown(v(502, 301), ButtonLeft, false)
	diff(t, id, e.Selection().Anchor)
	e.PointerMove(v(100, 120))
	e.PointerUp()
	assertNear(t, v(100, 120), e.Scene().Anchors[0].Pos, 0)
}

func TestMultiDrag(t *testing.T) {
	e, _ := newTestEngine(t)
	id := e.AddSpline()
	a := e.AddAnchor()
	e.ClearSelection()
	e.ToggleItem(selection.Spline(id))
	e.ToggleItem(selection.Anchor(a))
	before := e.history.Len()

	e.PointerDown(v(250, 250), ButtonLeft, false)
	e.PointerMove(v(255, 245))
	e.PointerUp()

	s := e.Scene()
	assertNear(t, v(255, 245), s.Splines[0].Points[0].Vec(), 1e-9)
	assertNear(t, v(755, 245), s.Splines[0].Points[1].Vec(), 1e-9)
	assertNear(t, v(505, 295), s.Anchors[0].Pos, 1e-9)
	diff(t, 3, len(e.Selection().Multi))
	diff(t, before+1, e.history.Len())
}

func TestCtrlClickFoldsSingleSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	a := e.AddAnchor()
	e.AddSpline()
	sp := e.Scene().Splines[0]

	e.PointerDown(v(500, 300), ButtonLeft, true)
	e.PointerUp()

	want := selection.Selection{Multi: []selection.Item{
		selection.Point(sp.Points[0].ID),
		selection.Point(sp.Points[1].ID),
		selection.Anchor(a),
	}}
	diff(t, want, e.Selection())

	// a second ctrl click on the anchor removes it again
	e.PointerDown(v(500, 300), ButtonLeft, true)
	e.PointerUp()
	diff(t, 2, len(e.Selection().Multi))
}

func TestCtrlClickSplineTogglesItsPoints(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	sp := e.Scene().Splines[0]
	e.ClearSelection()

	e.PointerDown(v(400, 250), ButtonLeft, true)
	e.PointerUp()
	diff(t, 2, len(e.Selection().Multi))
	diff(t, true, fullySelected(e.Selection(), sp))

	e.PointerDown(v(400, 250), ButtonLeft, true)
	e.PointerUp()
	diff(t, 0, len(e.Selection().Multi))
}

func TestBoxSelect(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	sp := e.Scene().Splines[0]

	e.PointerDown(v(200, 200), ButtonLeft, true)
	e.PointerMove(v(600, 300))
	box, ok := e.SelectionBox()
	if !ok {
		t.Fatal("no selection box while dragging")
	}
	diff(t, rect.Rect{LLx: 200, LLy: 200, URx: 600, URy: 300}, box)
	before := e.history.Len()

	e.PointerUp()
	diff(t, []selection.Item{selection.Point(sp.Points[0].ID)}, e.Selection().Multi)
	diff(t, before, e.history.Len())
	if _, ok := e.SelectionBox(); ok {
		t.Error("selection box left after release")
	}
}

func TestBoxSelectDraggedUpwards(t *testing.T) {
	e, _ := newTestEngine(t)
	a := e.AddAnchor()
	e.PointerDown(v(600, 400), ButtonLeft, true)
	e.PointerMove(v(400, 200))
	e.PointerUp()
	diff(t, []selection.Item{selection.Anchor(a)}, e.Selection().Multi)
}

func TestRightClickDeletes(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	e.AddPointToSelection()
	before := e.history.Len()

	// the middle point goes first since the spline keeps two
	e.PointerDown(v(500, 250), ButtonRight, false)
	s := e.Scene()
	diff(t, 1, len(s.Splines))
	diff(t, 2, len(s.Splines[0].Points))
	diff(t, before+1, e.history.Len())

	// then the whole spline
	e.PointerDown(v(500, 250), ButtonRight, false)
	diff(t, 0, len(e.Scene().Splines))
	diff(t, before+2, e.history.Len())

	// nothing left to hit
	e.PointerDown(v(500, 250), ButtonRight, false)
	diff(t, before+2, e.history.Len())
}

func TestRightClickDeletesAnchor(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddAnchor()
	e.PointerDown(v(500, 300), ButtonRight, false)
	diff(t, 0, len(e.Scene().Anchors))
	diff(t, "", e.Selection().Anchor)
}

func TestDoubleClickInsertsPoint(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()

	if !e.DoubleClick(v(500, 255)) {
		t.Fatal("no point inserted")
	}
	sp := e.Scene().Splines[0]
	diff(t, 3, len(sp.Points))
	assertNear(t, v(500, 250), sp.Points[1].Vec(), 1)
	diff(t, sp.Points[1].ID, e.Selection().Point)

	diff(t, false, e.DoubleClick(v(500, 500)))
	diff(t, 3, len(e.Scene().Splines[0].Points))
}

func TestHitTest(t *testing.T) {
	e, _ := newTestEngine(t)
	id := e.AddSpline()
	a := e.AddAnchor()
	sp := e.Scene().Splines[0]

	diff(t, a, e.HitTest(500, 300))
	diff(t, sp.Points[0].ID, e.HitTest(252, 248))
	diff(t, id, e.HitTest(400, 262))
	diff(t, "", e.HitTest(10, 10))
}
