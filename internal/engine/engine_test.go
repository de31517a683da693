package engine

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/splinetool/splinetool/internal/curve"
	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/selection"
)

func TestNewEngineStartsWithOneEntry(t *testing.T) {
	e, _ := newTestEngine(t)
	diff(t, 1, e.history.Len())
	diff(t, false, e.CanUndo())
	diff(t, false, e.Undo())
	diff(t, false, e.Redo())
}

func TestAddSplineLayout(t *testing.T) {
	e, _ := newTestEngine(t)
	first := e.AddSpline()
	second := e.AddSpline()

	s := e.Scene()
	diff(t, 2, len(s.Splines))
	a, b := s.Splines[0], s.Splines[1]
	diff(t, first, a.ID)
	diff(t, []float64{250, 250, 750, 250}, []float64{a.Points[0].X, a.Points[0].Y, a.Points[1].X, a.Points[1].Y})
	diff(t, 270.0, b.Points[0].Y)
	diff(t, document.Palette[0], a.LineColor)
	diff(t, document.Palette[1], b.LineColor)
	diff(t, 20, a.Schedule.TotalFrames)
	diff(t, second, e.Selection().Spline)
	diff(t, 3, e.history.Len())
}

func TestAddAnchorLayout(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddAnchor()
	id := e.AddAnchor()
	a := e.Scene().Anchors[1]
	diff(t, id, a.ID)
	assertNear(t, v(520, 320), a.Pos, 0)
	diff(t, selection.Selection{Anchor: id}, e.Selection())
}

func TestDeleteSecondOfTwoPointsRemovesSpline(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	sp := e.Scene().Splines[0]
	if !e.SelectPoint(sp.Points[1].ID) {
		t.Fatal("select point failed")
	}
	before := e.history.Len()

	if !e.RemoveSelection() {
		t.Fatal("nothing removed")
	}
	diff(t, 0, len(e.Scene().Splines))
	diff(t, true, e.Selection().Empty())
	diff(t, before+1, e.history.Len())

	// undo brings it back, selected
	e.Undo()
	diff(t, 1, len(e.Scene().Splines))
	diff(t, e.Scene().Splines[0].ID, e.Selection().Spline)
}

func TestRemoveSelectedPointKeepsSpline(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	e.AddPointToSelection()
	sp := e.Scene().Splines[0]
	mid := sp.Points[1].ID
	e.SelectPoint(mid)

	e.RemoveSelection()
	sp = e.Scene().Splines[0]
	diff(t, 2, len(sp.Points))
	diff(t, -1, sp.PointIndex(mid))
}

func TestRemoveMultiCascades(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	e.AddPointToSelection()
	keep := e.Scene().Splines[0]
	e.AddSpline()
	e.AddPointToSelection()
	drop := e.Scene().Splines[1]
	anchor := e.AddAnchor()

	// one point of keep, two of drop (leaving one), and the anchor
	e.ClearSelection()
	e.ToggleItem(selection.Point(keep.Points[0].ID))
	e.ToggleItem(selection.Point(drop.Points[0].ID))
	e.ToggleItem(selection.Point(drop.Points[2].ID))
	e.ToggleItem(selection.Anchor(anchor))

	if !e.RemoveSelection() {
		t.Fatal("nothing removed")
	}
	s := e.Scene()
	diff(t, 1, len(s.Splines))
	diff(t, keep.ID, s.Splines[0].ID)
	diff(t, 2, len(s.Splines[0].Points))
	diff(t, 0, len(s.Anchors))
	diff(t, true, e.Selection().Empty())
}

func TestDeleteSelectedSplineReselects(t *testing.T) {
	e, _ := newTestEngine(t)
	first := e.AddSpline()
	e.AddSpline()
	diff(t, true, e.DeleteSelectedSpline())
	diff(t, first, e.Selection().Spline)

	diff(t, true, e.DeleteSelectedSpline())
	diff(t, true, e.Selection().Empty())
	diff(t, false, e.DeleteSelectedSpline())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	e.AddAnchor()
	e.SelectAnchor(e.Scene().Anchors[0].ID)
	e.SetField(selection.FieldFillColor, "#123456", true)

	before := e.Scene().Clone()
	if !e.Undo() {
		t.Fatal("undo failed")
	}
	diff(t, "#000000", e.Scene().Anchors[0].Style.FillColor)
	if !e.Redo() {
		t.Fatal("redo failed")
	}
	diff(t, before, e.Scene())
	diff(t, false, e.CanRedo())
}

func TestUndoDoesNotAliasHistory(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	e.AddSpline()
	e.Undo()
	e.Scene().Splines[0].Points[0].X = -1
	e.Redo()
	e.Undo()
	diff(t, 250.0, e.Scene().Splines[0].Points[0].X)
}

func TestCommitAfterUndoTruncates(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	e.AddSpline()
	e.Undo()
	e.AddAnchor()
	diff(t, false, e.CanRedo())
	diff(t, 1, len(e.Scene().Splines))
	diff(t, 1, len(e.Scene().Anchors))
}

func TestCloneSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	orig := e.AddSpline()
	diff(t, true, e.CloneSelection())

	s := e.Scene()
	diff(t, 2, len(s.Splines))
	c := s.Splines[1]
	if c.ID == orig || c.Points[0].ID == s.Splines[0].Points[0].ID {
		t.Error("clone shares IDs with the original")
	}
	assertNear(t, v(270, 270), c.Points[0].Vec(), 0)
	diff(t, document.Palette[1], c.LineColor)
	diff(t, c.ID, e.Selection().Spline)

	c.ScaleCurve.Points[0].Y = 3
	diff(t, 0.0, s.Splines[0].ScaleCurve.Points[0].Y)
}

func TestCloneMultiSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	sp := e.Scene().Splines[0]
	a := e.AddAnchor()
	e.ClearSelection()
	e.ToggleItem(selection.Point(sp.Points[0].ID))
	e.ToggleItem(selection.Point(sp.Points[1].ID))
	e.ToggleItem(selection.Anchor(a))

	e.CloneSelection()
	s := e.Scene()
	diff(t, 2, len(s.Splines))
	diff(t, 2, len(s.Anchors))
	want := []selection.Item{
		selection.Point(s.Splines[1].Points[0].ID),
		selection.Point(s.Splines[1].Points[1].ID),
		selection.Anchor(s.Anchors[1].ID),
	}
	diff(t, want, e.Selection().Multi)
}

func TestAddPointToSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	diff(t, 1, e.AddPointToSelection())
	sp := e.Scene().Splines[0]
	diff(t, 3, len(sp.Points))
	assertNear(t, v(500, 250), sp.Points[1].Vec(), 1e-9)

	e.ClearSelection()
	diff(t, 0, e.AddPointToSelection())
}

func TestAddPointToMultiSelectionAddsToSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	e.AddSpline()
	s := e.Scene()
	e.ClearSelection()
	e.ToggleItem(selection.Point(s.Splines[0].Points[0].ID))
	e.ToggleItem(selection.Point(s.Splines[0].Points[1].ID))
	e.ToggleItem(selection.Point(s.Splines[1].Points[0].ID))

	diff(t, 2, e.AddPointToSelection())
	diff(t, 5, len(e.Selection().Multi))
}

func TestClearAll(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	e.AddSpline()
	e.AddAnchor()
	before := e.history.Len()

	e.ClearAll()
	s := e.Scene()
	diff(t, 1, len(s.Splines))
	diff(t, 0, len(s.Anchors))
	diff(t, document.Palette[0], s.Splines[0].LineColor)
	diff(t, 1, s.ColorIndex)
	diff(t, before+2, e.history.Len())
}

func TestSetFieldCommitsOnlyFinal(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddAnchor()
	before := e.history.Len()

	n, err := e.SetField(selection.FieldSizeX, 30, false)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, 1, n)
	diff(t, before, e.history.Len())
	diff(t, 30.0, e.Scene().Anchors[0].Style.SizeX)

	e.SetField(selection.FieldSizeX, 32, true)
	diff(t, before+1, e.history.Len())

	if _, err := e.SetField("bogus", 1, true); err == nil {
		t.Error("unknown field accepted")
	}
	diff(t, before+1, e.history.Len())
}

func TestSetTimeline(t *testing.T) {
	e, _ := newTestEngine(t)
	before := e.history.Len()
	e.SetTimeline(24, 48, false)
	diff(t, document.Timeline{FPS: 24, TotalFrames: 48}, e.Scene().Timeline)
	diff(t, before, e.history.Len())

	e.SetTimeline(24, 48, true)
	diff(t, before+1, e.history.Len())
	e.SetTimeline(10, 20, true)
	e.Undo()
	diff(t, document.Timeline{FPS: 24, TotalFrames: 48}, e.Clock().Timeline())
}

func TestMultiAnchorCurveEdit(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddAnchor()
	e.AddAnchor()
	s := e.Scene()
	e.ClearSelection()
	e.ToggleItem(selection.Anchor(s.Anchors[0].ID))
	e.ToggleItem(selection.Anchor(s.Anchors[1].ID))
	before := e.history.Len()

	for _, y := range []float64{1, 2, 2.5} {
		if _, err := e.MoveCurvePoint(selection.CurveScale, 1, 0.5, y, false); err != nil {
			t.Fatal(err)
		}
	}
	diff(t, before, e.history.Len())
	if _, err := e.MoveCurvePoint(selection.CurveScale, 1, 0.5, 3, true); err != nil {
		t.Fatal(err)
	}
	diff(t, before+1, e.history.Len())

	// the last point keeps its time
	want := curve.Curve{Points: []curve.Point{{X: 0, Y: 0}, {X: 1, Y: 3}}}
	diff(t, want, s.Anchors[0].ScaleCurve)
	diff(t, want, s.Anchors[1].ScaleCurve)

	s.Anchors[0].ScaleCurve.Points[1].Y = -1
	diff(t, 3.0, s.Anchors[1].ScaleCurve.Points[1].Y)
}

func TestCurvePointOps(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()

	if err := e.AddCurvePoint(selection.CurveEasing, 0.5, 2); err != nil {
		t.Fatal(err)
	}
	c, ok := e.Curve(selection.CurveEasing)
	if !ok {
		t.Fatal("no easing curve")
	}
	// y is clamped to the easing range
	diff(t, []curve.Point{{X: 0, Y: 0}, {X: 0.5, Y: 1}, {X: 1, Y: 1}}, c.Points)

	diff(t, nil, e.RemoveCurvePoint(selection.CurveEasing, 1))
	if err := e.RemoveCurvePoint(selection.CurveEasing, 0); err == nil {
		t.Error("removed below two points")
	}

	e.AddCurvePoint(selection.CurveScale, 0.5, 2)
	diff(t, 1, e.ResetCurve(selection.CurveScale))
	c, _ = e.Curve(selection.CurveScale)
	diff(t, curve.DefaultScale(), c)

	e.ClearSelection()
	if err := e.AddCurvePoint(selection.CurveScale, 0.5, 0); err != ErrNoCurve {
		t.Errorf("got %v, want ErrNoCurve", err)
	}
}

func TestEasingCurveSkipsAnchors(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddAnchor()
	if _, ok := e.Curve(selection.CurveEasing); ok {
		t.Error("anchor has no easing curve")
	}
	diff(t, 1.0, e.EvaluateSelectedScale(0.5))
}

func TestPlaybackMovesShape(t *testing.T) {
	e, mock := newTestEngine(t)
	id := e.AddSpline()

	st, ok := e.EntityState(id)
	if !ok {
		t.Fatal("no state")
	}
	diff(t, true, st.Visible)
	assertNear(t, v(250, 250), st.Pos, 1e-9)

	e.Play()
	mock.Advance(1000 * time.Millisecond)
	st, _ = e.EntityState(id)
	diff(t, 0.5, st.RawProgress, cmpopts.EquateApprox(0, 1e-9))
	assertNear(t, v(500, 250), st.Pos, 1e-6)
	diff(t, 10, e.Frame())

	e.Stop()
	mock.Advance(time.Second)
	diff(t, 10, e.Frame())
}

func TestScrubAndSeek(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Scrub(0.25)
	diff(t, 5, e.Frame())
	e.EndScrub()
	e.SetPlayhead(15)
	diff(t, 15, e.Frame())
}

func TestSetCanvasScalesGeometry(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddSpline()
	e.AddAnchor()
	e.SetCanvas(document.Canvas{Width: 500, Height: 1200})
	s := e.Scene()
	assertNear(t, v(125, 500), s.Splines[0].Points[0].Vec(), 1e-9)
	assertNear(t, v(250, 600), s.Anchors[0].Pos, 1e-9)
}

func TestLoadSceneJSON(t *testing.T) {
	e, _ := newTestEngine(t)
	data := []byte(`{
		"originalImageDimensions": {"width": 500, "height": 300},
		"splines": [{"points": [{"x": 10, "y": 10}, {"x": 100, "y": 10}]}],
		"fps": 12, "totalFrames": 36
	}`)
	before := e.history.Len()
	if err := e.LoadSceneJSON(data); err != nil {
		t.Fatal(err)
	}
	s := e.Scene()
	assertNear(t, v(20, 20), s.Splines[0].Points[0].Vec(), 1e-9)
	diff(t, s.Splines[0].ID, e.Selection().Spline)
	diff(t, document.Timeline{FPS: 12, TotalFrames: 36}, e.Clock().Timeline())
	diff(t, before+1, e.history.Len())

	if err := e.LoadSceneJSON([]byte("{")); err == nil {
		t.Error("malformed JSON accepted")
	}
}

func TestQueryFunctions(t *testing.T) {
	c := curve.Curve{Points: []curve.Point{{X: 0, Y: -4}, {X: 1, Y: 4}}}
	diff(t, 0.25, EvaluateScale(c, 0, 1))
	diff(t, 1.0, EvaluateScale(curve.Curve{}, 0.3, 0))
	diff(t, 0.3, EvaluateEasing(curve.Curve{}, 0.3))

	sp := document.NewSpline("spl", document.Point{X: 0, Y: 0}, document.Point{X: 100, Y: 0}, 20, "#000000")
	assertNear(t, v(50, 0), PositionAtProgress(sp, 0.5), 1e-9)

	st := PlaybackState(sp, 1000, 10)
	diff(t, true, st.Visible)
	diff(t, 0.5, st.RawProgress, cmpopts.EquateApprox(0, 1e-9))
}
