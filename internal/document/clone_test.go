package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/curve"
)

func TestSceneCloneIsDeep(t *testing.T) {
	s := NewSampleScene(Canvas{Width: 1000, Height: 500})
	c := s.Clone()
	if d := cmp.Diff(s, c); d != "" {
		t.Fatalf("clone differs: %s", d)
	}

	c.Splines[0].Points[0].X = -1
	c.Splines[0].ScaleCurve.Points[1].Y = 4
	c.Splines[0].EasingCurve.Points[1].Y = 0.9
	c.Anchors[0].ScaleCurve.Points[1].Y = -4
	c.Anchors[0].Pos = vec.Vec2{X: 1, Y: 1}
	c.Splines = append(c.Splines, c.Splines[0].Clone())

	if s.Splines[0].Points[0].X == -1 {
		t.Error("clone shares spline points")
	}
	if s.Splines[0].ScaleCurve.Points[1].Y == 4 {
		t.Error("clone shares scale curve")
	}
	if s.Splines[0].EasingCurve.Points[1].Y == 0.9 {
		t.Error("clone shares easing curve")
	}
	if s.Anchors[0].ScaleCurve.Points[1].Y == -4 {
		t.Error("clone shares anchor curve")
	}
	if s.Anchors[0].Pos.X == 1 {
		t.Error("clone shares anchor position")
	}
	if len(s.Splines) != 2 {
		t.Errorf("original has %d splines, want 2", len(s.Splines))
	}
}

func TestFactoriesUseDefaults(t *testing.T) {
	sp := NewSpline("spl", Point{X: 1}, Point{X: 2}, 40, "#000")
	if d := cmp.Diff(curve.DefaultScale(), sp.ScaleCurve); d != "" {
		t.Error(d)
	}
	if d := cmp.Diff(curve.DefaultEasing(), sp.EasingCurve); d != "" {
		t.Error(d)
	}
	if d := cmp.Diff(Schedule{TotalFrames: 40, HideOnComplete: true}, sp.Schedule); d != "" {
		t.Error(d)
	}
	a := NewAnchor("anc", vec.Vec2{}, 40)
	if d := cmp.Diff(DefaultStyle(), a.Style); d != "" {
		t.Error(d)
	}
}

func TestNextColorCycles(t *testing.T) {
	s := NewScene(Timeline{})
	if s.Timeline.FPS != DefaultFPS || s.Timeline.TotalFrames != DefaultTotalFrames {
		t.Errorf("timeline defaults not applied: %+v", s.Timeline)
	}
	for i := 0; i < len(Palette); i++ {
		if got := s.NextColor(); got != Palette[i] {
			t.Errorf("color %d = %s, want %s", i, got, Palette[i])
		}
	}
	if got := s.NextColor(); got != Palette[0] {
		t.Errorf("palette did not wrap: %s", got)
	}
}

func TestSplineOfPoint(t *testing.T) {
	s := NewSampleScene(Canvas{Width: 100, Height: 100})
	want := s.Splines[1]
	sp, idx, ok := s.SplineOfPoint(want.Points[1].ID)
	if !ok || sp != want || idx != 1 {
		t.Errorf("SplineOfPoint = %v, %d, %v", sp, idx, ok)
	}
	if _, _, ok := s.SplineOfPoint("missing"); ok {
		t.Error("found a missing point")
	}
	if !s.RemoveSpline(want.ID) || len(s.Splines) != 1 {
		t.Error("RemoveSpline failed")
	}
	if !s.RemoveAnchor(s.Anchors[0].ID) || len(s.Anchors) != 0 {
		t.Error("RemoveAnchor failed")
	}
}
