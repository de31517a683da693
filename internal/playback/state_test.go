package playback

import (
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/splinetool/splinetool/internal/curve"
	"github.com/splinetool/splinetool/internal/document"
)

func spline(start, total int, hide bool) *document.Spline {
	sp := document.NewSpline("spl", document.Point{X: 0}, document.Point{X: 1}, total, "#fff")
	sp.Schedule = document.Schedule{StartFrame: start, TotalFrames: total, HideOnComplete: hide}
	return sp
}

func TestStateFor(t *testing.T) {
	tests := []struct {
		name  string
		sched document.Schedule
		nowMs float64
		want  State
	}{
		{"before start", document.Schedule{StartFrame: 5, TotalFrames: 10, HideOnComplete: true}, 100, State{}},
		{"at start", document.Schedule{StartFrame: 5, TotalFrames: 10, HideOnComplete: true}, 500, State{Visible: true}},
		{"halfway", document.Schedule{StartFrame: 0, TotalFrames: 10, HideOnComplete: true}, 500, State{Visible: true, RawProgress: 0.5, EasedProgress: 0.5}},
		{"at end hidden", document.Schedule{StartFrame: 0, TotalFrames: 10, HideOnComplete: true}, 1000, State{RawProgress: 1, EasedProgress: 1}},
		{"after end kept", document.Schedule{StartFrame: 0, TotalFrames: 10, HideOnComplete: false}, 5000, State{Visible: true, RawProgress: 1, EasedProgress: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := spline(0, 1, true)
			sp.Schedule = tt.sched
			diff(t, tt.want, StateFor(sp, tt.nowMs, 10))
		})
	}
}

func TestStateForZeroDuration(t *testing.T) {
	sp := spline(0, 0, true)
	st := StateFor(sp, 0.5, 10)
	if !st.Visible {
		t.Error("zero length window should still cover its first millisecond")
	}
	diff(t, 0.5, st.RawProgress)
}

func TestAnchorsIgnoreEasing(t *testing.T) {
	a := document.NewAnchor("anc", spline(0, 1, true).Vecs()[0], 10)
	st := StateFor(a, 250, 10)
	diff(t, State{Visible: true, RawProgress: 0.25, EasedProgress: 0.25}, st)
}

func TestEasedProgressNotClamped(t *testing.T) {
	sp := spline(0, 10, true)
	sp.EasingCurve = curve.Curve{Points: []curve.Point{{X: 0, Y: 0}, {X: 0.5, Y: 1}, {X: 1, Y: 1}}, Tension: 1}
	st := StateFor(sp, 700, 10)
	if st.EasedProgress <= 1 {
		t.Errorf("expected overshoot past 1, got %v", st.EasedProgress)
	}
	if st.RawProgress < 0 || st.RawProgress > 1 {
		t.Errorf("raw progress out of range: %v", st.RawProgress)
	}
}

func TestStateAtFrame(t *testing.T) {
	sp := spline(4, 8, true)
	diff(t, State{}, StateAtFrame(sp, 2))
	diff(t, State{Visible: true, RawProgress: 0.5, EasedProgress: 0.5}, StateAtFrame(sp, 8))
	diff(t, State{RawProgress: 1, EasedProgress: 1}, StateAtFrame(sp, 12))

	sp.Schedule.HideOnComplete = false
	diff(t, State{Visible: true, RawProgress: 1, EasedProgress: 1}, StateAtFrame(sp, 40))
}

func TestClockStateFor(t *testing.T) {
	c, _ := newTestClock()
	c.Scrub(0.25)
	sp := spline(0, 10, true)
	diff(t, 0.5, c.StateFor(sp).RawProgress, cmpopts.EquateApprox(0, 1e-12))
}
