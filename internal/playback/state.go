package playback

import (
	"math"

	"github.com/splinetool/splinetool/internal/document"
)

// State is an object's evaluated position in its own time window.
type State struct {
	Visible bool
	// RawProgress is clamped to [0,1].
	RawProgress float64
	// EasedProgress is the easing curve output and may leave [0,1].
	EasedProgress float64
}

// StateFor evaluates an entity at timeline time nowMs.
func StateFor(e document.Entity, nowMs float64, fps int) State {
	if fps <= 0 {
		fps = document.DefaultFPS
	}
	sched := e.EntitySchedule()
	startMs := float64(sched.StartFrame) / float64(fps) * 1000
	durMs := float64(sched.TotalFrames) / float64(fps) * 1000
	if durMs <= 0 || math.IsNaN(durMs) {
		durMs = 1
	}
	endMs := startMs + durMs

	var st State
	switch {
	case nowMs >= startMs && nowMs < endMs:
		st.Visible = true
		st.RawProgress = (nowMs - startMs) / durMs
	case nowMs >= endMs:
		st.RawProgress = 1
		st.Visible = !sched.HideOnComplete
	}
	st.EasedProgress = ease(e, st.RawProgress)
	st.RawProgress = clamp01(st.RawProgress)
	return st
}

// StateAtFrame evaluates an entity at a global frame in frame units, the
// way exported frames are sampled.
func StateAtFrame(e document.Entity, frame float64) State {
	sched := e.EntitySchedule()
	start := float64(sched.StartFrame)
	total := float64(sched.TotalFrames)
	if total <= 0 {
		total = 1
	}

	var st State
	st.Visible = frame >= start && (frame < start+total || !sched.HideOnComplete)
	st.RawProgress = clamp01((frame - start) / total)
	st.EasedProgress = ease(e, st.RawProgress)
	return st
}

// StateFor evaluates an entity at the clock's current time.
func (c *Clock) StateFor(e document.Entity) State {
	return StateFor(e, c.NowMs(), c.timeline.FPS)
}

func ease(e document.Entity, raw float64) float64 {
	if sp, ok := e.(*document.Spline); ok {
		return sp.EasingCurve.Ease(raw)
	}
	return raw
}
