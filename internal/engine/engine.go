package engine

import (
	"encoding/json"
	"slices"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/history"
	"github.com/splinetool/splinetool/internal/playback"
	"github.com/splinetool/splinetool/internal/scene"
	"github.com/splinetool/splinetool/internal/selection"
)

const (
	DefaultCanvasWidth  = 1920
	DefaultCanvasHeight = 800
)

// Options configures a new engine. Zero values fall back to the defaults.
type Options struct {
	Canvas   document.Canvas
	Timeline document.Timeline
	// Time drives live playback. Nil means the monotonic clock.
	Time playback.TimeProvider
}

// Engine owns the editable scene, the selection, undo history and the
// playback clock. Every mutation goes through it. It is not safe for
// concurrent use; callers own it from a single goroutine.
type Engine struct {
	scene  *document.Scene
	canvas document.Canvas
	// output is the export resolution. Scene geometry lives in canvas
	// coordinates and is scaled to output when exporting.
	output document.Canvas

	sel     selection.Selection
	history *history.Store
	clock   *playback.Clock
	edits   *selection.Broadcaster

	gesture gesture
}

// NewEngine creates an engine holding an empty scene. The empty scene is the
// first history entry.
func NewEngine(opts Options) *Engine {
	c := opts.Canvas
	if c.Width <= 0 || c.Height <= 0 {
		c = document.Canvas{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight}
	}
	e := &Engine{
		canvas:  c,
		output:  c,
		history: history.New(),
		clock:   playback.NewClock(opts.Time, opts.Timeline),
	}
	e.scene = document.NewScene(e.clock.Timeline())
	e.edits = selection.NewBroadcaster(e.Scene, e.Selection, e)
	e.Commit()
	return e
}

// --- Commands ---

// LoadScene replaces the scene, selects its first spline (or first anchor)
// and records the result in history.
func (e *Engine) LoadScene(s *document.Scene) {
	e.scene = s
	e.clock.SetTimeline(s.Timeline)
	e.sel.Clear()
	e.gesture = gesture{}
	switch {
	case len(s.Splines) > 0:
		e.selectSpline(s.Splines[0].ID)
	case len(s.Anchors) > 0:
		e.selectAnchor(s.Anchors[0].ID)
	}
	e.Commit()
}

// LoadSceneJSON decodes a scene in file format, rescales it to the canvas
// and loads it.
func (e *Engine) LoadSceneJSON(data []byte) error {
	s, err := scene.DecodeJSON(data, e.canvas)
	if err != nil {
		return err
	}
	e.LoadScene(s)
	return nil
}

// LoadSample loads the built-in demo scene.
func (e *Engine) LoadSample() {
	e.LoadScene(document.NewSampleScene(e.canvas))
}

// Commit records the current scene as a new history entry.
func (e *Engine) Commit() {
	e.scene.Timeline = e.clock.Timeline()
	e.history.Commit(e.scene)
}

// Undo restores the previous history entry. Reports false at the oldest
// entry.
func (e *Engine) Undo() bool {
	s, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// Redo re-applies the next history entry. Reports false at the newest entry.
func (e *Engine) Redo() bool {
	s, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// restore applies a snapshot and re-derives the selection from it: the last
// spline, else the last anchor.
func (e *Engine) restore(s *document.Scene) {
	e.scene = s
	e.clock.SetTimeline(s.Timeline)
	e.sel.Clear()
	e.gesture = gesture{}
	if n := len(s.Splines); n > 0 {
		e.selectSpline(s.Splines[n-1].ID)
	} else if n := len(s.Anchors); n > 0 {
		e.selectAnchor(s.Anchors[n-1].ID)
	}
}

// SetTimeline changes the global frame rate and length. A final change is
// recorded in history; live edits while typing are not.
func (e *Engine) SetTimeline(fps, totalFrames int, final bool) {
	e.clock.SetTimeline(document.Timeline{FPS: fps, TotalFrames: totalFrames})
	e.scene.Timeline = e.clock.Timeline()
	if final {
		e.Commit()
	}
}

// SetCanvas resizes the editing surface and scales all geometry with it.
func (e *Engine) SetCanvas(c document.Canvas) {
	if c.Width <= 0 || c.Height <= 0 {
		return
	}
	if c == e.canvas {
		return
	}
	sx, sy := c.Width/e.canvas.Width, c.Height/e.canvas.Height
	for _, sp := range e.scene.Splines {
		for i := range sp.Points {
			sp.Points[i].X *= sx
			sp.Points[i].Y *= sy
		}
	}
	for _, a := range e.scene.Anchors {
		a.Pos.X *= sx
		a.Pos.Y *= sy
	}
	e.canvas = c
}

// SetOutputSize sets the export resolution.
func (e *Engine) SetOutputSize(c document.Canvas) {
	if c.Width > 0 && c.Height > 0 {
		e.output = c
	}
}

// --- Playback ---

func (e *Engine) Play()                { e.clock.Play() }
func (e *Engine) Stop()                { e.clock.Stop() }
func (e *Engine) TogglePlay()          { e.clock.Toggle() }
func (e *Engine) SetLooping(loop bool) { e.clock.SetLooping(loop) }

// Scrub moves the playhead to a normalized timeline position and stops
// playback. EndScrub makes it the resume point.
func (e *Engine) Scrub(pos float64) { e.clock.Scrub(pos) }
func (e *Engine) EndScrub()         { e.clock.EndScrub() }

// SetPlayhead moves the playhead to a frame.
func (e *Engine) SetPlayhead(frame int) { e.clock.Seek(frame) }

// --- Queries ---

// Scene returns the live scene. Callers must not modify it.
func (e *Engine) Scene() *document.Scene { return e.scene }

// Selection returns a copy of the current selection.
func (e *Engine) Selection() selection.Selection {
	s := e.sel
	s.Multi = slices.Clone(e.sel.Multi)
	return s
}

func (e *Engine) Canvas() document.Canvas     { return e.canvas }
func (e *Engine) OutputSize() document.Canvas { return e.output }
func (e *Engine) Clock() *playback.Clock      { return e.clock }
func (e *Engine) CanUndo() bool               { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool               { return e.history.CanRedo() }

// Frame returns the frame counter value.
func (e *Engine) Frame() int { return e.clock.Frame() }

// EncodeScene returns the scene in file format.
func (e *Engine) EncodeScene() ([]byte, error) {
	return scene.EncodeJSON(e.scene, e.canvas)
}

// GetScene returns the scene in file format as a JSON string.
func (e *Engine) GetScene() string {
	data, err := e.EncodeScene()
	if err != nil {
		return "{}"
	}
	return string(data)
}

// GetPlaybackState returns the clock state as JSON.
func (e *Engine) GetPlaybackState() string {
	tl := e.clock.Timeline()
	data, _ := json.Marshal(map[string]interface{}{
		"frame":       e.clock.Frame(),
		"position":    e.clock.Position(),
		"playing":     e.clock.Playing(),
		"looping":     e.clock.Looping(),
		"mode":        e.clock.Mode().String(),
		"fps":         tl.FPS,
		"totalFrames": tl.TotalFrames,
	})
	return string(data)
}

// GetSelection returns the selection as JSON.
func (e *Engine) GetSelection() string {
	multi := make([]map[string]string, 0, len(e.sel.Multi))
	for _, it := range e.sel.Multi {
		multi = append(multi, map[string]string{"kind": it.Kind.String(), "id": it.ID})
	}
	data, _ := json.Marshal(map[string]interface{}{
		"spline": e.sel.Spline,
		"point":  e.sel.Point,
		"anchor": e.sel.Anchor,
		"multi":  multi,
	})
	return string(data)
}

// GetHistoryState returns undo/redo availability as JSON.
func (e *Engine) GetHistoryState() string {
	data, _ := json.Marshal(map[string]interface{}{
		"canUndo": e.history.CanUndo(),
		"canRedo": e.history.CanRedo(),
		"entries": e.history.Len(),
	})
	return string(data)
}
