package main

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/engine"
	"github.com/splinetool/splinetool/internal/scene"
)

func writeScene(t *testing.T, withImage bool) string {
	t.Helper()
	e := engine.NewEngine(engine.Options{Canvas: document.Canvas{Width: 1000, Height: 562}})
	e.AddSpline()
	e.AddAnchor()
	data, err := e.EncodeScene()
	if err != nil {
		t.Fatal(err)
	}
	if withImage {
		var buf bytes.Buffer
		if err := scene.Write(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), data); err != nil {
			t.Fatal(err)
		}
		data = buf.Bytes()
	}
	path := filepath.Join(t.TempDir(), "scene.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenScene(t *testing.T) {
	for _, withImage := range []bool{true, false} {
		e, err := openScene(writeScene(t, withImage))
		if err != nil {
			t.Fatal(err)
		}
		if got := len(e.Scene().Splines); got != 1 {
			t.Errorf("image %v: %d splines, want 1", withImage, got)
		}
		if got := len(e.Scene().Anchors); got != 1 {
			t.Errorf("image %v: %d anchors, want 1", withImage, got)
		}
	}

	path := filepath.Join(t.TempDir(), "junk")
	os.WriteFile(path, []byte("not a scene"), 0o644)
	if _, err := openScene(path); err == nil {
		t.Error("junk file opened")
	}
}

func TestFit(t *testing.T) {
	canvas := document.Canvas{Width: 1000, Height: 500}
	if d := cmp.Diff(document.Canvas{Width: 80, Height: 40}, fit(canvas, 80, 46)); d != "" {
		t.Error(d)
	}
	if d := cmp.Diff(document.Canvas{Width: 40, Height: 20}, fit(canvas, 200, 20)); d != "" {
		t.Error(d)
	}
}

func newTestPlayer(t *testing.T) *Player {
	t.Helper()
	e, err := openScene(writeScene(t, false))
	if err != nil {
		t.Fatal(err)
	}
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)
	return NewPlayer(screen, e, "scene.png")
}

func TestKeys(t *testing.T) {
	p := newTestPlayer(t)
	key := func(k tcell.Key, r rune) bool {
		return p.handleKey(tcell.NewEventKey(k, r, tcell.ModNone))
	}

	key(tcell.KeyRight, 0)
	key(tcell.KeyRight, 0)
	if got := p.engine.Frame(); got != 2 {
		t.Errorf("frame %d after two steps, want 2", got)
	}
	for range 5 {
		key(tcell.KeyLeft, 0)
	}
	if got := p.engine.Frame(); got != 0 {
		t.Errorf("frame %d, want clamp at 0", got)
	}

	key(tcell.KeyRune, ' ')
	if !p.engine.Clock().Playing() {
		t.Error("space did not start playback")
	}
	key(tcell.KeyRune, ' ')
	if p.engine.Clock().Playing() {
		t.Error("space did not stop playback")
	}

	key(tcell.KeyRune, 'l')
	if !p.engine.Clock().Looping() {
		t.Error("l did not enable looping")
	}

	key(tcell.KeyRune, 'u')
	if got := len(p.engine.Scene().Splines); got != 0 {
		t.Errorf("%d splines after undo, want 0", got)
	}
	key(tcell.KeyRune, 'r')
	if got := len(p.engine.Scene().Splines); got != 1 {
		t.Errorf("%d splines after redo, want 1", got)
	}

	if key(tcell.KeyRune, 'q') {
		t.Error("q did not quit")
	}
	if key(tcell.KeyEscape, 0) {
		t.Error("Esc did not quit")
	}
}

func TestDraw(t *testing.T) {
	p := newTestPlayer(t)
	p.draw()

	out := p.engine.OutputSize()
	if out.Width > 80 || out.Height > 46 {
		t.Errorf("output %gx%g does not fit the terminal", out.Width, out.Height)
	}
}
