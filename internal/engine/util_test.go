package engine

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/playback"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func assertNear(t *testing.T, want, got vec.Vec2, eps float64) {
	t.Helper()
	if d := got.Sub(want).Length(); d > eps {
		t.Errorf("got %v, want %v (off by %g)", got, want, d)
	}
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newTestEngine returns an engine on a 1000x600 canvas with a 10 fps, 20
// frame (2000 ms) timeline and a mock clock.
func newTestEngine(t *testing.T) (*Engine, *playback.MockTimeProvider) {
	t.Helper()
	mock := playback.NewMockTimeProvider(epoch)
	e := NewEngine(Options{
		Canvas:   document.Canvas{Width: 1000, Height: 600},
		Timeline: document.Timeline{FPS: 10, TotalFrames: 20},
		Time:     mock,
	})
	return e, mock
}

func v(x, y float64) vec.Vec2 { return vec.Vec2{X: x, Y: y} }
