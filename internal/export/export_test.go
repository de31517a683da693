package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/typeid"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

// fakeFFmpeg installs a script that checks the first frame exists next to
// the output and writes "encoded" to it.
func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	script := `#!/bin/sh
for a; do last=$a; done
test -f "$(dirname "$last")/frame_0000.png" || exit 1
printf encoded > "$last"
`
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func failingFFmpeg(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho boom >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testFrames(frames int) SceneFrames {
	s := document.NewScene(document.Timeline{FPS: 10, TotalFrames: frames})
	s.Anchors = append(s.Anchors, document.NewAnchor(typeid.NewAnchorID(), vec.Vec2{X: 20, Y: 15}, frames))
	canvas := document.Canvas{Width: 40, Height: 30}
	return SceneFrames{Scene: s, Canvas: canvas, Output: canvas}
}

func TestJobWritesEveryFrame(t *testing.T) {
	job, err := NewJob(testFrames(3))
	if err != nil {
		t.Fatal(err)
	}
	defer job.Close()

	diff(t, 3, job.Frames())
	if err := job.RenderAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"frame_0000.png", "frame_0001.png", "frame_0002.png"} {
		if _, err := os.Stat(filepath.Join(job.Dir(), name)); err != nil {
			t.Error(err)
		}
	}
	if _, err := job.Next(context.Background()); err != io.EOF {
		t.Errorf("got %v, want io.EOF", err)
	}
}

func TestJobCloseRemovesDir(t *testing.T) {
	job, err := NewJob(testFrames(1))
	if err != nil {
		t.Fatal(err)
	}
	dir := job.Dir()
	if err := job.Close(); err != nil {
		t.Fatal(err)
	}
	if err := job.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("dir still exists: %v", err)
	}
}

func TestJobCancelled(t *testing.T) {
	job, err := NewJob(testFrames(5))
	if err != nil {
		t.Fatal(err)
	}
	defer job.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := job.RenderAll(ctx); !errors.Is(err, ErrCancelled) {
		t.Errorf("got %v, want ErrCancelled", err)
	}
}

func TestEncode(t *testing.T) {
	enc := NewEncoder(fakeFFmpeg(t))
	job, err := NewJob(testFrames(2))
	if err != nil {
		t.Fatal(err)
	}
	defer job.Close()
	if err := job.RenderAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, format := range []string{"mp4", "gif", "webm"} {
		out, err := enc.Encode(context.Background(), job.Dir(), format, 10)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		diff(t, filepath.Join(job.Dir(), "output."+format), out)
	}

	if _, err := enc.Encode(context.Background(), job.Dir(), "avi", 10); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestEncodeFailure(t *testing.T) {
	enc := NewEncoder(failingFFmpeg(t))
	_, err := enc.Encode(context.Background(), t.TempDir(), "mp4", 10)
	if err == nil || !bytes.Contains([]byte(err.Error()), []byte("boom")) {
		t.Errorf("got %v, want ffmpeg stderr in error", err)
	}
}

func TestNewJobNoFrames(t *testing.T) {
	src := testFrames(1)
	src.Scene.Timeline.TotalFrames = 0
	if _, err := NewJob(src); !errors.Is(err, ErrNoFrames) {
		t.Errorf("got %v, want ErrNoFrames", err)
	}
}

func TestExportVideo(t *testing.T) {
	h := NewHandler(NewEncoder(fakeFFmpeg(t)), "webm")

	body, _ := json.Marshal(map[string]any{
		"scene": map[string]any{
			"splines":                 []any{},
			"staticShapes":            []any{map[string]any{"pos": map[string]float64{"x": 20, "y": 15}}},
			"originalImageDimensions": map[string]float64{"width": 40, "height": 30},
			"fps":                     10,
			"totalFrames":             3,
		},
		"format": "gif",
		"name":   "my clip",
	})
	rec := httptest.NewRecorder()
	h.ExportVideo(rec, httptest.NewRequest(http.MethodPost, "/export/video", bytes.NewReader(body)))

	diff(t, http.StatusOK, rec.Code)
	diff(t, "image/gif", rec.Header().Get("Content-Type"))
	diff(t, `attachment; filename="my-clip.gif"`, rec.Header().Get("Content-Disposition"))
	diff(t, "encoded", rec.Body.String())
}

func TestExportVideoRejects(t *testing.T) {
	h := NewHandler(NewEncoder(fakeFFmpeg(t)), "webm")
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"format", `{"scene":{},"format":"avi"}`},
		{"scene", `{"scene":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ExportVideo(rec, httptest.NewRequest(http.MethodPost, "/export/video", bytes.NewBufferString(tt.body)))
			diff(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func framesRequest(t *testing.T, fields map[string]string, frames ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for _, key := range frames {
		fw, err := mw.CreateFormFile(key, key+".png")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("png"))
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/export/frames", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestExportFrames(t *testing.T) {
	h := NewHandler(NewEncoder(fakeFFmpeg(t)), "mp4")

	rec := httptest.NewRecorder()
	h.ExportFrames(rec, framesRequest(t, map[string]string{"fps": "24"}, "frame_0", "frame_1"))
	diff(t, http.StatusOK, rec.Code)
	diff(t, "video/mp4", rec.Header().Get("Content-Type"))
	diff(t, `attachment; filename="animation.mp4"`, rec.Header().Get("Content-Disposition"))

	rec = httptest.NewRecorder()
	h.ExportFrames(rec, framesRequest(t, map[string]string{"format": "mp4"}))
	diff(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ExportFrames(rec, framesRequest(t, map[string]string{"format": "mov"}, "frame_0"))
	diff(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ExportFrames(rec, framesRequest(t, nil, "frame_x"))
	diff(t, http.StatusBadRequest, rec.Code)
}

func TestSanitizeName(t *testing.T) {
	diff(t, "animation", sanitizeName(""))
	diff(t, "a-b_c-1", sanitizeName("a b_c/1"))
}
