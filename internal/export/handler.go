package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/scene"
)

const (
	maxUploadSize = 500 << 20 // 500MB
	maxSceneSize  = 10 << 20
	maxOutputSide = 4096
)

type Handler struct {
	enc           *Encoder
	defaultFormat string
}

func NewHandler(enc *Encoder, defaultFormat string) *Handler {
	if !ValidFormat(defaultFormat) {
		defaultFormat = "webm"
	}
	return &Handler{enc: enc, defaultFormat: defaultFormat}
}

// VideoRequest asks for a scene to be rendered and encoded server side.
// Scene is in scene file format. A zero output size renders at the size the
// scene was saved at.
type VideoRequest struct {
	Scene  json.RawMessage `json:"scene"`
	Format string          `json:"format"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Name   string          `json:"name"`
}

// ExportVideo handles POST /export/video: renders every frame of the
// scene's timeline and streams the encoded video back.
func (h *Handler) ExportVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSceneSize)

	var req VideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Format == "" {
		req.Format = h.defaultFormat
	}
	if !ValidFormat(req.Format) {
		http.Error(w, ErrUnsupportedFormat.Error(), http.StatusBadRequest)
		return
	}

	var f scene.File
	if err := json.Unmarshal(req.Scene, &f); err != nil {
		http.Error(w, "invalid scene: "+err.Error(), http.StatusBadRequest)
		return
	}
	canvas := f.Canvas()
	s := f.Scene(canvas)
	out := canvas
	if req.Width > 0 && req.Height > 0 {
		out = document.Canvas{Width: min(req.Width, maxOutputSide), Height: min(req.Height, maxOutputSide)}
	}

	job, err := NewJob(SceneFrames{Scene: s, Canvas: canvas, Output: out})
	if err != nil {
		slog.Error("create export job", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer job.Close()

	slog.Info("export started", "id", job.ID, "format", req.Format, "frames", job.Frames(), "fps", s.Timeline.FPS)

	if err := job.RenderAll(r.Context()); err != nil {
		if errors.Is(err, ErrCancelled) {
			slog.Info("export cancelled", "id", job.ID)
			return
		}
		slog.Error("render frames", "id", job.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	output, err := h.enc.Encode(r.Context(), job.Dir(), req.Format, s.Timeline.FPS)
	if err != nil {
		slog.Error("ffmpeg failed", "id", job.ID, "error", err)
		http.Error(w, fmt.Sprintf("encoding failed: %v", err), http.StatusInternalServerError)
		return
	}
	serveOutput(w, output, sanitizeName(req.Name), req.Format)
}

// ExportFrames handles POST /export/frames: a multipart upload of frames
// rendered by the client ("frame_0003" etc.) plus format, fps and name.
func (h *Handler) ExportFrames(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "request too large", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	format := r.FormValue("format")
	if format == "" {
		format = h.defaultFormat
	}
	if !ValidFormat(format) {
		http.Error(w, ErrUnsupportedFormat.Error(), http.StatusBadRequest)
		return
	}

	fps, err := strconv.Atoi(r.FormValue("fps"))
	if err != nil || fps <= 0 || fps > 120 {
		fps = document.DefaultFPS
	}

	tempDir, err := os.MkdirTemp("", "spline-frames-*")
	if err != nil {
		slog.Error("create temp dir", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tempDir)

	// Map iteration order is random, so the frame index comes from the key
	// name rather than a counter.
	frameCount := 0
	for key, files := range r.MultipartForm.File {
		if !strings.HasPrefix(key, "frame_") || len(files) == 0 {
			continue
		}
		frameIdx, err := strconv.Atoi(strings.TrimPrefix(key, "frame_"))
		if err != nil || frameIdx < 0 {
			http.Error(w, "invalid frame key: "+key, http.StatusBadRequest)
			return
		}

		src, err := files[0].Open()
		if err != nil {
			slog.Error("open uploaded frame", "key", key, "error", err)
			http.Error(w, "failed to read frame", http.StatusBadRequest)
			return
		}
		err = copyFile(filepath.Join(tempDir, fmt.Sprintf(framePattern, frameIdx)), src)
		src.Close()
		if err != nil {
			slog.Error("write frame file", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		frameCount++
	}

	if frameCount == 0 {
		http.Error(w, "no frames uploaded", http.StatusBadRequest)
		return
	}

	slog.Info("export started", "format", format, "frames", frameCount, "fps", fps)

	output, err := h.enc.Encode(r.Context(), tempDir, format, fps)
	if err != nil {
		slog.Error("ffmpeg failed", "error", err)
		http.Error(w, fmt.Sprintf("encoding failed: %v", err), http.StatusInternalServerError)
		return
	}
	serveOutput(w, output, sanitizeName(r.FormValue("name")), format)
}

func serveOutput(w http.ResponseWriter, output, name, format string) {
	f, err := os.Open(output)
	if err != nil {
		slog.Error("open output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		slog.Error("stat output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	io.Copy(w, f)

	slog.Info("export complete", "format", format, "size", stat.Size())
}

func sanitizeName(name string) string {
	if name == "" {
		return "animation"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}

func copyFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
