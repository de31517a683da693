// Package asset imports and exports scene files over HTTP and stores
// background images that are not scene files.
package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/engine"
	"github.com/splinetool/splinetool/internal/raster"
	"github.com/splinetool/splinetool/internal/scene"
	"github.com/splinetool/splinetool/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// ImageResponse describes a stored background image.
type ImageResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// ImportResponse is returned from the import endpoint. Exactly one of Scene
// and Image is set.
type ImportResponse struct {
	Kind  string          `json:"kind"`
	Scene json.RawMessage `json:"scene,omitempty"`
	Image *ImageResponse  `json:"image,omitempty"`
}

// Handler serves scene import/export and stored images.
type Handler struct {
	dir    string // directory to store images
	canvas document.Canvas
}

// NewHandler creates a handler that stores images in dir and rescales
// imported scenes to canvas unless the request names another size.
func NewHandler(dir string, canvas document.Canvas) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir, canvas: canvas}
}

// Import handles POST /scenes/import (multipart form with "file" and
// optional "width" and "height"). A scene file comes back as scene JSON
// rescaled to the requested canvas; any other image is stored as a
// background.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	canvas := h.canvas
	width, _ := strconv.ParseFloat(r.FormValue("width"), 64)
	height, _ := strconv.ParseFloat(r.FormValue("height"), 64)
	if width > 0 && height > 0 {
		canvas = document.Canvas{Width: width, Height: height}
	}

	s, err := scene.Read(data, canvas)
	if err == nil {
		out, err := scene.EncodeJSON(s, canvas)
		if err != nil {
			slog.Error("encode imported scene", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		slog.Info("scene imported", "splines", len(s.Splines), "anchors", len(s.Anchors))
		writeJSON(w, ImportResponse{Kind: "scene", Scene: out})
		return
	}
	if !errors.Is(err, scene.ErrNoSceneData) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := scene.DecodeImage(data)
	if err != nil {
		http.Error(w, "not a scene file or image: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := h.store(img, header.Filename)
	if err != nil {
		slog.Error("store image", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ImportResponse{Kind: "image", Image: resp})
}

// store saves img as PNG under a fresh asset ID.
func (h *Handler) store(img image.Image, name string) (*ImageResponse, error) {
	assetID := typeid.NewAssetID()
	filename := assetID + ".png"
	filePath := filepath.Join(h.dir, filename)

	out, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("create asset file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(filePath)
		return nil, fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(filePath)
		return nil, err
	}

	b := img.Bounds()
	return &ImageResponse{
		ID:     assetID,
		URL:    "/assets/" + filename,
		Width:  b.Dx(),
		Height: b.Dy(),
		Name:   name,
	}, nil
}

// Export handles POST /scenes/export. The body is scene JSON; the response
// is a scene file: a PNG preview followed by the scene data.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "request too large", http.StatusBadRequest)
		return
	}
	var f scene.File
	if err := json.Unmarshal(data, &f); err != nil {
		http.Error(w, "invalid scene: "+err.Error(), http.StatusBadRequest)
		return
	}

	canvas := f.Canvas()
	e := engine.NewEngine(engine.Options{Canvas: canvas})
	e.LoadScene(f.Scene(canvas))

	var buf bytes.Buffer
	if err := WriteSceneFile(&buf, e); err != nil {
		slog.Error("write scene file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="spline-animation.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

// WriteSceneFile writes the engine's scene as a scene file with a rendered
// preview.
func WriteSceneFile(w io.Writer, e *engine.Engine) error {
	data, err := e.EncodeScene()
	if err != nil {
		return err
	}
	return scene.Write(w, raster.Render(e.PreviewGraph()), data)
}

// Serve returns an http.Handler that serves stored images with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete handles DELETE /assets/{assetId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	assetID := mux.Vars(r)["assetId"]
	if err := typeid.Validate(assetID, typeid.PrefixAsset); err != nil {
		http.Error(w, "invalid asset id", http.StatusBadRequest)
		return
	}
	if err := os.Remove(filepath.Join(h.dir, assetID+".png")); err != nil {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
