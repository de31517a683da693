package project

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/splinetool/splinetool/internal/auth"
	"github.com/splinetool/splinetool/internal/db"
)

// maxSceneSize bounds a saved scene body.
const maxSceneSize = 10 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// target is the caller and the project named in the route.
type target struct {
	userID    string
	projectID string
}

func targetOf(r *http.Request) target {
	return target{
		userID:    auth.UserIDFromContext(r.Context()),
		projectID: mux.Vars(r)["projectId"],
	}
}

func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return v, false
	}
	return v, true
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody[struct {
		Name string `json:"name"`
	}](w, r)
	if !ok {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	p, err := h.service.Create(r.Context(), name, auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	p, err := h.service.Get(r.Context(), t.projectID, t.userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	if err := h.service.Delete(r.Context(), t.projectID, t.userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Invite adds a member by email. The body is {"email", "role"}; role is
// "editor" (default) or "viewer".
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody[struct {
		Email string         `json:"email"`
		Role  db.ProjectRole `json:"role"`
	}](w, r)
	if !ok {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	t := targetOf(r)
	if err := h.service.InviteByEmail(r.Context(), t.projectID, t.userID, email, req.Role); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "invited"})
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	members, err := h.service.ListMembers(r.Context(), t.projectID, t.userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	if err := h.service.RemoveMember(r.Context(), t.projectID, t.userID, mux.Vars(r)["userId"]); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLatestSnapshot returns the stored scene JSON as is.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	t := targetOf(r)
	doc, err := h.service.GetLatestSnapshot(r.Context(), t.projectID, t.userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// SaveSnapshot stores the scene JSON body as the project's next version.
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSceneSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "scene too large")
		return
	}

	t := targetOf(r)
	version, err := h.service.SaveSnapshot(r.Context(), t.projectID, t.userID, body)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"version": version})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotMember):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidScene), errors.Is(err, ErrInvalidRole):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("project request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
