package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/splinetool/splinetool/internal/asset"
	"github.com/splinetool/splinetool/internal/auth"
	"github.com/splinetool/splinetool/internal/config"
	"github.com/splinetool/splinetool/internal/db"
	"github.com/splinetool/splinetool/internal/export"
	mw "github.com/splinetool/splinetool/internal/middleware"
	"github.com/splinetool/splinetool/internal/project"
	"github.com/splinetool/splinetool/internal/session"
)

// The playground project is open to anonymous users and never stored.
const playgroundProjectID = "proj_playground"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	queries := db.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	projectService := project.NewService(queries, cfg.Canvas(), cfg.Timeline())
	projectHandler := project.NewHandler(projectService)

	sceneLoader := func(ctx context.Context, projectID string) ([]byte, error) {
		if projectID == playgroundProjectID {
			return nil, nil
		}
		data, err := projectService.LatestScene(ctx, projectID)
		if errors.Is(err, project.ErrNotFound) {
			return nil, nil
		}
		return data, err
	}

	sceneSaver := func(ctx context.Context, projectID string, sceneJSON []byte) error {
		if projectID == playgroundProjectID {
			return nil
		}
		_, err := projectService.StoreScene(ctx, projectID, sceneJSON)
		return err
	}

	hub := session.NewHub(session.Options{
		Load:     sceneLoader,
		Save:     sceneSaver,
		Canvas:   cfg.Canvas(),
		Timeline: cfg.Timeline(),
	})
	go hub.Run()

	assetHandler := asset.NewHandler(cfg.AssetDir, cfg.Canvas())
	exportHandler := export.NewHandler(export.NewEncoder(cfg.FfmpegPath), cfg.ExportFormat)

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Scene files and exports need no account; the playground uses them.
	r.HandleFunc("/scenes/import", assetHandler.Import).Methods("POST", "OPTIONS")
	r.HandleFunc("/scenes/export", assetHandler.Export).Methods("POST", "OPTIONS")
	r.HandleFunc("/assets/{assetId}", assetHandler.Delete).Methods("DELETE", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	r.HandleFunc("/export/video", exportHandler.ExportVideo).Methods("POST", "OPTIONS")
	r.HandleFunc("/export/frames", exportHandler.ExportFrames).Methods("POST", "OPTIONS")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/projects", projectHandler.List).Methods("GET")
	api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{projectId}", projectHandler.Get).Methods("GET")
	api.HandleFunc("/projects/{projectId}", projectHandler.Delete).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/invite", projectHandler.Invite).Methods("POST")
	api.HandleFunc("/projects/{projectId}/members", projectHandler.ListMembers).Methods("GET")
	api.HandleFunc("/projects/{projectId}/members/{userId}", projectHandler.RemoveMember).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/snapshots/latest", projectHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/projects/{projectId}/snapshots", projectHandler.SaveSnapshot).Methods("PUT")

	ws := &wsHandler{
		hub:            hub,
		auth:           authService,
		projects:       projectService,
		originPatterns: originPatterns(cfg.Origins()),
	}
	r.Handle("/ws/project/{projectId}", ws)

	// Lets CORS preflights for any path reach the middleware.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Rooms save their scenes before connections go away.
		slog.Info("saving open scenes")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

type wsHandler struct {
	hub            *session.Hub
	auth           *auth.Service
	projects       *project.Service
	originPatterns []string
}

func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var (
		userID      string
		displayName string
		canEdit     = true
	)

	if projectID == playgroundProjectID {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		token, err := auth.TokenFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		userID, err = h.auth.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		switch err := h.projects.CanEdit(r.Context(), projectID, userID); {
		case err == nil:
		case errors.Is(err, project.ErrForbidden):
			canEdit = false
		case errors.Is(err, project.ErrNotMember):
			http.Error(w, "not a project member", http.StatusForbidden)
			return
		default:
			slog.Error("check membership", "error", err, "project", projectID)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		user, err := h.auth.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := session.NewClient(h.hub, conn, userID, displayName, projectID, uuid.New().String(), canEdit)
	if err := h.hub.Register(client); err != nil {
		slog.Error("open session", "error", err, "project", projectID)
		conn.Close(websocket.StatusInternalError, "could not open project")
		return
	}

	client.Serve(r.Context())
}

// originPatterns turns allowed origins into the host patterns websocket.Accept
// matches against.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			out = append(out, o)
			continue
		}
		out = append(out, u.Host)
	}
	return out
}
