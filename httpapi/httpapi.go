// Package httpapi bridges the inspection service to the hosting
// application: JSON control endpoints plus a websocket stream of
// inspection results for the UI panel.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/autoview/idgen"
	"github.com/hazyhaar/autoview/inspect"
	"github.com/hazyhaar/autoview/kit"
)

var newRequestID = idgen.Prefixed("req_", idgen.Default)

// Server serves the inspection bridge.
type Server struct {
	svc    *inspect.Service
	logger *slog.Logger
}

// NewServer creates a bridge server over the service.
func NewServer(svc *inspect.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger}
}

// Router builds the bridge routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestLog)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/inspect", func(r chi.Router) {
		r.Get("/sessions", s.handleList)
		r.Post("/sessions", s.handleAttach)
		r.Route("/sessions/{surfaceID}", func(r chi.Router) {
			r.Get("/", s.handleState)
			r.Delete("/", s.handleClose)
			r.Post("/start", s.handleStart)
			r.Post("/stop", s.handleStop)
			r.Get("/ws", s.handleWS)
		})
		r.Post("/open", s.handleOpenEditor)
	})
	return r
}

// requestLog tags every request with an ID and logs it on completion.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = newRequestID()
		}
		ctx := kit.WithRequestID(r.Context(), id)
		ctx = kit.WithRemoteAddr(ctx, r.RemoteAddr)
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		s.logger.Debug("httpapi: request",
			"method", r.Method, "path", r.URL.Path,
			"request_id", id, "took", time.Since(start))
	})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, 200, map[string]any{"surfaces": s.svc.Surfaces()})
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	if req.URL == "" {
		writeJSON(w, 400, map[string]string{"error": "url required"})
		return
	}

	id, err := s.svc.OpenSurface(r.Context(), req.URL)
	if err != nil {
		writeError(w, 502, err)
		return
	}
	writeJSON(w, 201, map[string]string{"surfaceId": id})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	surfaceID := chi.URLParam(r, "surfaceID")
	sess, err := s.svc.Session(surfaceID)
	if err != nil {
		writeNoSurface(w, err)
		return
	}
	if sess == nil {
		writeJSON(w, 200, map[string]any{"surfaceId": surfaceID, "inspecting": false})
		return
	}
	writeJSON(w, 200, map[string]any{
		"surfaceId":  surfaceID,
		"sessionId":  sess.ID,
		"inspecting": sess.IsInspecting(),
		"fallback":   sess.Fallback(),
		"framework":  sess.Framework(),
		"lastResult": sess.LastResult(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	surfaceID := chi.URLParam(r, "surfaceID")
	sess, err := s.svc.Start(r.Context(), surfaceID)
	if err != nil {
		writeNoSurface(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"surfaceId":  surfaceID,
		"sessionId":  sess.ID,
		"inspecting": sess.IsInspecting(),
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	surfaceID := chi.URLParam(r, "surfaceID")
	if err := s.svc.Stop(r.Context(), surfaceID); err != nil {
		writeNoSurface(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "stopped"})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	surfaceID := chi.URLParam(r, "surfaceID")
	if err := s.svc.CloseSurface(r.Context(), surfaceID); err != nil {
		writeNoSurface(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "closed"})
}

func (s *Server) handleOpenEditor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		File   string `json:"file"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	if req.File == "" {
		writeJSON(w, 400, map[string]string{"error": "file required"})
		return
	}

	if err := s.svc.OpenInEditor(r.Context(), req.File, req.Line, req.Column); err != nil {
		writeError(w, 502, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "opened"})
}

func writeNoSurface(w http.ResponseWriter, err error) {
	if errors.Is(err, inspect.ErrNoSurface) {
		writeJSON(w, 404, map[string]string{"error": err.Error()})
		return
	}
	writeError(w, 500, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
