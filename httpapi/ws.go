package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hazyhaar/autoview/inspect"
)

const resultBuffer = 16

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The bridge binds to loopback for the embedding dev tool; the host
	// page's origin is whatever dev server it runs on.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// resultEvent is the frame streamed to the UI panel.
type resultEvent struct {
	Type string         `json:"type"`
	Data inspect.Result `json:"data"`
}

// handleWS streams the surface's inspection results until the client
// disconnects. Slow consumers lose intermediate results, never block the
// controller.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	surfaceID := chi.URLParam(r, "surfaceID")
	if _, err := s.svc.Session(surfaceID); err != nil {
		writeNoSurface(w, err)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("httpapi: ws upgrade", "error", err)
		return
	}
	defer conn.Close()

	results := make(chan inspect.Result, resultBuffer)
	unsubscribe := s.svc.Subscribe(func(res inspect.Result) {
		if res.SurfaceID != surfaceID {
			return
		}
		select {
		case results <- res:
		default:
		}
	})
	defer unsubscribe()

	// Reads only detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case res := <-results:
			if err := conn.WriteJSON(resultEvent{Type: "onInspectionResult", Data: res}); err != nil {
				s.logger.Debug("httpapi: ws write", "surface", surfaceID, "error", err)
				return
			}
		}
	}
}
