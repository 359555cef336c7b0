package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hosteldex/hosteldex-server/internal/middleware"
	"github.com/hosteldex/hosteldex-server/internal/services"
)

// NotificationHandler handles notification endpoints, including the live
// websocket stream.
type NotificationHandler struct {
	svc      *services.NotificationService
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(svc *services.NotificationService, logger *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{
		svc:    svc,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is enforced by the CORS layer; the upgrader accepts.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// List handles GET /api/v1/notifications.
// Returns the authenticated user's notifications, most recent first, with
// the unread count.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": h.svc.ForUser(claims.UserID),
		"unread":        h.svc.UnreadCount(claims.UserID),
	})
}

// MarkRead handles POST /api/v1/notifications/{id}/read.
// Marking an unknown id is a silent no-op, answered 204 either way.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.svc.MarkRead(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/v1/notifications.
// Empties the whole collection regardless of prior size.
func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.svc.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Stream handles GET /api/v1/notifications/ws.
// Upgrades to a websocket and pushes each new notification addressed to
// the authenticated user as a JSON message.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	feed, cancel := h.svc.Subscribe(claims.UserID)
	defer cancel()

	// Drain client frames so pings and close frames are processed. The
	// upgrade hijacks the connection, so the request context's deadline no
	// longer applies; disconnects surface as read errors here.
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
		case n := <-feed:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
