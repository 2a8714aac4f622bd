package notifications

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dErrors "solidarlink/pkg/domainerrors"
	"solidarlink/pkg/platform/httputil"
	"solidarlink/pkg/requestcontext"
)

// Handler exposes the event stream and the connected-users count.
type Handler struct {
	hub         *Hub
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

// New creates the notifications handler. requireAuth must allow the query
// token fallback: EventSource cannot set an Authorization header.
func New(hub *Hub, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{hub: hub, logger: logger, requireAuth: requireAuth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/stream", h.handleStream)
		r.Get("/connected-users", h.handleConnectedUsers)
	})
}

// handleStream serves the server-sent events stream. The connection lives
// until the client disconnects, the hub tears it down, or its lifetime bound
// expires.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	conn := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(userID, conn)

	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			return
		case event := <-conn.Events():
			if err := writeSSE(w, event); err != nil {
				h.logger.Debug("stream write failed",
					"user_id", userID.String(), "error", err.Error())
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) handleConnectedUsers(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"connected_users": h.hub.ActiveUserCount(),
	})
}

// writeSSE renders one event in text/event-stream framing. Multi-line data is
// split into repeated data: fields per the SSE spec.
func writeSSE(w http.ResponseWriter, event Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Name); err != nil {
		return err
	}
	for _, line := range strings.Split(event.Data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}
