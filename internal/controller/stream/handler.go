package stream

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/theodorecharles/galleryd/internal/core/optimize"
)

// Handler serves the optimization progress stream over Server-Sent Events.
type Handler struct {
	hub         *Hub
	broadcaster *optimize.Broadcaster
	heartbeat   time.Duration
}

func NewHandler(hub *Hub, broadcaster *optimize.Broadcaster, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Handler{hub: hub, broadcaster: broadcaster, heartbeat: heartbeat}
}

// Serve upgrades the response to an SSE stream and pushes job updates until
// the client disconnects. A heartbeat comment frame keeps intermediary
// proxies from closing the idle connection.
func (h *Handler) Serve(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	frames, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	// A client connecting mid-run must not be blind to in-flight jobs.
	if initial, err := optimize.InitialStateFrame(h.broadcaster.Snapshot()); err != nil {
		log.Warn().Err(err).Msg("marshal initial stream state")
	} else if initial != nil {
		if err := writeFrame(w, initial); err != nil {
			return nil
		}
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-frames:
			if err := writeFrame(w, frame); err != nil {
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func writeFrame(w *echo.Response, data []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
