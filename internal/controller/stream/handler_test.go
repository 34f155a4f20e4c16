package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/theodorecharles/galleryd/internal/core/optimize"
)

func serveOnce(t *testing.T, h *Handler, hub *Hub, publishAfter []byte, window time.Duration) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	ctx, cancel := context.WithTimeout(context.Background(), window)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/optimization-stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if publishAfter != nil {
		go func() {
			time.Sleep(window / 4)
			hub.Publish(publishAfter)
		}()
	}

	if err := h.Serve(c); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	return rec
}

func TestHandler_Headers(t *testing.T) {
	tracker := optimize.NewTracker(5*time.Minute, time.Minute)
	hub := NewHub()
	h := NewHandler(hub, optimize.NewBroadcaster(tracker, hub), time.Second)

	rec := serveOnce(t, h, hub, nil, 30*time.Millisecond)

	if got := rec.Header().Get(echo.HeaderContentType); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := rec.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Errorf("X-Accel-Buffering = %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandler_InitialStateOnlyWhenJobsExist(t *testing.T) {
	tracker := optimize.NewTracker(5*time.Minute, time.Minute)
	hub := NewHub()
	broadcaster := optimize.NewBroadcaster(tracker, hub)
	h := NewHandler(hub, broadcaster, time.Second)

	rec := serveOnce(t, h, hub, nil, 30*time.Millisecond)
	if strings.Contains(rec.Body.String(), "initial-state") {
		t.Error("no jobs tracked, but an initial-state frame was sent")
	}

	tracker.Upsert("summer/beach.jpg", optimize.Update{
		Album: "summer", Filename: "beach.jpg", Progress: optimize.Pct(40),
	})

	rec = serveOnce(t, h, hub, nil, 30*time.Millisecond)
	body := rec.Body.String()
	if !strings.Contains(body, `"type":"initial-state"`) {
		t.Errorf("missing initial-state frame, body = %q", body)
	}
	if !strings.Contains(body, `"jobId":"summer/beach.jpg"`) {
		t.Errorf("initial-state missing tracked job, body = %q", body)
	}
	if !strings.HasPrefix(body, "data: ") {
		t.Errorf("frame not in SSE data format, body = %q", body)
	}
}

func TestHandler_ForwardsPublishedFrames(t *testing.T) {
	tracker := optimize.NewTracker(5*time.Minute, time.Minute)
	hub := NewHub()
	h := NewHandler(hub, optimize.NewBroadcaster(tracker, hub), time.Second)

	rec := serveOnce(t, h, hub, []byte(`{"type":"optimization-update","jobId":"a/x.jpg"}`), 100*time.Millisecond)

	body := rec.Body.String()
	if !strings.Contains(body, `data: {"type":"optimization-update","jobId":"a/x.jpg"}`) {
		t.Errorf("published frame not forwarded, body = %q", body)
	}
}

func TestHandler_Heartbeat(t *testing.T) {
	tracker := optimize.NewTracker(5*time.Minute, time.Minute)
	hub := NewHub()
	h := NewHandler(hub, optimize.NewBroadcaster(tracker, hub), 10*time.Millisecond)

	rec := serveOnce(t, h, hub, nil, 80*time.Millisecond)

	if !strings.Contains(rec.Body.String(), ": heartbeat\n\n") {
		t.Errorf("missing heartbeat comment frame, body = %q", rec.Body.String())
	}
}

func TestHandler_UnsubscribesOnDisconnect(t *testing.T) {
	tracker := optimize.NewTracker(5*time.Minute, time.Minute)
	hub := NewHub()
	h := NewHandler(hub, optimize.NewBroadcaster(tracker, hub), time.Second)

	serveOnce(t, h, hub, nil, 20*time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d after disconnect, want 0", hub.ClientCount())
	}
}
