package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestRouter() *echo.Echo {
	e := echo.New()
	SetupRouter(e, RouterConfig{
		JWTSecret:     "test-secret",
		MaxUploadSize: "1K",
	})
	return e
}

func TestRouter_Health(t *testing.T) {
	e := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRouter_UploadBodyLimit(t *testing.T) {
	e := newTestRouter()

	// Oversized bodies are rejected before anything else looks at them.
	body := strings.NewReader(strings.Repeat("x", 2048))
	req := httptest.NewRequest(http.MethodPost, "/api/albums/a1/photos", body)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestRouter_UploadRequiresSession(t *testing.T) {
	e := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/albums/a1/photos", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRouter_StreamRequiresSession(t *testing.T) {
	e := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/optimization-stream", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
