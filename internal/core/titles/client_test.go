package titles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[1].Content, "beach.jpg") {
			t.Errorf("user message missing filename: %q", req.Messages[1].Content)
		}

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestClient_GenerateTitle(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "Golden Hour at the Shore")
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini")
	title, err := c.GenerateTitle(context.Background(), "summer", "beach.jpg")
	if err != nil {
		t.Fatalf("GenerateTitle: %v", err)
	}
	if title != "Golden Hour at the Shore" {
		t.Errorf("title = %q", title)
	}
}

func TestClient_TrimsQuotesAndWhitespace(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "  \"Golden Hour\"  ")
	defer srv.Close()

	c := NewClient(srv.URL+"/", "test-key", "gpt-4o-mini")
	title, err := c.GenerateTitle(context.Background(), "summer", "beach.jpg")
	if err != nil {
		t.Fatalf("GenerateTitle: %v", err)
	}
	if title != "Golden Hour" {
		t.Errorf("title = %q, want quotes and whitespace stripped", title)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini")
	if _, err := c.GenerateTitle(context.Background(), "summer", "beach.jpg"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "gpt-4o-mini")
	if _, err := c.GenerateTitle(context.Background(), "summer", "beach.jpg"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestClient_IsConfigured(t *testing.T) {
	if NewClient("http://example.com", "", "m").IsConfigured() {
		t.Error("client without an API key reports configured")
	}
	if !NewClient("http://example.com", "k", "m").IsConfigured() {
		t.Error("client with an API key reports unconfigured")
	}
}
