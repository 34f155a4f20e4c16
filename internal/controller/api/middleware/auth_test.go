package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  "user-1",
		"name": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

func callSessionAuth(t *testing.T, decorate func(*http.Request)) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := SessionAuth(testSecret)(func(c echo.Context) error {
		reached = true
		if got := GetUserID(c.Request().Context()); got != "user-1" {
			t.Errorf("user id in context = %q, want user-1", got)
		}
		if got := GetUsername(c.Request().Context()); got != "admin" {
			t.Errorf("username in context = %q, want admin", got)
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec, reached
}

func TestSessionAuth_BearerToken(t *testing.T) {
	token := signToken(t, testSecret, validClaims())
	rec, reached := callSessionAuth(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	if !reached || rec.Code != http.StatusOK {
		t.Errorf("reached = %v, status = %d", reached, rec.Code)
	}
}

func TestSessionAuth_Cookie(t *testing.T) {
	token := signToken(t, testSecret, validClaims())
	rec, reached := callSessionAuth(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	})
	if !reached || rec.Code != http.StatusOK {
		t.Errorf("reached = %v, status = %d", reached, rec.Code)
	}
}

func TestSessionAuth_Rejections(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name     string
		decorate func(*http.Request)
	}{
		{"no credentials", func(req *http.Request) {}},
		{"wrong secret", func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, "other-secret", validClaims()))
		}},
		{"expired token", func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, testSecret, expired))
		}},
		{"missing subject", func(req *http.Request) {
			claims := validClaims()
			delete(claims, "sub")
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, testSecret, claims))
		}},
		{"wrong signing method", func(req *http.Request) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, validClaims()).SignedString([]byte(testSecret))
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}},
		{"garbage token", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-jwt"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, reached := callSessionAuth(t, tt.decorate)
			if reached {
				t.Error("handler ran without valid credentials")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
