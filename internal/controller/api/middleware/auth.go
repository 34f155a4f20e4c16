package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionCookie is the cookie the admin SPA authenticates with.
const SessionCookie = "gd_session"

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
)

func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}

func GetUsername(ctx context.Context) string {
	v, _ := ctx.Value(UsernameKey).(string)
	return v
}

func parseToken(jwtSecret, tokenStr string) (userID, username string, ok bool) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", "", false
	}
	claims, isMap := token.Claims.(jwt.MapClaims)
	if !isMap {
		return "", "", false
	}
	userID, _ = claims["sub"].(string)
	username, _ = claims["name"].(string)
	return userID, username, userID != ""
}

// Auth guards huma operations: accepts a Bearer token or the session cookie.
func Auth(jwtSecret string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		echoCtx := humaecho.Unwrap(ctx)

		tokenStr := ""
		if auth := ctx.Header("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenStr = strings.TrimPrefix(auth, "Bearer ")
		} else if cookie, err := echoCtx.Cookie(SessionCookie); err == nil {
			tokenStr = cookie.Value
		}

		userID, username, ok := parseToken(jwtSecret, tokenStr)
		if !ok {
			writeUnauthorized(ctx, "authentication required")
			return
		}

		r := echoCtx.Request()
		newCtx := context.WithValue(r.Context(), UserIDKey, userID)
		newCtx = context.WithValue(newCtx, UsernameKey, username)
		echoCtx.SetRequest(r.WithContext(newCtx))
		next(ctx)
	}
}

// SessionAuth guards raw echo routes (the SSE stream and uploads) with the
// same credentials as Auth.
func SessionAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := ""
			if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
				tokenStr = strings.TrimPrefix(auth, "Bearer ")
			} else if cookie, err := c.Cookie(SessionCookie); err == nil {
				tokenStr = cookie.Value
			}

			userID, username, ok := parseToken(jwtSecret, tokenStr)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}

			r := c.Request()
			newCtx := context.WithValue(r.Context(), UserIDKey, userID)
			newCtx = context.WithValue(newCtx, UsernameKey, username)
			c.SetRequest(r.WithContext(newCtx))
			return next(c)
		}
	}
}

func writeUnauthorized(ctx huma.Context, msg string) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(huma.ErrorModel{
		Title:  http.StatusText(http.StatusUnauthorized),
		Status: http.StatusUnauthorized,
		Detail: msg,
	})
}
