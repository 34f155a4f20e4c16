package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/theodorecharles/galleryd/internal/controller/api/middleware"
	"github.com/theodorecharles/galleryd/internal/database"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	users     *database.UserStore
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(users *database.UserStore, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, jwtExpiry: jwtExpiry}
}

type LoginInput struct {
	Body struct {
		Username string `json:"username" minLength:"1" doc:"Admin username"`
		Password string `json:"password" minLength:"1" doc:"Admin password"`
	}
}

type LoginOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Token     string    `json:"token" doc:"JWT Bearer token"`
		ExpiresAt time.Time `json:"expires_at" doc:"Token expiry"`
	}
}

func (h *AuthHandler) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := h.users.GetByUsername(ctx, input.Body.Username)
	if err != nil {
		return nil, huma.Error401Unauthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Body.Password)) != nil {
		return nil, huma.Error401Unauthorized("invalid credentials")
	}

	expiresAt := time.Now().Add(h.jwtExpiry)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"name": user.Username,
		"exp":  expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return nil, huma.Error500InternalServerError("sign token")
	}

	out := &LoginOutput{
		SetCookie: http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    signed,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
	out.Body.Token = signed
	out.Body.ExpiresAt = expiresAt
	return out, nil
}

type MeOutput struct {
	Body struct {
		UserID   string `json:"user_id" doc:"Authenticated user id"`
		Username string `json:"username" doc:"Authenticated username"`
	}
}

func (h *AuthHandler) Me(ctx context.Context, _ *struct{}) (*MeOutput, error) {
	out := &MeOutput{}
	out.Body.UserID = middleware.GetUserID(ctx)
	out.Body.Username = middleware.GetUsername(ctx)
	return out, nil
}

type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      StatusBody
}

func (h *AuthHandler) Logout(ctx context.Context, _ *struct{}) (*LogoutOutput, error) {
	return &LogoutOutput{
		SetCookie: http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		},
		Body: StatusBody{Status: "ok"},
	}, nil
}
