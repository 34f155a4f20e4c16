package api

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/theodorecharles/galleryd/internal/controller/api/handlers"
	"github.com/theodorecharles/galleryd/internal/controller/api/middleware"
	"github.com/theodorecharles/galleryd/internal/controller/stream"
	"github.com/theodorecharles/galleryd/internal/core/optimize"
	"github.com/theodorecharles/galleryd/internal/core/service"
	"github.com/theodorecharles/galleryd/internal/database"
)

type RouterConfig struct {
	JWTSecret     string
	JWTExpiry     time.Duration
	MaxUploadSize string
	Users         *database.UserStore
	Gallery       *service.GalleryService
	Optimizer     *service.OptimizerService
	Broadcaster   *optimize.Broadcaster
	Hub           *stream.Hub
	Stream        *stream.Handler
}

func SetupRouter(e *echo.Echo, cfg RouterConfig) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowCredentials: true,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	apiGroup := e.Group("/api")
	config := huma.DefaultConfig("Gallery Admin API", "1.0.0")
	config.Servers = []*huma.Server{{URL: "/api"}}
	config.Info.Description = "Self-hosted photo gallery administration"
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"BearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "JWT Bearer token",
		},
		"CookieAuth": {
			Type:        "apiKey",
			In:          "cookie",
			Name:        middleware.SessionCookie,
			Description: "Admin session cookie",
		},
	}

	hapi := humaecho.NewWithGroup(e, apiGroup, config)

	authMw := middleware.Auth(cfg.JWTSecret)
	secured := []map[string][]string{{"BearerAuth": {}}, {"CookieAuth": {}}}

	authHandler := handlers.NewAuthHandler(cfg.Users, cfg.JWTSecret, cfg.JWTExpiry)
	huma.Register(hapi, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login and get a session",
		Tags:        []string{"Auth"},
	}, authHandler.Login)

	huma.Register(hapi, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Get current user info",
		Tags:        []string{"Auth"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, authHandler.Me)

	huma.Register(hapi, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "Clear the session cookie",
		Tags:        []string{"Auth"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, authHandler.Logout)

	albumsHandler := handlers.NewAlbumsHandler(cfg.Gallery)
	huma.Register(hapi, huma.Operation{
		OperationID: "albums-list",
		Method:      http.MethodGet,
		Path:        "/albums",
		Summary:     "List the album tree",
		Tags:        []string{"Albums"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, albumsHandler.List)

	huma.Register(hapi, huma.Operation{
		OperationID:   "albums-create",
		Method:        http.MethodPost,
		Path:          "/albums",
		Summary:       "Create an album or folder",
		Tags:          []string{"Albums"},
		Security:      secured,
		Middlewares:   huma.Middlewares{authMw},
		DefaultStatus: http.StatusCreated,
	}, albumsHandler.Create)

	huma.Register(hapi, huma.Operation{
		OperationID: "albums-rename",
		Method:      http.MethodPatch,
		Path:        "/albums/{id}",
		Summary:     "Rename an album",
		Tags:        []string{"Albums"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, albumsHandler.Rename)

	huma.Register(hapi, huma.Operation{
		OperationID: "albums-delete",
		Method:      http.MethodDelete,
		Path:        "/albums/{id}",
		Summary:     "Delete an album and its photos",
		Tags:        []string{"Albums"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, albumsHandler.Delete)

	huma.Register(hapi, huma.Operation{
		OperationID: "albums-set-cover",
		Method:      http.MethodPatch,
		Path:        "/albums/{id}/cover",
		Summary:     "Set an album's cover photo",
		Tags:        []string{"Albums"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, albumsHandler.SetCover)

	huma.Register(hapi, huma.Operation{
		OperationID: "albums-reorder",
		Method:      http.MethodPut,
		Path:        "/albums/order",
		Summary:     "Apply a new album ordering",
		Tags:        []string{"Albums"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, albumsHandler.Reorder)

	photosHandler := handlers.NewPhotosHandler(cfg.Gallery)
	huma.Register(hapi, huma.Operation{
		OperationID: "photos-list",
		Method:      http.MethodGet,
		Path:        "/albums/{id}/photos",
		Summary:     "List an album's photos",
		Tags:        []string{"Photos"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, photosHandler.List)

	huma.Register(hapi, huma.Operation{
		OperationID: "photos-reorder",
		Method:      http.MethodPut,
		Path:        "/albums/{id}/photos/order",
		Summary:     "Apply a new photo ordering",
		Tags:        []string{"Photos"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, photosHandler.Reorder)

	huma.Register(hapi, huma.Operation{
		OperationID: "photos-delete",
		Method:      http.MethodDelete,
		Path:        "/photos/{id}",
		Summary:     "Delete a photo",
		Tags:        []string{"Photos"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, photosHandler.Delete)

	huma.Register(hapi, huma.Operation{
		OperationID: "photos-set-title",
		Method:      http.MethodPatch,
		Path:        "/photos/{id}/title",
		Summary:     "Set a photo's title",
		Tags:        []string{"Photos"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, photosHandler.SetTitle)

	huma.Register(hapi, huma.Operation{
		OperationID: "photos-retry-optimization",
		Method:      http.MethodPost,
		Path:        "/photos/{id}/optimize",
		Summary:     "Re-run optimization for a photo",
		Tags:        []string{"Photos"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, photosHandler.RetryOptimization)

	optimizeHandler := handlers.NewOptimizeHandler(cfg.Broadcaster, cfg.Optimizer, cfg.Hub)
	huma.Register(hapi, huma.Operation{
		OperationID: "optimization-jobs",
		Method:      http.MethodGet,
		Path:        "/optimization-jobs",
		Summary:     "List tracked optimization jobs",
		Tags:        []string{"Optimization"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, optimizeHandler.ListJobs)

	huma.Register(hapi, huma.Operation{
		OperationID: "optimization-stats",
		Method:      http.MethodGet,
		Path:        "/optimization-stats",
		Summary:     "Queue and stream statistics",
		Tags:        []string{"Optimization"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, optimizeHandler.Stats)

	huma.Register(hapi, huma.Operation{
		OperationID: "generate-title",
		Method:      http.MethodPost,
		Path:        "/generate-title",
		Summary:     "Generate an AI title for a photo",
		Tags:        []string{"Optimization"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, optimizeHandler.GenerateTitle)

	// Streaming and multipart routes bypass huma: SSE and uploads need the
	// raw response writer.
	sessionMw := middleware.SessionAuth(cfg.JWTSecret)
	e.GET("/api/optimization-stream", cfg.Stream.Serve, sessionMw)

	uploadMws := []echo.MiddlewareFunc{sessionMw}
	if cfg.MaxUploadSize != "" {
		uploadMws = append([]echo.MiddlewareFunc{echomw.BodyLimit(cfg.MaxUploadSize)}, uploadMws...)
	}
	e.POST("/api/albums/:id/photos", photosHandler.Upload, uploadMws...)
}
