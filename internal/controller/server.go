package controller

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/theodorecharles/galleryd/internal/config"
	"github.com/theodorecharles/galleryd/internal/controller/api"
	"github.com/theodorecharles/galleryd/internal/controller/stream"
	"github.com/theodorecharles/galleryd/internal/core/event"
	"github.com/theodorecharles/galleryd/internal/core/optimize"
	"github.com/theodorecharles/galleryd/internal/core/service"
	"github.com/theodorecharles/galleryd/internal/core/storage"
	"github.com/theodorecharles/galleryd/internal/core/titles"
	"github.com/theodorecharles/galleryd/internal/database"
	"golang.org/x/crypto/bcrypt"
)

func Run(ctx context.Context, cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Debug().Str("level", cfg.Logging.Level).Msg("log level configured")

	pool, err := database.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Auto-generate the JWT secret on first boot so the server works without
	// any auth config; an explicit config value still wins.
	jwtSecret, err := ensureSetting(ctx, pool, "jwt_secret", 32)
	if err != nil {
		return fmt.Errorf("jwt secret: %w", err)
	}
	if cfg.Auth.JWTSecret != "" {
		jwtSecret = cfg.Auth.JWTSecret
	}

	adminPassword, err := ensureAdmin(ctx, pool, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		return fmt.Errorf("admin setup: %w", err)
	}

	albums := database.NewAlbumStore(pool)
	photos := database.NewPhotoStore(pool)
	users := database.NewUserStore(pool)

	files, err := storage.NewPhotoStore(cfg.Gallery.PhotosDir)
	if err != nil {
		return fmt.Errorf("photo storage: %w", err)
	}

	bus := event.NewBus()

	retention := parseDurationOr(cfg.Optimize.RetentionWindow, 5*time.Minute)
	sweepInterval := parseDurationOr(cfg.Optimize.SweepInterval, 60*time.Second)
	heartbeat := parseDurationOr(cfg.Optimize.HeartbeatInterval, 30*time.Second)
	workerTimeout := parseDurationOr(cfg.Optimize.WorkerTimeout, 0)

	tracker := optimize.NewTracker(retention, sweepInterval)
	hub := stream.NewHub()
	broadcaster := optimize.NewBroadcaster(tracker, hub)
	broadcaster.SetupEventHandlers(bus)

	runner := optimize.NewRunner(bus, optimize.RunnerConfig{
		MaxConcurrent: cfg.Optimize.MaxConcurrent,
		WorkerTimeout: workerTimeout,
	})

	var titleClient *titles.Client
	if cfg.Titles.Enabled {
		titleClient = titles.NewClient(cfg.Titles.BaseURL, cfg.Titles.APIKey, cfg.Titles.Model)
	}

	optimizer := service.NewOptimizerService(runner, bus, photos, titleClient,
		cfg.Optimize.ScriptPath, cfg.Optimize.ProjectRoot)
	gallery := service.NewGalleryService(albums, photos, files, optimizer, bus)

	setupAuditLog(bus)

	jwtExpiry := parseDurationOr(cfg.Auth.JWTExpiry, 24*time.Hour)

	streamHandler := stream.NewHandler(hub, broadcaster, heartbeat)

	e := echo.New()
	e.HideBanner = true

	api.SetupRouter(e, api.RouterConfig{
		JWTSecret:     jwtSecret,
		JWTExpiry:     jwtExpiry,
		MaxUploadSize: cfg.Gallery.MaxUploadSize,
		Users:         users,
		Gallery:       gallery,
		Optimizer:     optimizer,
		Broadcaster:   broadcaster,
		Hub:           hub,
		Stream:        streamHandler,
	})

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go tracker.RunSweeper(sweepCtx)

	printBanner(cfg, adminPassword)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sweepCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	return nil
}

// setupAuditLog records gallery mutations that do not otherwise surface in
// the server log.
func setupAuditLog(bus event.Bus) {
	bus.Subscribe(event.EventPhotoUploaded, func(ctx context.Context, e event.Event) error {
		if p, ok := e.Payload.(event.PhotoEvent); ok {
			log.Info().Str("album", p.Album).Str("filename", p.Filename).Msg("photo uploaded")
		}
		return nil
	})
	bus.Subscribe(event.EventPhotoDeleted, func(ctx context.Context, e event.Event) error {
		if p, ok := e.Payload.(event.PhotoEvent); ok {
			log.Info().Str("album", p.Album).Str("filename", p.Filename).Msg("photo deleted")
		}
		return nil
	})
	bus.Subscribe(event.EventAlbumReordered, func(ctx context.Context, e event.Event) error {
		if r, ok := e.Payload.(event.ReorderEvent); ok {
			log.Info().Int("count", r.Count).Msg("albums reordered")
		}
		return nil
	})
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func ensureSetting(ctx context.Context, pool *pgxpool.Pool, key string, byteLen int) (string, error) {
	settings := database.NewSettingStore(pool)
	if value, err := settings.Get(ctx, key); err == nil && value != "" {
		return value, nil
	}

	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	value := hex.EncodeToString(b)
	if err := settings.Upsert(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, username, password string) (string, error) {
	users := database.NewUserStore(pool)
	count, err := users.Count(ctx)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}

	if password == "" {
		b := make([]byte, 8)
		rand.Read(b)
		password = hex.EncodeToString(b)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}

	if _, err := users.Create(ctx, username, string(hash), "admin"); err != nil {
		return "", err
	}
	return password, nil
}

func printBanner(cfg *config.Config, adminPassword string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("  Gallery admin server started")
	fmt.Println()
	if adminPassword != "" {
		fmt.Println("  Admin credentials (save these, shown only once):")
		fmt.Printf("    Username: %s\n", cfg.Auth.AdminUsername)
		fmt.Printf("    Password: %s\n", adminPassword)
		fmt.Println()
	}
	fmt.Printf("  HTTP:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Photos: %s\n", cfg.Gallery.PhotosDir)
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println()
}
