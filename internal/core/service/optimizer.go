package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/theodorecharles/galleryd/internal/core/event"
	"github.com/theodorecharles/galleryd/internal/core/optimize"
	"github.com/theodorecharles/galleryd/internal/core/titles"
	"github.com/theodorecharles/galleryd/internal/database"
)

// ErrTitlesNotConfigured is returned when title generation is requested but
// no title API key is set.
var ErrTitlesNotConfigured = errors.New("title generation is not configured")

// OptimizerService turns photos into optimization jobs and owns the
// post-processing that follows a successful run: marking the photo
// optimized and, when enabled, generating an AI title for it. All job-state
// changes flow through the event bus so the stream broadcaster picks them up.
type OptimizerService struct {
	runner      *optimize.Runner
	bus         event.Bus
	photos      *database.PhotoStore
	titleClient *titles.Client
	scriptPath  string
	projectRoot string
}

func NewOptimizerService(
	runner *optimize.Runner,
	bus event.Bus,
	photos *database.PhotoStore,
	titleClient *titles.Client,
	scriptPath, projectRoot string,
) *OptimizerService {
	return &OptimizerService{
		runner:      runner,
		bus:         bus,
		photos:      photos,
		titleClient: titleClient,
		scriptPath:  scriptPath,
		projectRoot: projectRoot,
	}
}

// QueuePhoto enqueues one photo for background optimization. The jobID is
// deterministic (album/filename) so a user-triggered retry lands on the same
// stream record. Returns immediately; progress arrives over the event bus.
func (s *OptimizerService) QueuePhoto(album, filename, photoID string) string {
	jobID := album + "/" + filename

	s.runner.Enqueue(optimize.Descriptor{
		JobID:       jobID,
		Album:       album,
		Filename:    filename,
		ScriptPath:  s.scriptPath,
		ProjectRoot: s.projectRoot,
		OnProgress: func(pct int) {
			s.bus.Publish(context.Background(), event.Event{
				Type: event.EventJobProgress,
				Payload: event.JobEvent{
					JobID:    jobID,
					Album:    album,
					Filename: filename,
					Progress: pct,
				},
			})
		},
		OnComplete: func() {
			s.finishJob(jobID, album, filename, photoID)
		},
		OnError: func(message string) {
			log.Error().Str("album", album).Str("filename", filename).
				Str("error", message).Msg("optimization failed")
			s.bus.Publish(context.Background(), event.Event{
				Type: event.EventJobFailed,
				Payload: event.JobEvent{
					JobID:    jobID,
					Album:    album,
					Filename: filename,
					Error:    message,
				},
			})
		},
	})

	return jobID
}

// finishJob runs after the worker exits cleanly: persist the optimized flag,
// optionally run the title phase, then announce completion.
func (s *OptimizerService) finishJob(jobID, album, filename, photoID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if photoID != "" {
		if err := s.photos.MarkOptimized(ctx, photoID); err != nil {
			log.Warn().Err(err).Str("photo_id", photoID).Msg("mark photo optimized")
		}
	}

	var title string
	if s.titleClient != nil && s.titleClient.IsConfigured() {
		s.bus.Publish(ctx, event.Event{
			Type:    event.EventJobTitle,
			Payload: event.JobEvent{JobID: jobID, Album: album, Filename: filename},
		})

		generated, err := s.GenerateTitle(ctx, album, filename, photoID)
		if err != nil {
			// Title generation is best-effort; the photo is already optimized.
			log.Warn().Err(err).Str("album", album).Str("filename", filename).
				Msg("title generation failed")
		} else {
			title = generated
		}
	}

	log.Info().Str("album", album).Str("filename", filename).Msg("optimization complete")
	s.bus.Publish(ctx, event.Event{
		Type: event.EventJobCompleted,
		Payload: event.JobEvent{
			JobID:    jobID,
			Album:    album,
			Filename: filename,
			Title:    title,
		},
	})
}

// GenerateTitle asks the title model for a caption and persists it when the
// photo is known. Also used directly by the manual "regenerate title" action.
func (s *OptimizerService) GenerateTitle(ctx context.Context, album, filename, photoID string) (string, error) {
	if s.titleClient == nil || !s.titleClient.IsConfigured() {
		return "", ErrTitlesNotConfigured
	}

	title, err := s.titleClient.GenerateTitle(ctx, album, filename)
	if err != nil {
		return "", err
	}
	if photoID != "" {
		if err := s.photos.SetTitle(ctx, photoID, title); err != nil {
			return "", err
		}
	}
	return title, nil
}

// QueueStats reports active worker and pending job counts.
func (s *OptimizerService) QueueStats() (active, pending int) {
	return s.runner.Stats()
}
