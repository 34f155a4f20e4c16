package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/theodorecharles/galleryd/internal/core/event"
	"github.com/theodorecharles/galleryd/internal/core/storage"
	"github.com/theodorecharles/galleryd/internal/database"
)

// GalleryService owns the album/folder tree and the photos in it: CRUD,
// drag-and-drop reordering, and uploads. Uploads hand off to the
// OptimizerService for background processing.
type GalleryService struct {
	albums    *database.AlbumStore
	photos    *database.PhotoStore
	files     *storage.PhotoStore
	optimizer *OptimizerService
	bus       event.Bus
}

func NewGalleryService(
	albums *database.AlbumStore,
	photos *database.PhotoStore,
	files *storage.PhotoStore,
	optimizer *OptimizerService,
	bus event.Bus,
) *GalleryService {
	return &GalleryService{
		albums:    albums,
		photos:    photos,
		files:     files,
		optimizer: optimizer,
		bus:       bus,
	}
}

func (s *GalleryService) ListAlbums(ctx context.Context) ([]database.Album, error) {
	return s.albums.List(ctx)
}

func (s *GalleryService) CreateAlbum(ctx context.Context, name, parentID string) (database.Album, error) {
	slug := Slugify(name)
	if slug == "" {
		return database.Album{}, fmt.Errorf("album name %q produces an empty slug", name)
	}
	return s.albums.Create(ctx, name, slug, parentID)
}

func (s *GalleryService) RenameAlbum(ctx context.Context, id, name string) error {
	return s.albums.Rename(ctx, id, name)
}

func (s *GalleryService) SetAlbumCover(ctx context.Context, albumID, photoID string) error {
	return s.albums.SetCover(ctx, albumID, photoID)
}

func (s *GalleryService) DeleteAlbum(ctx context.Context, id string) error {
	return s.albums.Delete(ctx, id)
}

// ReorderAlbums applies a drag-and-drop ordering from the admin UI. The
// client sends the complete new sibling order; anything it missed keeps its
// old position.
func (s *GalleryService) ReorderAlbums(ctx context.Context, orderedIDs []string) error {
	if err := s.albums.Reorder(ctx, orderedIDs); err != nil {
		return err
	}
	s.bus.Publish(ctx, event.Event{
		Type:    event.EventAlbumReordered,
		Payload: event.ReorderEvent{Count: len(orderedIDs)},
	})
	return nil
}

func (s *GalleryService) ListPhotos(ctx context.Context, albumID string) ([]database.Photo, error) {
	return s.photos.ListByAlbum(ctx, albumID)
}

// UploadPhoto stores the original file, records it, and queues background
// optimization. The returned job id identifies the optimization run on the
// progress stream.
func (s *GalleryService) UploadPhoto(ctx context.Context, albumID, filename string, r io.Reader) (database.Photo, string, error) {
	album, err := s.albums.Get(ctx, albumID)
	if err != nil {
		return database.Photo{}, "", fmt.Errorf("album %q: %w", albumID, err)
	}

	if _, err := s.files.Save(ctx, album.Slug, filename, r); err != nil {
		return database.Photo{}, "", fmt.Errorf("store upload: %w", err)
	}

	photo, err := s.photos.Create(ctx, albumID, filename)
	if err != nil {
		// Keep the file; a re-upload of the same name overwrites it.
		return database.Photo{}, "", fmt.Errorf("record photo: %w", err)
	}

	s.bus.Publish(ctx, event.Event{
		Type: event.EventPhotoUploaded,
		Payload: event.PhotoEvent{
			PhotoID:  photo.ID,
			Album:    album.Slug,
			Filename: filename,
		},
	})

	jobID := s.optimizer.QueuePhoto(album.Slug, filename, photo.ID)
	return photo, jobID, nil
}

func (s *GalleryService) DeletePhoto(ctx context.Context, photoID string) error {
	photo, err := s.photos.Get(ctx, photoID)
	if err != nil {
		return fmt.Errorf("photo %q: %w", photoID, err)
	}
	album, err := s.albums.Get(ctx, photo.AlbumID)
	if err != nil {
		return fmt.Errorf("album %q: %w", photo.AlbumID, err)
	}

	if err := s.photos.Delete(ctx, photoID); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, album.Slug, photo.Filename); err != nil {
		log.Warn().Err(err).Str("album", album.Slug).Str("filename", photo.Filename).
			Msg("remove photo files")
	}

	s.bus.Publish(ctx, event.Event{
		Type: event.EventPhotoDeleted,
		Payload: event.PhotoEvent{
			PhotoID:  photoID,
			Album:    album.Slug,
			Filename: photo.Filename,
		},
	})
	return nil
}

func (s *GalleryService) ReorderPhotos(ctx context.Context, albumID string, orderedIDs []string) error {
	if err := s.photos.Reorder(ctx, albumID, orderedIDs); err != nil {
		return err
	}
	s.bus.Publish(ctx, event.Event{
		Type:    event.EventAlbumReordered,
		Payload: event.ReorderEvent{AlbumID: albumID, Count: len(orderedIDs)},
	})
	return nil
}

func (s *GalleryService) SetPhotoTitle(ctx context.Context, photoID, title string) error {
	return s.photos.SetTitle(ctx, photoID, title)
}

// RetryOptimization re-enqueues a fresh descriptor for a photo under the
// same job id. There is no automatic retry anywhere; this is always
// user-triggered.
func (s *GalleryService) RetryOptimization(ctx context.Context, photoID string) (string, error) {
	photo, err := s.photos.Get(ctx, photoID)
	if err != nil {
		return "", fmt.Errorf("photo %q: %w", photoID, err)
	}
	album, err := s.albums.Get(ctx, photo.AlbumID)
	if err != nil {
		return "", fmt.Errorf("album %q: %w", photo.AlbumID, err)
	}

	return s.optimizer.QueuePhoto(album.Slug, photo.Filename, photo.ID), nil
}
