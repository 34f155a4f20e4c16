package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"
	"github.com/theodorecharles/galleryd/internal/core/service"
	"github.com/theodorecharles/galleryd/internal/database"
)

type PhotosHandler struct {
	svc *service.GalleryService
}

func NewPhotosHandler(svc *service.GalleryService) *PhotosHandler {
	return &PhotosHandler{svc: svc}
}

type PhotoBody struct {
	ID           string    `json:"id" doc:"Photo id"`
	AlbumID      string    `json:"album_id" doc:"Owning album id"`
	Filename     string    `json:"filename" doc:"Original filename"`
	Title        string    `json:"title,omitempty" doc:"Display title"`
	DisplayOrder int       `json:"display_order" doc:"Position within the album"`
	Optimized    bool      `json:"optimized" doc:"Whether the optimization pipeline has finished"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func newPhotoBody(p database.Photo) PhotoBody {
	return PhotoBody{
		ID:           p.ID,
		AlbumID:      p.AlbumID,
		Filename:     p.Filename,
		Title:        p.Title,
		DisplayOrder: p.DisplayOrder,
		Optimized:    p.Optimized,
		UploadedAt:   p.UploadedAt,
	}
}

type ListPhotosInput struct {
	AlbumID string `path:"id" doc:"Album id"`
}

type ListPhotosOutput struct {
	Body struct {
		Photos []PhotoBody `json:"photos" doc:"Photos in display order"`
	}
}

func (h *PhotosHandler) List(ctx context.Context, input *ListPhotosInput) (*ListPhotosOutput, error) {
	photos, err := h.svc.ListPhotos(ctx, input.AlbumID)
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}

	out := &ListPhotosOutput{}
	out.Body.Photos = make([]PhotoBody, 0, len(photos))
	for _, p := range photos {
		out.Body.Photos = append(out.Body.Photos, newPhotoBody(p))
	}
	return out, nil
}

// Upload is a raw echo route: multipart streams fit multipart readers better
// than typed request bodies.
func (h *PhotosHandler) Upload(c echo.Context) error {
	albumID := c.Param("id")

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing photo field"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	defer src.Close()

	photo, jobID, err := h.svc.UploadPhoto(c.Request().Context(), albumID, fileHeader.Filename, src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"photo":  newPhotoBody(photo),
		"job_id": jobID,
	})
}

type PhotoIDInput struct {
	ID string `path:"id" doc:"Photo id"`
}

func (h *PhotosHandler) Delete(ctx context.Context, input *PhotoIDInput) (*StatusOutput, error) {
	if err := h.svc.DeletePhoto(ctx, input.ID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return okStatus(), nil
}

type ReorderPhotosInput struct {
	AlbumID string `path:"id" doc:"Album id"`
	Body    struct {
		Order []string `json:"order" minItems:"1" doc:"Photo ids in their new display order"`
	}
}

func (h *PhotosHandler) Reorder(ctx context.Context, input *ReorderPhotosInput) (*StatusOutput, error) {
	if err := h.svc.ReorderPhotos(ctx, input.AlbumID, input.Body.Order); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return okStatus(), nil
}

type SetTitleInput struct {
	ID   string `path:"id" doc:"Photo id"`
	Body struct {
		Title string `json:"title" doc:"New display title"`
	}
}

func (h *PhotosHandler) SetTitle(ctx context.Context, input *SetTitleInput) (*StatusOutput, error) {
	if err := h.svc.SetPhotoTitle(ctx, input.ID, input.Body.Title); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return okStatus(), nil
}

type RetryOutput struct {
	Body struct {
		JobID string `json:"job_id" doc:"Optimization job id on the progress stream"`
	}
}

func (h *PhotosHandler) RetryOptimization(ctx context.Context, input *PhotoIDInput) (*RetryOutput, error) {
	jobID, err := h.svc.RetryOptimization(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	out := &RetryOutput{}
	out.Body.JobID = jobID
	return out, nil
}
