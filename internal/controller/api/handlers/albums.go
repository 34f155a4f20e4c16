package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/theodorecharles/galleryd/internal/core/service"
	"github.com/theodorecharles/galleryd/internal/database"
)

type AlbumsHandler struct {
	svc *service.GalleryService
}

func NewAlbumsHandler(svc *service.GalleryService) *AlbumsHandler {
	return &AlbumsHandler{svc: svc}
}

type AlbumBody struct {
	ID           string    `json:"id" doc:"Album id"`
	Name         string    `json:"name" doc:"Display name"`
	Slug         string    `json:"slug" doc:"URL slug, also the photos directory name"`
	ParentID     string    `json:"parent_id,omitempty" doc:"Parent folder id, empty at top level"`
	CoverPhotoID string    `json:"cover_photo_id,omitempty" doc:"Photo shown as the album cover"`
	DisplayOrder int       `json:"display_order" doc:"Position among siblings"`
	CreatedAt    time.Time `json:"created_at"`
}

func newAlbumBody(a database.Album) AlbumBody {
	return AlbumBody{
		ID:           a.ID,
		Name:         a.Name,
		Slug:         a.Slug,
		ParentID:     a.ParentID,
		CoverPhotoID: a.CoverPhotoID,
		DisplayOrder: a.DisplayOrder,
		CreatedAt:    a.CreatedAt,
	}
}

type ListAlbumsOutput struct {
	Body struct {
		Albums []AlbumBody `json:"albums" doc:"All albums, parents before children, in display order"`
	}
}

func (h *AlbumsHandler) List(ctx context.Context, _ *struct{}) (*ListAlbumsOutput, error) {
	albums, err := h.svc.ListAlbums(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}

	out := &ListAlbumsOutput{}
	out.Body.Albums = make([]AlbumBody, 0, len(albums))
	for _, a := range albums {
		out.Body.Albums = append(out.Body.Albums, newAlbumBody(a))
	}
	return out, nil
}

type CreateAlbumInput struct {
	Body struct {
		Name     string `json:"name" minLength:"1" doc:"Album display name"`
		ParentID string `json:"parent_id,omitempty" doc:"Parent folder id for nesting"`
	}
}

type AlbumOutput struct {
	Body AlbumBody
}

func (h *AlbumsHandler) Create(ctx context.Context, input *CreateAlbumInput) (*AlbumOutput, error) {
	album, err := h.svc.CreateAlbum(ctx, input.Body.Name, input.Body.ParentID)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &AlbumOutput{Body: newAlbumBody(album)}, nil
}

type RenameAlbumInput struct {
	ID   string `path:"id" doc:"Album id"`
	Body struct {
		Name string `json:"name" minLength:"1" doc:"New display name"`
	}
}

func (h *AlbumsHandler) Rename(ctx context.Context, input *RenameAlbumInput) (*StatusOutput, error) {
	if err := h.svc.RenameAlbum(ctx, input.ID, input.Body.Name); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return okStatus(), nil
}

type SetCoverInput struct {
	ID   string `path:"id" doc:"Album id"`
	Body struct {
		PhotoID string `json:"photo_id" minLength:"1" doc:"Photo to use as the cover; must belong to the album"`
	}
}

func (h *AlbumsHandler) SetCover(ctx context.Context, input *SetCoverInput) (*StatusOutput, error) {
	if err := h.svc.SetAlbumCover(ctx, input.ID, input.Body.PhotoID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return okStatus(), nil
}

type AlbumIDInput struct {
	ID string `path:"id" doc:"Album id"`
}

func (h *AlbumsHandler) Delete(ctx context.Context, input *AlbumIDInput) (*StatusOutput, error) {
	if err := h.svc.DeleteAlbum(ctx, input.ID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return okStatus(), nil
}

type ReorderAlbumsInput struct {
	Body struct {
		Order []string `json:"order" minItems:"1" doc:"Album ids in their new display order"`
	}
}

func (h *AlbumsHandler) Reorder(ctx context.Context, input *ReorderAlbumsInput) (*StatusOutput, error) {
	if err := h.svc.ReorderAlbums(ctx, input.Body.Order); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return okStatus(), nil
}
