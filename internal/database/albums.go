package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Album struct {
	ID           string
	Name         string
	Slug         string
	ParentID     string // empty for top-level albums
	CoverPhotoID string
	DisplayOrder int
	CreatedAt    time.Time
}

// AlbumStore persists the album/folder tree. Folders are just albums that
// contain other albums.
type AlbumStore struct {
	pool *pgxpool.Pool
}

func NewAlbumStore(pool *pgxpool.Pool) *AlbumStore {
	return &AlbumStore{pool: pool}
}

const albumColumns = `id, name, slug, COALESCE(parent_id, ''), COALESCE(cover_photo_id, ''), display_order, created_at`

func scanAlbum(row pgx.Row) (Album, error) {
	var a Album
	err := row.Scan(&a.ID, &a.Name, &a.Slug, &a.ParentID, &a.CoverPhotoID, &a.DisplayOrder, &a.CreatedAt)
	return a, err
}

func (s *AlbumStore) Create(ctx context.Context, name, slug, parentID string) (Album, error) {
	var parent any
	if parentID != "" {
		parent = parentID
	}

	// New albums go to the end of their parent's ordering.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO albums (id, name, slug, parent_id, display_order)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(display_order), -1) + 1 FROM albums WHERE parent_id IS NOT DISTINCT FROM $4))
		RETURNING `+albumColumns,
		uuid.New().String(), name, slug, parent)
	return scanAlbum(row)
}

func (s *AlbumStore) Get(ctx context.Context, id string) (Album, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = $1`, id)
	return scanAlbum(row)
}

func (s *AlbumStore) GetBySlug(ctx context.Context, slug string) (Album, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+albumColumns+` FROM albums WHERE slug = $1`, slug)
	return scanAlbum(row)
}

// List returns every album ordered by parent then display order, so the
// admin UI can rebuild the tree in one pass.
func (s *AlbumStore) List(ctx context.Context) ([]Album, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+albumColumns+` FROM albums
		ORDER BY COALESCE(parent_id, ''), display_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

func (s *AlbumStore) Rename(ctx context.Context, id, name string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE albums SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("album %q not found", id)
	}
	return nil
}

func (s *AlbumStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM albums WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("album %q not found", id)
	}
	return nil
}

// SetCover points the album at one of its own photos; the membership check is
// part of the update so a foreign photo id is a not-found, not a bad cover.
func (s *AlbumStore) SetCover(ctx context.Context, albumID, photoID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE albums SET cover_photo_id = $2
		WHERE id = $1 AND EXISTS (SELECT 1 FROM photos WHERE id = $2 AND album_id = $1)`,
		albumID, photoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("album %q or photo %q not found", albumID, photoID)
	}
	return nil
}

// Reorder rewrites display_order for the given siblings in one transaction.
// The slice is the new order; ids not listed keep their old positions.
func (s *AlbumStore) Reorder(ctx context.Context, orderedIDs []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, id := range orderedIDs {
		tag, err := tx.Exec(ctx, `UPDATE albums SET display_order = $2 WHERE id = $1`, id, i)
		if err != nil {
			return fmt.Errorf("reorder album %q: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("album %q not found", id)
		}
	}

	return tx.Commit(ctx)
}
