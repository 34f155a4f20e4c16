package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Photo struct {
	ID           string
	AlbumID      string
	Filename     string
	Title        string
	DisplayOrder int
	Optimized    bool
	UploadedAt   time.Time
}

type PhotoStore struct {
	pool *pgxpool.Pool
}

func NewPhotoStore(pool *pgxpool.Pool) *PhotoStore {
	return &PhotoStore{pool: pool}
}

const photoColumns = `id, album_id, filename, title, display_order, optimized, uploaded_at`

func scanPhoto(row pgx.Row) (Photo, error) {
	var p Photo
	err := row.Scan(&p.ID, &p.AlbumID, &p.Filename, &p.Title, &p.DisplayOrder, &p.Optimized, &p.UploadedAt)
	return p, err
}

func (s *PhotoStore) Create(ctx context.Context, albumID, filename string) (Photo, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO photos (id, album_id, filename, display_order)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(display_order), -1) + 1 FROM photos WHERE album_id = $2))
		RETURNING `+photoColumns,
		uuid.New().String(), albumID, filename)
	return scanPhoto(row)
}

func (s *PhotoStore) Get(ctx context.Context, id string) (Photo, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1`, id)
	return scanPhoto(row)
}

func (s *PhotoStore) GetByFilename(ctx context.Context, albumID, filename string) (Photo, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE album_id = $1 AND filename = $2`,
		albumID, filename)
	return scanPhoto(row)
}

func (s *PhotoStore) ListByAlbum(ctx context.Context, albumID string) ([]Photo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE album_id = $1 ORDER BY display_order`,
		albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (s *PhotoStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("photo %q not found", id)
	}
	return nil
}

func (s *PhotoStore) SetTitle(ctx context.Context, id, title string) error {
	_, err := s.pool.Exec(ctx, `UPDATE photos SET title = $2 WHERE id = $1`, id, title)
	return err
}

func (s *PhotoStore) MarkOptimized(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE photos SET optimized = TRUE WHERE id = $1`, id)
	return err
}

// Reorder rewrites display_order for the album's photos in one transaction.
func (s *PhotoStore) Reorder(ctx context.Context, albumID string, orderedIDs []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, id := range orderedIDs {
		tag, err := tx.Exec(ctx,
			`UPDATE photos SET display_order = $3 WHERE id = $1 AND album_id = $2`,
			id, albumID, i)
		if err != nil {
			return fmt.Errorf("reorder photo %q: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("photo %q not in album %q", id, albumID)
		}
	}

	return tx.Commit(ctx)
}
