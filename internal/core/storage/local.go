package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type FileMetadata struct {
	Size        int64
	ContentType string
	ModTime     time.Time
}

// PhotoStore keeps original uploads on the local filesystem, one directory
// per album. The optimization script reads from and writes next to these
// paths, so layout is part of the worker contract.
type PhotoStore struct {
	basePath string
}

func NewPhotoStore(basePath string) (*PhotoStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create photos dir: %w", err)
	}
	return &PhotoStore{basePath: basePath}, nil
}

// Save streams an upload into the album's directory. The filename is
// sanitized to its base name so an upload can never escape the photos root.
func (s *PhotoStore) Save(_ context.Context, album, filename string, r io.Reader) (string, error) {
	filename = filepath.Base(filename)
	if filename == "." || filename == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	dir := filepath.Join(s.basePath, album)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create album dir: %w", err)
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}

	return path, nil
}

func (s *PhotoStore) Open(_ context.Context, album, filename string) (*os.File, FileMetadata, error) {
	path := filepath.Join(s.basePath, album, filepath.Base(filename))

	f, err := os.Open(path)
	if err != nil {
		return nil, FileMetadata{}, fmt.Errorf("open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, FileMetadata{}, fmt.Errorf("stat file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return f, FileMetadata{
		Size:        stat.Size(),
		ContentType: contentType,
		ModTime:     stat.ModTime(),
	}, nil
}

// Delete removes a photo's original and any optimized variants sitting next
// to it (same stem, different suffixes).
func (s *PhotoStore) Delete(_ context.Context, album, filename string) error {
	filename = filepath.Base(filename)
	dir := filepath.Join(s.basePath, album)

	if err := os.Remove(filepath.Join(dir, filename)); err != nil && !os.IsNotExist(err) {
		return err
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	variants, _ := filepath.Glob(filepath.Join(dir, stem+"-*"))
	for _, v := range variants {
		_ = os.Remove(v)
	}
	return nil
}

func (s *PhotoStore) Exists(_ context.Context, album, filename string) bool {
	_, err := os.Stat(filepath.Join(s.basePath, album, filepath.Base(filename)))
	return err == nil
}
