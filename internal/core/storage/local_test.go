package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPhotoStore_SaveAndOpen(t *testing.T) {
	s, err := NewPhotoStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	path, err := s.Save(ctx, "summer", "beach.jpg", strings.NewReader("jpeg bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(filepath.Dir(path)) != "summer" {
		t.Errorf("saved outside album dir: %q", path)
	}

	f, meta, err := s.Open(ctx, "summer", "beach.jpg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	data, _ := io.ReadAll(f)
	if string(data) != "jpeg bytes" {
		t.Errorf("content = %q", data)
	}
	if meta.Size != int64(len("jpeg bytes")) {
		t.Errorf("Size = %d", meta.Size)
	}
	if meta.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", meta.ContentType)
	}
}

func TestPhotoStore_SaveSanitizesFilename(t *testing.T) {
	base := t.TempDir()
	s, err := NewPhotoStore(base)
	if err != nil {
		t.Fatal(err)
	}

	path, err := s.Save(context.Background(), "summer", "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(path, filepath.Join(base, "summer")) {
		t.Errorf("path escaped the photos root: %q", path)
	}
	if filepath.Base(path) != "passwd" {
		t.Errorf("filename = %q, want base name only", filepath.Base(path))
	}
}

func TestPhotoStore_DeleteRemovesVariants(t *testing.T) {
	base := t.TempDir()
	s, err := NewPhotoStore(base)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	s.Save(ctx, "summer", "beach.jpg", strings.NewReader("x"))
	// Optimized variants the worker writes next to the original.
	dir := filepath.Join(base, "summer")
	os.WriteFile(filepath.Join(dir, "beach-800w.webp"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "beach-thumb.webp"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "other.jpg"), []byte("x"), 0o644)

	if err := s.Delete(ctx, "summer", "beach.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if s.Exists(ctx, "summer", "beach.jpg") {
		t.Error("original still exists")
	}
	if _, err := os.Stat(filepath.Join(dir, "beach-800w.webp")); !os.IsNotExist(err) {
		t.Error("variant beach-800w.webp still exists")
	}
	if !s.Exists(ctx, "summer", "other.jpg") {
		t.Error("unrelated photo was deleted")
	}
}

func TestPhotoStore_DeleteMissingIsNoError(t *testing.T) {
	s, err := NewPhotoStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(context.Background(), "summer", "nope.jpg"); err != nil {
		t.Errorf("Delete of missing file: %v", err)
	}
}
