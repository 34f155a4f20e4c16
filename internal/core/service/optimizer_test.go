package service

import (
	"context"
	"errors"
	"testing"

	"github.com/theodorecharles/galleryd/internal/core/event"
	"github.com/theodorecharles/galleryd/internal/core/titles"
)

func TestOptimizerService_GenerateTitleWithoutClient(t *testing.T) {
	s := NewOptimizerService(nil, event.NewBus(), nil, nil, "", "")

	_, err := s.GenerateTitle(context.Background(), "summer", "beach.jpg", "")
	if !errors.Is(err, ErrTitlesNotConfigured) {
		t.Fatalf("err = %v, want ErrTitlesNotConfigured", err)
	}
}

func TestOptimizerService_GenerateTitleWithKeylessClient(t *testing.T) {
	client := titles.NewClient("http://localhost:1", "", "gpt-4o-mini")
	s := NewOptimizerService(nil, event.NewBus(), nil, client, "", "")

	_, err := s.GenerateTitle(context.Background(), "summer", "beach.jpg", "")
	if !errors.Is(err, ErrTitlesNotConfigured) {
		t.Fatalf("err = %v, want ErrTitlesNotConfigured", err)
	}
}
