package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/theodorecharles/galleryd/internal/core/optimize"
	"github.com/theodorecharles/galleryd/internal/core/service"
)

// ClientCounter reports how many stream clients are connected; satisfied by
// the stream hub.
type ClientCounter interface {
	ClientCount() int
}

type OptimizeHandler struct {
	broadcaster *optimize.Broadcaster
	optimizer   *service.OptimizerService
	clients     ClientCounter
}

func NewOptimizeHandler(broadcaster *optimize.Broadcaster, optimizer *service.OptimizerService, clients ClientCounter) *OptimizeHandler {
	return &OptimizeHandler{broadcaster: broadcaster, optimizer: optimizer, clients: clients}
}

type JobBody struct {
	JobID     string `json:"jobId" doc:"Job id"`
	Album     string `json:"album,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Progress  int    `json:"progress" doc:"Percent complete"`
	State     string `json:"state" doc:"queued, optimizing, generating-title, complete, or error"`
	Error     string `json:"error,omitempty"`
	Title     string `json:"title,omitempty"`
	StartTime int64  `json:"startTime" doc:"Creation time, epoch milliseconds"`
}

type ListJobsOutput struct {
	Body struct {
		Jobs []JobBody `json:"jobs" doc:"Tracked optimization jobs, oldest first"`
	}
}

// ListJobs returns the same records the SSE stream pushes, for clients that
// prefer polling.
func (h *OptimizeHandler) ListJobs(ctx context.Context, _ *struct{}) (*ListJobsOutput, error) {
	records := h.broadcaster.Snapshot()

	out := &ListJobsOutput{}
	out.Body.Jobs = make([]JobBody, 0, len(records))
	for _, rec := range records {
		out.Body.Jobs = append(out.Body.Jobs, JobBody{
			JobID:     rec.JobID,
			Album:     rec.Album,
			Filename:  rec.Filename,
			Progress:  rec.Progress,
			State:     string(rec.State),
			Error:     rec.Error,
			Title:     rec.Title,
			StartTime: rec.StartTime.UnixMilli(),
		})
	}
	return out, nil
}

type QueueStatsOutput struct {
	Body struct {
		Active  int `json:"active" doc:"Running worker processes"`
		Pending int `json:"pending" doc:"Jobs waiting for a worker slot"`
		Clients int `json:"clients" doc:"Connected stream clients"`
	}
}

func (h *OptimizeHandler) Stats(ctx context.Context, _ *struct{}) (*QueueStatsOutput, error) {
	active, pending := h.optimizer.QueueStats()
	out := &QueueStatsOutput{}
	out.Body.Active = active
	out.Body.Pending = pending
	out.Body.Clients = h.clients.ClientCount()
	return out, nil
}

type GenerateTitleInput struct {
	Body struct {
		Album    string `json:"album" minLength:"1" doc:"Album slug"`
		Filename string `json:"filename" minLength:"1" doc:"Photo filename"`
		PhotoID  string `json:"photo_id,omitempty" doc:"Photo id to persist the title on"`
	}
}

type GenerateTitleOutput struct {
	Body struct {
		Title string `json:"title" doc:"Generated title"`
	}
}

func (h *OptimizeHandler) GenerateTitle(ctx context.Context, input *GenerateTitleInput) (*GenerateTitleOutput, error) {
	title, err := h.optimizer.GenerateTitle(ctx, input.Body.Album, input.Body.Filename, input.Body.PhotoID)
	if errors.Is(err, service.ErrTitlesNotConfigured) {
		return nil, huma.Error503ServiceUnavailable(err.Error())
	}
	if err != nil {
		return nil, huma.Error502BadGateway(err.Error())
	}
	out := &GenerateTitleOutput{}
	out.Body.Title = title
	return out, nil
}
