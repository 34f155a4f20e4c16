package optimize

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/theodorecharles/galleryd/internal/core/event"
)

// Publisher delivers one wire frame to every connected stream client.
// Delivery is best-effort: a slow or vanished subscriber must never block or
// fail the job pipeline.
type Publisher interface {
	Publish(frame []byte)
}

// Broadcaster merges job updates into the Tracker and fans the resulting
// record out to stream clients.
type Broadcaster struct {
	tracker *Tracker
	pub     Publisher
}

func NewBroadcaster(tracker *Tracker, pub Publisher) *Broadcaster {
	return &Broadcaster{tracker: tracker, pub: pub}
}

// Broadcast upserts the record for jobID and pushes the full merged state to
// all subscribers as one optimization-update frame.
func (b *Broadcaster) Broadcast(jobID string, upd Update) JobRecord {
	rec := b.tracker.Upsert(jobID, upd)

	data, err := json.Marshal(newWireJob(rec, "optimization-update"))
	if err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("marshal job update")
		return rec
	}
	b.pub.Publish(data)
	return rec
}

func (b *Broadcaster) Snapshot() []JobRecord {
	return b.tracker.Snapshot()
}

// SetupEventHandlers routes job lifecycle events from the bus into the
// broadcast path, so any module can push a job-state change without holding
// the broadcaster itself.
func (b *Broadcaster) SetupEventHandlers(bus event.Bus) {
	handle := func(toUpdate func(event.JobEvent) Update) event.Handler {
		return func(_ context.Context, e event.Event) error {
			payload, ok := e.Payload.(event.JobEvent)
			if !ok || payload.JobID == "" {
				return nil
			}
			b.Broadcast(payload.JobID, toUpdate(payload))
			return nil
		}
	}

	bus.Subscribe(event.EventJobQueued, handle(func(p event.JobEvent) Update {
		return Update{Album: p.Album, Filename: p.Filename, State: StateQueued, Progress: Pct(0)}
	}))
	bus.Subscribe(event.EventJobStarted, handle(func(p event.JobEvent) Update {
		return Update{Album: p.Album, Filename: p.Filename, State: StateOptimizing, Progress: Pct(0)}
	}))
	bus.Subscribe(event.EventJobProgress, handle(func(p event.JobEvent) Update {
		return Update{State: StateOptimizing, Progress: Pct(p.Progress)}
	}))
	bus.Subscribe(event.EventJobTitle, handle(func(p event.JobEvent) Update {
		return Update{State: StateGeneratingTitle, Progress: Pct(100)}
	}))
	bus.Subscribe(event.EventJobCompleted, handle(func(p event.JobEvent) Update {
		return Update{State: StateComplete, Progress: Pct(100), Title: p.Title}
	}))
	bus.Subscribe(event.EventJobFailed, handle(func(p event.JobEvent) Update {
		return Update{State: StateError, Error: p.Error}
	}))
}

// wireJob is the JSON shape of a job record on the SSE stream. StartTime is
// epoch milliseconds, matching what the admin SPA expects.
type wireJob struct {
	Type      string   `json:"type,omitempty"`
	JobID     string   `json:"jobId"`
	Album     string   `json:"album,omitempty"`
	Filename  string   `json:"filename,omitempty"`
	Progress  int      `json:"progress"`
	State     JobState `json:"state"`
	Error     string   `json:"error,omitempty"`
	Title     string   `json:"title,omitempty"`
	StartTime int64    `json:"startTime"`
}

func newWireJob(rec JobRecord, frameType string) wireJob {
	return wireJob{
		Type:      frameType,
		JobID:     rec.JobID,
		Album:     rec.Album,
		Filename:  rec.Filename,
		Progress:  rec.Progress,
		State:     rec.State,
		Error:     rec.Error,
		Title:     rec.Title,
		StartTime: rec.StartTime.UnixMilli(),
	}
}

// InitialStateFrame encodes the full job list for a newly connected stream
// client. Returns nil when there are no records, in which case no frame
// should be sent.
func InitialStateFrame(jobs []JobRecord) ([]byte, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	frame := struct {
		Type string    `json:"type"`
		Jobs []wireJob `json:"jobs"`
	}{Type: "initial-state", Jobs: make([]wireJob, 0, len(jobs))}

	for _, rec := range jobs {
		frame.Jobs = append(frame.Jobs, newWireJob(rec, ""))
	}
	return json.Marshal(frame)
}
