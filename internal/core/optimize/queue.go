package optimize

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/theodorecharles/galleryd/internal/core/event"
)

// DefaultMaxConcurrent caps how many optimization scripts run at once. Image
// work is CPU-heavy; more parallelism just thrashes the box.
const DefaultMaxConcurrent = 8

type RunnerConfig struct {
	MaxConcurrent int
	// WorkerTimeout kills a worker that runs past the deadline. Zero disables
	// the deadline, leaving a hung worker occupying its slot.
	WorkerTimeout time.Duration
}

// Runner dispatches queued jobs to worker processes, at most MaxConcurrent at
// a time, in FIFO order. There is no scheduler loop: the queue advances only
// when a job is enqueued or a worker exits.
type Runner struct {
	bus     event.Bus
	max     int
	timeout time.Duration
	spawn   spawnFunc

	mu      sync.Mutex
	pending []*Descriptor
	active  int
}

// spawnFunc runs one worker to completion, reporting progress along the way.
// Swappable so queue behavior is testable without child processes.
type spawnFunc func(ctx context.Context, d *Descriptor, progress func(int)) error

func NewRunner(bus event.Bus, cfg RunnerConfig) *Runner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Runner{
		bus:     bus,
		max:     cfg.MaxConcurrent,
		timeout: cfg.WorkerTimeout,
		spawn:   runScript,
	}
}

// Enqueue appends the job to the pending queue, announces it as queued, and
// dispatches immediately if a worker slot is free. It never blocks on the
// work itself.
func (r *Runner) Enqueue(d Descriptor) {
	r.bus.Publish(context.Background(), event.Event{
		Type: event.EventJobQueued,
		Payload: event.JobEvent{
			JobID:    d.JobID,
			Album:    d.Album,
			Filename: d.Filename,
			State:    string(StateQueued),
		},
	})

	r.mu.Lock()
	r.pending = append(r.pending, &d)
	r.mu.Unlock()

	r.dispatch()
}

// Stats reports the current number of running workers and pending jobs.
func (r *Runner) Stats() (active, pending int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, len(r.pending)
}

func (r *Runner) dispatch() {
	for {
		r.mu.Lock()
		if r.active >= r.max || len(r.pending) == 0 {
			r.mu.Unlock()
			return
		}
		d := r.pending[0]
		r.pending = r.pending[1:]
		r.active++
		r.mu.Unlock()

		r.bus.Publish(context.Background(), event.Event{
			Type: event.EventJobStarted,
			Payload: event.JobEvent{
				JobID:    d.JobID,
				Album:    d.Album,
				Filename: d.Filename,
				State:    string(StateOptimizing),
			},
		})

		go r.runOne(d)
	}
}

func (r *Runner) runOne(d *Descriptor) {
	defer func() {
		r.mu.Lock()
		r.active--
		r.mu.Unlock()
		// The only mechanism that advances the queue after startup.
		r.dispatch()
	}()

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	err := r.spawn(ctx, d, func(pct int) {
		if d.OnProgress != nil {
			d.OnProgress(pct)
		}
	})

	switch {
	case err == nil:
		if d.OnComplete != nil {
			d.OnComplete()
		}
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Str("album", d.Album).Str("filename", d.Filename).
			Dur("timeout", r.timeout).Msg("optimization worker timed out")
		if d.OnError != nil {
			d.OnError("optimization timed out")
		}
	case isExitError(err):
		// The real cause was on the worker's stderr, already logged with the
		// job's album/filename. Callers get a fixed message.
		if d.OnError != nil {
			d.OnError("Optimization failed")
		}
	default:
		// Spawn-level failure (script missing, permissions): surface as-is.
		if d.OnError != nil {
			d.OnError(err.Error())
		}
	}
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
