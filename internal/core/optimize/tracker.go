package optimize

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Tracker holds the in-memory record of every optimization job and evicts
// terminal records after a retention window. It is constructed once at
// startup and injected wherever job state is read or written.
type Tracker struct {
	retention     time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	mu   sync.Mutex
	jobs map[string]*JobRecord
}

func NewTracker(retention, sweepInterval time.Duration) *Tracker {
	return &Tracker{
		retention:     retention,
		sweepInterval: sweepInterval,
		now:           time.Now,
		jobs:          make(map[string]*JobRecord),
	}
}

// Upsert merges upd into the record for jobID, creating it if absent. A new
// record defaults to state optimizing with progress 0 and is stamped with the
// current time; StartTime is never touched on later merges. The merged record
// is returned by value.
func (t *Tracker) Upsert(jobID string, upd Update) JobRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[jobID]
	if !ok {
		rec = &JobRecord{
			JobID:     jobID,
			State:     StateOptimizing,
			StartTime: t.now(),
		}
		t.jobs[jobID] = rec
	}

	if upd.Album != "" {
		rec.Album = upd.Album
	}
	if upd.Filename != "" {
		rec.Filename = upd.Filename
	}
	if upd.Progress != nil {
		rec.Progress = *upd.Progress
	}
	if upd.State != "" {
		rec.State = upd.State
	}
	if upd.Error != "" {
		rec.Error = upd.Error
	}
	if upd.Title != "" {
		rec.Title = upd.Title
	}

	return *rec
}

func (t *Tracker) Get(jobID string) (JobRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.jobs[jobID]
	if !ok {
		return JobRecord{}, false
	}
	return *rec, true
}

// Snapshot returns a copy of every record, oldest first.
func (t *Tracker) Snapshot() []JobRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]JobRecord, 0, len(t.jobs))
	for _, rec := range t.jobs {
		result = append(result, *rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// Sweep deletes every terminal record older than the retention window and
// returns the number evicted. In-flight records are never touched, no matter
// their age.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, rec := range t.jobs {
		if rec.State.Terminal() && now.Sub(rec.StartTime) > t.retention {
			delete(t.jobs, id)
			evicted++
		}
	}
	return evicted
}

// RunSweeper ticks the retention sweep until ctx is cancelled.
func (t *Tracker) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(t.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := t.Sweep(now); n > 0 {
				log.Debug().Int("evicted", n).Msg("swept finished optimization jobs")
			}
		}
	}
}
