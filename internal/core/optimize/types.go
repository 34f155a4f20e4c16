package optimize

import "time"

// JobState is a status tag, not a validated state machine. Callers may move a
// job between any two states; the UI only ever renders the latest one.
type JobState string

const (
	StateQueued          JobState = "queued"
	StateOptimizing      JobState = "optimizing"
	StateGeneratingTitle JobState = "generating-title"
	StateComplete        JobState = "complete"
	StateError           JobState = "error"
)

// Terminal reports whether the state makes the record eligible for retention
// eviction.
func (s JobState) Terminal() bool {
	return s == StateComplete || s == StateError
}

// JobRecord is the full tracked state of one optimization attempt. Records
// live in memory for the process lifetime only; a restart loses in-flight
// state, which is acceptable because optimization can simply be re-run.
type JobRecord struct {
	JobID     string
	Album     string
	Filename  string
	Progress  int
	State     JobState
	Error     string
	Title     string
	StartTime time.Time
}

// Update is a partial, field-level merge into a JobRecord. Zero-valued fields
// leave the record untouched; Progress is a pointer so an explicit 0 can be
// told apart from "not supplied".
type Update struct {
	Album    string
	Filename string
	Progress *int
	State    JobState
	Error    string
	Title    string
}

// Pct returns a pointer for Update.Progress.
func Pct(v int) *int {
	return &v
}

// Descriptor is one unit of queued optimization work. The callbacks belong to
// the enqueuing caller and are invoked from the worker goroutine as lifecycle
// events occur; they are not retained after the job finishes.
type Descriptor struct {
	JobID       string
	Album       string
	Filename    string
	ScriptPath  string
	ProjectRoot string

	OnProgress func(progress int)
	OnComplete func()
	OnError    func(message string)
}
