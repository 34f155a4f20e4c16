package event

import "time"

type EventType string

const (
	// Optimization job lifecycle
	EventJobQueued    EventType = "job.queued"
	EventJobStarted   EventType = "job.started"
	EventJobProgress  EventType = "job.progress"
	EventJobTitle     EventType = "job.title"
	EventJobCompleted EventType = "job.completed"
	EventJobFailed    EventType = "job.failed"

	// Gallery
	EventPhotoUploaded  EventType = "photo.uploaded"
	EventPhotoDeleted   EventType = "photo.deleted"
	EventAlbumReordered EventType = "album.reordered"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// JobEvent describes a state change of one optimization job.
type JobEvent struct {
	JobID    string
	Album    string
	Filename string
	State    string
	Progress int
	Title    string
	Error    string
}

type PhotoEvent struct {
	PhotoID  string
	Album    string
	Filename string
}

type ReorderEvent struct {
	AlbumID string
	Count   int
}
