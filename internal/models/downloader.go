package models

import "time"

// RunState is the archive pipeline state of a provider.
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunAborted   RunState = "aborted"
)

// DownloadRun records one bulk download of a collection.
type DownloadRun struct {
	ID         string     `json:"id"`
	Provider   string     `json:"provider"`
	State      RunState   `json:"state"`
	Total      int        `json:"total"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Artifact   string     `json:"artifact,omitempty"` // Name of the saved zip, empty unless completed
	Message    string     `json:"message,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
