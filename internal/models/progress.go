package models

type ProgressUpdate struct {
	JobID     string  `json:"jobId"`
	Provider  string  `json:"provider"`
	Message   string  `json:"message"`
	Progress  float64 `json:"progress"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Total     int     `json:"total"`
	Status    string  `json:"status"` // e.g. "running", "completed", "aborted"
	Done      bool    `json:"done"`
}
